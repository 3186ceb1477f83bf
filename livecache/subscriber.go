package livecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/gorilla/websocket"
)

const (
	subscriberMinBackoff = 500 * time.Millisecond
	subscriberMaxBackoff = 15 * time.Second
)

// Subscriber is the websocket client of the scoreboard hub. Snapshots go straight into
// the cache, change events into the dispatcher channel and viewer counts into Viewers.
type Subscriber struct {
	url     string
	header  http.Header
	dialer  *websocket.Dialer
	cache   *Cache
	changes chan<- models.MatchChange
	viewers atomic.Int64
	logger  *slog.Logger
}

func NewSubscriber(url string, header http.Header, cache *Cache, changes chan<- models.MatchChange, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		url:     url,
		header:  header,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		cache:   cache,
		changes: changes,
		logger:  logger,
	}
}

// Viewers is the last presence count announced by the hub.
func (s *Subscriber) Viewers() int {
	return int(s.viewers.Load())
}

// Run keeps a connection open until ctx is done, reconnecting with exponential
// backoff. Each new connection starts with a server snapshot, so nothing missed
// while disconnected survives a reconnect.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := subscriberMinBackoff
	for {
		started := time.Now()
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > subscriberMaxBackoff {
			backoff = subscriberMinBackoff
		}
		s.logger.Warn("scoreboard connection lost, reconnecting",
			slog.Any("error", err), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > subscriberMaxBackoff {
			backoff = subscriberMaxBackoff
		}
	}
}

func (s *Subscriber) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	// Закрываем соединение при отмене контекста, чтобы разблокировать ReadMessage.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := s.handle(ctx, data); err != nil {
			s.logger.Error("invalid scoreboard message", slog.Any("error", err))
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, data []byte) error {
	var msg models.RawScoreboardMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	switch msg.Type {
	case models.MessageSnapshot:
		var matches []*models.Match
		if err := json.Unmarshal(msg.Payload, &matches); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		s.cache.Replace(matches)
	case models.MessageMatchChange:
		var change models.MatchChange
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			return fmt.Errorf("decode change: %w", err)
		}
		select {
		case s.changes <- change:
		case <-ctx.Done():
		}
	case models.MessageViewers:
		var count models.ViewerCount
		if err := json.Unmarshal(msg.Payload, &count); err != nil {
			return fmt.Errorf("decode viewers: %w", err)
		}
		s.viewers.Store(int64(count.Count))
	default:
		s.logger.Debug("ignoring scoreboard message", slog.String("type", msg.Type))
	}
	return nil
}
