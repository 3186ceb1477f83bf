package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/lib/pq"
)

// ChannelMatchChanges is the NOTIFY channel of the matches trigger.
const ChannelMatchChanges = "match_changes"

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// PostgresSource forwards LISTEN/NOTIFY payloads of the matches trigger into a Sink.
type PostgresSource struct {
	dsn    string
	logger *slog.Logger
	// OnResync вызывается после переподключения: уведомления за время разрыва потеряны,
	// потребителям нужно перечитать данные целиком.
	OnResync func()
}

func NewPostgresSource(dsn string, logger *slog.Logger) *PostgresSource {
	return &PostgresSource{dsn: dsn, logger: logger}
}

// Run blocks until ctx is done or the listener cannot be set up.
func (s *PostgresSource) Run(ctx context.Context, sink Sink) error {
	listener := pq.NewListener(s.dsn, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				s.logger.Warn("change feed listener event", slog.Int("event", int(ev)), slog.Any("error", err))
			}
		})
	defer listener.Close()

	if err := listener.Listen(ChannelMatchChanges); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ChannelMatchChanges, err)
	}
	s.logger.Info("change feed listening", slog.String("channel", ChannelMatchChanges))

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// pq присылает nil после восстановления соединения.
				s.logger.Warn("change feed reconnected, requesting resync")
				if s.OnResync != nil {
					s.OnResync()
				}
				continue
			}
			change, err := DecodeChange([]byte(n.Extra))
			if err != nil {
				s.logger.Error("failed to decode change notification", slog.Any("error", err))
				continue
			}
			sink.Publish(change)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					s.logger.Warn("change feed ping failed", slog.Any("error", err))
				}
			}()
		}
	}
}

// DecodeChange parses a notification payload produced by notify_match_change().
func DecodeChange(payload []byte) (models.MatchChange, error) {
	var change models.MatchChange
	if err := json.Unmarshal(payload, &change); err != nil {
		return models.MatchChange{}, fmt.Errorf("invalid change payload: %w", err)
	}
	switch change.EventType {
	case models.ChangeInsert, models.ChangeUpdate:
		if change.Fields == nil {
			return models.MatchChange{}, fmt.Errorf("%s change for %s carries no row", change.EventType, change.MatchID)
		}
	case models.ChangeDelete:
	default:
		return models.MatchChange{}, fmt.Errorf("unknown change event type %q", change.EventType)
	}
	return change, nil
}
