package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/nats-io/nats.go"
)

const (
	subjectPrefix = "scoreboard.matches."
	// SubjectAll matches the change subject of every match.
	SubjectAll = subjectPrefix + ">"
)

func Subject(matchID fmt.Stringer) string {
	return subjectPrefix + matchID.String()
}

func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("tournament-scoreboard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSRelay publishes changes to scoreboard.matches.<id> so API instances share one feed.
type NATSRelay struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSRelay(conn *nats.Conn, logger *slog.Logger) *NATSRelay {
	return &NATSRelay{conn: conn, logger: logger}
}

func (r *NATSRelay) Publish(change models.MatchChange) {
	data, err := json.Marshal(change)
	if err != nil {
		r.logger.Error("failed to encode change for nats", slog.Any("error", err))
		return
	}
	if err := r.conn.Publish(Subject(change.MatchID), data); err != nil {
		r.logger.Error("failed to publish change to nats",
			slog.String("match_id", change.MatchID.String()), slog.Any("error", err))
	}
}

// NATSSource consumes scoreboard.matches.> into a Sink.
type NATSSource struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSSource(conn *nats.Conn, logger *slog.Logger) *NATSSource {
	return &NATSSource{conn: conn, logger: logger}
}

func (s *NATSSource) Run(ctx context.Context, sink Sink) error {
	sub, err := s.conn.Subscribe(SubjectAll, func(msg *nats.Msg) {
		change, err := DecodeChange(msg.Data)
		if err != nil {
			s.logger.Error("failed to decode nats change", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		sink.Publish(change)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectAll, err)
	}
	s.logger.Info("change feed subscribed to nats", slog.String("subject", SubjectAll))

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		s.logger.Warn("failed to unsubscribe from nats", slog.Any("error", err))
	}
	return nil
}
