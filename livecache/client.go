package livecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

// DefaultCommandTimeout bounds a command round trip when the caller sets none.
const DefaultCommandTimeout = 5 * time.Second

// Transport sends a command to the scoring controller and returns the match as it is
// after the command. Errors should wrap one of ErrRejected, ErrConflict, ErrNotFound
// or ErrTransport.
type Transport interface {
	Send(ctx context.Context, cmd Command) (*models.Match, error)
}

// Fetcher loads authoritative state for refetches.
type Fetcher interface {
	FetchMatches(ctx context.Context) ([]*models.Match, error)
	FetchMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
}

// Client executes commands optimistically against a Cache.
type Client struct {
	cache     *Cache
	transport Transport
	timeout   time.Duration
	logger    *slog.Logger
}

func NewClient(cache *Cache, transport Transport, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Client{cache: cache, transport: transport, timeout: timeout, logger: logger}
}

// Execute shows cmd in the cache at once, sends it and reconciles with the answer.
// On any failure the optimistic change is rolled back before Execute returns, so the
// view never keeps an unconfirmed command. The returned match is the displayed view.
func (c *Client) Execute(ctx context.Context, cmd Command) (*models.Match, error) {
	if err := c.cache.applyOptimistic(cmd); err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.transport.Send(sendCtx, cmd)
	if err == nil && result == nil {
		err = errors.New("empty command result")
	}
	if err != nil {
		c.cache.rollback(cmd.ID, cmd.MatchID)
		if sendCtx.Err() != nil && !classified(err) {
			err = fmt.Errorf("%w: no answer within %v: %w", ErrTransport, c.timeout, err)
		}
		err = classify(err)
		c.logger.Warn("command rolled back",
			slog.String("kind", string(cmd.Kind)),
			slog.String("match_id", cmd.MatchID.String()),
			slog.Any("error", err))
		return nil, err
	}

	c.cache.confirm(cmd.ID, result)
	view, ok := c.cache.Get(cmd.MatchID)
	if !ok {
		// Матч удалён, пока команда была в полёте.
		return result, nil
	}
	return view, nil
}
