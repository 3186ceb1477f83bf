package livecache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

// Dispatcher is the single consumer of the change feed for one Cache. For each change
// it decides between a direct patch and a refetch through the Fetcher.
type Dispatcher struct {
	cache   *Cache
	fetcher Fetcher
	changes <-chan models.MatchChange
	resync  chan struct{}
	logger  *slog.Logger

	// OnUpdate, если задан, вызывается после каждого изменения кэша (из горутины Run).
	OnUpdate func(id uuid.UUID, outcome Outcome)
}

func NewDispatcher(cache *Cache, fetcher Fetcher, changes <-chan models.MatchChange, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cache:   cache,
		fetcher: fetcher,
		changes: changes,
		resync:  make(chan struct{}, 1),
		logger:  logger,
	}
}

// RequestResync asks Run for a full refetch, e.g. after the feed reconnected.
// Safe to call from any goroutine; repeated requests coalesce.
func (d *Dispatcher) RequestResync() {
	select {
	case d.resync <- struct{}{}:
	default:
	}
}

// Run loads the initial snapshot and then processes changes until ctx is done or the
// change channel is closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.Refresh(ctx); err != nil {
		d.logger.Error("initial scoreboard load failed, waiting for resync", slog.Any("error", err))
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.resync:
			if err := d.Refresh(ctx); err != nil {
				d.logger.Error("scoreboard resync failed", slog.Any("error", err))
			}
		case change, ok := <-d.changes:
			if !ok {
				return nil
			}
			d.Handle(ctx, change)
		}
	}
}

func (d *Dispatcher) Refresh(ctx context.Context) error {
	matches, err := d.fetcher.FetchMatches(ctx)
	if err != nil {
		return err
	}
	d.cache.Replace(matches)
	d.logger.Info("scoreboard refreshed", slog.Int("matches", len(matches)))
	if d.OnUpdate != nil {
		d.OnUpdate(uuid.Nil, OutcomeApplied)
	}
	return nil
}

// Handle processes one change synchronously.
func (d *Dispatcher) Handle(ctx context.Context, change models.MatchChange) {
	var outcome Outcome
	if change.EventType == models.ChangeInsert {
		outcome = OutcomeUnknown
	} else {
		outcome = d.cache.ApplyChange(change)
	}

	if outcome == OutcomeUnknown || outcome == OutcomeRefetch {
		outcome = d.refetch(ctx, change.MatchID)
	}
	if outcome == OutcomeStale {
		d.logger.Debug("change discarded",
			slog.String("match_id", change.MatchID.String()),
			slog.Int64("version", change.Version))
		return
	}

	if d.OnUpdate != nil {
		d.OnUpdate(change.MatchID, outcome)
	}
}

func (d *Dispatcher) refetch(ctx context.Context, id uuid.UUID) Outcome {
	m, err := d.fetcher.FetchMatch(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			d.cache.Remove(id)
			return OutcomeRemoved
		}
		d.logger.Error("match refetch failed", slog.String("match_id", id.String()), slog.Any("error", err))
		d.RequestResync()
		return OutcomeStale
	}
	return d.cache.Upsert(m)
}
