package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-scoreboard/livecache"
	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/google/uuid"
)

// CacheFetcher serves the server-side scoreboard cache straight from the scoring
// service, so refetches skip the HTTP round trip.
type CacheFetcher struct {
	Scoring ScoringService
}

var _ livecache.Fetcher = CacheFetcher{}

func (f CacheFetcher) FetchMatches(ctx context.Context) ([]*models.Match, error) {
	matches, err := f.Scoring.ListMatches(ctx, repositories.MatchFilter{})
	if err != nil {
		return nil, cacheError(err)
	}
	return matches, nil
}

func (f CacheFetcher) FetchMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, err := f.Scoring.GetMatch(ctx, id)
	if err != nil {
		return nil, cacheError(err)
	}
	return match, nil
}

func cacheError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", livecache.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", livecache.ErrTransport, err)
}
