package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-scoreboard/metrics"
	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultCourt = "Court 1"

// ScoringService - контроллер счёта. Каждая команда сначала проверяет предусловие на
// загруженном матче, затем применяет одно атомарное условное изменение в хранилище.
type ScoringService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error)
	DeleteMatch(ctx context.Context, id uuid.UUID) error

	StartMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	IncrementScore(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error)
	DecrementScore(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error)
	EndSet(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error)
	CompleteMatch(ctx context.Context, id uuid.UUID, winner models.Side) (*models.Match, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) (*models.Match, error)
}

type CreateMatchInput struct {
	PlayerAID   uuid.UUID       `json:"player_a_id"`
	PlayerA2ID  *uuid.UUID      `json:"player_a2_id,omitempty"`
	PlayerBID   uuid.UUID       `json:"player_b_id"`
	PlayerB2ID  *uuid.UUID      `json:"player_b2_id,omitempty"`
	Category    models.Category `json:"category"`
	Court       string          `json:"court"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

type ScoringConfig struct {
	// StrictBestOfThree завершает матч, как только сторона выигрывает второй сет.
	StrictBestOfThree bool
}

type scoringService struct {
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	cfg        ScoringConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewScoringService(
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	cfg ScoringConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) ScoringService {
	return &scoringService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

func (s *scoringService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	match := &models.Match{
		ID:         uuid.New(),
		PlayerAID:  input.PlayerAID,
		PlayerA2ID: input.PlayerA2ID,
		PlayerBID:  input.PlayerBID,
		PlayerB2ID: input.PlayerB2ID,
		Category:   input.Category,
		Court:      strings.TrimSpace(input.Court),
		Status:     models.MatchStatusUpcoming,
		CurrentSet: 1,
	}
	if match.Court == "" {
		match.Court = defaultCourt
	}
	if input.ScheduledAt != nil {
		match.ScheduledAt = input.ScheduledAt.UTC()
	} else {
		match.ScheduledAt = time.Now().UTC()
	}
	if err := match.ValidateParticipants(); err != nil {
		return nil, validationError(err)
	}

	players, err := s.playerRepo.GetByIDs(ctx, match.PlayerIDs())
	if err != nil {
		return nil, mapPlayerStoreError("load match players", err)
	}
	for _, id := range match.PlayerIDs() {
		p, ok := players[id]
		if !ok {
			return nil, fmt.Errorf("%w: player %s does not exist", ErrMatchPlayerIneligible, id)
		}
		if p.Status != models.PlayerStatusApproved {
			return nil, fmt.Errorf("%w: player %s is %s", ErrMatchPlayerIneligible, p.Name, p.Status)
		}
	}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, mapMatchStoreError("create match", err)
	}
	attachPlayers(match, players)

	s.logger.InfoContext(ctx, "match created",
		slog.String("match_id", match.ID.String()),
		slog.String("category", string(match.Category)),
		slog.String("court", match.Court))
	return match, nil
}

func (s *scoringService) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchStoreError("get match", err)
	}
	s.joinPlayers(ctx, match)
	return match, nil
}

// ListMatches loads matches and players concurrently and joins them in memory.
func (s *scoringService) ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error) {
	var (
		matches []*models.Match
		players []*models.Player
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gctx, filter)
		return mapMatchStoreError("list matches", err)
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.List(gctx, nil)
		return mapPlayerStoreError("list players", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for _, m := range matches {
		attachPlayers(m, byID)
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}

func (s *scoringService) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		return mapMatchStoreError("delete match", err)
	}
	s.logger.InfoContext(ctx, "match deleted", slog.String("match_id", id.String()))
	return nil
}

func (s *scoringService) StartMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return s.command(ctx, "start", id,
		func(m *models.Match) error { return m.CheckStart() },
		func() (*models.Match, error) { return s.matchRepo.Start(ctx, id) })
}

func (s *scoringService) IncrementScore(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error) {
	return s.adjust(ctx, "increment", id, side, 1)
}

func (s *scoringService) DecrementScore(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error) {
	return s.adjust(ctx, "decrement", id, side, -1)
}

func (s *scoringService) adjust(ctx context.Context, name string, id uuid.UUID, side models.Side, delta int) (*models.Match, error) {
	return s.command(ctx, name, id,
		func(m *models.Match) error { return m.CheckAdjustScore(side, delta) },
		func() (*models.Match, error) { return s.matchRepo.AdjustScore(ctx, id, side, delta) })
}

func (s *scoringService) EndSet(ctx context.Context, id uuid.UUID, side models.Side) (*models.Match, error) {
	return s.command(ctx, "end_set", id,
		func(m *models.Match) error { return m.CheckEndSet(side) },
		func() (*models.Match, error) { return s.matchRepo.EndSet(ctx, id, side, s.cfg.StrictBestOfThree) })
}

func (s *scoringService) CompleteMatch(ctx context.Context, id uuid.UUID, winner models.Side) (*models.Match, error) {
	return s.command(ctx, "complete", id,
		func(m *models.Match) error { return m.CheckComplete(winner) },
		func() (*models.Match, error) { return s.matchRepo.Complete(ctx, id, winner) })
}

// SetStatus обходит кнопки табло. Единственный переход без победителя - UPCOMING -> LIVE.
func (s *scoringService) SetStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) (*models.Match, error) {
	return s.command(ctx, "set_status", id,
		func(m *models.Match) error { return m.CheckSetStatus(status) },
		func() (*models.Match, error) { return s.matchRepo.Start(ctx, id) })
}

// command runs the load, check, apply sequence shared by all scoring commands.
func (s *scoringService) command(
	ctx context.Context,
	name string,
	id uuid.UUID,
	check func(*models.Match) error,
	apply func() (*models.Match, error),
) (match *models.Match, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveCommand(name, outcomeLabel(err), time.Since(started))
		if err != nil && !errors.Is(err, ErrValidation) {
			s.logger.WarnContext(ctx, "scoring command failed",
				slog.String("command", name),
				slog.String("match_id", id.String()),
				slog.Any("error", err))
		}
	}()

	current, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchStoreError("load match", err)
	}
	if err := check(current); err != nil {
		return nil, validationError(err)
	}

	updated, err := apply()
	if err != nil {
		return nil, mapMatchStoreError(name, err)
	}
	s.joinPlayers(ctx, updated)

	s.logger.InfoContext(ctx, "scoring command applied",
		slog.String("command", name),
		slog.String("match_id", id.String()),
		slog.Int64("version", updated.Version),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// joinPlayers is best effort: a match without joined players is still a valid answer.
func (s *scoringService) joinPlayers(ctx context.Context, m *models.Match) {
	players, err := s.playerRepo.GetByIDs(ctx, m.PlayerIDs())
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load match players",
			slog.String("match_id", m.ID.String()), slog.Any("error", err))
		return
	}
	attachPlayers(m, players)
}

func attachPlayers(m *models.Match, players map[uuid.UUID]*models.Player) {
	m.PlayerA = players[m.PlayerAID]
	m.PlayerB = players[m.PlayerBID]
	if m.PlayerA2ID != nil {
		m.PlayerA2 = players[*m.PlayerA2ID]
	}
	if m.PlayerB2ID != nil {
		m.PlayerB2 = players[*m.PlayerB2ID]
	}
	m.ResolveWinner()
}
