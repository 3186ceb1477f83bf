package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/google/uuid"
)

type WinnerService interface {
	Declare(ctx context.Context, input DeclareWinnerInput) (*models.TournamentWinner, error)
	Remove(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.TournamentWinner, error)
}

type DeclareWinnerInput struct {
	Category  models.Category       `json:"category"`
	Position  models.WinnerPosition `json:"position"`
	PlayerID  uuid.UUID             `json:"player_id"`
	PartnerID *uuid.UUID            `json:"partner_id,omitempty"`
}

type winnerService struct {
	winnerRepo repositories.WinnerRepository
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewWinnerService(winnerRepo repositories.WinnerRepository, playerRepo repositories.PlayerRepository, logger *slog.Logger) WinnerService {
	return &winnerService{winnerRepo: winnerRepo, playerRepo: playerRepo, logger: logger}
}

// Declare records the champion of a category. Re-declaring the same (category,
// position) overwrites the previous record.
func (s *winnerService) Declare(ctx context.Context, input DeclareWinnerInput) (*models.TournamentWinner, error) {
	if !input.Category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}
	if input.Position == "" {
		input.Position = models.PositionWinner
	}
	if !input.Position.IsValid() {
		return nil, ErrInvalidWinnerPosition
	}
	if input.PlayerID == uuid.Nil {
		return nil, fmt.Errorf("%w: player_id is required", ErrValidation)
	}
	// Напарник имеет смысл только в парных категориях.
	if !input.Category.IsDoubles() {
		input.PartnerID = nil
	}
	if input.PartnerID != nil && *input.PartnerID == input.PlayerID {
		return nil, fmt.Errorf("%w: partner must differ from the player", ErrValidation)
	}

	ids := []uuid.UUID{input.PlayerID}
	if input.PartnerID != nil {
		ids = append(ids, *input.PartnerID)
	}
	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, mapPlayerStoreError("load winner players", err)
	}
	for _, id := range ids {
		if _, ok := players[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
	}

	w := &models.TournamentWinner{
		ID:        uuid.New(),
		PlayerID:  input.PlayerID,
		PartnerID: input.PartnerID,
		Category:  input.Category,
		Position:  input.Position,
		AwardedAt: time.Now().UTC(),
	}
	if err := s.winnerRepo.Upsert(ctx, w); err != nil {
		return nil, mapWinnerStoreError("declare winner", err)
	}
	w.Player = players[w.PlayerID]
	if w.PartnerID != nil {
		w.Partner = players[*w.PartnerID]
	}

	s.logger.InfoContext(ctx, "tournament winner declared",
		slog.String("category", string(w.Category)),
		slog.String("position", string(w.Position)),
		slog.String("player_id", w.PlayerID.String()))
	return w, nil
}

func (s *winnerService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.winnerRepo.Delete(ctx, id); err != nil {
		return mapWinnerStoreError("remove winner", err)
	}
	return nil
}

func (s *winnerService) List(ctx context.Context) ([]*models.TournamentWinner, error) {
	winners, err := s.winnerRepo.List(ctx)
	if err != nil {
		return nil, mapWinnerStoreError("list winners", err)
	}
	if len(winners) == 0 {
		return []*models.TournamentWinner{}, nil
	}

	var ids []uuid.UUID
	for _, w := range winners {
		ids = append(ids, w.PlayerID)
		if w.PartnerID != nil {
			ids = append(ids, *w.PartnerID)
		}
	}
	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, mapPlayerStoreError("load winner players", err)
	}
	for _, w := range winners {
		w.Player = players[w.PlayerID]
		if w.PartnerID != nil {
			w.Partner = players[*w.PartnerID]
		}
	}
	return winners, nil
}
