package services

import (
	"context"
	"testing"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinnerService_DeclareOverwritesPosition(t *testing.T) {
	store := repositories.NewMemoryStore(nil)
	svc := NewWinnerService(store.Winners(), store.Players(), discardLogger())
	ctx := context.Background()
	first := seedPlayer(t, store, models.PlayerStatusApproved)
	second := seedPlayer(t, store, models.PlayerStatusApproved)

	w, err := svc.Declare(ctx, DeclareWinnerInput{Category: models.CategoryWomensSingles, PlayerID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PositionWinner, w.Position)
	require.NotNil(t, w.Player)
	assert.Equal(t, first.Name, w.Player.Name)

	_, err = svc.Declare(ctx, DeclareWinnerInput{Category: models.CategoryWomensSingles, Position: models.PositionWinner, PlayerID: second.ID})
	require.NoError(t, err)
	_, err = svc.Declare(ctx, DeclareWinnerInput{Category: models.CategoryWomensSingles, Position: models.PositionRunnerUp, PlayerID: first.ID})
	require.NoError(t, err)

	winners, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	byPosition := map[models.WinnerPosition]*models.TournamentWinner{}
	for _, w := range winners {
		byPosition[w.Position] = w
	}
	assert.Equal(t, second.ID, byPosition[models.PositionWinner].PlayerID)
	assert.Equal(t, first.ID, byPosition[models.PositionRunnerUp].PlayerID)
	require.NotNil(t, byPosition[models.PositionWinner].Player)

	require.NoError(t, svc.Remove(ctx, byPosition[models.PositionRunnerUp].ID))
	assert.ErrorIs(t, svc.Remove(ctx, byPosition[models.PositionRunnerUp].ID), ErrWinnerNotFound)
}

func TestWinnerService_DeclareValidation(t *testing.T) {
	store := repositories.NewMemoryStore(nil)
	svc := NewWinnerService(store.Winners(), store.Players(), discardLogger())
	p := seedPlayer(t, store, models.PlayerStatusApproved)
	partner := seedPlayer(t, store, models.PlayerStatusApproved)
	unknown := uuid.New()

	tests := []struct {
		name    string
		input   DeclareWinnerInput
		wantErr error
	}{
		{"unknown category", DeclareWinnerInput{Category: "Chess", PlayerID: p.ID}, ErrValidation},
		{"bad position", DeclareWinnerInput{Category: models.CategoryMensSingles, Position: "bronze", PlayerID: p.ID}, ErrInvalidWinnerPosition},
		{"missing player", DeclareWinnerInput{Category: models.CategoryMensSingles}, ErrValidation},
		{"unknown player", DeclareWinnerInput{Category: models.CategoryMensSingles, PlayerID: unknown}, ErrPlayerNotFound},
		{"partner equals player", DeclareWinnerInput{Category: models.CategoryMixedDoubles, PlayerID: p.ID, PartnerID: &p.ID}, ErrValidation},
		{"unknown partner", DeclareWinnerInput{Category: models.CategoryMixedDoubles, PlayerID: p.ID, PartnerID: &unknown}, ErrPlayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Declare(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("partner dropped for singles", func(t *testing.T) {
		w, err := svc.Declare(context.Background(), DeclareWinnerInput{Category: models.CategoryMensSingles, PlayerID: p.ID, PartnerID: &partner.ID})
		require.NoError(t, err)
		assert.Nil(t, w.PartnerID)
		assert.Nil(t, w.Partner)
	})

	t.Run("doubles keeps partner", func(t *testing.T) {
		w, err := svc.Declare(context.Background(), DeclareWinnerInput{Category: models.CategoryMixedDoubles, PlayerID: p.ID, PartnerID: &partner.ID})
		require.NoError(t, err)
		require.NotNil(t, w.Partner)
		assert.Equal(t, partner.Name, w.Partner.Name)
	})
}
