package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.MatchChange
}

func (p *recordingPublisher) Publish(change models.MatchChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *recordingPublisher) all() []models.MatchChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MatchChange(nil), p.changes...)
}

func fakePlayer(category models.Category) *models.Player {
	return &models.Player{
		Name:           gofakeit.Name(),
		EmployeeNumber: gofakeit.Numerify("EMP-#####"),
		Location:       gofakeit.City(),
		Designation:    "Engineer",
		Age:            gofakeit.Number(20, 60),
		Gender:         models.GenderMale,
		Categories:     []models.Category{category},
		Phone:          gofakeit.Phone(),
		Status:         models.PlayerStatusApproved,
	}
}

func seedLiveMatch(t *testing.T, store *MemoryStore) *models.Match {
	t.Helper()
	ctx := context.Background()
	a, b := fakePlayer(models.CategoryMensSingles), fakePlayer(models.CategoryMensSingles)
	require.NoError(t, store.Players().Create(ctx, a))
	require.NoError(t, store.Players().Create(ctx, b))

	m := &models.Match{
		PlayerAID:   a.ID,
		PlayerBID:   b.ID,
		Category:    models.CategoryMensSingles,
		Court:       "Court 1",
		ScheduledAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Matches().Create(ctx, m))
	started, err := store.Matches().Start(ctx, m.ID)
	require.NoError(t, err)
	return started
}

func TestMemoryStore_ConcurrentIncrementsBothApply(t *testing.T) {
	store := NewMemoryStore(nil)
	m := seedLiveMatch(t, store)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := store.Matches().AdjustScore(ctx, m.ID, models.SideA, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Matches().AdjustScore(ctx, m.ID, models.SideA, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.SetScores.Set1.A)
	assert.Equal(t, m.Version+12, got.Version)
}

func TestMemoryStore_ConditionFailedLeavesRowUntouched(t *testing.T) {
	store := NewMemoryStore(nil)
	m := seedLiveMatch(t, store)
	ctx := context.Background()

	_, err := store.Matches().AdjustScore(ctx, m.ID, models.SideB, -1)
	assert.ErrorIs(t, err, ErrMatchConditionFailed)

	got, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Version, got.Version)
	assert.Equal(t, models.SetScores{}, got.SetScores)

	_, err = store.Matches().Start(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMemoryStore_EndSetAutoComplete(t *testing.T) {
	tests := []struct {
		name         string
		autoComplete bool
		wantStatus   models.MatchStatus
		wantSet      int
	}{
		{"manual completion", false, models.MatchStatusLive, 3},
		{"strict best of three", true, models.MatchStatusCompleted, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore(nil)
			m := seedLiveMatch(t, store)
			ctx := context.Background()

			_, err := store.Matches().EndSet(ctx, m.ID, models.SideA, tt.autoComplete)
			require.NoError(t, err)
			got, err := store.Matches().EndSet(ctx, m.ID, models.SideA, tt.autoComplete)
			require.NoError(t, err)

			assert.Equal(t, 2, got.SetsWonA)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantSet, got.CurrentSet)
			if tt.autoComplete {
				require.NotNil(t, got.WinnerSide)
				assert.Equal(t, models.SideA, *got.WinnerSide)
			} else {
				assert.Nil(t, got.WinnerSide)
			}
		})
	}
}

func TestMemoryStore_PublishesChanges(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewMemoryStore(pub)
	m := seedLiveMatch(t, store)
	ctx := context.Background()

	cmdID := uuid.New()
	_, err := store.Matches().AdjustScore(models.WithCommandID(ctx, cmdID), m.ID, models.SideB, 1)
	require.NoError(t, err)
	require.NoError(t, store.Matches().Delete(ctx, m.ID))

	changes := pub.all()
	require.Len(t, changes, 4)
	assert.Equal(t, models.ChangeInsert, changes[0].EventType)
	assert.Equal(t, models.ChangeUpdate, changes[1].EventType)
	assert.Equal(t, models.ChangeUpdate, changes[2].EventType)
	assert.Equal(t, 1, changes[2].Fields.Set1B)
	assert.Equal(t, []uuid.UUID{cmdID}, changes[2].Fields.RecentCommands)
	assert.Equal(t, models.ChangeDelete, changes[3].EventType)
	for i := 1; i < 3; i++ {
		assert.Greater(t, changes[i].Version, changes[i-1].Version)
	}
}

func TestMemoryStore_PlayerConstraints(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	m := seedLiveMatch(t, store)

	dup := fakePlayer(models.CategoryMensSingles)
	a, err := store.Players().GetByID(ctx, m.PlayerAID)
	require.NoError(t, err)
	dup.EmployeeNumber = a.EmployeeNumber
	assert.ErrorIs(t, store.Players().Create(ctx, dup), ErrPlayerEmployeeNumberTaken)

	assert.ErrorIs(t, store.Players().Delete(ctx, m.PlayerAID), ErrPlayerReferenced)

	batch := []*models.Player{fakePlayer(models.CategoryMensSingles), fakePlayer(models.CategoryMensSingles)}
	batch[1].EmployeeNumber = batch[0].EmployeeNumber
	assert.ErrorIs(t, store.Players().CreateBatch(ctx, batch), ErrPlayerEmployeeNumberTaken)
	all, err := store.Players().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2, "a failed batch inserts nothing")
}

func TestMemoryStore_WinnerUpsertOverwrites(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	first, second := fakePlayer(models.CategoryWomensSingles), fakePlayer(models.CategoryWomensSingles)
	require.NoError(t, store.Players().Create(ctx, first))
	require.NoError(t, store.Players().Create(ctx, second))

	w := &models.TournamentWinner{PlayerID: first.ID, Category: models.CategoryWomensSingles, Position: models.PositionWinner}
	require.NoError(t, store.Winners().Upsert(ctx, w))
	again := &models.TournamentWinner{PlayerID: second.ID, Category: models.CategoryWomensSingles, Position: models.PositionWinner}
	require.NoError(t, store.Winners().Upsert(ctx, again))

	winners, err := store.Winners().List(ctx)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, w.ID, winners[0].ID)
	assert.Equal(t, second.ID, winners[0].PlayerID)

	unknown := &models.TournamentWinner{PlayerID: uuid.New(), Category: models.CategoryMensSingles, Position: models.PositionWinner}
	assert.ErrorIs(t, store.Winners().Upsert(ctx, unknown), ErrWinnerPlayerInvalid)
}
