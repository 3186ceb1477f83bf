package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

// ChangePublisher receives every committed match change of the memory store.
// In Postgres mode the trigger + LISTEN/NOTIFY plays this role.
type ChangePublisher interface {
	Publish(change models.MatchChange)
}

// MemoryStore - хранилище в памяти для разработки и тестов. Одна блокировка на все
// таблицы: условные мутации проверяют предикат и пишут под одним Lock, как UPDATE … WHERE.
type MemoryStore struct {
	mu        sync.RWMutex
	matches   map[uuid.UUID]*models.Match
	players   map[uuid.UUID]*models.Player
	winners   map[uuid.UUID]*models.TournamentWinner
	publisher ChangePublisher
	now       func() time.Time
}

func NewMemoryStore(publisher ChangePublisher) *MemoryStore {
	return &MemoryStore{
		matches:   make(map[uuid.UUID]*models.Match),
		players:   make(map[uuid.UUID]*models.Player),
		winners:   make(map[uuid.UUID]*models.TournamentWinner),
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Matches() MatchRepository { return (*memoryMatchRepository)(s) }
func (s *MemoryStore) Players() PlayerRepository { return (*memoryPlayerRepository)(s) }
func (s *MemoryStore) Winners() WinnerRepository { return (*memoryWinnerRepository)(s) }

// publish must be called after the lock is released; consumers gate on Version.
func (s *MemoryStore) publish(event models.ChangeEventType, m *models.Match) {
	if s.publisher == nil || m == nil {
		return
	}
	s.publisher.Publish(models.MatchChange{
		EventType: event,
		MatchID:   m.ID,
		Version:   m.Version,
		Fields:    models.RowFromMatch(m),
	})
}

func storedMatch(m *models.Match) *models.Match {
	c := m.Clone()
	c.PlayerA, c.PlayerA2, c.PlayerB, c.PlayerB2, c.Winner = nil, nil, nil, nil, nil
	return c
}

func copyPlayer(p *models.Player) *models.Player {
	c := *p
	c.Categories = append([]models.Category(nil), p.Categories...)
	return &c
}

func copyWinner(w *models.TournamentWinner) *models.TournamentWinner {
	c := *w
	c.PartnerID = copyUUIDPtr(w.PartnerID)
	c.Player, c.Partner = nil, nil
	return &c
}

func copyUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// ---------------- matches ----------------

type memoryMatchRepository MemoryStore

func (r *memoryMatchRepository) store() *MemoryStore { return (*MemoryStore)(r) }

func (r *memoryMatchRepository) Create(_ context.Context, match *models.Match) error {
	s := r.store()
	s.mu.Lock()
	for _, id := range match.PlayerIDs() {
		if _, ok := s.players[id]; !ok {
			s.mu.Unlock()
			return ErrMatchPlayerInvalid
		}
	}
	now := s.now()
	m := storedMatch(match)
	m.ID = uuid.New()
	m.Status = models.MatchStatusUpcoming
	m.SetScores = models.SetScores{}
	m.CurrentSet = 1
	m.SetsWonA, m.SetsWonB = 0, 0
	m.WinnerSide = nil
	m.RecentCommands = nil
	m.Version = 1
	m.CreatedAt, m.UpdatedAt = now, now
	s.matches[m.ID] = m
	created := m.Clone()
	s.mu.Unlock()

	*match = *created
	s.publish(models.ChangeInsert, created)
	return nil
}

func (r *memoryMatchRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *memoryMatchRepository) List(_ context.Context, filter MatchFilter) ([]*models.Match, error) {
	s := r.store()
	s.mu.RLock()
	result := make([]*models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && m.Category != *filter.Category {
			continue
		}
		result = append(result, m.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScheduledAt.Equal(result[j].ScheduledAt) {
			return result[i].ScheduledAt.Before(result[j].ScheduledAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *memoryMatchRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.store()
	s.mu.Lock()
	m, ok := s.matches[id]
	if !ok {
		s.mu.Unlock()
		return ErrMatchNotFound
	}
	delete(s.matches, id)
	s.mu.Unlock()

	s.publish(models.ChangeDelete, m)
	return nil
}

// mutate applies fn to the stored match under the write lock. A failed fn leaves the
// row untouched and reports ErrMatchConditionFailed, like a zero-row UPDATE. The command
// id carried by ctx is recorded in the same write.
func (r *memoryMatchRepository) mutate(ctx context.Context, id uuid.UUID, fn func(m *models.Match) error) (*models.Match, error) {
	s := r.store()
	s.mu.Lock()
	stored, ok := s.matches[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrMatchNotFound
	}
	next := stored.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return nil, ErrMatchConditionFailed
	}
	next.RecordCommand(models.CommandIDFromContext(ctx))
	next.Version = stored.Version + 1
	next.UpdatedAt = s.now()
	s.matches[id] = next
	updated := next.Clone()
	s.mu.Unlock()

	s.publish(models.ChangeUpdate, updated)
	return updated, nil
}

func (r *memoryMatchRepository) Start(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return r.mutate(ctx, id, func(m *models.Match) error { return m.Start() })
}

func (r *memoryMatchRepository) AdjustScore(ctx context.Context, id uuid.UUID, side models.Side, delta int) (*models.Match, error) {
	if !side.IsValid() {
		return nil, models.ErrInvalidSide
	}
	return r.mutate(ctx, id, func(m *models.Match) error { return m.AdjustScore(side, delta) })
}

func (r *memoryMatchRepository) EndSet(ctx context.Context, id uuid.UUID, side models.Side, autoComplete bool) (*models.Match, error) {
	if !side.IsValid() {
		return nil, models.ErrInvalidSide
	}
	return r.mutate(ctx, id, func(m *models.Match) error {
		if err := m.CheckEndSet(side); err != nil {
			return err
		}
		if autoComplete && m.SetsWon(side)+1 >= models.MaxSets/2+1 {
			// Решающий сет: счётчик сетов растёт, current_set остаётся на месте.
			if side == models.SideA {
				m.SetsWonA++
			} else {
				m.SetsWonB++
			}
			return m.Complete(side)
		}
		return m.EndSet(side)
	})
}

func (r *memoryMatchRepository) Complete(ctx context.Context, id uuid.UUID, winner models.Side) (*models.Match, error) {
	if !winner.IsValid() {
		return nil, models.ErrInvalidSide
	}
	return r.mutate(ctx, id, func(m *models.Match) error { return m.Complete(winner) })
}

func (r *memoryMatchRepository) HasCompletedForPlayer(_ context.Context, playerID uuid.UUID) (bool, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerInCompletedMatch(playerID), nil
}

func (s *MemoryStore) playerInCompletedMatch(playerID uuid.UUID) bool {
	for _, m := range s.matches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		for _, id := range m.PlayerIDs() {
			if id == playerID {
				return true
			}
		}
	}
	return false
}

// ---------------- players ----------------

type memoryPlayerRepository MemoryStore

func (r *memoryPlayerRepository) store() *MemoryStore { return (*MemoryStore)(r) }

func (s *MemoryStore) employeeNumberTaken(number string, except uuid.UUID) bool {
	for _, p := range s.players {
		if p.ID != except && p.EmployeeNumber == number {
			return true
		}
	}
	return false
}

func (s *MemoryStore) insertPlayerLocked(p *models.Player) {
	now := s.now()
	stored := copyPlayer(p)
	stored.ID = uuid.New()
	stored.RegisteredAt, stored.UpdatedAt = now, now
	s.players[stored.ID] = stored
	*p = *copyPlayer(stored)
}

func (r *memoryPlayerRepository) Create(_ context.Context, p *models.Player) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.employeeNumberTaken(p.EmployeeNumber, uuid.Nil) {
		return ErrPlayerEmployeeNumberTaken
	}
	s.insertPlayerLocked(p)
	return nil
}

func (r *memoryPlayerRepository) CreateBatch(_ context.Context, players []*models.Player) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if seen[p.EmployeeNumber] || s.employeeNumberTaken(p.EmployeeNumber, uuid.Nil) {
			return ErrPlayerEmployeeNumberTaken
		}
		seen[p.EmployeeNumber] = true
	}
	for _, p := range players {
		s.insertPlayerLocked(p)
	}
	return nil
}

func (r *memoryPlayerRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Player, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

func (r *memoryPlayerRepository) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Player, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[uuid.UUID]*models.Player, len(ids))
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			result[id] = copyPlayer(p)
		}
	}
	return result, nil
}

func (r *memoryPlayerRepository) List(_ context.Context, status *models.PlayerStatus) ([]*models.Player, error) {
	s := r.store()
	s.mu.RLock()
	result := make([]*models.Player, 0, len(s.players))
	for _, p := range s.players {
		if status != nil && p.Status != *status {
			continue
		}
		result = append(result, copyPlayer(p))
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].RegisteredAt.After(result[j].RegisteredAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *memoryPlayerRepository) Update(_ context.Context, p *models.Player) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.players[p.ID]
	if !ok {
		return ErrPlayerNotFound
	}
	if s.employeeNumberTaken(p.EmployeeNumber, p.ID) {
		return ErrPlayerEmployeeNumberTaken
	}
	next := copyPlayer(p)
	next.Status = stored.Status
	next.PhotoURL = stored.PhotoURL
	next.RegisteredAt = stored.RegisteredAt
	next.UpdatedAt = s.now()
	s.players[p.ID] = next
	*p = *copyPlayer(next)
	return nil
}

func (r *memoryPlayerRepository) UpdateStatus(_ context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	next := copyPlayer(stored)
	next.Status = status
	next.UpdatedAt = s.now()
	s.players[id] = next
	return copyPlayer(next), nil
}

func (r *memoryPlayerRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return ErrPlayerNotFound
	}
	// ON DELETE RESTRICT
	for _, m := range s.matches {
		for _, pid := range m.PlayerIDs() {
			if pid == id {
				return ErrPlayerReferenced
			}
		}
	}
	for _, w := range s.winners {
		if w.PlayerID == id || (w.PartnerID != nil && *w.PartnerID == id) {
			return ErrPlayerReferenced
		}
	}
	delete(s.players, id)
	return nil
}

// ---------------- winners ----------------

type memoryWinnerRepository MemoryStore

func (r *memoryWinnerRepository) store() *MemoryStore { return (*MemoryStore)(r) }

func (r *memoryWinnerRepository) Upsert(_ context.Context, w *models.TournamentWinner) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[w.PlayerID]; !ok {
		return ErrWinnerPlayerInvalid
	}
	if w.PartnerID != nil {
		if _, ok := s.players[*w.PartnerID]; !ok {
			return ErrWinnerPlayerInvalid
		}
	}

	next := copyWinner(w)
	next.AwardedAt = s.now()
	next.ID = uuid.New()
	for id, existing := range s.winners {
		if existing.Category == w.Category && existing.Position == w.Position {
			next.ID = id
			break
		}
	}
	s.winners[next.ID] = next
	*w = *copyWinner(next)
	return nil
}

func (r *memoryWinnerRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.winners[id]; !ok {
		return ErrWinnerNotFound
	}
	delete(s.winners, id)
	return nil
}

func (r *memoryWinnerRepository) List(_ context.Context) ([]*models.TournamentWinner, error) {
	s := r.store()
	s.mu.RLock()
	result := make([]*models.TournamentWinner, 0, len(s.winners))
	for _, w := range s.winners {
		result = append(result, copyWinner(w))
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Position > result[j].Position
	})
	return result, nil
}
