package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusUpcoming  MatchStatus = "UPCOMING"
	MatchStatusLive      MatchStatus = "LIVE"
	MatchStatusCompleted MatchStatus = "COMPLETED"
)

// Side - одна из двух сторон матча.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) IsValid() bool {
	return s == SideA || s == SideB
}

func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// MaxSets caps a match at best-of-3; there is no fourth set slot.
const MaxSets = 3

type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (s SetScore) Get(side Side) int {
	if side == SideA {
		return s.A
	}
	return s.B
}

func (s *SetScore) set(side Side, value int) {
	if side == SideA {
		s.A = value
	} else {
		s.B = value
	}
}

type SetScores struct {
	Set1 SetScore `json:"set1"`
	Set2 SetScore `json:"set2"`
	Set3 SetScore `json:"set3"`
}

// Set returns the score of set n (1-based). Out-of-range n yields a zero score.
func (s SetScores) Set(n int) SetScore {
	if p := s.slot(n); p != nil {
		return *p
	}
	return SetScore{}
}

func (s *SetScores) slot(n int) *SetScore {
	switch n {
	case 1:
		return &s.Set1
	case 2:
		return &s.Set2
	case 3:
		return &s.Set3
	}
	return nil
}

type Match struct {
	ID          uuid.UUID   `json:"id"`
	PlayerAID   uuid.UUID   `json:"player_a_id"`
	PlayerA2ID  *uuid.UUID  `json:"player_a2_id,omitempty"`
	PlayerBID   uuid.UUID   `json:"player_b_id"`
	PlayerB2ID  *uuid.UUID  `json:"player_b2_id,omitempty"`
	Category    Category    `json:"category"`
	Court       string      `json:"court"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	Status      MatchStatus `json:"status"`
	SetScores   SetScores   `json:"set_scores"`
	CurrentSet  int         `json:"current_set"`
	SetsWonA    int         `json:"sets_won_a"`
	SetsWonB    int         `json:"sets_won_b"`
	WinnerSide  *Side       `json:"winner_side,omitempty"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// RecentCommands - id последних применённых команд судьи, новые первыми.
	RecentCommands []uuid.UUID `json:"recent_commands,omitempty"`

	// Связанные игроки (join, не хранятся в строке матча)
	PlayerA  *Player `json:"player_a,omitempty"`
	PlayerA2 *Player `json:"player_a2,omitempty"`
	PlayerB  *Player `json:"player_b,omitempty"`
	PlayerB2 *Player `json:"player_b2,omitempty"`
	Winner   *Player `json:"winner,omitempty"`
}

// Clone returns a deep copy; joined players are shared since they are treated as read-only.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	if m.PlayerA2ID != nil {
		id := *m.PlayerA2ID
		c.PlayerA2ID = &id
	}
	if m.PlayerB2ID != nil {
		id := *m.PlayerB2ID
		c.PlayerB2ID = &id
	}
	if m.WinnerSide != nil {
		side := *m.WinnerSide
		c.WinnerSide = &side
	}
	c.RecentCommands = copyCommands(m.RecentCommands)
	return &c
}

// RecentCommandsKept bounds RecentCommands; older ids fall off the end.
const RecentCommandsKept = 16

// RecordCommand notes that the command id has been applied to the row. A nil id is
// ignored.
func (m *Match) RecordCommand(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	next := make([]uuid.UUID, 0, RecentCommandsKept)
	next = append(next, id)
	for _, prev := range m.RecentCommands {
		if len(next) == RecentCommandsKept {
			break
		}
		if prev != id {
			next = append(next, prev)
		}
	}
	m.RecentCommands = next
}

// HasCommand reports whether the row already includes the effect of command id.
func (m *Match) HasCommand(id uuid.UUID) bool {
	for _, applied := range m.RecentCommands {
		if applied == id {
			return true
		}
	}
	return false
}

func copyCommands(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	return append([]uuid.UUID(nil), ids...)
}

// CurrentScore is the score of the set being played.
func (m *Match) CurrentScore() SetScore {
	return m.SetScores.Set(m.CurrentSet)
}

func (m *Match) SetsWon(side Side) int {
	if side == SideA {
		return m.SetsWonA
	}
	return m.SetsWonB
}

// PlayerIDs lists every participant reference of the match, primaries first.
func (m *Match) PlayerIDs() []uuid.UUID {
	ids := []uuid.UUID{m.PlayerAID, m.PlayerBID}
	if m.PlayerA2ID != nil {
		ids = append(ids, *m.PlayerA2ID)
	}
	if m.PlayerB2ID != nil {
		ids = append(ids, *m.PlayerB2ID)
	}
	return ids
}

// Participant returns the joined primary player of a side, nil if not loaded.
func (m *Match) Participant(side Side) *Player {
	if side == SideA {
		return m.PlayerA
	}
	return m.PlayerB
}

// ResolveWinner fills Winner from the joined participants. It reports false when the
// winning side's player record has not been loaded.
func (m *Match) ResolveWinner() bool {
	if m.WinnerSide == nil {
		m.Winner = nil
		return true
	}
	m.Winner = m.Participant(*m.WinnerSide)
	return m.Winner != nil
}

// SameParticipants reports whether both matches reference the same players on the same sides.
func (m *Match) SameParticipants(other *Match) bool {
	return m.PlayerAID == other.PlayerAID &&
		m.PlayerBID == other.PlayerBID &&
		equalUUIDPtr(m.PlayerA2ID, other.PlayerA2ID) &&
		equalUUIDPtr(m.PlayerB2ID, other.PlayerB2ID)
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
