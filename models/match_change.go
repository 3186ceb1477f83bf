package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeEventType string

const (
	ChangeInsert ChangeEventType = "INSERT"
	ChangeUpdate ChangeEventType = "UPDATE"
	ChangeDelete ChangeEventType = "DELETE"
)

// MatchChange is one row-level notification of the matches change feed.
// Fields carries absolute values, never deltas, so re-delivery is harmless.
type MatchChange struct {
	EventType ChangeEventType `json:"event_type"`
	MatchID   uuid.UUID       `json:"match_id"`
	Version   int64           `json:"version"`
	Fields    *MatchRow       `json:"new,omitempty"`
}

// MatchRow mirrors the columns of the matches table; the Postgres trigger emits it
// with row_to_json, so the JSON names are the column names.
type MatchRow struct {
	ID          uuid.UUID   `json:"id"`
	PlayerAID   uuid.UUID   `json:"player_a_id"`
	PlayerA2ID  *uuid.UUID  `json:"player_a2_id"`
	PlayerBID   uuid.UUID   `json:"player_b_id"`
	PlayerB2ID  *uuid.UUID  `json:"player_b2_id"`
	Category    Category    `json:"category"`
	Court       string      `json:"court"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	Status      MatchStatus `json:"status"`
	Set1A       int         `json:"set1_a"`
	Set1B       int         `json:"set1_b"`
	Set2A       int         `json:"set2_a"`
	Set2B       int         `json:"set2_b"`
	Set3A       int         `json:"set3_a"`
	Set3B       int         `json:"set3_b"`
	CurrentSet  int         `json:"current_set"`
	SetsWonA    int         `json:"sets_won_a"`
	SetsWonB    int         `json:"sets_won_b"`
	WinnerSide  *Side       `json:"winner_side"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	RecentCommands []uuid.UUID `json:"recent_commands"`
}

func RowFromMatch(m *Match) *MatchRow {
	c := m.Clone()
	return &MatchRow{
		ID:          c.ID,
		PlayerAID:   c.PlayerAID,
		PlayerA2ID:  c.PlayerA2ID,
		PlayerBID:   c.PlayerBID,
		PlayerB2ID:  c.PlayerB2ID,
		Category:    c.Category,
		Court:       c.Court,
		ScheduledAt: c.ScheduledAt,
		Status:      c.Status,
		Set1A:       c.SetScores.Set1.A,
		Set1B:       c.SetScores.Set1.B,
		Set2A:       c.SetScores.Set2.A,
		Set2B:       c.SetScores.Set2.B,
		Set3A:       c.SetScores.Set3.A,
		Set3B:       c.SetScores.Set3.B,
		CurrentSet:  c.CurrentSet,
		SetsWonA:    c.SetsWonA,
		SetsWonB:    c.SetsWonB,
		WinnerSide:  c.WinnerSide,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,

		RecentCommands: c.RecentCommands,
	}
}

// ToMatch builds a match without joined players.
func (r *MatchRow) ToMatch() *Match {
	m := &Match{ID: r.ID}
	r.ApplyTo(m)
	return m
}

// ApplyTo overwrites every stored field of m with the row values. Joined players are
// kept; Winner is re-resolved from them.
func (r *MatchRow) ApplyTo(m *Match) {
	m.ID = r.ID
	m.PlayerAID = r.PlayerAID
	m.PlayerA2ID = copyUUID(r.PlayerA2ID)
	m.PlayerBID = r.PlayerBID
	m.PlayerB2ID = copyUUID(r.PlayerB2ID)
	m.Category = r.Category
	m.Court = r.Court
	m.ScheduledAt = r.ScheduledAt
	m.Status = r.Status
	m.SetScores = SetScores{
		Set1: SetScore{A: r.Set1A, B: r.Set1B},
		Set2: SetScore{A: r.Set2A, B: r.Set2B},
		Set3: SetScore{A: r.Set3A, B: r.Set3B},
	}
	m.CurrentSet = r.CurrentSet
	m.SetsWonA = r.SetsWonA
	m.SetsWonB = r.SetsWonB
	m.WinnerSide = nil
	if r.WinnerSide != nil {
		side := *r.WinnerSide
		m.WinnerSide = &side
	}
	m.Version = r.Version
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
	m.RecentCommands = copyCommands(r.RecentCommands)
	m.ResolveWinner()
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
