package livecache

import (
	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

type CommandKind string

const (
	KindStart     CommandKind = "start"
	KindIncrement CommandKind = "increment"
	KindDecrement CommandKind = "decrement"
	KindEndSet    CommandKind = "end_set"
	KindComplete  CommandKind = "complete"
	KindSetStatus CommandKind = "set_status"
)

// Patch mutates a cached match view in place.
type Patch func(m *models.Match) error

// Command is one scoring action as the client sees it: what to send and how to show
// it before the server answers. Forward validates against the cached view; Inverse
// restores the fields Forward touched to their values before the last Forward.
//
// A Command belongs to a single Execute call. Only the Cache invokes the patches,
// always under its lock.
type Command struct {
	ID      uuid.UUID
	MatchID uuid.UUID
	Kind    CommandKind
	Side    models.Side
	Status  models.MatchStatus

	Forward Patch
	Inverse Patch
}

// touched - поля матча, которые меняет команда данного вида.
type touched struct {
	status     models.MatchStatus
	currentSet int
	setScores  models.SetScores
	setsWonA   int
	setsWonB   int
	winnerSide *models.Side
	winner     *models.Player
}

func capture(m *models.Match) touched {
	c := m.Clone()
	return touched{
		status:     c.Status,
		currentSet: c.CurrentSet,
		setScores:  c.SetScores,
		setsWonA:   c.SetsWonA,
		setsWonB:   c.SetsWonB,
		winnerSide: c.WinnerSide,
		winner:     c.Winner,
	}
}

func newCommand(matchID uuid.UUID, kind CommandKind, mutate Patch, restore func(m *models.Match, prev touched)) Command {
	var prev touched
	return Command{
		ID:      uuid.New(),
		MatchID: matchID,
		Kind:    kind,
		Forward: func(m *models.Match) error {
			before := capture(m)
			if err := mutate(m); err != nil {
				return err
			}
			prev = before
			return nil
		},
		Inverse: func(m *models.Match) error {
			restore(m, prev)
			return nil
		},
	}
}

func restoreStatus(m *models.Match, prev touched) {
	m.Status = prev.status
	m.CurrentSet = prev.currentSet
	m.WinnerSide = prev.winnerSide
	m.Winner = prev.winner
}

func restoreScores(m *models.Match, prev touched) {
	m.SetScores = prev.setScores
}

func restoreSets(m *models.Match, prev touched) {
	m.SetsWonA = prev.setsWonA
	m.SetsWonB = prev.setsWonB
	m.CurrentSet = prev.currentSet
}

func StartMatch(matchID uuid.UUID) Command {
	return newCommand(matchID, KindStart, func(m *models.Match) error { return m.Start() }, restoreStatus)
}

func IncrementScore(matchID uuid.UUID, side models.Side) Command {
	cmd := newCommand(matchID, KindIncrement,
		func(m *models.Match) error { return m.AdjustScore(side, 1) }, restoreScores)
	cmd.Side = side
	return cmd
}

func DecrementScore(matchID uuid.UUID, side models.Side) Command {
	cmd := newCommand(matchID, KindDecrement,
		func(m *models.Match) error { return m.AdjustScore(side, -1) }, restoreScores)
	cmd.Side = side
	return cmd
}

func EndSet(matchID uuid.UUID, side models.Side) Command {
	cmd := newCommand(matchID, KindEndSet, func(m *models.Match) error { return m.EndSet(side) }, restoreSets)
	cmd.Side = side
	return cmd
}

func CompleteMatch(matchID uuid.UUID, winner models.Side) Command {
	cmd := newCommand(matchID, KindComplete, func(m *models.Match) error { return m.Complete(winner) }, restoreStatus)
	cmd.Side = winner
	return cmd
}

func SetStatus(matchID uuid.UUID, status models.MatchStatus) Command {
	cmd := newCommand(matchID, KindSetStatus, func(m *models.Match) error { return m.SetStatus(status) }, restoreStatus)
	cmd.Status = status
	return cmd
}
