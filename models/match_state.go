package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ошибки конечного автомата матча. Все они означают нарушение предусловия команды.
var (
	ErrInvalidTransition  = errors.New("invalid match status transition")
	ErrMatchNotLive       = errors.New("match is not live")
	ErrMatchCompleted     = errors.New("match is already completed")
	ErrScoreUnderflow     = errors.New("score cannot go below zero")
	ErrInvalidSide        = errors.New("side must be 'A' or 'B'")
	ErrInvalidDelta       = errors.New("score can only change by one point at a time")
	ErrAllSetsPlayed      = errors.New("all sets of the match have already been played")
	ErrWinnerRequired     = errors.New("completing a match requires a winner side")
	ErrMissingParticipant = errors.New("match participant is missing")
	ErrInvalidMatchState  = errors.New("match state violates scoring invariants")
)

var allowedMatchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusUpcoming:  {MatchStatusLive, MatchStatusCompleted},
	MatchStatusLive:      {MatchStatusCompleted},
	MatchStatusCompleted: {},
}

func (s MatchStatus) IsValid() bool {
	_, ok := allowedMatchTransitions[s]
	return ok
}

// CanTransitionTo reports whether next is a legal forward step from s.
// Self-transitions are not legal.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range allowedMatchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func transitionError(from, to MatchStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// CheckStart validates UPCOMING -> LIVE without mutating the match.
func (m *Match) CheckStart() error {
	if !m.Status.CanTransitionTo(MatchStatusLive) {
		return transitionError(m.Status, MatchStatusLive)
	}
	return nil
}

// Start and the other mutations below change the match fields only. Version is
// assigned by the store when the change is written.
func (m *Match) Start() error {
	if err := m.CheckStart(); err != nil {
		return err
	}
	m.Status = MatchStatusLive
	if m.CurrentSet < 1 {
		m.CurrentSet = 1
	}
	return nil
}

func (m *Match) requireLive() error {
	switch m.Status {
	case MatchStatusLive:
		return nil
	case MatchStatusCompleted:
		return ErrMatchCompleted
	default:
		return fmt.Errorf("%w: status is %s", ErrMatchNotLive, m.Status)
	}
}

// CheckAdjustScore validates a ±1 change of the current set score of side. Once every
// set has been credited the final set is closed too.
func (m *Match) CheckAdjustScore(side Side, delta int) error {
	if !side.IsValid() {
		return ErrInvalidSide
	}
	if delta != 1 && delta != -1 {
		return ErrInvalidDelta
	}
	if err := m.requireLive(); err != nil {
		return err
	}
	if m.SetsWonA+m.SetsWonB >= MaxSets {
		return ErrAllSetsPlayed
	}
	if m.SetScores.Set(m.CurrentSet).Get(side)+delta < 0 {
		return fmt.Errorf("%w: set %d side %s", ErrScoreUnderflow, m.CurrentSet, side)
	}
	return nil
}

func (m *Match) AdjustScore(side Side, delta int) error {
	if err := m.CheckAdjustScore(side, delta); err != nil {
		return err
	}
	slot := m.SetScores.slot(m.CurrentSet)
	slot.set(side, slot.Get(side)+delta)
	return nil
}

func (m *Match) CheckEndSet(side Side) error {
	if !side.IsValid() {
		return ErrInvalidSide
	}
	if err := m.requireLive(); err != nil {
		return err
	}
	if m.SetsWonA+m.SetsWonB >= MaxSets {
		return ErrAllSetsPlayed
	}
	return nil
}

// EndSet credits the set to side and advances the set pointer, clamped at MaxSets.
// It never decides the match; see Complete.
func (m *Match) EndSet(side Side) error {
	if err := m.CheckEndSet(side); err != nil {
		return err
	}
	if side == SideA {
		m.SetsWonA++
	} else {
		m.SetsWonB++
	}
	if m.CurrentSet < MaxSets {
		m.CurrentSet++
	}
	return nil
}

// DecidedBy reports the side that has won a majority of the best-of-3, if any.
func (m *Match) DecidedBy() (Side, bool) {
	const setsToWin = MaxSets/2 + 1
	switch {
	case m.SetsWonA >= setsToWin:
		return SideA, true
	case m.SetsWonB >= setsToWin:
		return SideB, true
	}
	return "", false
}

func (m *Match) CheckComplete(side Side) error {
	if !side.IsValid() {
		return ErrInvalidSide
	}
	if m.Status == MatchStatusCompleted {
		return ErrMatchCompleted
	}
	return nil
}

// Complete is irreversible and the only way a winner is recorded outside strict mode.
func (m *Match) Complete(side Side) error {
	if err := m.CheckComplete(side); err != nil {
		return err
	}
	m.Status = MatchStatusCompleted
	winner := side
	m.WinnerSide = &winner
	m.Winner = m.Participant(side)
	return nil
}

// CheckSetStatus validates the direct status escape hatch. COMPLETED must go through
// Complete because it needs a winner.
func (m *Match) CheckSetStatus(next MatchStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if next == MatchStatusCompleted && m.Status != MatchStatusCompleted {
		return ErrWinnerRequired
	}
	if !m.Status.CanTransitionTo(next) {
		return transitionError(m.Status, next)
	}
	return nil
}

func (m *Match) SetStatus(next MatchStatus) error {
	if err := m.CheckSetStatus(next); err != nil {
		return err
	}
	return m.Start()
}

// Validate checks every invariant of a stored match.
func (m *Match) Validate() error {
	if !m.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMatchState, m.Status)
	}
	for n := 1; n <= MaxSets; n++ {
		s := m.SetScores.Set(n)
		if s.A < 0 || s.B < 0 {
			return fmt.Errorf("%w: negative score in set %d", ErrInvalidMatchState, n)
		}
	}
	if m.CurrentSet < 1 || m.CurrentSet > MaxSets {
		return fmt.Errorf("%w: current set %d out of range", ErrInvalidMatchState, m.CurrentSet)
	}
	if m.SetsWonA < 0 || m.SetsWonB < 0 || m.SetsWonA+m.SetsWonB > MaxSets {
		return fmt.Errorf("%w: sets won %d/%d", ErrInvalidMatchState, m.SetsWonA, m.SetsWonB)
	}
	if (m.WinnerSide != nil) != (m.Status == MatchStatusCompleted) {
		return fmt.Errorf("%w: winner must be set exactly when completed", ErrInvalidMatchState)
	}
	if m.WinnerSide != nil && !m.WinnerSide.IsValid() {
		return fmt.Errorf("%w: %v", ErrInvalidMatchState, ErrInvalidSide)
	}
	return nil
}

// ValidateParticipants checks the side composition against the category.
func (m *Match) ValidateParticipants() error {
	if m.PlayerAID == uuid.Nil || m.PlayerBID == uuid.Nil {
		return fmt.Errorf("%w: both sides need a primary player", ErrMissingParticipant)
	}
	if !m.Category.IsValid() {
		return fmt.Errorf("unknown category %q", m.Category)
	}
	if m.Category.IsDoubles() {
		if m.PlayerA2ID == nil || m.PlayerB2ID == nil {
			return fmt.Errorf("%w: %s requires a partner on both sides", ErrMissingParticipant, m.Category)
		}
	} else if m.PlayerA2ID != nil || m.PlayerB2ID != nil {
		return fmt.Errorf("%s does not allow partners", m.Category)
	}
	seen := make(map[uuid.UUID]bool, 4)
	for _, id := range m.PlayerIDs() {
		if seen[id] {
			return fmt.Errorf("player %s appears more than once in the match", id)
		}
		seen[id] = true
	}
	return nil
}
