// Package livecache keeps a local, continuously reconciled copy of the scoreboard.
//
// Every cached match has a base, the last state confirmed by the server, and a list of
// pending optimistic commands replayed on top of it to produce the displayed view.
// Server state enters only through version-gated operations, so re-delivered or
// reordered change notifications never move a match backwards.
package livecache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

type Outcome int

const (
	// OutcomeApplied: server state was newer and replaced the base.
	OutcomeApplied Outcome = iota
	// OutcomeDuplicate: same version re-delivered; the overwrite changed nothing.
	OutcomeDuplicate
	// OutcomeStale: older than the cached base, discarded.
	OutcomeStale
	// OutcomeUnknown: the match is not cached, the caller has to fetch it.
	OutcomeUnknown
	// OutcomeRefetch: row fields were applied but joined players are out of date.
	OutcomeRefetch
	OutcomeRemoved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeStale:
		return "stale"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeRefetch:
		return "refetch"
	case OutcomeRemoved:
		return "removed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type pendingCommand struct {
	cmd Command
	// baseSeq - номер изменения base на момент применения команды.
	baseSeq    uint64
	ackVersion int64
}

type entry struct {
	base    *models.Match
	view    *models.Match
	pending []*pendingCommand
	baseSeq uint64
}

// Cache is safe for concurrent use. Returned matches are copies.
type Cache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
}

func New() *Cache {
	return &Cache{entries: make(map[uuid.UUID]*entry)}
}

func newEntry(m *models.Match) *entry {
	e := &entry{}
	e.setBase(m.Clone())
	return e
}

// setBase installs server state and replays the pending commands the new base does not
// contain yet. A command is contained when its id is in base.RecentCommands or when it
// was acknowledged at or below the base version.
func (e *entry) setBase(m *models.Match) {
	e.base = m
	e.baseSeq++
	kept := e.pending[:0]
	for _, p := range e.pending {
		if e.base.HasCommand(p.cmd.ID) || (p.ackVersion != 0 && e.base.Version >= p.ackVersion) {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(e.pending); i++ {
		e.pending[i] = nil
	}
	e.pending = kept
	e.rebuild()
}

// rebuild recomputes the view from base + pending. A command whose precondition no
// longer holds on the new base stays pending but is not shown.
func (e *entry) rebuild() {
	view := e.base.Clone()
	for _, p := range e.pending {
		_ = p.cmd.Forward(view)
	}
	e.view = view
}

func (e *entry) find(cmdID uuid.UUID) int {
	for i, p := range e.pending {
		if p.cmd.ID == cmdID {
			return i
		}
	}
	return -1
}

// adoptPlayers carries joined players over from the cached base when the server
// sent a bare row for the same participants.
func adoptPlayers(next, from *models.Match) {
	if next.PlayerA != nil || !next.SameParticipants(from) {
		return
	}
	next.PlayerA, next.PlayerA2 = from.PlayerA, from.PlayerA2
	next.PlayerB, next.PlayerB2 = from.PlayerB, from.PlayerB2
	next.ResolveWinner()
}

func (c *Cache) Snapshot() []*models.Match {
	c.mu.RLock()
	result := make([]*models.Match, 0, len(c.entries))
	for _, e := range c.entries {
		result = append(result, e.view.Clone())
	}
	c.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScheduledAt.Equal(result[j].ScheduledAt) {
			return result[i].ScheduledAt.Before(result[j].ScheduledAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

// Get returns the displayed view of a match, optimistic commands included.
func (c *Cache) Get(id uuid.UUID) (*models.Match, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.view.Clone(), true
}

// Confirmed returns the last server-confirmed state of a match.
func (c *Cache) Confirmed(id uuid.UUID) (*models.Match, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.base.Clone(), true
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Pending(id uuid.UUID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[id]; ok {
		return len(e.pending)
	}
	return 0
}

// Replace installs the result of a full refetch. Matches missing from the result are
// dropped; a cached base newer than the fetched row is kept.
func (c *Cache) Replace(matches []*models.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(matches))
	for _, m := range matches {
		seen[m.ID] = true
		if e, ok := c.entries[m.ID]; ok {
			if m.Version >= e.base.Version {
				e.setBase(m.Clone())
			}
			continue
		}
		c.entries[m.ID] = newEntry(m)
	}
	for id := range c.entries {
		if !seen[id] {
			delete(c.entries, id)
		}
	}
}

// Upsert installs a single refetched match.
func (c *Cache) Upsert(m *models.Match) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[m.ID]
	if !ok {
		c.entries[m.ID] = newEntry(m)
		return OutcomeApplied
	}
	if m.Version < e.base.Version {
		return OutcomeStale
	}
	next := m.Clone()
	adoptPlayers(next, e.base)
	e.setBase(next)
	return OutcomeApplied
}

// ApplyChange patches a cached match with a change-feed row. Applying the same change
// twice yields the same state as applying it once.
func (c *Cache) ApplyChange(change models.MatchChange) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[change.MatchID]
	if change.EventType == models.ChangeDelete {
		if !ok {
			return OutcomeStale
		}
		if change.Version != 0 && change.Version < e.base.Version {
			return OutcomeStale
		}
		delete(c.entries, change.MatchID)
		return OutcomeRemoved
	}
	if !ok {
		return OutcomeUnknown
	}
	if change.Fields == nil {
		return OutcomeRefetch
	}

	version := change.Fields.Version
	if version < e.base.Version {
		return OutcomeStale
	}

	next := e.base.Clone()
	change.Fields.ApplyTo(next)
	outcome := OutcomeApplied
	switch {
	case !next.SameParticipants(e.base):
		next.PlayerA, next.PlayerA2, next.PlayerB, next.PlayerB2, next.Winner = nil, nil, nil, nil, nil
		outcome = OutcomeRefetch
	case !next.ResolveWinner():
		outcome = OutcomeRefetch
	case version == e.base.Version:
		outcome = OutcomeDuplicate
	}
	e.setBase(next)
	return outcome
}

func (c *Cache) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	return true
}

// applyOptimistic shows cmd immediately. A failed Forward means the command breaks a
// precondition on the current view and must not be sent.
func (c *Cache) applyOptimistic(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cmd.MatchID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, cmd.MatchID)
	}
	next := e.view.Clone()
	if err := cmd.Forward(next); err != nil {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	e.view = next
	e.pending = append(e.pending, &pendingCommand{cmd: cmd, baseSeq: e.baseSeq})
	return nil
}

// rollback withdraws a failed command. If it is the newest pending command and no
// server state arrived since it was applied, its Inverse patch is enough; otherwise
// the view is rebuilt from base and the remaining commands.
func (c *Cache) rollback(cmdID, matchID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[matchID]
	if !ok {
		return
	}
	i := e.find(cmdID)
	if i < 0 {
		return
	}
	p := e.pending[i]
	last := i == len(e.pending)-1
	e.pending = append(e.pending[:i], e.pending[i+1:]...)

	if last && p.baseSeq == e.baseSeq {
		_ = p.cmd.Inverse(e.view)
		return
	}
	e.rebuild()
}

// confirm records the acknowledged version and installs the server's result.
func (c *Cache) confirm(cmdID uuid.UUID, result *models.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[result.ID]
	if !ok {
		return
	}
	if i := e.find(cmdID); i >= 0 {
		e.pending[i].ackVersion = result.Version
	}
	if result.Version < e.base.Version {
		// Лента уже обогнала ответ; подтверждённая команда в нём учтена.
		e.setBase(e.base)
		return
	}
	next := result.Clone()
	adoptPlayers(next, e.base)
	e.setBase(next)
}
