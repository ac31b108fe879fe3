package civ

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCivilization is returned for IDs the registry never issued.
	ErrUnknownCivilization = errors.New("unknown civilization")
	// ErrNotActive is returned when a lifecycle transition targets a retired civilization.
	ErrNotActive = errors.New("civilization is not active")
)

// Registry owns every civilization. Active civilizations are kept in founding
// order; retired ones stay reachable by ID for reporting.
type Registry struct {
	active  []*Civilization
	index   map[ID]*Civilization
	retired []*Civilization
	nextID  ID
}

// NewRegistry creates an empty registry. IDs start at 1.
func NewRegistry() *Registry {
	return &Registry{
		index:  make(map[ID]*Civilization),
		nextID: 1,
	}
}

// NextID reserves and returns a fresh identifier.
func (r *Registry) NextID() ID {
	id := r.nextID
	r.nextID++
	return id
}

// Add registers an active civilization. IDs issued elsewhere advance the
// counter so they are never reused.
func (r *Registry) Add(c *Civilization) error {
	if _, ok := r.index[c.ID]; ok {
		return fmt.Errorf("add civilization %d: duplicate id", c.ID)
	}
	if !c.Active() {
		return fmt.Errorf("add civilization %d: %w", c.ID, ErrNotActive)
	}
	r.index[c.ID] = c
	r.active = append(r.active, c)
	if c.ID >= r.nextID {
		r.nextID = c.ID + 1
	}
	return nil
}

// Get returns the civilization with the given ID, active or retired, or nil.
func (r *Registry) Get(id ID) *Civilization {
	return r.index[id]
}

// Active returns a snapshot of the active set. Retiring civilizations while
// iterating the returned slice is safe.
func (r *Registry) Active() []*Civilization {
	out := make([]*Civilization, len(r.active))
	copy(out, r.active)
	return out
}

// Len returns the number of active civilizations.
func (r *Registry) Len() int {
	return len(r.active)
}

// Retired returns merged and eliminated civilizations in retirement order.
func (r *Registry) Retired() []*Civilization {
	out := make([]*Civilization, len(r.retired))
	copy(out, r.retired)
	return out
}

// Merge moves loser's territory into winner and retires loser as Merged.
func (r *Registry) Merge(winnerID, loserID ID, year uint64) error {
	if winnerID == loserID {
		return fmt.Errorf("merge civilization %d into itself", winnerID)
	}
	winner, err := r.activeByID(winnerID)
	if err != nil {
		return fmt.Errorf("merge winner: %w", err)
	}
	loser, err := r.activeByID(loserID)
	if err != nil {
		return fmt.Errorf("merge loser: %w", err)
	}

	winner.Absorb(loser)
	loser.AbsorbedBy = winner.ID
	r.retire(loser, StateMerged, year)
	return nil
}

// Eliminate retires a collapsed civilization.
func (r *Registry) Eliminate(id ID, year uint64) error {
	c, err := r.activeByID(id)
	if err != nil {
		return fmt.Errorf("eliminate: %w", err)
	}
	r.retire(c, StateEliminated, year)
	return nil
}

func (r *Registry) activeByID(id ID) (*Civilization, error) {
	c, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCivilization, id)
	}
	if !c.Active() {
		return nil, fmt.Errorf("%w: %d is %s", ErrNotActive, id, c.State)
	}
	return c, nil
}

func (r *Registry) retire(c *Civilization, state State, year uint64) {
	c.State = state
	c.EndedYear = year
	c.InConflict = false

	remaining := r.active[:0]
	for _, a := range r.active {
		if a.ID != c.ID {
			remaining = append(remaining, a)
		}
	}
	// Clear the tail so retired pointers are not pinned by the backing array.
	for i := len(remaining); i < len(r.active); i++ {
		r.active[i] = nil
	}
	r.active = remaining
	r.retired = append(r.retired, c)
}
