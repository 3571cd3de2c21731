package state

import (
	"errors"
	"sync"

	"github.com/onemedia/broadcast-service/internal/domain"
)

var (
	// ErrCapacityExceeded is returned by Add when every slot is occupied.
	ErrCapacityExceeded = errors.New("all match slots are occupied")

	// ErrMatchNotFound is returned by Edit for an unoccupied slot.
	ErrMatchNotFound = errors.New("match not found")
)

type matchSlot struct {
	occupied bool
	fields   domain.MatchFields
}

// MatchRegistry is a fixed-capacity slot table of scheduled matches. A slot's
// 1-based index is its public watch-page identifier; deletion tombstones the
// slot instead of compacting, so identifiers stay stable for bookmarked
// watch pages.
type MatchRegistry struct {
	mu    sync.RWMutex
	slots []matchSlot
}

func NewMatchRegistry(capacity int) *MatchRegistry {
	return &MatchRegistry{
		slots: make([]matchSlot, capacity),
	}
}

// Capacity is the fixed slot count; reported in stats so operators can see
// how much schedule room is left.
func (m *MatchRegistry) Capacity() int {
	return len(m.slots)
}

// Add occupies the first free slot, scanning from slot 0, and returns the
// assigned watch-page identifier.
func (m *MatchRegistry) Add(fields domain.MatchFields) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.slots {
		if m.slots[i].occupied {
			continue
		}
		m.slots[i] = matchSlot{occupied: true, fields: fields}
		return i + 1, nil
	}
	return 0, ErrCapacityExceeded
}

// Edit overwrites an occupied slot in place. The identifier never changes.
func (m *MatchRegistry) Edit(id int, fields domain.MatchFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := id - 1
	if i < 0 || i >= len(m.slots) || !m.slots[i].occupied {
		return ErrMatchNotFound
	}
	m.slots[i].fields = fields
	return nil
}

// Delete tombstones a slot. Deleting an empty or out-of-range slot is a
// no-op, not an error.
func (m *MatchRegistry) Delete(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := id - 1
	if i < 0 || i >= len(m.slots) {
		return
	}
	m.slots[i] = matchSlot{}
}

// Active returns the occupied slots in slot order, each annotated with its
// watch number. Built fresh on every call; mutations are rare and the table
// is small.
func (m *MatchRegistry) Active() []domain.Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]domain.Match, 0, len(m.slots))
	for i := range m.slots {
		if !m.slots[i].occupied {
			continue
		}
		matches = append(matches, domain.Match{
			MatchFields: m.slots[i].fields,
			WatchNumber: i + 1,
		})
	}
	return matches
}

// Get looks up a slot by its watch-page identifier. Absence means "no match
// scheduled", never a fault.
func (m *MatchRegistry) Get(id int) (domain.Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := id - 1
	if i < 0 || i >= len(m.slots) || !m.slots[i].occupied {
		return domain.Match{}, false
	}
	return domain.Match{MatchFields: m.slots[i].fields, WatchNumber: id}, true
}
