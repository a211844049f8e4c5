package bay

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the number of bays tracked unless configured otherwise.
const DefaultCapacity = 10

var (
	// ErrTableFull is returned when adding a bay beyond capacity.
	ErrTableFull = errors.New("bay table full")

	// ErrDuplicateBay is returned when adding an index that is already known.
	ErrDuplicateBay = errors.New("duplicate bay index")
)

// Bay is one physical drive slot.
type Bay struct {
	Index     int    `json:"index" example:"0" doc:"Bay index"`
	Enabled   bool   `json:"enabled" doc:"Whether a disk occupies the bay"`
	StatsPath string `json:"stats_path" example:"/sys/block/sda/stat" doc:"Block statistics file of the disk"`
	Syspath   string `json:"syspath" doc:"Device path the bay was discovered from"`
}

// Table holds bays in discovery order, keyed by index.
type Table struct {
	capacity int
	bays     []Bay
	byIndex  map[int]int
}

// NewTable creates a table for up to capacity bays.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		capacity: capacity,
		byIndex:  make(map[int]int, capacity),
	}
}

// Add records a new bay.
func (t *Table) Add(b Bay) error {
	if _, ok := t.byIndex[b.Index]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateBay, b.Index)
	}
	if len(t.bays) >= t.capacity {
		return fmt.Errorf("%w: capacity %d", ErrTableFull, t.capacity)
	}
	t.byIndex[b.Index] = len(t.bays)
	t.bays = append(t.bays, b)
	return nil
}

// Get returns the bay with the given index.
func (t *Table) Get(index int) (Bay, bool) {
	i, ok := t.byIndex[index]
	if !ok {
		return Bay{}, false
	}
	return t.bays[i], true
}

// SetEnabled updates a known bay and reports whether it exists.
func (t *Table) SetEnabled(index int, enabled bool) bool {
	i, ok := t.byIndex[index]
	if !ok {
		return false
	}
	t.bays[i].Enabled = enabled
	return true
}

// Len returns the number of known bays.
func (t *Table) Len() int { return len(t.bays) }

// Cap returns the table capacity.
func (t *Table) Cap() int { return t.capacity }

// All returns a copy of the bays in discovery order.
func (t *Table) All() []Bay {
	out := make([]Bay, len(t.bays))
	copy(out, t.bays)
	return out
}
