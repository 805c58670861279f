package policy

import (
	"errors"

	"go.uber.org/atomic"
)

// ErrNoTable is returned when a nil table is installed into a store.
var ErrNoTable = errors.New("policy store requires a table")

// Store holds the active table. Installing a new table swaps the reference
// atomically; a caller that took a snapshot with Current keeps seeing that
// table for as long as it holds it.
type Store struct {
	current *atomic.Pointer[Table]
}

// NewStore creates a store serving t.
func NewStore(t *Table) (*Store, error) {
	if t == nil {
		return nil, ErrNoTable
	}
	return &Store{current: atomic.NewPointer(t)}, nil
}

// Current returns the active table.
func (s *Store) Current() *Table {
	return s.current.Load()
}

// Version returns the active table's version.
func (s *Store) Version() string {
	return s.Current().Version()
}

// Swap installs t and returns the table it replaced.
func (s *Store) Swap(t *Table) (*Table, error) {
	if t == nil {
		return nil, ErrNoTable
	}
	return s.current.Swap(t), nil
}
