// Package memory stores sheet pages in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JakeFAU/citesync/internal/citation"
)

// Write captures one WriteRow call.
type Write struct {
	Target citation.WriteTarget
	Values []any
}

// Store keeps column data and written rows per page.
type Store struct {
	mu      sync.RWMutex
	columns map[string]map[string][]string
	writes  []Write
	// WriteErr, when set, is returned by every WriteRow call.
	WriteErr error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{columns: make(map[string]map[string][]string)}
}

// SetColumn seeds a column. values[0] belongs to citation.FirstDataRow.
func (s *Store) SetColumn(page, column string, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols, ok := s.columns[page]
	if !ok {
		cols = make(map[string][]string)
		s.columns[page] = cols
	}
	cols[strings.ToUpper(column)] = append([]string(nil), values...)
}

// ReadColumn returns the column values from firstRow down.
func (s *Store) ReadColumn(_ context.Context, page, column string, firstRow int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols, ok := s.columns[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	values := cols[strings.ToUpper(column)]
	skip := firstRow - citation.FirstDataRow
	if skip < 0 {
		return nil, fmt.Errorf("first row %d is above the data rows", firstRow)
	}
	if skip >= len(values) {
		return []string{}, nil
	}
	return append([]string(nil), values[skip:]...), nil
}

// WriteRow records the values written to target.
func (s *Store) WriteRow(_ context.Context, target citation.WriteTarget, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return fmt.Errorf("%w: %s: %v", citation.ErrWrite, target.A1(), s.WriteErr)
	}
	s.writes = append(s.writes, Write{Target: target, Values: append([]any(nil), values...)})
	return nil
}

// Writes returns the recorded writes in call order.
func (s *Store) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}
