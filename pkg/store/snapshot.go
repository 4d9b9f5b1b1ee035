package store

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

// Loader reads named raw tables from a source
type Loader interface {
	Load(ctx context.Context) (map[string]*table.Table, error)
}

// Snapshot is an immutable set of loaded tables
type Snapshot struct {
	tables map[string]*table.Table
}

// NewSnapshot wraps already built tables. The map is copied.
func NewSnapshot(tables map[string]*table.Table) *Snapshot {
	copied := make(map[string]*table.Table, len(tables))
	for name, t := range tables {
		copied[name] = t
	}
	return &Snapshot{tables: copied}
}

// Load runs loader once and freezes its output
func Load(ctx context.Context, loader Loader) (*Snapshot, error) {
	tables, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	snap := NewSnapshot(tables)
	for _, name := range snap.Names() {
		zap.L().Named("store").Debug("Loaded table",
			zap.String("table", name),
			zap.Int("rows", snap.tables[name].Len()))
	}
	return snap, nil
}

// Table returns the named table or a missing-table SchemaError
func (s *Snapshot) Table(name string) (*table.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, model.MissingTable(name)
	}
	return t, nil
}

// Tables returns every loaded table by name
func (s *Snapshot) Tables() map[string]*table.Table {
	out := make(map[string]*table.Table, len(s.tables))
	for name, t := range s.tables {
		out[name] = t
	}
	return out
}

// Names returns the loaded table names, sorted
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
