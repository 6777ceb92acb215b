package routing

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
)

// maxColumnTables bounds how many tables contribute column names to the
// index, keeping cold-cache fills cheap on wide schemas.
const maxColumnTables = 10

// schemaEntry is one source's cached name sets.
type schemaEntry struct {
	tables  map[string]struct{}
	columns map[string]map[string]struct{} // table -> column set
}

// SchemaIndex lazily caches table and column names per source. Reads are
// safe for concurrent use; each source refreshes under its own lock so a
// slow provider never blocks unrelated sources. A fetch failure yields empty
// sets for that request and is NOT cached — the next request retries.
type SchemaIndex struct {
	providers map[string]datasource.SchemaExtractor
	logger    *zap.Logger

	mu      sync.RWMutex
	entries map[string]*schemaEntry
	refresh map[string]*sync.Mutex
}

// NewSchemaIndex builds an index over the given per-source schema providers.
func NewSchemaIndex(providers map[string]datasource.SchemaExtractor, logger *zap.Logger) *SchemaIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &SchemaIndex{
		providers: providers,
		logger:    logger.Named("schema-index"),
		entries:   make(map[string]*schemaEntry, len(providers)),
		refresh:   make(map[string]*sync.Mutex, len(providers)),
	}
	for name := range providers {
		idx.refresh[name] = &sync.Mutex{}
	}
	return idx
}

// TableNames returns the cached table-name set for a source. Empty when the
// provider is unreachable.
func (s *SchemaIndex) TableNames(ctx context.Context, source string) map[string]struct{} {
	return s.ensure(ctx, source).tables
}

// ColumnNames returns the union of column names across the source's indexed
// tables. Empty when the provider is unreachable.
func (s *SchemaIndex) ColumnNames(ctx context.Context, source string) map[string]struct{} {
	entry := s.ensure(ctx, source)
	union := make(map[string]struct{})
	for _, cols := range entry.columns {
		for col := range cols {
			union[col] = struct{}{}
		}
	}
	return union
}

// TableColumnNames returns the column set of one table, if indexed.
func (s *SchemaIndex) TableColumnNames(ctx context.Context, source, table string) map[string]struct{} {
	return s.ensure(ctx, source).columns[table]
}

// Invalidate drops a source's cached entry so the next read refreshes it.
func (s *SchemaIndex) Invalidate(source string) {
	s.mu.Lock()
	delete(s.entries, source)
	s.mu.Unlock()
}

var emptyEntry = &schemaEntry{}

// ensure returns the cached entry for a source, filling it on first use.
func (s *SchemaIndex) ensure(ctx context.Context, source string) *schemaEntry {
	s.mu.RLock()
	entry, ok := s.entries[source]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	refreshMu, ok := s.refresh[source]
	if !ok {
		return emptyEntry
	}

	refreshMu.Lock()
	defer refreshMu.Unlock()

	// Another request may have filled the entry while we waited.
	s.mu.RLock()
	entry, ok = s.entries[source]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	entry, err := s.fetch(ctx, source)
	if err != nil {
		s.logger.Warn("schema fetch failed; source contributes no schema evidence this request",
			zap.String("source", source),
			zap.Error(err))
		return emptyEntry
	}

	s.mu.Lock()
	s.entries[source] = entry
	s.mu.Unlock()
	return entry
}

func (s *SchemaIndex) fetch(ctx context.Context, source string) (*schemaEntry, error) {
	provider := s.providers[source]
	tables, err := provider.TableNames(ctx)
	if err != nil {
		return nil, err
	}

	entry := &schemaEntry{
		tables:  make(map[string]struct{}, len(tables)),
		columns: make(map[string]map[string]struct{}),
	}
	for _, table := range tables {
		entry.tables[table] = struct{}{}
	}

	for i, table := range tables {
		if i >= maxColumnTables {
			break
		}
		cols, err := provider.ColumnNames(ctx, table)
		if err != nil {
			// Partial column data is still useful; keep what we have.
			s.logger.Debug("column fetch failed for table",
				zap.String("source", source),
				zap.String("table", table),
				zap.Error(err))
			continue
		}
		set := make(map[string]struct{}, len(cols))
		for _, col := range cols {
			set[col] = struct{}{}
		}
		entry.columns[table] = set
	}

	s.logger.Debug("schema cached",
		zap.String("source", source),
		zap.Int("tables", len(entry.tables)))
	return entry, nil
}
