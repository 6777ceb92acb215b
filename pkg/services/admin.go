package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/apperrors"
)

// RawSQL executes caller-written SQL against one named source. The source
// name is validated before anything reaches an adapter; read-only policy and
// the row cap are enforced by the adapter itself.
func (s *RouterService) RawSQL(ctx context.Context, source, sqlQuery string) (*datasource.QueryResult, error) {
	src, err := s.cat.Get(source)
	if err != nil {
		return nil, err
	}
	adapter, ok := s.adapters[src.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for source %q", apperrors.ErrSourceUnreachable, src.Name)
	}

	res, err := adapter.Query(ctx, sqlQuery, datasource.MaxQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", src.Name, err)
	}
	return res, nil
}

// ListSources returns the catalog's sources in catalog order.
func (s *RouterService) ListSources() []SourceInfo {
	infos := make([]SourceInfo, 0, s.cat.Len())
	for _, src := range s.cat.Sources() {
		infos = append(infos, SourceInfo{
			Name:        src.Name,
			Description: src.Description,
			Dialect:     src.Dialect,
		})
	}
	return infos
}

// SchemaDescription is one source's table list, or one table's column list.
type SchemaDescription struct {
	Source  string   `json:"source"`
	Tables  []string `json:"tables,omitempty"`
	Table   string   `json:"table,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// SchemaInfo describes a source's tables, or one table's columns when table
// is non-empty. It reads live metadata from the source rather than the
// routing cache so the answer is never stale.
func (s *RouterService) SchemaInfo(ctx context.Context, source, table string) (*SchemaDescription, error) {
	src, err := s.cat.Get(source)
	if err != nil {
		return nil, err
	}
	adapter, ok := s.adapters[src.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for source %q", apperrors.ErrSourceUnreachable, src.Name)
	}

	if table == "" {
		tables, err := adapter.TableNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", apperrors.ErrSourceUnreachable, src.Name, err)
		}
		sort.Strings(tables)
		return &SchemaDescription{Source: src.Name, Tables: tables}, nil
	}

	columns, err := adapter.ColumnNames(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", apperrors.ErrSourceUnreachable, src.Name, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("source %q has no table %q", src.Name, table)
	}
	sort.Strings(columns)
	return &SchemaDescription{Source: src.Name, Table: table, Columns: columns}, nil
}

// RefreshSchema drops a source's cached schema so the next question re-reads
// it. The refresh itself is lazy.
func (s *RouterService) RefreshSchema(source string) error {
	src, err := s.cat.Get(source)
	if err != nil {
		return err
	}
	s.schema.Invalidate(src.Name)
	s.logger.Info("schema cache invalidated", zap.String("source", src.Name))
	return nil
}

// SourceHealth is one source's reachability probe outcome.
type SourceHealth struct {
	Source    string `json:"source"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Health pings every source concurrently and reports per-source
// reachability in catalog order. Probe failures are reported, never fatal.
func (s *RouterService) Health(ctx context.Context, timeout time.Duration) []SourceHealth {
	names := s.cat.Names()
	statuses := make([]SourceHealth, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			statuses[i] = s.probe(ctx, name, timeout)
		}(i, name)
	}
	wg.Wait()
	return statuses
}

func (s *RouterService) probe(ctx context.Context, name string, timeout time.Duration) SourceHealth {
	adapter, ok := s.adapters[name]
	if !ok {
		return SourceHealth{Source: name, Error: "no adapter configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := adapter.Ping(probeCtx)
	status := SourceHealth{
		Source:    name,
		Reachable: err == nil,
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}
