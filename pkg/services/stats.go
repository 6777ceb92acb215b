package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/fanout"
	"github.com/crossquery/crossquery-engine/pkg/models"
)

// Metric names accepted by AggregateStats.
const (
	MetricTotalRecords = "total_records"
	MetricCustomers    = "customers"
	MetricPayments     = "payments"
	MetricEntityCounts = "entity_counts"
)

// StatsResult is the outcome of one aggregate metric across all sources.
// Combined totals live in Response.Combined; per-source rows carry the
// detail. Totals sum only successful sources.
type StatsResult struct {
	Metric   string                    `json:"metric"`
	Response models.AggregatedResponse `json:"response"`
}

// AggregateStats computes one metric across every source. Each source runs a
// single query; a source that does not define the metric degrades to a
// failure entry without any I/O against it.
func (s *RouterService) AggregateStats(ctx context.Context, metric string) (*StatsResult, error) {
	builder, err := s.metricBuilder(metric)
	if err != nil {
		return nil, err
	}

	targets := s.cat.Names()
	results := make([]models.PartialResult, len(targets))
	plans := make([]models.SourceQueryPlan, 0, len(targets))
	planIdx := make([]int, 0, len(targets))
	for i, name := range targets {
		src, _ := s.cat.Get(name)
		sqlQuery, err := builder(ctx, src)
		if err != nil {
			results[i] = models.PartialResult{Source: name, Error: err.Error()}
			continue
		}
		plans = append(plans, models.SourceQueryPlan{Source: name, SQL: sqlQuery})
		planIdx = append(planIdx, i)
	}

	for j, res := range s.coordinator.FanOut(ctx, plans) {
		results[planIdx[j]] = res
	}

	return &StatsResult{
		Metric:   metric,
		Response: fanout.Combine(results),
	}, nil
}

type metricSQLBuilder func(ctx context.Context, src *catalog.Source) (string, error)

func (s *RouterService) metricBuilder(metric string) (metricSQLBuilder, error) {
	switch metric {
	case MetricCustomers:
		return func(_ context.Context, src *catalog.Source) (string, error) {
			if src.Metrics.Customers == "" {
				return "", fmt.Errorf("source %q defines no customers metric", src.Name)
			}
			return src.Metrics.Customers, nil
		}, nil
	case MetricPayments:
		return func(_ context.Context, src *catalog.Source) (string, error) {
			if src.Metrics.Payments == "" {
				return "", fmt.Errorf("source %q defines no payments metric", src.Name)
			}
			return src.Metrics.Payments, nil
		}, nil
	case MetricEntityCounts:
		return s.entityCountsSQL, nil
	case MetricTotalRecords:
		return s.totalRecordsSQL, nil
	default:
		return nil, fmt.Errorf("unknown metric %q: valid metrics are %s, %s, %s, %s",
			metric, MetricTotalRecords, MetricCustomers, MetricPayments, MetricEntityCounts)
	}
}

// entityCountsSQL composes the source's per-entity count queries into one
// statement yielding (entity, count) rows. Each entity query must return a
// single numeric column named count.
func (s *RouterService) entityCountsSQL(_ context.Context, src *catalog.Source) (string, error) {
	if len(src.Metrics.EntityCounts) == 0 {
		return "", fmt.Errorf("source %q defines no entity_counts metric", src.Name)
	}

	entities := make([]string, 0, len(src.Metrics.EntityCounts))
	for entity := range src.Metrics.EntityCounts {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	parts := make([]string, len(entities))
	for i, entity := range entities {
		parts[i] = fmt.Sprintf("SELECT '%s' AS entity, count FROM (%s) AS _c",
			escapeLiteral(entity), src.Metrics.EntityCounts[entity])
	}
	return strings.Join(parts, " UNION ALL "), nil
}

// totalRecordsSQL builds a per-table COUNT(*) union from the source's cached
// schema, bounded by the configured table cap. Table names come from the
// source's own metadata and are still identifier-quoted before interpolation.
func (s *RouterService) totalRecordsSQL(ctx context.Context, src *catalog.Source) (string, error) {
	adapter, ok := s.adapters[src.Name]
	if !ok {
		return "", fmt.Errorf("no adapter for source %q", src.Name)
	}

	tableSet := s.schema.TableNames(ctx, src.Name)
	if len(tableSet) == 0 {
		return "", fmt.Errorf("schema for source %q is unavailable", src.Name)
	}
	tables := make([]string, 0, len(tableSet))
	for table := range tableSet {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	if len(tables) > s.maxTables {
		tables = tables[:s.maxTables]
	}

	parts := make([]string, len(tables))
	for i, table := range tables {
		parts[i] = fmt.Sprintf("SELECT '%s' AS entity, COUNT(*) AS count FROM %s",
			escapeLiteral(table), adapter.QuoteIdentifier(table))
	}
	return strings.Join(parts, " UNION ALL "), nil
}

func escapeLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
