package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/apperrors"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/config"
	"github.com/crossquery/crossquery-engine/pkg/fanout"
	"github.com/crossquery/crossquery-engine/pkg/models"
	"github.com/crossquery/crossquery-engine/pkg/routing"
	"github.com/crossquery/crossquery-engine/pkg/translate"
)

const serviceCatalog = `
sources:
  - name: school_erp
    description: "School administration"
    aliases: ["school"]
    dialect: postgres
    keywords:
      - student
      - students
    queries:
      count: "SELECT COUNT(*) AS count FROM students"
      describe: "SELECT 'students' AS entity, COUNT(*) AS count FROM students"
    search:
      all: "SELECT * FROM students WHERE last_name ILIKE '%' || $1 || '%'"
    metrics:
      entity_counts:
        students: "SELECT COUNT(*) AS count FROM students"
        teachers: "SELECT COUNT(*) AS count FROM teachers"
  - name: chinook
    description: "Music store"
    dialect: postgres
    keywords:
      - track
      - tracks
    queries:
      count: "SELECT COUNT(*) AS count FROM customer"
      describe: "SELECT 'tracks' AS entity, COUNT(*) AS count FROM track"
    search:
      all: "SELECT * FROM customer WHERE last_name ILIKE '%' || $1 || '%'"
    metrics:
      customers: "SELECT COUNT(*) AS count FROM customer"
  - name: sakila
    description: "DVD rental"
    dialect: postgres
    keywords:
      - film
      - films
    queries:
      describe: "SELECT 'films' AS entity, COUNT(*) AS count FROM film"
    metrics:
      customers: "SELECT COUNT(*) AS count FROM customer"
`

// fakeAdapter is a scriptable datasource.Adapter recording every statement.
type fakeAdapter struct {
	mu       sync.Mutex
	tables   []string
	columns  map[string][]string
	rows     []map[string]any
	queryErr error
	pingErr  error
	executed []string
}

func (f *fakeAdapter) TableNames(ctx context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeAdapter) ColumnNames(ctx context.Context, table string) ([]string, error) {
	return f.columns[table], nil
}

func (f *fakeAdapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryResult, error) {
	return f.QueryWithParams(ctx, sqlQuery, nil, limit)
}

func (f *fakeAdapter) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryResult, error) {
	f.mu.Lock()
	f.executed = append(f.executed, sqlQuery)
	f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &datasource.QueryResult{Rows: f.rows, RowCount: len(f.rows)}, nil
}

func (f *fakeAdapter) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (f *fakeAdapter) Ping(ctx context.Context) error     { return f.pingErr }
func (f *fakeAdapter) Close() error                       { return nil }

func (f *fakeAdapter) executedSQL() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

var _ datasource.Adapter = (*fakeAdapter)(nil)

type testEnv struct {
	svc      *RouterService
	adapters map[string]*fakeAdapter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat, err := catalog.Parse([]byte(serviceCatalog))
	require.NoError(t, err)

	fakes := map[string]*fakeAdapter{
		"school_erp": {
			tables:  []string{"students", "teachers"},
			columns: map[string][]string{"students": {"student_id", "email"}},
			rows:    []map[string]any{{"count": 120}},
		},
		"chinook": {
			tables: []string{"customer", "track"},
			rows:   []map[string]any{{"count": 3503}},
		},
		"sakila": {
			tables: []string{"film", "actor", "rental"},
			rows:   []map[string]any{{"count": 1000}},
		},
	}

	cfg := &config.Config{
		Router: config.Router{ConfidenceThreshold: 50},
		Fanout: config.Fanout{
			PerSourceTimeoutSeconds: 5,
			RowCap:                  50,
			MaxTablesPerSource:      2,
		},
	}

	providers := make(map[string]datasource.SchemaExtractor, len(fakes))
	executors := make(map[string]fanout.Executor, len(fakes))
	adapters := make(map[string]datasource.Adapter, len(fakes))
	for name, fake := range fakes {
		providers[name] = fake
		executors[name] = fake
		adapters[name] = fake
	}

	keywords := routing.NewKeywordIndex(cat)
	schema := routing.NewSchemaIndex(providers, nil)
	detector := routing.NewDetector(cat, keywords, schema, nil)
	translator := translate.NewTranslator(cat, cfg.Fanout.RowCap)
	coordinator := fanout.NewCoordinator(executors, cfg.Fanout.PerSourceTimeout(), nil)

	svc := NewRouterService(cat, detector, keywords, schema, translator, coordinator, adapters, cfg, nil)
	return &testEnv{svc: svc, adapters: fakes}
}

func TestRouteQuery_ResolvedAndExecuted(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.RouteQuery(context.Background(), "how many students are enrolled?")
	require.NoError(t, err)

	assert.False(t, res.Ambiguous)
	assert.Equal(t, "school_erp", res.Source)
	assert.GreaterOrEqual(t, res.Confidence, 50)
	require.NotNil(t, res.Result)
	assert.True(t, res.Result.Success)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM students", res.SQL)

	require.Len(t, env.adapters["school_erp"].executedSQL(), 1)
	assert.Empty(t, env.adapters["chinook"].executedSQL())
}

func TestRouteQuery_AmbiguousDoesNotExecute(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.RouteQuery(context.Background(), "tell me something")
	require.NoError(t, err)

	assert.True(t, res.Ambiguous)
	assert.Nil(t, res.Result)
	assert.Len(t, res.Sources, 3, "clarification lists the sources to choose from")
	for _, fake := range env.adapters {
		assert.Empty(t, fake.executedSQL(), "ambiguity must not trigger I/O")
	}
}

func TestRouteQuery_FallsBackToDescribe(t *testing.T) {
	env := newTestEnv(t)

	// sakila has no count template; the describe template answers instead.
	res, err := env.svc.RouteQuery(context.Background(), "how many films are there?")
	require.NoError(t, err)

	assert.Equal(t, "sakila", res.Source)
	assert.Contains(t, res.SQL, "'films'")
}

func TestCrossSourceQuery_UnknownSourceFailsBeforeIO(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CrossSourceQuery(context.Background(), "count everything", []string{"school_erp", "warehouse"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownSource))
	for _, fake := range env.adapters {
		assert.Empty(t, fake.executedSQL())
	}
}

func TestCrossSourceQuery_CatalogOrder(t *testing.T) {
	env := newTestEnv(t)

	// Requested out of order; the response follows catalog order.
	res, err := env.svc.CrossSourceQuery(context.Background(), "describe the data", []string{"sakila", "school_erp"})
	require.NoError(t, err)

	assert.Equal(t, []string{"school_erp", "sakila"}, res.Sources)
	assert.Equal(t, []string{"school_erp", "sakila"}, res.Response.Order)
	assert.Empty(t, env.adapters["chinook"].executedSQL())
}

func TestCrossSourceQuery_SpanningWordSelectsAll(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.CrossSourceQuery(context.Background(), "record counts across everything", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"school_erp", "chinook", "sakila"}, res.Sources)
	require.NotNil(t, res.Response.Combined)
	assert.Equal(t, 3, res.Response.Combined.Successes)
	assert.Equal(t, float64(120+3503+1000), res.Response.Combined.Totals["count"])
}

func TestCrossSourceQuery_KeywordNarrowsTargets(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.CrossSourceQuery(context.Background(), "student records please", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"school_erp"}, res.Sources)
}

func TestCrossSourceQuery_FailedSourceDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.adapters["chinook"].queryErr = errors.New("connection refused")

	res, err := env.svc.CrossSourceQuery(context.Background(), "describe all data", nil)
	require.NoError(t, err)

	require.NotNil(t, res.Response.Combined)
	assert.Equal(t, 2, res.Response.Combined.Successes)
	assert.Equal(t, 1, res.Response.Combined.Failures)
	assert.Contains(t, res.Response.PerSource["chinook"].Error, "connection refused")
}

func TestUnifiedSearch_TotalsAndSkips(t *testing.T) {
	env := newTestEnv(t)
	env.adapters["school_erp"].rows = []map[string]any{{"student_id": 1}, {"student_id": 2}}
	env.adapters["chinook"].rows = []map[string]any{{"customer_id": 7}}

	res, err := env.svc.UnifiedSearch(context.Background(), "smith", models.SearchAll)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalMatches)
	// sakila has no search templates and must not be queried.
	assert.Empty(t, env.adapters["sakila"].executedSQL())
	assert.Equal(t, []string{"school_erp", "chinook"}, res.Response.Order)
}

func TestUnifiedSearch_RequiresTerm(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.UnifiedSearch(context.Background(), "", models.SearchAll)
	require.Error(t, err)
}

func TestUnifiedSearch_RejectsInjection(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UnifiedSearch(context.Background(), "' OR '1'='1", models.SearchAll)
	require.Error(t, err)
	for _, fake := range env.adapters {
		assert.Empty(t, fake.executedSQL())
	}
}

func TestAggregateStats_CustomersDegradesMissingMetric(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.AggregateStats(context.Background(), MetricCustomers)
	require.NoError(t, err)

	// school_erp defines no customers metric and is reported, not queried.
	assert.Empty(t, env.adapters["school_erp"].executedSQL())
	assert.Contains(t, res.Response.PerSource["school_erp"].Error, "customers")
	require.NotNil(t, res.Response.Combined)
	assert.Equal(t, 2, res.Response.Combined.Successes)
}

func TestAggregateStats_EntityCountsComposesUnion(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AggregateStats(context.Background(), MetricEntityCounts)
	require.NoError(t, err)

	executed := env.adapters["school_erp"].executedSQL()
	require.Len(t, executed, 1)
	assert.Contains(t, executed[0], "UNION ALL")
	assert.Contains(t, executed[0], "'students' AS entity")
	assert.Contains(t, executed[0], "'teachers' AS entity")
}

func TestAggregateStats_TotalRecordsCapsTables(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AggregateStats(context.Background(), MetricTotalRecords)
	require.NoError(t, err)

	// sakila has three tables but the cap is two; table names are sorted, so
	// actor and film make it and rental does not.
	executed := env.adapters["sakila"].executedSQL()
	require.Len(t, executed, 1)
	assert.Contains(t, executed[0], `"actor"`)
	assert.Contains(t, executed[0], `"film"`)
	assert.NotContains(t, executed[0], `"rental"`)
}

func TestAggregateStats_UnknownMetric(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.AggregateStats(context.Background(), "revenue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestRawSQL_ValidatesSourceFirst(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RawSQL(context.Background(), "warehouse", "SELECT 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownSource))
	for _, fake := range env.adapters {
		assert.Empty(t, fake.executedSQL())
	}
}

func TestRawSQL_Forwards(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.RawSQL(context.Background(), "school", "SELECT COUNT(*) FROM students")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)
	require.Len(t, env.adapters["school_erp"].executedSQL(), 1)
}

func TestSchemaInfo(t *testing.T) {
	env := newTestEnv(t)

	desc, err := env.svc.SchemaInfo(context.Background(), "school_erp", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"students", "teachers"}, desc.Tables)

	desc, err = env.svc.SchemaInfo(context.Background(), "school_erp", "students")
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "student_id"}, desc.Columns)

	_, err = env.svc.SchemaInfo(context.Background(), "school_erp", "nope")
	require.Error(t, err)
}

func TestRefreshSchema(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.svc.RefreshSchema("school"))
	err := env.svc.RefreshSchema("warehouse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownSource))
}

func TestListSources(t *testing.T) {
	env := newTestEnv(t)

	infos := env.svc.ListSources()
	require.Len(t, infos, 3)
	assert.Equal(t, "school_erp", infos[0].Name)
	assert.Equal(t, "School administration", infos[0].Description)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.adapters["chinook"].pingErr = errors.New("connection refused")

	statuses := env.svc.Health(context.Background(), time.Second)
	require.Len(t, statuses, 3)
	byName := make(map[string]SourceHealth, len(statuses))
	for _, st := range statuses {
		byName[st.Source] = st
	}
	assert.True(t, byName["school_erp"].Reachable)
	assert.False(t, byName["chinook"].Reachable)
	assert.Contains(t, byName["chinook"].Error, "connection refused")
}
