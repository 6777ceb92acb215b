package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
)

const testCatalog = `
sources:
  - name: School_ERP
    description: "School administration"
    aliases: ["school"]
    dialect: postgres
    connection:
      host: localhost
      database: school_erp
    keywords:
      - student
      - "fee payment"
      - "teacher:4"
    queries:
      count: "SELECT COUNT(*) AS count FROM students"
  - name: chinook
    description: "Music store"
    dialect: sqlserver
    connection:
      host: localhost
      database: chinook
    keywords:
      - track
`

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(testCatalog))
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	// Names are canonicalized to lower case, in catalog order.
	assert.Equal(t, []string{"school_erp", "chinook"}, cat.Names())

	src, err := cat.Get("school_erp")
	require.NoError(t, err)
	assert.Equal(t, "postgres", src.Dialect)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM students", src.Queries["count"])
}

func TestParse_KeywordWeights(t *testing.T) {
	cat, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	src, err := cat.Get("school_erp")
	require.NoError(t, err)
	require.Len(t, src.Keywords, 3)

	byTerm := make(map[string]int)
	for _, kw := range src.Keywords {
		byTerm[kw.Term] = kw.Weight
	}
	assert.Equal(t, 1, byTerm["student"], "bare single word weighs 1")
	assert.Equal(t, 2, byTerm["fee payment"], "bare phrase weighs 2")
	assert.Equal(t, 4, byTerm["teacher"], "explicit weight wins")
}

func TestGet_Alias(t *testing.T) {
	cat, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	src, err := cat.Get("SCHOOL")
	require.NoError(t, err)
	assert.Equal(t, "school_erp", src.Name)
}

func TestGet_Unknown(t *testing.T) {
	cat, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	_, err = cat.Get("warehouse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownSource))
	assert.Contains(t, err.Error(), "warehouse")
}

func TestParse_DuplicateSource(t *testing.T) {
	const dup = `
sources:
  - name: alpha
    dialect: postgres
    keywords: [a]
  - name: Alpha
    dialect: postgres
    keywords: [b]
`
	_, err := Parse([]byte(dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source")
}

func TestParse_BadDialect(t *testing.T) {
	const bad = `
sources:
  - name: alpha
    dialect: oracle
    keywords: [a]
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dialect")
}

func TestParse_NoSources(t *testing.T) {
	_, err := Parse([]byte("sources: []"))
	require.Error(t, err)
}

func TestParse_NoKeywords(t *testing.T) {
	const none = `
sources:
  - name: alpha
    dialect: postgres
`
	_, err := Parse([]byte(none))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword")
}

func TestParse_PasswordFromEnv(t *testing.T) {
	t.Setenv("CROSSQUERY_SCHOOL_ERP_PASSWORD", "s3cret")

	cat, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	src, err := cat.Get("school_erp")
	require.NoError(t, err)
	assert.Equal(t, "CROSSQUERY_SCHOOL_ERP_PASSWORD", src.Connection.PasswordEnv)
	assert.Equal(t, "s3cret", src.Connection.Password)
}

func TestParse_PasswordEnvOverride(t *testing.T) {
	const withEnv = `
sources:
  - name: alpha
    dialect: postgres
    keywords: [a]
    connection:
      password_env: MY_DB_SECRET
`
	t.Setenv("MY_DB_SECRET", "other")

	cat, err := Parse([]byte(withEnv))
	require.NoError(t, err)

	src, err := cat.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "other", src.Connection.Password)
}
