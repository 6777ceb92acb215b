package translate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/models"
)

const translatorCatalog = `
sources:
  - name: school_erp
    dialect: postgres
    keywords: [student]
    queries:
      count: "SELECT COUNT(*) AS count FROM students"
      describe: "SELECT 'students' AS entity, COUNT(*) AS count FROM students"
    search:
      name: "SELECT * FROM students WHERE last_name ILIKE '%' || $1 || '%'"
      all: "SELECT * FROM students WHERE last_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'"
  - name: sakila
    dialect: sqlserver
    keywords: [film]
    queries:
      describe: "SELECT 'films' AS entity, COUNT(*) AS count FROM film"
`

func newTestTranslator(t *testing.T) *Translator {
	t.Helper()
	cat, err := catalog.Parse([]byte(translatorCatalog))
	require.NoError(t, err)
	return NewTranslator(cat, 50)
}

func TestTranslate_TemplateLookup(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(models.QueryIntent{Intent: models.IntentCount}, "school_erp")
	require.NoError(t, err)
	assert.Equal(t, "school_erp", plan.Source)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM students", plan.SQL)
	assert.Empty(t, plan.Params)
	assert.Equal(t, 50, plan.RowCap)
}

func TestTranslate_UnsupportedIntent(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(models.QueryIntent{Intent: models.IntentCount}, "sakila")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedIntent))
}

func TestTranslate_RawNeverTranslated(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(models.QueryIntent{Intent: models.IntentRaw}, "school_erp")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedIntent))
}

func TestTranslate_UnknownSource(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(models.QueryIntent{Intent: models.IntentCount}, "warehouse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownSource))
}

func TestTranslate_SearchBindsTerm(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(models.QueryIntent{
		Intent:     models.IntentSearch,
		SearchTerm: "smith",
		SearchKind: models.SearchName,
	}, "school_erp")
	require.NoError(t, err)
	assert.Equal(t, []any{"smith"}, plan.Params)
	assert.NotContains(t, plan.SQL, "smith", "term must be bound, never spliced")
}

func TestTranslate_SearchKindDefaultsToAll(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(models.QueryIntent{
		Intent:     models.IntentSearch,
		SearchTerm: "smith",
	}, "school_erp")
	require.NoError(t, err)
	assert.Contains(t, plan.SQL, "email")
}

func TestTranslate_SearchKindMissingTemplate(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(models.QueryIntent{
		Intent:     models.IntentSearch,
		SearchTerm: "smith",
		SearchKind: models.SearchEmail,
	}, "school_erp")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedIntent))
}

func TestTranslate_SearchRequiresTerm(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(models.QueryIntent{
		Intent:     models.IntentSearch,
		SearchKind: models.SearchName,
	}, "school_erp")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUnsupportedIntent))
}

func TestTranslate_SearchRejectsInjection(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(models.QueryIntent{
		Intent:     models.IntentSearch,
		SearchTerm: "' OR '1'='1",
		SearchKind: models.SearchName,
	}, "school_erp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injection")
}

func TestTranslate_LimitCap(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(models.QueryIntent{Intent: models.IntentCount, Limit: 10}, "school_erp")
	require.NoError(t, err)
	assert.Equal(t, 10, plan.RowCap, "explicit limit within cap is honored")

	plan, err = tr.Translate(models.QueryIntent{Intent: models.IntentCount, Limit: 10000}, "school_erp")
	require.NoError(t, err)
	assert.Equal(t, 50, plan.RowCap, "oversized limit falls back to the row cap")
}
