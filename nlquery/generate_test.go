package nlquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgpdata/chielect/nlquery/prompts"
)

func TestGenerateSQL(t *testing.T) {
	builder := prompts.NewPromptBuilder()

	t.Run("turnout by ward", func(t *testing.T) {
		sql, err := GenerateSQL("turnout by ward in 2023", builder)
		require.NoError(t, err)
		assert.Contains(t, sql, "SUBSTRING(precinct_id FROM 1 FOR 2)")
		assert.Contains(t, sql, "GROUP BY ward")
		assert.Contains(t, sql, "year = 2023")
	})

	t.Run("turnout across years", func(t *testing.T) {
		sql, err := GenerateSQL("how has turnout changed over time", builder)
		require.NoError(t, err)
		assert.Contains(t, sql, "GROUP BY year")
		assert.NotContains(t, sql, "year =")
	})

	t.Run("contest question", func(t *testing.T) {
		sql, err := GenerateSQL("who won the mayor race in 2019", builder)
		require.NoError(t, err)
		assert.Contains(t, sql, "LOWER(contest_name) LIKE '%mayor%'")
		assert.Contains(t, sql, "NOT IN ('registered', 'ballots')")
		assert.Contains(t, sql, "year = 2019")
	})

	t.Run("unmatchable question errors", func(t *testing.T) {
		_, err := GenerateSQL("what is the meaning of life", builder)
		assert.Error(t, err)
	})
}

func TestFindYear(t *testing.T) {
	assert.Equal(t, "2019", findYear("who won the mayor race in 2019"))
	assert.Equal(t, "1999", findYear("results from 1999"))
	assert.Equal(t, "", findYear("results for precinct 03007"))
	assert.Equal(t, "", findYear("turnout by ward"))
}

// Without an API key the engine must still answer pattern-matched
// questions instead of failing at construction.
func TestEngineOfflineFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	for _, name := range []string{"GEMINI_API_KEY_1", "GEMINI_API_KEY_2", "GEMINI_API_KEY_3", "GEMINI_API_KEY_4"} {
		t.Setenv(name, "")
	}

	engine, err := NewNLQueryEngine(context.Background(), nil)
	require.NoError(t, err)
	defer engine.Close()
	assert.Nil(t, engine.model)

	sql, err := engine.generateSQLQuery(context.Background(), "turnout by ward in 2023")
	require.NoError(t, err)
	assert.Contains(t, sql, "SUBSTRING(precinct_id FROM 1 FOR 2)")

	valid, reason := engine.validateQuery(context.Background(), "turnout by ward in 2023", sql)
	assert.True(t, valid)
	assert.Empty(t, reason)
}
