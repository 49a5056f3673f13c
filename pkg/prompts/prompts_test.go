package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerostat-io/aerostat-engine/pkg/datasource"
	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

func testSchemas() []*datasource.TableSchema {
	return []*datasource.TableSchema{
		{
			Table: "airports",
			Columns: []datasource.ColumnInfo{
				{Name: "id", ColumnType: "int unsigned", Key: "PRI"},
				{Name: "iata", ColumnType: "char(3)", Key: "UNI", Comment: "IATA airport code"},
				{Name: "city", ColumnType: "varchar(100)", Nullable: true},
			},
			Indexes: []datasource.IndexInfo{
				{Name: "PRIMARY", Columns: []string{"id"}, Unique: true},
				{Name: "idx_city", Columns: []string{"city"}},
			},
		},
		{
			Table: "flight_legs",
			Columns: []datasource.ColumnInfo{
				{Name: "id", ColumnType: "bigint", Key: "PRI"},
				{Name: "delay_minutes", ColumnType: "int", Nullable: true},
			},
		},
	}
}

func TestBuildSchemaDescription(t *testing.T) {
	desc := BuildSchemaDescription(testSchemas(), nil)

	assert.Contains(t, desc, "### airports (one row per airport)")
	assert.Contains(t, desc, "### flight_legs (one row per flight leg)")
	assert.Contains(t, desc, "- iata: char(3) [unique] -- IATA airport code")
	assert.Contains(t, desc, "- city: varchar(100) (nullable)")
	assert.Contains(t, desc, "idx_city (city) index")
	assert.Contains(t, desc, "PRIMARY (id) unique index")
}

func TestBuildSchemaDescription_WithKnowledge(t *testing.T) {
	k := &Knowledge{
		Description: "Flight statistics for Tunisian airports.",
		Facts:       []string{"delay_minutes is NULL for cancelled flights"},
		Tables:      map[string]string{"airports": "Only commercial airports are tracked."},
	}
	desc := BuildSchemaDescription(testSchemas(), k)

	assert.Contains(t, desc, "Flight statistics for Tunisian airports.")
	assert.Contains(t, desc, "Only commercial airports are tracked.")
	assert.Contains(t, desc, "## Warehouse Notes")
	assert.Contains(t, desc, "- delay_minutes is NULL for cancelled flights")
}

func TestBuildGenerationPrompt(t *testing.T) {
	desc := BuildSchemaDescription(testSchemas(), nil)
	prompt := BuildGenerationPrompt("How many airports are in Tunis?", desc)

	assert.Contains(t, prompt, "## Database Schema")
	assert.Contains(t, prompt, "## Question")
	assert.Contains(t, prompt, "How many airports are in Tunis?")
}

func TestBuildRegenerationPrompt(t *testing.T) {
	desc := BuildSchemaDescription(testSchemas(), nil)
	errs := []enginesql.ValidationError{
		{
			Kind:       enginesql.ErrorKindDialect,
			Message:    "ILIKE is not supported",
			Suggestion: "use LOWER(x) LIKE LOWER(y)",
		},
	}
	prompt := BuildRegenerationPrompt("Which airports match 'tun'?", desc,
		"SELECT * FROM airports WHERE city ILIKE '%tun%'", errs)

	assert.Contains(t, prompt, "## Previous Attempt")
	assert.Contains(t, prompt, "SELECT * FROM airports WHERE city ILIKE '%tun%'")
	assert.Contains(t, prompt, "[dialect] ILIKE is not supported")
	assert.Contains(t, prompt, "Fix: use LOWER(x) LIKE LOWER(y)")
	assert.Contains(t, prompt, "Which airports match 'tun'?")
}

func TestLoadKnowledge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.yaml")
	content := `description: Flight statistics warehouse.
facts:
  - All timestamps are UTC.
tables:
  flights: One row per scheduled flight.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	k, err := LoadKnowledge(path)
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.Equal(t, "Flight statistics warehouse.", k.Description)
	assert.Equal(t, []string{"All timestamps are UTC."}, k.Facts)
	assert.Equal(t, "One row per scheduled flight.", k.Tables["flights"])
}

func TestLoadKnowledge_Missing(t *testing.T) {
	k, err := LoadKnowledge(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, k)
}

func TestLoadKnowledge_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not yaml"), 0o644))

	_, err := LoadKnowledge(path)
	assert.Error(t, err)
}
