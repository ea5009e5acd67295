package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	testCases := []struct {
		driver string
		want   Dialect
	}{
		{driver: "postgres", want: Postgres},
		{driver: "pgx", want: Postgres},
		{driver: "sqlite3", want: SQLite},
		{driver: "sqlite", want: SQLite},
	}
	for _, tc := range testCases {
		t.Run(tc.driver, func(t *testing.T) {
			d, err := DialectFor(tc.driver)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d)
		})
	}

	_, err := DialectFor("mysql")
	assert.Error(t, err)
}

func TestDialects(t *testing.T) {
	assert.Equal(t, "postgres", Postgres.Name())
	assert.Equal(t, "$2", Postgres.Placeholder(2))
	assert.True(t, Postgres.RowSavepoints())

	assert.Equal(t, "sqlite3", SQLite.Name())
	assert.Equal(t, "?", SQLite.Placeholder(2))
	assert.False(t, SQLite.RowSavepoints())

	assert.Equal(t, `"ps_attribute"`, SQLite.QuoteIdentifier("ps_attribute"))
	assert.Equal(t, `"bad""name"`, Postgres.QuoteIdentifier(`bad"name`))
}
