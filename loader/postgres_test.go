package loader

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBSource_MissingTable(t *testing.T) {
	dsn := os.Getenv("COLLEGERANK_TEST_DSN")
	if dsn == "" {
		t.Skip("COLLEGERANK_TEST_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	table, err := NewDBSource(db, "no_such_colleges_table").Load(context.Background())
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
