package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colleges.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "State,College Name,Rating,Fees\nCA,X,9.5,1000\nNY,W,9.9,N/A\n")

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"State", "College Name", "Rating", "Fees"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "X", table.Rows[0]["College Name"])
	assert.Equal(t, "N/A", table.Rows[1]["Fees"])
}

func TestLoad_MissingFile(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"ragged rows", "State,College Name,Rating\nCA,X\n"},
		{"bare quote", "State,College Name,Rating\nCA,\"X\"y,9\n"},
		{"empty header", "State,,Rating\nCA,X,9\n"},
		{"duplicate header", "State,State,Rating\nCA,CA,9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(writeFile(t, tt.content))
			assert.Nil(t, table)
			assert.ErrorIs(t, err, ErrDataUnavailable)
		})
	}
}

func TestParse_TrimsHeaderAndBOM(t *testing.T) {
	table, err := Parse(strings.NewReader("\ufeff State , College Name ,Rating\nCA,X,9\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"State", "College Name", "Rating"}, table.Columns)
	assert.Equal(t, "CA", table.Rows[0]["State"])
}

func TestParse_HeaderOnly(t *testing.T) {
	table, err := Parse(strings.NewReader("State,College Name,Rating\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestCSVSource_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewCSVSource("").Path)

	path := writeFile(t, "State,College Name,Rating\nCA,X,9\n")
	table, err := NewCSVSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestCSVSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVSource(writeFile(t, "State\nCA\n")).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
