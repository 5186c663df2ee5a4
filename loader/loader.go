package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nonsonwune/collegerank/models"
)

// DefaultPath is where the colleges dataset lives relative to the working directory.
const DefaultPath = "colleges.csv"

// ErrDataUnavailable is returned when the dataset is missing or cannot be parsed.
// Callers treat it as "no data" rather than a request failure.
var ErrDataUnavailable = errors.New("colleges data unavailable")

// Source yields a fresh copy of the colleges table.
type Source interface {
	Load(ctx context.Context) (*models.Table, error)
}

// CSVSource reads the table from a delimited-text file.
type CSVSource struct {
	Path string
}

// NewCSVSource returns a source for path, falling back to DefaultPath.
func NewCSVSource(path string) *CSVSource {
	if path == "" {
		path = DefaultPath
	}
	return &CSVSource{Path: path}
}

func (s *CSVSource) Load(ctx context.Context) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path)
}

// Load reads the CSV file at path. Any read or parse problem is reported as
// ErrDataUnavailable.
func Load(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a CSV document whose first record is the header.
func Parse(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrDataUnavailable, err)
	}

	columns, err := cleanHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	table := models.NewTable(columns)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func cleanHeaders(headers []string) ([]string, error) {
	columns := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("header column %d is empty", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate header column %q", h)
		}
		seen[h] = true
		columns[i] = h
	}
	return columns, nil
}
