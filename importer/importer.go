package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nonsonwune/collegerank/migrations"
	"github.com/nonsonwune/collegerank/models"
)

// Header matches below this confidence are ignored.
const minMatchConfidence = 0.8

var ErrMissingColumns = errors.New("missing required columns")

// ImportConfig holds the configuration for a colleges import.
type ImportConfig struct {
	SourceFile      string
	Table           string
	Replace         bool // truncate the table before loading
	RequiredColumns []string
}

// DataImporter loads a colleges CSV into Postgres.
type DataImporter struct {
	db     *sql.DB
	config ImportConfig
	log    *zap.SugaredLogger
}

func NewDataImporter(db *sql.DB, config ImportConfig, log *zap.SugaredLogger) *DataImporter {
	if len(config.RequiredColumns) == 0 {
		config.RequiredColumns = models.RequiredColumns
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DataImporter{db: db, config: config, log: log}
}

// ImportFile opens the configured source file and imports it.
func (d *DataImporter) ImportFile(ctx context.Context) (*ImportStats, error) {
	f, err := os.Open(d.config.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d.config.SourceFile, err)
	}
	defer f.Close()

	return d.ImportData(ctx, csv.NewReader(f))
}

// ImportData copies every valid record into the table inside one transaction.
// Invalid records are skipped and counted in the returned stats.
func (d *DataImporter) ImportData(ctx context.Context, reader *csv.Reader) (*ImportStats, error) {
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns, err := MapHeaders(headers, d.config.RequiredColumns)
	if err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := migrations.CreateTable(ctx, tx, d.config.Table, columns); err != nil {
		return nil, err
	}
	if d.config.Replace {
		if err := migrations.Truncate(ctx, tx, d.config.Table); err != nil {
			return nil, err
		}
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(d.config.Table, columns...))
	if err != nil {
		return nil, fmt.Errorf("preparing copy: %w", err)
	}

	stats := NewImportStats()
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		stats.TotalProcessed++
		if err != nil {
			stats.AddError("malformed record", fmt.Errorf("line %d: %w", line, err))
			continue
		}

		values, err := d.transformRecord(columns, record)
		if err != nil {
			stats.AddError(errorType(err), fmt.Errorf("line %d: %w", line, err))
			continue
		}

		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			stmt.Close()
			return nil, fmt.Errorf("copying line %d: %w", line, err)
		}
		stats.ValidRecords++
	}

	// Flush the buffered COPY data.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return nil, fmt.Errorf("flushing copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return nil, fmt.Errorf("closing copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	d.log.Infow("import finished",
		"table", d.config.Table,
		"processed", stats.TotalProcessed,
		"imported", stats.ValidRecords,
		"skipped", stats.SkippedRecords)
	return stats, nil
}

// RecordError describes why a single CSV record was rejected.
type RecordError struct {
	Kind   string
	Column string
	Value  string
}

func (e *RecordError) Error() string {
	if e.Column == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s=%q", e.Kind, e.Column, e.Value)
}

func errorType(err error) string {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Kind
	}
	return "other"
}

func (d *DataImporter) transformRecord(columns []string, record []string) ([]interface{}, error) {
	if len(record) != len(columns) {
		return nil, &RecordError{Kind: fmt.Sprintf("expected %d fields", len(columns))}
	}

	values := make([]interface{}, len(record))
	for i, c := range columns {
		v := strings.TrimSpace(record[i])
		switch c {
		case models.ColumnState, models.ColumnCollegeName:
			if v == "" {
				return nil, &RecordError{Kind: "empty value", Column: c}
			}
		case models.ColumnRating:
			if v != "" && math.IsNaN(models.ParseNumber(v)) {
				return nil, &RecordError{Kind: "invalid rating", Column: c, Value: v}
			}
		}
		// Cells are stored as found; state matching normalizes at query time.
		values[i] = record[i]
	}
	return values, nil
}

// ColumnMatch represents a potential column match with confidence score
type ColumnMatch struct {
	SourceColumn      string
	DestinationColumn string
	Confidence        float64
}

// MapHeaders returns the table column names for a CSV header. Headers that
// closely match a required column are renamed to it, e.g. "college_name"
// becomes "College Name". Every required column must be matched.
func MapHeaders(headers []string, required []string) ([]string, error) {
	columns := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}

	taken := make(map[int]bool)
	var missing []string
	for _, req := range required {
		if idx := getColumnIndex(columns, req); idx != -1 && !taken[idx] {
			columns[idx] = req
			taken[idx] = true
			continue
		}

		matched := false
		for _, m := range findBestColumnMatch(req, columns) {
			idx := getColumnIndex(columns, m.SourceColumn)
			if taken[idx] || m.Confidence < minMatchConfidence {
				continue
			}
			columns[idx] = req
			taken[idx] = true
			matched = true
			break
		}
		if !matched {
			missing = append(missing, req)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}

	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("header column %d is empty", i+1)
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate header column %q", c)
		}
		seen[c] = true
	}
	return columns, nil
}

// findBestColumnMatch uses fuzzy matching to rank headers against a column name
func findBestColumnMatch(column string, headers []string) []ColumnMatch {
	matches := make([]ColumnMatch, 0)
	want := squash(column)

	for _, h := range headers {
		got := squash(h)
		maxLen := max(len(want), len(got))
		if maxLen == 0 {
			continue
		}
		confidence := 1.0 - float64(levenshteinDistance(want, got))/float64(maxLen)
		if confidence > 0.6 {
			matches = append(matches, ColumnMatch{
				SourceColumn:      h,
				DestinationColumn: column,
				Confidence:        confidence,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, " ", "")
}

// getColumnIndex returns the index of a column in headers, ignoring case,
// spaces and underscores.
func getColumnIndex(headers []string, columnName string) int {
	want := squash(columnName)
	for i, h := range headers {
		if squash(h) == want {
			return i
		}
	}
	return -1
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}

type ImportStats struct {
	TotalProcessed int
	ValidRecords   int
	SkippedRecords int
	ErrorsByType   map[string]int
	Samples        []error
}

const maxSamples = 10

func NewImportStats() *ImportStats {
	return &ImportStats{ErrorsByType: make(map[string]int)}
}

func (s *ImportStats) AddError(errType string, err error) {
	s.ErrorsByType[errType]++
	s.SkippedRecords++
	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, err)
	}
}

// PrintSummary writes a coloured import report to w.
func (s *ImportStats) PrintSummary(w io.Writer) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintln(w, "\nImport Statistics:")
	fmt.Fprintf(w, "Total Records Processed: %d\n", s.TotalProcessed)
	color.New(color.FgGreen).Fprintf(w, "Successfully Imported: %d\n", s.ValidRecords)
	if s.SkippedRecords == 0 {
		return
	}
	color.New(color.FgRed).Fprintf(w, "Skipped Records: %d\n", s.SkippedRecords)

	heading.Fprintln(w, "\nErrors by Type:")
	types := make([]string, 0, len(s.ErrorsByType))
	for t := range s.ErrorsByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if s.ErrorsByType[types[i]] != s.ErrorsByType[types[j]] {
			return s.ErrorsByType[types[i]] > s.ErrorsByType[types[j]]
		}
		return types[i] < types[j]
	})
	for _, t := range types {
		fmt.Fprintf(w, "- %s: %d occurrences\n", t, s.ErrorsByType[t])
	}

	heading.Fprintf(w, "\nSample of Import Errors (up to %d):\n", maxSamples)
	for _, err := range s.Samples {
		fmt.Fprintf(w, "- %v\n", err)
	}
}
