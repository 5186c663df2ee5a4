package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// RowIDColumn keeps the file order of imported rows.
const RowIDColumn = "row_id"

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CreateTableSQL returns the DDL for a colleges table holding every CSV
// column as text, in header order.
func CreateTableSQL(table string, columns []string) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, pq.QuoteIdentifier(RowIDColumn)+" BIGSERIAL PRIMARY KEY")
	for _, c := range columns {
		defs = append(defs, pq.QuoteIdentifier(c)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(table), strings.Join(defs, ", "))
}

// CreateTable creates the colleges table if it does not exist yet.
func CreateTable(ctx context.Context, db Execer, table string, columns []string) error {
	if _, err := db.ExecContext(ctx, CreateTableSQL(table, columns)); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	return nil
}

// Truncate removes every row and resets the row ids.
func Truncate(ctx context.Context, db Execer, table string) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", pq.QuoteIdentifier(table))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncating table %s: %w", table, err)
	}
	return nil
}

// VerifySchema checks that the table exists and carries the required columns.
func VerifySchema(ctx context.Context, db *sql.DB, table string, required []string) error {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		AND table_name = $1`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(present) == 0 {
		return fmt.Errorf("required table %s does not exist", table)
	}

	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing required columns: %v", table, missing)
	}
	return nil
}
