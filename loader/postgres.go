package loader

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/nonsonwune/collegerank/migrations"
	"github.com/nonsonwune/collegerank/models"
)

// DBSource reads the colleges table imported into Postgres.
type DBSource struct {
	DB    *sql.DB
	Table string
}

// NewDBSource returns a source reading table through db.
func NewDBSource(db *sql.DB, table string) *DBSource {
	return &DBSource{DB: db, Table: table}
}

func (s *DBSource) Load(ctx context.Context) (*models.Table, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s",
		pq.QuoteIdentifier(s.Table), pq.QuoteIdentifier(migrations.RowIDColumn))

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", ErrDataUnavailable, s.Table, err)
	}
	defer rows.Close()

	dbColumns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var columns []string
	for _, c := range dbColumns {
		if c != migrations.RowIDColumn {
			columns = append(columns, c)
		}
	}
	table := models.NewTable(columns)

	values := make([]sql.NullString, len(dbColumns))
	dest := make([]interface{}, len(dbColumns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", ErrDataUnavailable, err)
		}
		row := make(models.Row, len(columns))
		for i, c := range dbColumns {
			if c == migrations.RowIDColumn {
				continue
			}
			row[c] = getString(values[i])
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	return table, nil
}

func getString(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
