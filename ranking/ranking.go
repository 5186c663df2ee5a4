// Package ranking selects the best rated colleges of a state.
package ranking

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nonsonwune/collegerank/models"
)

// Limit is the maximum number of colleges a ranking returns.
const Limit = 10

// NormalizeState trims surrounding whitespace and case-folds a state name.
func NormalizeState(s string) string {
	return normalize(cases.Fold(), s)
}

// Casers keep state, so each ranking folds with its own.
func normalize(c cases.Caser, s string) string {
	return c.String(strings.TrimSpace(s))
}

// TopByState returns up to Limit rows whose State matches state, best rating
// first. Rows with equal ratings keep their input order and unparseable
// ratings sort last. The input table is not modified.
func TopByState(table *models.Table, state string) *models.Table {
	return Top(table, state, Limit)
}

// Top is TopByState with an explicit limit. A limit <= 0 keeps every match.
func Top(table *models.Table, state string, limit int) *models.Table {
	folder := cases.Fold()
	want := normalize(folder, state)

	out := models.NewTable(table.Columns)
	ratings := make([]float64, 0)
	for _, row := range table.Rows {
		if normalize(folder, row[models.ColumnState]) != want {
			continue
		}
		out.Rows = append(out.Rows, row.Clone())
		ratings = append(ratings, models.ParseNumber(row[models.ColumnRating]))
	}

	sort.Stable(byRating{rows: out.Rows, ratings: ratings})

	if limit > 0 && len(out.Rows) > limit {
		out.Rows = out.Rows[:limit]
	}
	return out
}

type byRating struct {
	rows    []models.Row
	ratings []float64
}

func (b byRating) Len() int { return len(b.rows) }

func (b byRating) Swap(i, j int) {
	b.rows[i], b.rows[j] = b.rows[j], b.rows[i]
	b.ratings[i], b.ratings[j] = b.ratings[j], b.ratings[i]
}

// Less orders descending with NaN after every number.
func (b byRating) Less(i, j int) bool {
	ri, rj := b.ratings[i], b.ratings[j]
	if math.IsNaN(ri) {
		return false
	}
	return math.IsNaN(rj) || ri > rj
}
