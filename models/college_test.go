package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTable() *Table {
	return &Table{
		Columns: []string{ColumnState, ColumnCollegeName, ColumnRating, "Fees", "Type"},
		Rows: []Row{
			{ColumnState: "CA", ColumnCollegeName: "X", ColumnRating: "9.5", "Fees": "1000", "Type": "Public"},
			{ColumnState: "NY", ColumnCollegeName: "W", ColumnRating: "9.9", "Fees": "N/A", "Type": "Private"},
		},
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 9.5, ParseNumber(" 9.5 "))
	assert.Equal(t, -3.0, ParseNumber("-3"))
	for _, s := range []string{"", "N/A", "abc", "NaN", "Inf", "-inf"} {
		assert.True(t, math.IsNaN(ParseNumber(s)), s)
	}
}

func TestTable_Numeric_DoesNotMutate(t *testing.T) {
	table := sampleTable()
	vals := table.Numeric("Fees")

	assert.Equal(t, 1000.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.Equal(t, "N/A", table.Rows[1]["Fees"])
}

func TestTable_MetricColumns(t *testing.T) {
	assert.Equal(t, []string{ColumnRating, "Fees"}, sampleTable().MetricColumns())
}

func TestTable_MissingColumns(t *testing.T) {
	table := sampleTable()
	assert.Empty(t, table.MissingColumns(RequiredColumns...))
	assert.Equal(t, []string{"Ranking"}, table.MissingColumns(ColumnState, "Ranking"))
}

func TestTable_Clone(t *testing.T) {
	table := sampleTable()
	clone := table.Clone()
	clone.Rows[0][ColumnState] = "TX"
	clone.Columns[0] = "Region"

	assert.Equal(t, "CA", table.Rows[0][ColumnState])
	assert.Equal(t, ColumnState, table.Columns[0])
}

func TestTable_LenNil(t *testing.T) {
	var table *Table
	assert.Equal(t, 0, table.Len())
}
