package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/nonsonwune/collegerank/models"
)

// printRanking renders the ranked colleges as a terminal table.
func printRanking(w io.Writer, top *models.Table, state string) {
	color.New(color.FgYellow).Fprintf(w, "\nTop %d Colleges in %s\n", top.Len(), state)

	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Rank"}, top.Columns...))

	for i, row := range top.Rows {
		cells := make([]string, 0, len(top.Columns)+1)
		cells = append(cells, fmt.Sprintf("%d", i+1))
		for _, c := range top.Columns {
			cells = append(cells, row[c])
		}
		table.Append(cells)
	}

	table.Render()
}
