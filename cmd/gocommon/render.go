package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/pretty"

	"github.com/psanodiya94/gocommon/pkg/dbutil"
)

// renderRows prints a result set as an aligned table. Columns are sorted by
// name, since rows are maps and carry no column order.
func renderRows(rows []dbutil.Row) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	widths := make([]int, len(columns))
	for i, column := range columns {
		widths[i] = len(column)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i, column := range columns {
			value := cast.ToString(row[column])
			cells[r][i] = value
			if len(value) > widths[i] {
				widths[i] = len(value)
			}
		}
	}

	printRow(columns, widths)
	separators := make([]string, len(columns))
	for i, width := range widths {
		separators[i] = strings.Repeat("-", width)
	}
	printRow(separators, widths)

	for _, row := range cells {
		printRow(row, widths)
	}
	fmt.Printf("%d row(s)\n", len(rows))
}

func printRow(values []string, widths []int) {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = fmt.Sprintf("%-*s", widths[i], value)
	}
	fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func renderTableColumns(columns []dbutil.TableColumn) {
	rows := make([]dbutil.Row, 0, len(columns))
	for _, column := range columns {
		rows = append(rows, dbutil.Row{
			"COLUMN":   column.Name,
			"TYPE":     column.Type,
			"LENGTH":   column.Length,
			"NULLABLE": column.Nullable,
		})
	}
	renderRows(rows)
}

// renderJSON pretty-prints v as indented JSON.
func renderJSON(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Print(string(pretty.Pretty(raw)))
}
