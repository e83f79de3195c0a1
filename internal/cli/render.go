package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderResults renders a result set in the requested format.
func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}

		row := make(map[string]any)
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		buildTable(w, cols, results).RenderCSV()
		return nil
	case "md", "markdown":
		buildTable(w, cols, results).RenderMarkdown()
		return nil
	default:
		t := buildTable(w, cols, results)
		t.SetStyle(table.StyleLight)
		t.Render()
		fmt.Fprintf(w, "%d row(s)\n", len(results))
		return nil
	}
}

func buildTable(w io.Writer, cols []string, results []map[string]any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range results {
		out := make(table.Row, len(cols))
		for i, col := range cols {
			val := row[col]
			if val == nil {
				val = "NULL"
			}
			out[i] = val
		}
		t.AppendRow(out)
	}
	return t
}
