package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/persistorai/aptaudit/client"
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

func formatTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", w, cell)
		}
		fmt.Println(strings.Join(parts, "  "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// output prints v as JSON, or quietVal alone with --format quiet. table is
// used when the caller supplied one and --format table is set.
func output(v any, quietVal string, table func()) {
	switch flagFmt {
	case "quiet":
		fmt.Println(quietVal)
	case "table":
		if table != nil {
			table()
			return
		}
		formatJSON(v)
	default:
		formatJSON(v)
	}
}

func itemRows(items []client.AuditItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		answered := "no"
		if it.IsAnswered {
			answered = "yes"
		}
		mandatory := ""
		if it.IsMandatory {
			mandatory = "*"
		}
		rows = append(rows, []string{
			idStr(it.ID),
			it.QuestionCode + mandatory,
			it.AnswerType,
			answered,
			truncate(it.QuestionText, 60),
		})
	}
	return rows
}

func incidenceRows(incidences []client.Incidence) [][]string {
	rows := make([][]string, 0, len(incidences))
	for _, inc := range incidences {
		rows = append(rows, []string{
			idStr(inc.ID),
			inc.Severity,
			inc.Status,
			idStr(inc.AuditItemID),
			truncate(inc.Title, 60),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func idStr(v int64) string { return strconv.FormatInt(v, 10) }
