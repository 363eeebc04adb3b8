package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/opengeos/open-buildings-go/internal/convert"
	"github.com/opengeos/open-buildings-go/internal/format"
)

// WriteText renders a backend by format timing grid. A width of zero leaves
// the row length unconstrained.
func WriteText(w io.Writer, results []*Result, width int) {
	backends, formats := axes(results)
	lookup := map[convert.Backend]map[format.Format]*Result{}
	for _, result := range results {
		if lookup[result.Backend] == nil {
			lookup[result.Backend] = map[format.Format]*Result{}
		}
		lookup[result.Backend][result.Format] = result
	}

	tbl := table.NewWriter()
	if width > 0 {
		tbl.SetAllowedRowLength(width)
	}

	header := table.Row{"backend"}
	for _, f := range formats {
		header = append(header, string(f))
	}
	tbl.AppendHeader(header)

	for _, backend := range backends {
		row := table.Row{string(backend)}
		for _, f := range formats {
			if result, ok := lookup[backend][f]; ok {
				row = append(row, formatDuration(result.Duration))
			} else {
				row = append(row, "")
			}
		}
		tbl.AppendRow(row)
	}

	tbl.SetStyle(table.StyleRounded)
	tbl.SetOutputMirror(w)
	tbl.Render()
}

// WriteCSV writes one row per timing with the duration in seconds.
func WriteCSV(w io.Writer, results []*Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"backend", "format", "seconds"}); err != nil {
		return err
	}
	for _, result := range results {
		record := []string{
			string(result.Backend),
			string(result.Format),
			strconv.FormatFloat(result.Seconds, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteJSON(w io.Writer, results []*Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

// formatDuration renders mm:ss.mmm.
func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	seconds := d % time.Minute
	return fmt.Sprintf("%02d:%06.3f", minutes, seconds.Seconds())
}

func axes(results []*Result) ([]convert.Backend, []format.Format) {
	backends := []convert.Backend{}
	formats := []format.Format{}
	for _, result := range results {
		if !slices.Contains(backends, result.Backend) {
			backends = append(backends, result.Backend)
		}
		if !slices.Contains(formats, result.Format) {
			formats = append(formats, result.Format)
		}
	}
	return backends, formats
}
