package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/arloliu/blocktally"
	"github.com/arloliu/blocktally/tally"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// newTable returns a table whose columns listed in numeric are right aligned.
func newTable(headers []string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		right[col] = true
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func comma(n uint64) string {
	if n > 1<<62 {
		return strconv.FormatUint(n, 10)
	}

	return humanize.Comma(int64(n)) //nolint:gosec
}

func renderEntries(w io.Writer, entries []blocktally.Entry, total uint64) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No blocks counted.")
		return err
	}

	t := newTable([]string{"#", "BLOCK", "COUNT", "SHARE"}, 0, 2, 3)
	for i, e := range entries {
		share := 0.0
		if total > 0 {
			share = float64(e.Count) / float64(total) * 100
		}
		t.Row(strconv.Itoa(i+1), e.ID, comma(e.Count), fmt.Sprintf("%.2f%%", share))
	}

	_, err := fmt.Fprintln(w, t.Render())

	return err
}

func renderSummary(w io.Writer, r *tally.Report, cancelled bool) {
	s := r.Stats
	fmt.Fprintf(w, "\n%s blocks, %s distinct, in %s chunks of %d regions (%s) in %s\n",
		comma(s.Blocks),
		humanize.Comma(int64(r.Table.Len())),
		humanize.Comma(int64(s.Chunks)),
		s.Regions,
		humanize.IBytes(uint64(max(s.Bytes, 0))),
		s.Elapsed.Round(time.Millisecond),
	)
	if s.RegionsCached > 0 {
		fmt.Fprintf(w, "%d regions answered from the cache\n", s.RegionsCached)
	}
	if s.RegionsInterrupted > 0 {
		fmt.Fprintf(w, "%d regions interrupted and not counted\n", s.RegionsInterrupted)
	}
	if cancelled {
		fmt.Fprintln(w, "Scan interrupted; counts are partial.")
	}
}

// printFailures prints a one-line summary, or every failure when verbose.
func printFailures(w io.Writer, failures []tally.Failure, verbose bool) {
	if len(failures) == 0 {
		return
	}
	if !verbose {
		fmt.Fprintf(w, "%d failures (use --verbose to list them)\n", len(failures))
		return
	}

	fmt.Fprintf(w, "%d failures:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s\n", f.Error())
	}
}

type jsonFailure struct {
	Path    string `json:"path"`
	RegionX int    `json:"region_x"`
	RegionZ int    `json:"region_z"`
	ChunkX  *int   `json:"chunk_x,omitempty"`
	ChunkZ  *int   `json:"chunk_z,omitempty"`
	Error   string `json:"error"`
}

type jsonReport struct {
	RunID       string             `json:"run_id,omitempty"`
	Interrupted bool               `json:"interrupted"`
	Total       uint64             `json:"total"`
	Distinct    int                `json:"distinct"`
	Entries     []blocktally.Entry `json:"entries"`
	Stats       tally.Stats        `json:"stats"`
	Failures    []jsonFailure      `json:"failures"`
}

func newJSONReport(res *blocktally.Result, runID string, cancelled bool) jsonReport {
	r := jsonReport{
		RunID:       runID,
		Interrupted: cancelled,
		Total:       res.Report.Table.Total(),
		Distinct:    res.Report.Table.Len(),
		Entries:     res.Entries,
		Stats:       res.Report.Stats,
		Failures:    make([]jsonFailure, 0, len(res.Report.Failures)),
	}
	if r.Entries == nil {
		r.Entries = []blocktally.Entry{}
	}

	for _, f := range res.Report.Failures {
		jf := jsonFailure{
			Path:    f.Path,
			RegionX: f.Region.X,
			RegionZ: f.Region.Z,
			Error:   f.Err.Error(),
		}
		if f.ChunkX >= 0 {
			x, z := f.ChunkX, f.ChunkZ
			jf.ChunkX, jf.ChunkZ = &x, &z
		}
		r.Failures = append(r.Failures, jf)
	}

	return r
}
