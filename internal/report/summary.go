// Package report renders issue counts as an aligned pipe table.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"harmonise/internal"
)

// IssueTally counts issues by field and datatype as they are written, so a
// run's summary never needs the issues themselves.
type IssueTally struct {
	index  map[[2]string]int
	counts []internal.IssueCount
}

func NewIssueTally() *IssueTally {
	return &IssueTally{index: map[[2]string]int{}}
}

func (t *IssueTally) WriteIssue(issue internal.Issue) error {
	key := [2]string{issue.Field, issue.Datatype}
	i, ok := t.index[key]
	if !ok {
		i = len(t.counts)
		t.index[key] = i
		t.counts = append(t.counts, internal.IssueCount{Field: issue.Field, Datatype: issue.Datatype})
	}
	t.counts[i].Count++
	return nil
}

func (t *IssueTally) Close() error {
	return nil
}

// Counts returns the tallies largest first, keeping first-seen order among
// equal counts.
func (t *IssueTally) Counts() []internal.IssueCount {
	out := append([]internal.IssueCount(nil), t.counts...)
	// insertion sort keeps ties stable
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// WriteIssueSummary writes one table row per count. Cell widths use display
// width so values with wide runes stay aligned.
func WriteIssueSummary(w io.Writer, counts []internal.IssueCount) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "no issues")
		return err
	}

	table := [][]string{{"field", "datatype", "count"}}
	total := 0
	for _, c := range counts {
		table = append(table, []string{c.Field, c.Datatype, strconv.Itoa(c.Count)})
		total += c.Count
	}
	table = append(table, []string{"total", "", strconv.Itoa(total)})

	widths := make([]int, 3)
	for _, row := range table {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	lines := make([]string, 0, len(table)+1)
	for i, row := range table {
		lines = append(lines, formatRow(row, widths))
		if i == 0 {
			sep := make([]string, len(widths))
			for j, width := range widths {
				sep[j] = strings.Repeat("-", width)
			}
			lines = append(lines, formatRow(sep, widths))
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func formatRow(cells []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(cell)
		if padding := widths[i] - runewidth.StringWidth(cell); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}
		sb.WriteString(" |")
	}
	return sb.String()
}
