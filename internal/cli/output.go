package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/probe"
	"github.com/MrSnakeDoc/linkaudit/internal/search"
)

const maxCellWidth = 60

// progressPrinter writes fetch progress as plain lines.
type progressPrinter struct {
	w io.Writer
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) OnBatchStart(start, end int) {
	fmt.Fprintf(p.w, "🔎 fetching results %d-%d...\n", start, end)
}

func (p *progressPrinter) OnBatchComplete(count int) {
	fmt.Fprintf(p.w, "   %d collected\n", count)
}

func (p *progressPrinter) OnFinished(total int, t search.Termination) {
	fmt.Fprintf(p.w, "✅ %d results (%s)\n", total, t)
}

func printProbe(w io.Writer) probe.Progress {
	return func(done, total, _ int, rec domain.ResultRecord, c domain.Classification) {
		fmt.Fprintf(w, "[%d/%d] %s %s\n", done, total, c.Label(), rec.SourceURL)
	}
}

func renderRecords(w io.Writer, records []domain.ResultRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "URL", "Status", "Selected"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: maxCellWidth, WidthMaxEnforcer: text.Trim},
		{Name: "URL", WidthMax: maxCellWidth, WidthMaxEnforcer: text.Trim},
	})

	for i, rec := range records {
		selected := ""
		if rec.Selected {
			selected = "✓"
		}
		t.AppendRow(table.Row{i, rec.Title, rec.SourceURL, rec.Status, selected})
	}
	t.Render()
}

func printSummary(w io.Writer, sess *domain.Session, term search.Termination) {
	fmt.Fprintf(w, "\n%d records for %q (target %d, %s)\n", len(sess.Records), sess.Query, sess.Target, term)

	counts := make(map[string]int)
	for _, rec := range sess.Records {
		counts[rec.Status]++
	}
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(w, "  %-10s %d\n", s, counts[s])
	}
}
