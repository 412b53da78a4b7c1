package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/crqscan/pkg/scan"
)

const noCheckpoint = "none"

func newColor(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}

	return c
}

func renderSummary(w io.Writer, summary *scan.Summary, checkpointPath string, noColor bool) error {
	title := newColor(noColor, color.Bold)
	good := newColor(noColor, color.FgGreen)
	quiet := newColor(noColor, color.FgYellow)

	previous := noCheckpoint
	if summary.Previous != nil {
		previous = summary.Previous.String()
	}

	var b strings.Builder

	title.Fprintf(&b, "Scanned %s commits (%s lines, %s skipped) in %s\n",
		humanize.Comma(int64(summary.Commits)),
		humanize.Comma(int64(summary.Lines)),
		humanize.Comma(int64(summary.SkippedLines)),
		summary.Duration.Round(time.Millisecond),
	)

	fmt.Fprintf(&b, "Head:       %s\n", summary.Head)
	fmt.Fprintf(&b, "Previous:   %s\n", previous)
	fmt.Fprintf(&b, "Checkpoint: %s\n\n", checkpointPath)

	b.WriteString(categoryTable(summary))
	b.WriteString("\n\n")

	if n := summary.NewValues(); n > 0 {
		good.Fprintf(&b, "%s new values recorded\n", humanize.Comma(int64(n)))
	} else {
		quiet.Fprintln(&b, "No new values")
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func categoryTable(summary *scan.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = true

	tbl.AppendHeader(table.Row{"Category", "New", "Total"})

	totalNew, total := 0, 0

	for _, c := range summary.Categories {
		tbl.AppendRow(table.Row{
			strings.ReplaceAll(c.Name, "_", " "),
			humanize.Comma(int64(c.New)),
			humanize.Comma(int64(c.Total)),
		})

		totalNew += c.New
		total += c.Total
	}

	tbl.AppendFooter(table.Row{"All", humanize.Comma(int64(totalNew)), humanize.Comma(int64(total))})

	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	return tbl.Render()
}
