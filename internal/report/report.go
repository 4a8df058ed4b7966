// Package report renders a comparison run as markdown and HTML
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"sheetdiff/domain/run"
)

// Markdown renders rec. sum adds match and statistics details when the run
// just finished in this process; it may be nil for runs read from history.
func Markdown(rec run.Record, sum *run.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Comparison %s\n\n", rec.ID)
	fmt.Fprintf(&b, "**%s** vs **%s**", escape(rec.BaselineName), escape(rec.CandidateName))
	if rec.SheetName != "" {
		fmt.Fprintf(&b, ", sheet `%s`", rec.SheetName)
	}
	b.WriteString("\n\n")

	b.WriteString("| Outcome | Changed cells | Added rows | Removed rows | Duration |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %d | %d | %d | %s |\n\n",
		rec.Outcome, rec.ChangedCells, rec.AddedRows, rec.RemovedRows, rec.Duration().Round(time.Millisecond))

	fmt.Fprintf(&b, "- Header row: %d\n", rec.HeaderRow)
	if len(rec.KeyFields) > 0 {
		fmt.Fprintf(&b, "- Key fields: %s\n", escape(strings.Join(rec.KeyFields, ", ")))
	}
	if sum != nil {
		fmt.Fprintf(&b, "- Rows matched: %d (%s)\n", sum.MatchedRows, sum.RowMatchMode)
		fmt.Fprintf(&b, "- Columns matched: %d (%s)\n", sum.MatchedColumns, sum.ColumnMatchMode)
	}
	if !rec.Fingerprint.IsEmpty() {
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n", rec.Fingerprint.Short())
	}
	fmt.Fprintf(&b, "- Started: %s\n", rec.StartedAt.Format(time.RFC3339))

	if rec.ErrorDetail != "" {
		fmt.Fprintf(&b, "\n## Error\n\n```\n%s\n```\n", rec.ErrorDetail)
	}

	if sum != nil && sum.NumericDeltas != nil {
		d := sum.NumericDeltas
		b.WriteString("\n## Numeric changes\n\n")
		b.WriteString("| Count | Sum | Mean | Median | Min | Max |\n")
		b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %d | %g | %g | %g | %g | %g |\n", d.Count, d.Sum, d.Mean, d.Median, d.Min, d.Max)
	}

	if len(rec.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range rec.Warnings {
			fmt.Fprintf(&b, "- %s\n", escape(w))
		}
	}

	if len(rec.Outputs) > 0 {
		b.WriteString("\n## Outputs\n\n")
		for _, p := range rec.Outputs {
			fmt.Fprintf(&b, "- `%s`\n", filepath.Base(p))
		}
	}
	return b.String()
}

// HTML renders the markdown report as a complete page
func HTML(rec run.Record, sum *run.Summary) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Comparison " + rec.ID.String(),
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
	})
	return markdown.ToHTML([]byte(Markdown(rec, sum)), p, renderer)
}

var escaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "'")

// escape keeps user-supplied names from breaking table and emphasis syntax
func escape(s string) string {
	return escaper.Replace(s)
}
