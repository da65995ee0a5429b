package main

import (
	"os"
	"strings"

	"napscraper/services/communications"
	"napscraper/services/submissions"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func printReport(
	outputPath string,
	dataset communications.Dataset,
	records []submissions.Record,
	report communications.Report,
) {
	t := newTable()
	t.AppendHeader(table.Row{"Sheet", "Rows"})
	t.AppendRow(table.Row{"Communications", len(dataset.Rows)})
	t.AppendRow(table.Row{"Submissions", len(records)})
	t.AppendFooter(table.Row{"Workbook", outputPath})
	t.Render()

	if report.Passes == 0 && len(report.Failed) == 0 {
		return
	}

	t = newTable()
	t.AppendHeader(table.Row{"Backfill passes", "Countries scraped", "Permanently failed"})
	t.AppendRow(table.Row{
		report.Passes,
		len(report.Scraped),
		strings.Join(report.Failed, ", "),
	})
	t.Render()
}
