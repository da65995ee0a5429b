package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"napscraper/lib/xlsxutil"
	"napscraper/services/communications"
	"napscraper/services/submissions"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/export")

const communicationsSheet = "Communications"
const submissionsSheet = "Submissions"

var submissionHeaders = []string{
	"Country", "Region", "National Adaptation Plan", "Date Posted", "LDC/SIDS", "Source", "Year",
}

// Write assembles the snapshot workbook (Communications, Submissions and a
// Readme sheet) and overwrites path with it.
func Write(ctx context.Context, path string, comms communications.Dataset, subs []submissions.Record) error {
	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()
	span.SetAttributes(
		attribute.String("path", path),
		attribute.Int("communications", len(comms.Rows)),
		attribute.Int("submissions", len(subs)),
	)

	workbook := xlsxutil.New()
	defer workbook.Close()

	err := workbook.AddSheet(communicationsSheet, comms.Headers, communicationRows(comms))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build communications sheet")
		return err
	}

	err = workbook.AddSheet(submissionsSheet, submissionHeaders, submissionRows(subs))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build submissions sheet")
		return err
	}

	err = workbook.AddReadme(readmeLines())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build readme sheet")
		return err
	}

	return workbook.Save(path)
}

func communicationRows(comms communications.Dataset) [][]string {
	rows := make([][]string, 0, len(comms.Rows))
	for _, row := range comms.Rows {
		values := make([]string, len(comms.Headers))
		for i, h := range comms.Headers {
			values[i] = row.Cells[h]
		}
		rows = append(rows, values)
	}
	return rows
}

func submissionRows(subs []submissions.Record) [][]string {
	rows := make([][]string, 0, len(subs))
	for _, r := range subs {
		year := ""
		if r.Year != 0 {
			year = strconv.Itoa(r.Year)
		}
		rows = append(rows, []string{
			r.Country, r.Region, r.Plan, r.DatePosted, r.LdcSids, string(r.Source), year,
		})
	}
	return rows
}

func readmeLines() []string {
	return []string{
		"This workbook contains NAP Communications and NAP Submissions scraped from the public registry pages:",
		"https://napcentral.org/submitted-naps",
		"https://napcentral.org/developed-country-naps",
		"https://napcentral.org/submitted-naps-developing",
		"",
		fmt.Sprintf("Snapshot taken on %s with the napscraper tool.", time.Now().Format("2 January 2006")),
		"Rows that concatenated an initial and an updated communication in one table cell were split into two records.",
		"The Togo submission entry is malformed at the source and was replaced with two hand-checked records.",
		"A date that matched no known format leaves the Year column empty for that record.",
		"",
		"Sheets: 'Communications' (one row per communication version, per country),",
		"'Submissions' (developed and developing country plans merged, sorted by country).",
	}
}
