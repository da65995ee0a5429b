package napregistry

import (
	"context"
	"errors"

	"napscraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNoTable means no selector matched a communications table on the page.
var ErrNoTable = errors.New("no communications table found")

// primary selector, the layout most country pages use
const responsiveTableSelector = "div.table-responsive table"

// alternate layout some country pages ship instead. its tables repeat the
// same record across every row, so only the first row is meaningful.
const alternateTableSelector = "table.contextual"

// ExtractCommunications locates the communications table on a country page.
// The primary responsive layout is preferred with all its rows; the alternate
// layout keeps only its first row. When neither matches, ErrNoTable. A
// primary table with zero data rows is returned as-is, the retry layer does
// the row-count check.
func ExtractCommunications(ctx context.Context, doc *goquery.Document) (htmlutil.Table, error) {
	ctx, span := tracer.Start(ctx, "ExtractCommunications")
	defer span.End()

	table, ok := htmlutil.ExtractTable(ctx, doc.Find(responsiveTableSelector))
	if ok {
		span.SetAttributes(
			attribute.String("layout", "responsive"),
			attribute.Int("rows", len(table.Rows)),
		)
		return table, nil
	}

	table, ok = htmlutil.ExtractTable(ctx, doc.Find(alternateTableSelector))
	if ok {
		if len(table.Rows) > 1 {
			table.Rows = table.Rows[:1]
		}
		span.SetAttributes(
			attribute.String("layout", "alternate"),
			attribute.Int("rows", len(table.Rows)),
		)
		return table, nil
	}

	return htmlutil.Table{}, ErrNoTable
}
