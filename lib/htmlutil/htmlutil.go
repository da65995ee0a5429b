package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("lib/htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanInline normalizes text meant to be a label or name: newlines and tabs
// become spaces, other non-printable characters are stripped, surrounding
// whitespace is trimmed and inner runs collapse to one space.
func CleanInline(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, " ")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// CleanCell trims a table cell without collapsing inner whitespace, the
// source tables pad concatenated records with long space runs that later
// processing depends on. Newlines and tabs inside the cell become spaces so
// run lengths survive the html parse.
func CleanCell(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == ' ' {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	return strings.Trim(s, " ")
}

type Anchor struct {
	Name string
	Href string
}

func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	ctx, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}

		name := CleanInline(GetText(n))
		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}

// Table is an HTML table flattened into an ordered header list and rows of
// cell text aligned to it. Rows shorter than the header list are padded with
// empty strings, longer rows keep their extra cells unlabeled.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Get returns the cell under the named header for the given row.
func (t Table) Get(row int, header string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	for i, h := range t.Headers {
		if h == header && i < len(t.Rows[row]) {
			return t.Rows[row][i]
		}
	}
	return ""
}

// ExtractTable flattens the first <table> within sel. The header row is taken
// from <thead> cells when present, otherwise from the first <tr> containing
// <th> cells, otherwise from the first row. Returns false when sel contains
// no table at all.
func ExtractTable(ctx context.Context, sel *goquery.Selection) (Table, bool) {
	ctx, span := tracer.Start(ctx, "ExtractTable")
	defer span.End()

	tableSel := sel
	if !sel.Is("table") {
		tableSel = sel.Find("table").First()
	}
	if tableSel.Length() == 0 {
		return Table{}, false
	}

	var out Table

	headerRow := tableSel.Find("thead tr").First()
	if headerRow.Length() == 0 {
		firstRow := tableSel.Find("tr").First()
		if firstRow.Find("th").Length() > 0 || firstRow.Find("td").Length() > 0 {
			headerRow = firstRow
		}
	}
	headerRow.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
		out.Headers = append(out.Headers, CleanInline(cell.Text()))
	})

	bodyRows := tableSel.Find("tbody tr")
	if bodyRows.Length() == 0 {
		bodyRows = tableSel.Find("tr")
	}
	bodyRows.Each(func(_ int, row *goquery.Selection) {
		if headerRow.Length() > 0 && row.Nodes[0] == headerRow.Nodes[0] {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		values := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			values = append(values, CleanCell(cell.Text()))
		})
		for len(values) < len(out.Headers) {
			values = append(values, "")
		}
		out.Rows = append(out.Rows, values)
	})

	span.SetAttributes(
		attribute.Int("headers", len(out.Headers)),
		attribute.Int("rows", len(out.Rows)),
	)
	return out, true
}
