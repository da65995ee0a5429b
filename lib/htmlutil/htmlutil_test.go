package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractTableWithThead(t *testing.T) {
	doc := docFromString(t, `
		<div class="wrapper">
			<table>
				<thead><tr><th>Country</th><th>Date Posted</th></tr></thead>
				<tbody>
					<tr><td>Alpha</td><td>14/07/2022</td></tr>
					<tr><td>Beta</td><td>May 3, 2020</td></tr>
				</tbody>
			</table>
		</div>
	`)

	table, ok := ExtractTable(context.Background(), doc.Find("div.wrapper"))
	require.True(t, ok)
	require.Equal(t, []string{"Country", "Date Posted"}, table.Headers)
	require.Len(t, table.Rows, 2)
	require.Equal(t, "Alpha", table.Get(0, "Country"))
	require.Equal(t, "May 3, 2020", table.Get(1, "Date Posted"))
}

func TestExtractTableHeaderFromFirstRow(t *testing.T) {
	doc := docFromString(t, `
		<table>
			<tr><th>Name</th><th>Value</th></tr>
			<tr><td>a</td><td>1</td></tr>
		</table>
	`)

	table, ok := ExtractTable(context.Background(), doc.Find("table"))
	require.True(t, ok)
	require.Equal(t, []string{"Name", "Value"}, table.Headers)
	require.Equal(t, [][]string{{"a", "1"}}, table.Rows)
}

func TestExtractTablePreservesCellPadding(t *testing.T) {
	doc := docFromString(t, `
		<table>
			<thead><tr><th>Plan</th></tr></thead>
			<tbody><tr><td>First NAP      Updated NAP</td></tr></tbody>
		</table>
	`)

	table, ok := ExtractTable(context.Background(), doc.Find("table"))
	require.True(t, ok)
	require.Equal(t, "First NAP      Updated NAP", table.Get(0, "Plan"))
}

func TestExtractTableMissing(t *testing.T) {
	doc := docFromString(t, `<div><p>no table here</p></div>`)

	_, ok := ExtractTable(context.Background(), doc.Find("div"))
	require.False(t, ok)
}

func TestExtractTableShortRowsPadded(t *testing.T) {
	doc := docFromString(t, `
		<table>
			<thead><tr><th>A</th><th>B</th><th>C</th></tr></thead>
			<tbody><tr><td>1</td><td>2</td></tr></tbody>
		</table>
	`)

	table, ok := ExtractTable(context.Background(), doc.Find("table"))
	require.True(t, ok)
	require.Equal(t, [][]string{{"1", "2", ""}}, table.Rows)
}

func TestGetAnchors(t *testing.T) {
	doc := docFromString(t, `
		<ul>
			<li><a href="/country/alpha">  Alpha
			Republic </a></li>
			<li><a href="/country/beta">Beta</a></li>
		</ul>
	`)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, Anchor{Name: "Alpha Republic", Href: "/country/alpha"}, anchors[0])
	require.Equal(t, Anchor{Name: "Beta", Href: "/country/beta"}, anchors[1])
}
