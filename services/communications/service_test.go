package communications

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"napscraper/lib/htmlutil"
	"napscraper/lib/scrapers/napregistry"
	"napscraper/lib/telemetry"
	"napscraper/services/communications/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// fakeScraper fails a country a configured number of times before serving
// its table, mimicking the registry's rate limiting.
type fakeScraper struct {
	failuresLeft map[string]int
	tables       map[string]htmlutil.Table
	calls        map[string]int
}

func (f *fakeScraper) ScrapeCountry(ctx context.Context, country napregistry.Country, policy napregistry.RetryPolicy) (htmlutil.Table, error) {
	f.calls[country.Name]++
	if f.failuresLeft[country.Name] > 0 {
		f.failuresLeft[country.Name]--
		return htmlutil.Table{}, napregistry.ErrNoTable
	}
	table, ok := f.tables[country.Name]
	if !ok {
		return htmlutil.Table{}, napregistry.ErrNoTable
	}
	return table, nil
}

func singleRowTable(version string) htmlutil.Table {
	return htmlutil.Table{
		Headers: []string{"National Adaptation Plan", "Date Posted"},
		Rows:    [][]string{{version, "14/07/2022"}},
	}
}

func setupJournal(t *testing.T) *db.Queries {
	sqlite, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return db.New(sqlite)
}

func TestCollectBackfillsMissingCountries(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/communications")
	defer cleanup()

	scraper := &fakeScraper{
		// Beta's page only answers on the second pass
		failuresLeft: map[string]int{"Beta": 1},
		tables: map[string]htmlutil.Table{
			"Alpha": singleRowTable("Alpha NAP"),
			"Beta":  singleRowTable("Beta NAP"),
		},
		calls: map[string]int{},
	}
	journal := setupJournal(t)
	service := NewService(scraper, Options{
		MaxPasses: 5,
		Retry:     napregistry.ZeroDelayPolicy(2),
		Journal:   journal,
	})

	countries := []napregistry.Country{
		{Name: "Alpha", SourceURL: "https://registry.test/alpha"},
		{Name: "Beta", SourceURL: "https://registry.test/beta"},
	}
	dataset, report := service.Collect(context.Background(), countries)

	require.Equal(t, 2, report.Passes)
	require.Empty(t, report.Failed)
	require.ElementsMatch(t, []string{"Alpha", "Beta"}, report.Scraped)

	require.Len(t, dataset.Rows, 2)
	var tagged []string
	for _, row := range dataset.Rows {
		tagged = append(tagged, row.Country)
	}
	require.ElementsMatch(t, []string{"Alpha", "Beta"}, tagged)

	// Alpha was not re-scraped on the second pass
	require.Equal(t, 1, scraper.calls["Alpha"])
	require.Equal(t, 2, scraper.calls["Beta"])

	scraped, err := journal.ListByStatus(context.Background(), db.StatusScraped)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Alpha", "Beta"}, scraped)

	attempts, err := journal.CountAttempts(context.Background(), "Beta")
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestCollectKeepsSiblingNamesDistinct(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/communications")
	defer cleanup()

	scraper := &fakeScraper{
		// Nigeria's page only answers on the second pass. Niger's row must
		// not satisfy Nigeria's entry in the missing set.
		failuresLeft: map[string]int{"Nigeria": 1},
		tables: map[string]htmlutil.Table{
			"Niger":   singleRowTable("Niger NAP"),
			"Nigeria": singleRowTable("Nigeria NAP"),
		},
		calls: map[string]int{},
	}
	service := NewService(scraper, Options{
		MaxPasses: 5,
		Retry:     napregistry.ZeroDelayPolicy(2),
	})

	countries := []napregistry.Country{
		{Name: "Niger", SourceURL: "https://registry.test/niger"},
		{Name: "Nigeria", SourceURL: "https://registry.test/nigeria"},
	}
	dataset, report := service.Collect(context.Background(), countries)

	require.Empty(t, report.Failed)
	require.ElementsMatch(t, []string{"Niger", "Nigeria"}, report.Scraped)

	var tagged []string
	for _, row := range dataset.Rows {
		tagged = append(tagged, row.Country)
	}
	require.ElementsMatch(t, []string{"Niger", "Nigeria"}, tagged)

	require.Equal(t, 1, scraper.calls["Niger"])
	require.Equal(t, 2, scraper.calls["Nigeria"])
}

func TestCollectMarksPermanentFailures(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/communications")
	defer cleanup()

	scraper := &fakeScraper{
		failuresLeft: map[string]int{},
		tables: map[string]htmlutil.Table{
			"Alpha": singleRowTable("Alpha NAP"),
		},
		calls: map[string]int{},
	}
	journal := setupJournal(t)
	service := NewService(scraper, Options{
		MaxPasses: 3,
		Retry:     napregistry.ZeroDelayPolicy(2),
		Journal:   journal,
	})

	countries := []napregistry.Country{
		{Name: "Alpha", SourceURL: "https://registry.test/alpha"},
		{Name: "Ghost", SourceURL: "https://registry.test/ghost"},
	}
	dataset, report := service.Collect(context.Background(), countries)

	require.Equal(t, 3, report.Passes)
	require.Equal(t, []string{"Ghost"}, report.Failed)
	require.Len(t, dataset.Rows, 1)
	require.Equal(t, 3, scraper.calls["Ghost"])

	failed, err := journal.ListByStatus(context.Background(), db.StatusFailed)
	require.NoError(t, err)
	require.Equal(t, []string{"Ghost"}, failed)
}

func TestDatasetHeaderUnionAndRenames(t *testing.T) {
	var dataset Dataset
	dataset.Headers = []string{"Country"}

	dataset.append("Alpha", htmlutil.Table{
		Headers: []string{"Country", "National Adaptation Plan", "Date Posted", ""},
		Rows:    [][]string{{"Alpha", "NAP 1", "14/07/2022", "https://registry.test/doc.pdf"}},
	})
	dataset.append("Beta", htmlutil.Table{
		Headers: []string{"Party", "NAP Document Download", "Date Posted", "Language"},
		Rows:    [][]string{{"Beta", "https://registry.test/beta.pdf", "May 3, 2020", "French"}},
	})

	require.Equal(t,
		[]string{"Country", "National Adaptation Plan", "Date Posted", "Source Link", "Language"},
		dataset.Headers,
	)
	require.Equal(t, "https://registry.test/doc.pdf", dataset.Rows[0].Cells["Source Link"])
	require.Equal(t, "https://registry.test/beta.pdf", dataset.Rows[1].Cells["Source Link"])
	// the listing tag wins over the table's own country column
	require.Equal(t, "Beta", dataset.Rows[1].Cells["Country"])
}

func TestDatasetKeepsCollidingLinkColumns(t *testing.T) {
	var dataset Dataset
	dataset.Headers = []string{"Country"}

	dataset.append("Alpha", htmlutil.Table{
		Headers: []string{"", "NAP Document Download", "Date Posted"},
		Rows:    [][]string{{"https://registry.test/a.pdf", "https://registry.test/b.pdf", "14/07/2022"}},
	})

	require.Equal(t,
		[]string{"Country", "Source Link", "Source Link 2", "Date Posted"},
		dataset.Headers,
	)
	require.Equal(t, "https://registry.test/a.pdf", dataset.Rows[0].Cells["Source Link"])
	require.Equal(t, "https://registry.test/b.pdf", dataset.Rows[0].Cells["Source Link 2"])
}

func TestFinalizeSortsAndDerivesYear(t *testing.T) {
	dataset := Dataset{
		Headers: []string{"Country", "Date Posted"},
		Rows: []Row{
			{Country: "Zulu", Cells: map[string]string{"Country": "Zulu", "Date Posted": "14/07/2022"}},
			{Country: "Alpha", Cells: map[string]string{"Country": "Alpha", "Date Posted": "May 3, 2020"}},
			{Country: "Mike", Cells: map[string]string{"Country": "Mike", "Date Posted": "unknown"}},
		},
	}

	dataset.Finalize()

	require.Equal(t, []string{"Country", "Date Posted", "Year"}, dataset.Headers)
	require.Equal(t, "Alpha", dataset.Rows[0].Country)
	require.Equal(t, "2020", dataset.Rows[0].Cells["Year"])
	require.Equal(t, "", dataset.Rows[1].Cells["Year"])
	require.Equal(t, "2022", dataset.Rows[2].Cells["Year"])
}
