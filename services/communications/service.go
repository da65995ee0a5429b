package communications

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"napscraper/lib/dateutil"
	"napscraper/lib/htmlutil"
	"napscraper/lib/scrapers/napregistry"
	"napscraper/services/communications/db"

	"go.opentelemetry.io/otel/attribute"
)

// Row is one scraped communications record tagged with the country it came
// from. Cells are keyed by the source table's header labels.
type Row struct {
	Country string
	Cells   map[string]string
	Outcome SplitOutcome
}

// Dataset accumulates rows across countries. Headers is the union of every
// scraped table's columns in first-seen order, starting with the Country tag.
type Dataset struct {
	Headers []string
	Rows    []Row
}

const countryHeader = "Country"
const documentHeader = "Source Link"
const yearHeader = "Year"

// CountryScraper is the per-country scraping capability, satisfied by
// napregistry.Client.
type CountryScraper interface {
	ScrapeCountry(ctx context.Context, country napregistry.Country, policy napregistry.RetryPolicy) (htmlutil.Table, error)
}

const DefaultMaxPasses = 5
const DefaultSplitThreshold = 5

type Options struct {
	// upper bound on full backfill sweeps, countries still missing after
	// the last pass are reported permanently failed
	MaxPasses int
	Retry     napregistry.RetryPolicy
	// journal is optional, a nil value disables persistence
	Journal *db.Queries
}

type Service struct {
	scraper CountryScraper
	opts    Options
}

func NewService(scraper CountryScraper, opts Options) Service {
	if opts.MaxPasses < 1 {
		opts.MaxPasses = DefaultMaxPasses
	}
	if opts.Retry.NewDelay == nil {
		opts.Retry = napregistry.DefaultRetryPolicy()
	}
	return Service{scraper: scraper, opts: opts}
}

// Report summarizes a collection run for the caller instead of pretending
// every country succeeded.
type Report struct {
	Passes  int
	Scraped []string
	Failed  []string
}

// Collect sweeps the full country list once, then repeats over the missing
// subset until either nothing is missing or the pass budget runs out.
// Failures never abort the run, they surface as omissions in the report.
func (s Service) Collect(ctx context.Context, countries []napregistry.Country) (Dataset, Report) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	var dataset Dataset
	dataset.Headers = []string{countryHeader}

	report := Report{}
	pending := countries

	for pass := 1; pass <= s.opts.MaxPasses && len(pending) > 0; pass++ {
		report.Passes = pass
		slog.InfoContext(ctx, "starting backfill pass", "pass", pass, "pending", len(pending))

		for _, country := range pending {
			slog.InfoContext(ctx, "processing country", "country", country.Name, "url", country.SourceURL)

			table, err := s.scraper.ScrapeCountry(ctx, country, s.opts.Retry)
			if err != nil {
				s.journalAttempt(ctx, country, pass, false, err.Error())
				continue
			}

			s.journalAttempt(ctx, country, pass, true, "")
			s.journalStatus(ctx, country.Name, db.StatusScraped, pass)
			dataset.append(country.Name, table)
			report.Scraped = append(report.Scraped, country.Name)
		}

		pending = missingCountries(countries, dataset)
	}

	for _, country := range pending {
		slog.WarnContext(ctx, "country permanently failed", "country", country.Name, "url", country.SourceURL)
		s.journalStatus(ctx, country.Name, db.StatusFailed, report.Passes)
		report.Failed = append(report.Failed, country.Name)
	}

	span.SetAttributes(
		attribute.Int("passes", report.Passes),
		attribute.Int("scraped", len(report.Scraped)),
		attribute.Int("failed", len(report.Failed)),
	)
	return dataset, report
}

// missingCountries returns entries of the full list with no accumulated row
// yet. Row tags are set verbatim from the listing names, so the comparison
// is exact equality: fuzzy matching here lets a sibling name ("Niger")
// satisfy the entry of a failed country ("Nigeria") and drop it from the
// retry set.
func missingCountries(all []napregistry.Country, dataset Dataset) []napregistry.Country {
	var missing []napregistry.Country
	for _, country := range all {
		found := false
		for _, row := range dataset.Rows {
			if row.Country == country.Name {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, country)
		}
	}
	return missing
}

func (d *Dataset) append(country string, table htmlutil.Table) {
	headers := make([]string, len(table.Headers))
	seen := map[string]int{}
	for i, h := range table.Headers {
		name := canonicalHeader(h)
		seen[name]++
		// two source columns can canonicalize to the same label, an
		// unlabeled column next to a "Download" one. keep both cells.
		if seen[name] > 1 {
			name = fmt.Sprintf("%s %d", name, seen[name])
		}
		headers[i] = name
	}

	for _, h := range headers {
		if h == countryHeader {
			continue
		}
		if !contains(d.Headers, h) {
			d.Headers = append(d.Headers, h)
		}
	}

	for _, values := range table.Rows {
		cells := map[string]string{}
		for i, v := range values {
			if i >= len(headers) {
				break
			}
			cells[headers[i]] = v
		}
		// the listing tag wins over any country column in the table itself
		cells[countryHeader] = country
		d.Rows = append(d.Rows, Row{Country: country, Cells: cells})
	}
}

// canonicalHeader renames the two columns whose source labels are useless
// downstream: the unlabeled document-link column and the country column.
// Everything else passes through untouched.
func canonicalHeader(h string) string {
	lower := strings.ToLower(h)
	switch {
	case h == "" || strings.Contains(lower, "download") || strings.Contains(lower, "document"):
		return documentHeader
	case lower == "country" || strings.Contains(lower, "party"):
		return countryHeader
	}
	return h
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Finalize sorts by country and derives the Year column from the first
// date-bearing column. Rows with an unparseable date keep an empty year.
func (d *Dataset) Finalize() {
	sort.SliceStable(d.Rows, func(i, j int) bool {
		return d.Rows[i].Country < d.Rows[j].Country
	})

	dateHeader := ""
	for _, h := range d.Headers {
		if strings.Contains(strings.ToLower(h), "date") {
			dateHeader = h
			break
		}
	}
	if dateHeader == "" {
		return
	}

	if !contains(d.Headers, yearHeader) {
		d.Headers = append(d.Headers, yearHeader)
	}
	for _, row := range d.Rows {
		parsed, ok := dateutil.Parse(row.Cells[dateHeader])
		if ok {
			row.Cells[yearHeader] = parsed.Format("2006")
		}
	}
}

func (s Service) journalAttempt(ctx context.Context, country napregistry.Country, pass int, ok bool, detail string) {
	if s.opts.Journal == nil {
		return
	}
	err := s.opts.Journal.RecordAttempt(ctx, db.RecordAttemptParams{
		Country: country.Name,
		Url:     country.SourceURL,
		Pass:    pass,
		Ok:      ok,
		Detail:  detail,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to journal attempt", "country", country.Name, "err", err)
	}
}

func (s Service) journalStatus(ctx context.Context, country, status string, passes int) {
	if s.opts.Journal == nil {
		return
	}
	err := s.opts.Journal.SetStatus(ctx, db.SetStatusParams{
		Country: country,
		Status:  status,
		Passes:  passes,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to journal status", "country", country, "err", err)
	}
}
