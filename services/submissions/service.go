package submissions

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"napscraper/lib/htmlutil"
	"napscraper/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Source marks which registry list a submission came from.
type Source string

const (
	SourceDeveloped  Source = "Developed"
	SourceDeveloping Source = "Developing"
)

const (
	DefaultDevelopedURL  = "https://napcentral.org/developed-country-naps"
	DefaultDevelopingURL = "https://napcentral.org/submitted-naps-developing"
)

// canonical column labels for both submission tables. the developing table
// carries an extra LDC/SIDS column after these.
var canonicalHeaders = []string{"No.", "Country", "Region", "National Adaptation Plan", "Date Posted"}

// Record is one national adaptation plan submission.
type Record struct {
	Seq        int
	Country    string
	Region     string
	Plan       string
	DatePosted string
	Date       time.Time
	HasDate    bool
	LdcSids    string
	Source     Source
	Year       int
}

type Options struct {
	DevelopedURL  string
	DevelopingURL string
}

type Service struct {
	http          *resty.Client
	developedURL  string
	developingURL string
}

func NewService(opts Options) *Service {
	if opts.DevelopedURL == "" {
		opts.DevelopedURL = DefaultDevelopedURL
	}
	if opts.DevelopingURL == "" {
		opts.DevelopingURL = DefaultDevelopingURL
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "services/submissions/http")

	return &Service{
		http:          client,
		developedURL:  opts.DevelopedURL,
		developingURL: opts.DevelopingURL,
	}
}

// Fetch scrapes both submission lists and merges them into one ordered
// record sequence.
func (s *Service) Fetch(ctx context.Context) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	developed, err := s.fetchList(ctx, s.developedURL, SourceDeveloped)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch developed list")
		return nil, err
	}
	developing, err := s.fetchList(ctx, s.developingURL, SourceDeveloping)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch developing list")
		return nil, err
	}

	records := Merge(developed, developing)
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

func (s *Service) fetchList(ctx context.Context, link string, source Source) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "fetchList")
	defer span.End()
	span.SetAttributes(attribute.String("url", link), attribute.String("source", string(source)))

	res, err := s.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status '%s' from '%s'", res.Status(), link)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}

	table, ok := htmlutil.ExtractTable(ctx, doc.Find("table").First())
	if !ok {
		return nil, fmt.Errorf("no submissions table on '%s'", link)
	}
	table = repairPlaceholderHeaders(ctx, table)

	records := make([]Record, 0, len(table.Rows))
	for i := range table.Rows {
		records = append(records, recordFromRow(table, i, source))
	}
	return records, nil
}

// repairPlaceholderHeaders handles lists whose header row was mis-parsed
// into generated labels (one shared placeholder prefix, trailing index). The
// real header text then sits in the first data row: drop it and install the
// canonical labels.
func repairPlaceholderHeaders(ctx context.Context, table htmlutil.Table) htmlutil.Table {
	if !placeholderHeaders(table.Headers) {
		return table
	}

	slog.WarnContext(ctx, "placeholder headers detected, installing canonical labels",
		"headers", strings.Join(table.Headers, ","))

	headers := make([]string, len(canonicalHeaders))
	copy(headers, canonicalHeaders)
	if len(table.Headers) > len(canonicalHeaders) {
		headers = append(headers, "LDC/SIDS")
	}
	table.Headers = headers
	if len(table.Rows) > 0 {
		table.Rows = table.Rows[1:]
	}
	return table
}

func placeholderHeaders(headers []string) bool {
	if len(headers) < 2 {
		return false
	}
	// generated labels carry a trailing index, real labels ("Date Posted",
	// "Date Updated") can share a prefix but never end in digits throughout
	for _, h := range headers {
		if h == "" || h[len(h)-1] < '0' || h[len(h)-1] > '9' {
			return false
		}
	}
	prefix := headers[0]
	for _, h := range headers[1:] {
		for !strings.HasPrefix(h, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return false
			}
		}
	}
	// a real header row never shares a prefix across every label
	return len(prefix) >= 3
}

func recordFromRow(table htmlutil.Table, row int, source Source) Record {
	r := Record{Source: source}
	for i, h := range table.Headers {
		if i >= len(table.Rows[row]) {
			break
		}
		value := strings.Trim(table.Rows[row][i], " ")
		lower := strings.ToLower(h)
		switch {
		case strings.HasPrefix(lower, "no"):
			r.Seq, _ = strconv.Atoi(value)
		case lower == "country":
			r.Country = value
		case lower == "region":
			r.Region = value
		case strings.Contains(lower, "plan"):
			r.Plan = value
		case strings.Contains(lower, "date"):
			r.DatePosted = value
		case strings.Contains(lower, "ldc"):
			r.LdcSids = value
		}
	}
	if source == SourceDeveloped {
		// the developed list has no LDC/SIDS classification
		r.LdcSids = ""
	}
	return r
}
