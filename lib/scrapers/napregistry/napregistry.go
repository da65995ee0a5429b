package napregistry

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"napscraper/lib/htmlutil"
	"napscraper/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultListingURL is the registry page enumerating every country with a
// submitted adaptation communication.
const DefaultListingURL = "https://napcentral.org/submitted-naps"

// selector for the per-country links on the listing page
const listingAnchorSelector = "table tbody tr td a"

// Country is one entry of the registry listing, keyed by name.
type Country struct {
	Name      string
	SourceURL string
}

type Client struct {
	http    *resty.Client
	listing *url.URL
}

type ClientOptions struct {
	// defaults to DefaultListingURL
	ListingURL string
}

func NewClient(opts ClientOptions) (*Client, error) {
	listingURL := opts.ListingURL
	if listingURL == "" {
		listingURL = DefaultListingURL
	}
	listing, err := url.Parse(listingURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/napregistry/http")

	return &Client{
		http:    client,
		listing: listing,
	}, nil
}

// fetchDocument GETs link and parses the body. Non-2xx statuses are
// failures, the registry serves rate-limit pages with error codes.
func (c *Client) fetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status '%s' from '%s'", res.Status(), link)
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// FetchCountries scrapes the registry listing into the full country list.
// There is no fallback listing source, callers treat an error here as fatal.
func (c *Client) FetchCountries(ctx context.Context) ([]Country, error) {
	ctx, span := tracer.Start(ctx, "FetchCountries")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.listing.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing page")
		return nil, err
	}

	anchors := htmlutil.GetAnchors(ctx, doc.Find(listingAnchorSelector))

	var countries []Country
	seen := map[string]bool{}
	for _, a := range anchors {
		if a.Name == "" || a.Href == "" {
			continue
		}
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true

		href, err := url.Parse(a.Href)
		if err != nil {
			span.RecordError(err)
			continue
		}
		countries = append(countries, Country{
			Name:      a.Name,
			SourceURL: c.listing.ResolveReference(href).String(),
		})
	}

	span.SetAttributes(attribute.Int("countries", len(countries)))
	return countries, nil
}
