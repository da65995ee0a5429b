package napregistry

import (
	"context"
	"log/slog"
	"time"

	"napscraper/lib/htmlutil"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultAttempts = 2
const DefaultDelay = time.Second * 5

// RetryPolicy controls the per-country retry loop: how many fetch attempts
// are made and how long to sleep between them. NewDelay is called once per
// country so stateful backoffs (exponential) start fresh each time.
type RetryPolicy struct {
	Attempts int
	NewDelay func() backoff.BackOff
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultAttempts,
		NewDelay: func() backoff.BackOff {
			return backoff.NewConstantBackOff(DefaultDelay)
		},
	}
}

// ZeroDelayPolicy keeps the attempt budget but sleeps for no time at all.
func ZeroDelayPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Attempts: attempts,
		NewDelay: func() backoff.BackOff {
			return &backoff.ZeroBackOff{}
		},
	}
}

// ScrapeCountry fetches the country page and extracts its communications
// table, retrying on any failure. Fetch and parse errors never propagate,
// each failed attempt is logged and the loop moves on. The delay runs after
// every attempt including the last, the registry rate-limits bursts even on
// the way out. Exhausting the budget returns ErrNoTable.
func (c *Client) ScrapeCountry(ctx context.Context, country Country, policy RetryPolicy) (htmlutil.Table, error) {
	ctx, span := tracer.Start(ctx, "ScrapeCountry")
	defer span.End()

	span.SetAttributes(
		attribute.String("country", country.Name),
		attribute.String("url", country.SourceURL),
	)

	attempts := policy.Attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	newDelay := policy.NewDelay
	if newDelay == nil {
		newDelay = DefaultRetryPolicy().NewDelay
	}
	delay := newDelay()

	for attempt := 1; attempt <= attempts; attempt++ {
		table, err := c.scrapeOnce(ctx, country)
		if err == nil && len(table.Rows) > 0 {
			sleep(ctx, delay.NextBackOff())
			return table, nil
		}

		if err == nil {
			slog.WarnContext(ctx, "communications table has no rows",
				"country", country.Name, "url", country.SourceURL, "attempt", attempt)
		} else {
			slog.WarnContext(ctx, "failed to scrape country page",
				"country", country.Name, "url", country.SourceURL, "attempt", attempt, "err", err)
		}
		sleep(ctx, delay.NextBackOff())
	}

	slog.WarnContext(ctx, "no communications table after all attempts",
		"country", country.Name, "url", country.SourceURL, "attempts", attempts)
	span.SetStatus(codes.Error, "retry budget exhausted")
	return htmlutil.Table{}, ErrNoTable
}

func (c *Client) scrapeOnce(ctx context.Context, country Country) (htmlutil.Table, error) {
	doc, err := c.fetchDocument(ctx, country.SourceURL)
	if err != nil {
		return htmlutil.Table{}, err
	}
	return ExtractCommunications(ctx, doc)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
