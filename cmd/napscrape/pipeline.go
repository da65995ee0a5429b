package main

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"napscraper/lib/scrapers/napregistry"
	"napscraper/lib/serviceutil"
	"napscraper/services/communications"
	commsdb "napscraper/services/communications/db"
	"napscraper/services/export"
	"napscraper/services/submissions"

	_ "modernc.org/sqlite"
)

type pipeline struct {
	cfg      Config
	registry *napregistry.Client
	comms    communications.Service
	subs     *submissions.Service
}

func newPipeline(cfg Config) (pipeline, func(), error) {
	registry, err := napregistry.NewClient(napregistry.ClientOptions{
		ListingURL: cfg.ListingUrl,
	})
	if err != nil {
		return pipeline{}, nil, err
	}

	var journal *commsdb.Queries
	cleanup := func() {}
	if cfg.JournalPath != "" {
		sqlite, err := sql.Open("sqlite", cfg.JournalPath)
		if err != nil {
			return pipeline{}, nil, err
		}
		_, err = sqlite.Exec(commsdb.Schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			sqlite.Close()
			return pipeline{}, nil, err
		}
		journal = commsdb.New(sqlite)
		cleanup = func() { sqlite.Close() }
	}

	comms := communications.NewService(registry, communications.Options{
		MaxPasses: cfg.MaxPasses,
		Retry:     cfg.retryPolicy(),
		Journal:   journal,
	})

	subs := submissions.NewService(submissions.Options{
		DevelopedURL:  cfg.DevelopedUrl,
		DevelopingURL: cfg.DevelopingUrl,
	})

	return pipeline{
		cfg:      cfg,
		registry: registry,
		comms:    comms,
		subs:     subs,
	}, cleanup, nil
}

func (p pipeline) collectCommunications(ctx context.Context) (communications.Dataset, communications.Report) {
	countries, err := p.registry.FetchCountries(ctx)
	if err != nil {
		// there is no fallback listing source
		serviceutil.Fatal("failed to fetch country listing", err)
	}
	slog.InfoContext(ctx, "fetched country listing", "countries", len(countries))

	dataset, report := p.comms.Collect(ctx, countries)
	dataset = communications.SplitRows(ctx, dataset, p.cfg.SplitThreshold)
	dataset.Finalize()
	return dataset, report
}

func (p pipeline) runAll(ctx context.Context) error {
	dataset, report := p.collectCommunications(ctx)

	records, err := p.subs.Fetch(ctx)
	if err != nil {
		serviceutil.Fatal("failed to fetch submissions", err)
	}

	err = export.Write(ctx, p.cfg.OutputPath, dataset, records)
	if err != nil {
		return err
	}

	printReport(p.cfg.OutputPath, dataset, records, report)
	return nil
}

func (p pipeline) runCommunicationsOnly(ctx context.Context) error {
	dataset, report := p.collectCommunications(ctx)

	err := export.Write(ctx, p.cfg.OutputPath, dataset, nil)
	if err != nil {
		return err
	}

	printReport(p.cfg.OutputPath, dataset, nil, report)
	return nil
}

func (p pipeline) runSubmissionsOnly(ctx context.Context) error {
	records, err := p.subs.Fetch(ctx)
	if err != nil {
		serviceutil.Fatal("failed to fetch submissions", err)
	}

	err = export.Write(ctx, p.cfg.OutputPath, communications.Dataset{}, records)
	if err != nil {
		return err
	}

	printReport(p.cfg.OutputPath, communications.Dataset{}, records, communications.Report{})
	return nil
}
