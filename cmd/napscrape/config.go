package main

import (
	"time"

	"napscraper/lib/configutil"
	"napscraper/lib/scrapers/napregistry"
	"napscraper/services/communications"
	"napscraper/services/submissions"

	"github.com/cenkalti/backoff/v4"
)

type Config struct {
	ListingUrl    string `json:"listing_url"`
	DevelopedUrl  string `json:"developed_url"`
	DevelopingUrl string `json:"developing_url"`

	OutputPath  string `json:"output_path"`
	JournalPath string `json:"journal_path"`

	RetryAttempts  int `json:"retry_attempts"`
	RetryDelayMs   int `json:"retry_delay_ms"`
	MaxPasses      int `json:"max_passes"`
	SplitThreshold int `json:"split_threshold"`

	// "constant" or "exponential"
	Backoff string `json:"backoff"`
}

func defaultConfig() Config {
	return Config{
		ListingUrl:     napregistry.DefaultListingURL,
		DevelopedUrl:   submissions.DefaultDevelopedURL,
		DevelopingUrl:  submissions.DefaultDevelopingURL,
		OutputPath:     "NAP_Communications_Submissions.xlsx",
		JournalPath:    "napscrape_journal.db",
		RetryAttempts:  napregistry.DefaultAttempts,
		RetryDelayMs:   int(napregistry.DefaultDelay / time.Millisecond),
		MaxPasses:      communications.DefaultMaxPasses,
		SplitThreshold: communications.DefaultSplitThreshold,
		Backoff:        "constant",
	}
}

func loadConfig() (Config, error) {
	return configutil.ReadWithDefaults("config.json5", defaultConfig())
}

func (c Config) retryPolicy() napregistry.RetryPolicy {
	delay := time.Duration(c.RetryDelayMs) * time.Millisecond
	return napregistry.RetryPolicy{
		Attempts: c.RetryAttempts,
		NewDelay: func() backoff.BackOff {
			if c.Backoff == "exponential" {
				b := backoff.NewExponentialBackOff()
				b.InitialInterval = delay
				return b
			}
			return backoff.NewConstantBackOff(delay)
		},
	}
}
