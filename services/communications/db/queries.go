package db

import (
	"context"
	"database/sql"
	"time"
)

// Queries is the scrape journal: one row per attempt and a terminal status
// per country, kept so a run's partial results can be audited afterwards.
type Queries struct {
	db *sql.DB
}

func New(database *sql.DB) *Queries {
	return &Queries{db: database}
}

type RecordAttemptParams struct {
	Country string
	Url     string
	Pass    int
	Ok      bool
	Detail  string
}

func (q *Queries) RecordAttempt(ctx context.Context, params RecordAttemptParams) error {
	ok := 0
	if params.Ok {
		ok = 1
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO scrape_attempts (country, url, pass, ok, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		params.Country, params.Url, params.Pass, ok, params.Detail, time.Now().Unix(),
	)
	return err
}

type SetStatusParams struct {
	Country string
	Status  string
	Passes  int
}

func (q *Queries) SetStatus(ctx context.Context, params SetStatusParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO country_statuses (country, status, passes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (country) DO UPDATE
		SET status = excluded.status,
		    passes = excluded.passes,
		    updated_at = excluded.updated_at`,
		params.Country, params.Status, params.Passes, time.Now().Unix(),
	)
	return err
}

func (q *Queries) ListByStatus(ctx context.Context, status string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT country FROM country_statuses
		WHERE status = ? ORDER BY country`,
		status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []string
	for rows.Next() {
		var country string
		err = rows.Scan(&country)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	return countries, rows.Err()
}

func (q *Queries) CountAttempts(ctx context.Context, country string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scrape_attempts WHERE country = ?`,
		country,
	).Scan(&count)
	return count, err
}
