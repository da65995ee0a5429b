package communications

import (
	"context"
	"log/slog"

	"napscraper/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
)

// SplitOutcome tags what happened to a row during the padding-split pass.
type SplitOutcome int

const (
	// OutcomeNone: the row has not been through the split pass.
	OutcomeNone SplitOutcome = iota
	// OutcomeSplit: at least one cell held two records separated by a
	// padding run and every splitting cell agreed on two segments.
	OutcomeSplit
	// OutcomeDuplicated: no cell split, the row was emitted twice verbatim.
	OutcomeDuplicated
	// OutcomeAmbiguous: cells split into inconsistent segment counts, the
	// row could not be safely pulled apart and was duplicated verbatim.
	OutcomeAmbiguous
)

func (o SplitOutcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSplit:
		return "split"
	case OutcomeDuplicated:
		return "duplicated"
	case OutcomeAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// SplitRows repairs rows where the source table concatenated two
// communication versions into single cells padded with long space runs.
// Every input row becomes exactly two output rows: the first and last
// segment of each splitting cell, or two verbatim copies when nothing (or
// nothing consistent) split. Output row count is always 2x the input.
func SplitRows(ctx context.Context, dataset Dataset, threshold int) Dataset {
	ctx, span := tracer.Start(ctx, "SplitRows")
	defer span.End()

	if threshold < 1 {
		threshold = DefaultSplitThreshold
	}
	splitter := textutil.NewPaddingSplitter(threshold)

	out := Dataset{Headers: dataset.Headers}
	counts := map[SplitOutcome]int{}

	for _, row := range dataset.Rows {
		a, b, outcome := splitRow(row, splitter)
		counts[outcome]++
		if outcome == OutcomeAmbiguous {
			slog.WarnContext(ctx, "row cells split inconsistently, duplicating verbatim",
				"country", row.Country)
		}
		out.Rows = append(out.Rows, a, b)
	}

	span.SetAttributes(
		attribute.Int("split", counts[OutcomeSplit]),
		attribute.Int("duplicated", counts[OutcomeDuplicated]),
		attribute.Int("ambiguous", counts[OutcomeAmbiguous]),
	)
	return out
}

func splitRow(row Row, splitter textutil.PaddingSplitter) (Row, Row, SplitOutcome) {
	segments := map[string][]string{}
	outcome := OutcomeDuplicated

	for header, value := range row.Cells {
		parts := splitter.Split(value)
		segments[header] = parts
		if len(parts) == 1 {
			continue
		}
		if len(parts) == 2 && outcome != OutcomeAmbiguous {
			outcome = OutcomeSplit
		} else if len(parts) > 2 {
			outcome = OutcomeAmbiguous
		}
	}

	if outcome != OutcomeSplit {
		a := row.clone()
		b := row.clone()
		a.Outcome = outcome
		b.Outcome = outcome
		return a, b, outcome
	}

	a := Row{Country: row.Country, Cells: map[string]string{}, Outcome: OutcomeSplit}
	b := Row{Country: row.Country, Cells: map[string]string{}, Outcome: OutcomeSplit}
	for header, parts := range segments {
		a.Cells[header] = parts[0]
		b.Cells[header] = parts[len(parts)-1]
	}
	return a, b, OutcomeSplit
}

func (r Row) clone() Row {
	cells := make(map[string]string, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{Country: r.Country, Cells: cells, Outcome: r.Outcome}
}
