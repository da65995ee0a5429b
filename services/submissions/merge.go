package submissions

import (
	"sort"

	"napscraper/lib/dateutil"
)

// Merge unions both submission lists into the final ordered sequence:
// overrides applied, sorted by country, posted dates parsed and the year
// derived. An unparseable date leaves the record with no date and no year,
// it never aborts the merge.
func Merge(developed, developing []Record) []Record {
	records := make([]Record, 0, len(developed)+len(developing))
	records = append(records, developed...)
	records = append(records, developing...)

	records = applyOverrides(records)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Country < records[j].Country
	})

	for i := range records {
		parsed, ok := dateutil.Parse(records[i].DatePosted)
		records[i].Date = parsed
		records[i].HasDate = ok
		if ok {
			records[i].Year = parsed.Year()
		}
	}

	return records
}
