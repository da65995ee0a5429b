package communications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func datasetOf(rows ...Row) Dataset {
	return Dataset{
		Headers: []string{"Country", "Plan", "Date Posted"},
		Rows:    rows,
	}
}

func TestSplitRowsPulledApart(t *testing.T) {
	dataset := datasetOf(Row{
		Country: "Alpha",
		Cells: map[string]string{
			"Country":     "Alpha",
			"Plan":        "First NAP      Updated NAP",
			"Date Posted": "14/07/2022",
		},
	})

	out := SplitRows(context.Background(), dataset, 5)
	require.Len(t, out.Rows, 2)

	a, b := out.Rows[0], out.Rows[1]
	require.Equal(t, OutcomeSplit, a.Outcome)
	require.Equal(t, OutcomeSplit, b.Outcome)
	require.Equal(t, "First NAP", a.Cells["Plan"])
	require.Equal(t, "Updated NAP", b.Cells["Plan"])
	// the unsplit columns carry their value into both rows
	require.Equal(t, "14/07/2022", a.Cells["Date Posted"])
	require.Equal(t, "14/07/2022", b.Cells["Date Posted"])
}

func TestSplitRowsNoPaddingDuplicates(t *testing.T) {
	row := Row{
		Country: "Beta",
		Cells: map[string]string{
			"Country":     "Beta",
			"Plan":        "Only NAP",
			"Date Posted": "May 3, 2020",
		},
	}

	out := SplitRows(context.Background(), datasetOf(row), 5)
	require.Len(t, out.Rows, 2)
	require.Equal(t, OutcomeDuplicated, out.Rows[0].Outcome)
	require.Equal(t, row.Cells, out.Rows[0].Cells)
	require.Equal(t, row.Cells, out.Rows[1].Cells)
}

func TestSplitRowsAmbiguousDuplicatesVerbatim(t *testing.T) {
	row := Row{
		Country: "Gamma",
		Cells: map[string]string{
			"Country":     "Gamma",
			"Plan":        "one      two      three",
			"Date Posted": "14/07/2022",
		},
	}

	out := SplitRows(context.Background(), datasetOf(row), 5)
	require.Len(t, out.Rows, 2)
	require.Equal(t, OutcomeAmbiguous, out.Rows[0].Outcome)
	require.Equal(t, row.Cells["Plan"], out.Rows[0].Cells["Plan"])
	require.Equal(t, row.Cells["Plan"], out.Rows[1].Cells["Plan"])
}

func TestSplitRowsAlwaysDoubles(t *testing.T) {
	for _, threshold := range []int{1, 3, 5, 10} {
		dataset := datasetOf(
			Row{Country: "A", Cells: map[string]string{"Plan": "x      y"}},
			Row{Country: "B", Cells: map[string]string{"Plan": "z"}},
			Row{Country: "C", Cells: map[string]string{"Plan": ""}},
		)
		out := SplitRows(context.Background(), dataset, threshold)
		require.Len(t, out.Rows, 2*len(dataset.Rows), "threshold %d", threshold)
	}
}
