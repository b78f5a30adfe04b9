package stattab_test

import (
	"testing"

	"github.com/bjaus/stattab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// meanDiffData is two groups of three observations each: X scores 1, 2, 3
// and Y scores 2, 4, 6.
func meanDiffData(t *testing.T) *stattab.Dataset {
	t.Helper()
	ds, err := stattab.NewDataset("group", "score")
	require.NoError(t, err)
	rows := []struct {
		key   string
		group string
		score float64
	}{
		{"r1", "X", 1}, {"r2", "X", 2}, {"r3", "X", 3},
		{"r4", "Y", 2}, {"r5", "Y", 4}, {"r6", "Y", 6},
	}
	for _, r := range rows {
		require.NoError(t, ds.AddRow(r.key, r.group, r.score))
	}
	return ds
}

func meanDiffTable(t *testing.T) *stattab.MeanDifferenceTable {
	t.Helper()
	m, err := stattab.NewMeanDifferenceTable(meanDiffData(t), []string{"score"}, "group", nil, stattab.TwoSided)
	require.NoError(t, err)
	return m
}

func TestMeanDifferenceTableColumns(t *testing.T) {
	t.Parallel()
	m := meanDiffTable(t)
	assert.Equal(t, []string{"X", "Y", "Overall Mean", "Difference"}, m.Columns())
}

func TestMeanDifferenceTableStatistics(t *testing.T) {
	t.Parallel()
	m := meanDiffTable(t)

	tstat, ok := m.TStat("Difference", "score")
	require.True(t, ok)
	// t = (2 - 4) / sqrt(1/3 + 4/3).
	assert.InDelta(t, -1.5491933384829668, tstat, 1e-12)

	pval, ok := m.PValue("Difference", "score")
	require.True(t, ok)
	assert.Greater(t, pval, 0.15)
	assert.Less(t, pval, 0.3)

	_, ok = m.TStat("Difference", "other")
	assert.False(t, ok)
}

func TestMeanDifferenceTableRenderASCII(t *testing.T) {
	t.Parallel()
	m := meanDiffTable(t)
	out, err := m.Render(stattab.ASCII)
	require.NoError(t, err)

	assert.Contains(t, out, "Means")
	assert.Contains(t, out, "Differences")
	assert.Contains(t, out, "Overall Mean")
	assert.Contains(t, out, "2.000")
	assert.Contains(t, out, "4.000")
	assert.Contains(t, out, "3.000")
	assert.Contains(t, out, "-2.000")
	assert.Contains(t, out, "(0.577)")
	assert.Contains(t, out, "(1.155)")
	assert.Contains(t, out, "N=3")
	assert.Contains(t, out, "N=6")
	assert.Contains(t, out, "Significance levels: * p< 0.1, ** p< 0.05, *** p< 0.01")
}

func TestMeanDifferenceTableRenderLaTeX(t *testing.T) {
	t.Parallel()
	m := meanDiffTable(t)
	out, err := m.Render(stattab.LaTeX)
	require.NoError(t, err)

	assert.Contains(t, out, `\multicolumn{2}{c}{Means}`)
	assert.Contains(t, out, `\multicolumn{1}{c}{Differences}`)
	assert.Contains(t, out, `\cline{2-3}`)
	assert.Contains(t, out, "p$<$ 0.1")
	assert.NotContains(t, out, `p\$`)
}

func TestMeanDifferenceTableDecorationRollback(t *testing.T) {
	t.Parallel()
	m := meanDiffTable(t)

	first, err := m.Render(stattab.ASCII)
	require.NoError(t, err)
	assert.Empty(t, m.Notes())
	assert.Empty(t, m.Lines(stattab.AfterColumns))

	second, err := m.Render(stattab.ASCII)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMeanDifferenceTableStars(t *testing.T) {
	t.Parallel()
	ds, err := stattab.NewDataset("group", "score")
	require.NoError(t, err)
	rows := []struct {
		key   string
		group string
		score float64
	}{
		{"r1", "X", 1}, {"r2", "X", 1.1}, {"r3", "X", 0.9}, {"r4", "X", 1},
		{"r5", "Y", 5}, {"r6", "Y", 5.1}, {"r7", "Y", 4.9}, {"r8", "Y", 5},
	}
	for _, r := range rows {
		require.NoError(t, ds.AddRow(r.key, r.group, r.score))
	}
	m, err := stattab.NewMeanDifferenceTable(ds, []string{"score"}, "group", nil, stattab.TwoSided)
	require.NoError(t, err)

	out, err := m.Render(stattab.ASCII)
	require.NoError(t, err)
	assert.Contains(t, out, "-4.000***")
}

func TestMeanDifferenceTableToggles(t *testing.T) {
	t.Parallel()
	m := meanDiffTable(t)
	require.NoError(t, m.Params().Set("show_standard_errors", false))
	require.NoError(t, m.Params().Set("show_n", false))
	require.NoError(t, m.Params().Set("show_stars", false))

	out, err := m.Render(stattab.ASCII)
	require.NoError(t, err)
	assert.NotContains(t, out, "(0.577)")
	assert.NotContains(t, out, "N=3")
	assert.NotContains(t, out, "Significance levels")
}

func TestMeanDifferenceTableExplicitPairTwoGroups(t *testing.T) {
	t.Parallel()
	m, err := stattab.NewMeanDifferenceTable(meanDiffData(t), []string{"score"}, "group",
		[][2]string{{"Y", "X"}}, stattab.TwoSided)
	require.NoError(t, err)

	// An explicitly passed pair keeps its directional label even when only
	// two groups exist; "Difference" is reserved for the implicit pair.
	assert.Equal(t, []string{"X", "Y", "Overall Mean", "Y - X"}, m.Columns())

	tstat, ok := m.TStat("Y - X", "score")
	require.True(t, ok)
	assert.InDelta(t, 1.5491933384829668, tstat, 1e-12)

	_, ok = m.TStat("Difference", "score")
	assert.False(t, ok)
}

func TestMeanDifferenceTableExplicitPairs(t *testing.T) {
	t.Parallel()
	ds, err := stattab.NewDataset("group", "score")
	require.NoError(t, err)
	rows := []struct {
		key   string
		group string
		score float64
	}{
		{"r1", "X", 1}, {"r2", "X", 2},
		{"r3", "Y", 3}, {"r4", "Y", 4},
		{"r5", "Z", 5}, {"r6", "Z", 6},
	}
	for _, r := range rows {
		require.NoError(t, ds.AddRow(r.key, r.group, r.score))
	}

	m, err := stattab.NewMeanDifferenceTable(ds, []string{"score"}, "group",
		[][2]string{{"X", "Y"}, {"X", "Z"}}, stattab.TwoSided)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "Z", "Overall Mean", "X - Y", "X - Z"}, m.Columns())

	_, ok := m.TStat("X - Z", "score")
	assert.True(t, ok)
}

func TestNewMeanDifferenceTableErrors(t *testing.T) {
	t.Parallel()

	oneGroup, err := stattab.NewDataset("group", "score")
	require.NoError(t, err)
	require.NoError(t, oneGroup.AddRow("r1", "X", 1.0))
	require.NoError(t, oneGroup.AddRow("r2", "X", 2.0))

	threeGroups, err := stattab.NewDataset("group", "score")
	require.NoError(t, err)
	for i, g := range []string{"X", "X", "Y", "Y", "Z", "Z"} {
		require.NoError(t, threeGroups.AddRow(string(rune('a'+i)), g, float64(i)))
	}

	nonNumeric, err := stattab.NewDataset("group", "score")
	require.NoError(t, err)
	require.NoError(t, nonNumeric.AddRow("r1", "X", "high"))

	tests := map[string]struct {
		data  *stattab.Dataset
		vars  []string
		group string
		pairs [][2]string
		alt   stattab.Alternative
		want  error
	}{
		"bad alternative":        {data: meanDiffData(t), vars: []string{"score"}, group: "group", alt: stattab.Alternative("both"), want: stattab.ErrInvalidParam},
		"no variables":           {data: meanDiffData(t), vars: nil, group: "group", alt: stattab.TwoSided, want: stattab.ErrInvalidParam},
		"unknown variable":       {data: meanDiffData(t), vars: []string{"other"}, group: "group", alt: stattab.TwoSided, want: stattab.ErrNotFound},
		"unknown group variable": {data: meanDiffData(t), vars: []string{"score"}, group: "team", alt: stattab.TwoSided, want: stattab.ErrNotFound},
		"single group":           {data: oneGroup, vars: []string{"score"}, group: "group", alt: stattab.TwoSided, want: stattab.ErrInvalidParam},
		"missing pairs":          {data: threeGroups, vars: []string{"score"}, group: "group", alt: stattab.TwoSided, want: stattab.ErrInvalidParam},
		"unknown pair group":     {data: meanDiffData(t), vars: []string{"score"}, group: "group", pairs: [][2]string{{"X", "Q"}}, alt: stattab.TwoSided, want: stattab.ErrNotFound},
		"non-numeric variable":   {data: nonNumeric, vars: []string{"score"}, group: "group", alt: stattab.TwoSided, want: stattab.ErrInvalidParam},
	}
	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := stattab.NewMeanDifferenceTable(tt.data, tt.vars, tt.group, tt.pairs, tt.alt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMeanDifferenceTableAlternatives(t *testing.T) {
	t.Parallel()
	data := meanDiffData(t)

	less, err := stattab.NewMeanDifferenceTable(data, []string{"score"}, "group", nil, stattab.Less)
	require.NoError(t, err)
	greater, err := stattab.NewMeanDifferenceTable(data, []string{"score"}, "group", nil, stattab.Greater)
	require.NoError(t, err)

	pLess, ok := less.PValue("Difference", "score")
	require.True(t, ok)
	pGreater, ok := greater.PValue("Difference", "score")
	require.True(t, ok)
	assert.InDelta(t, 1.0, pLess+pGreater, 1e-12)
	assert.Less(t, pLess, pGreater) // X's mean is below Y's
}
