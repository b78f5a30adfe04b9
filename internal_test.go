package stattab

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		value     float64
		sigDigits int
		sep       string
		want      string
	}{
		"grouped":          {value: 1234.5, sigDigits: 3, sep: ",", want: "1,234.500"},
		"negative grouped": {value: -1234567.89, sigDigits: 2, sep: ",", want: "-1,234,567.89"},
		"no decimals":      {value: 1234.0, sigDigits: 0, sep: ",", want: "1,234"},
		"short int part":   {value: 999.9, sigDigits: 3, sep: ",", want: "999.900"},
		"no separator":     {value: 1234567.0, sigDigits: 1, sep: "", want: "1234567.0"},
		"small":            {value: 0.5, sigDigits: 3, sep: ",", want: "0.500"},
		"nan":              {value: math.NaN(), sigDigits: 3, sep: ",", want: "NaN"},
		"positive inf":     {value: math.Inf(1), sigDigits: 3, sep: ",", want: "+Inf"},
	}
	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatNumber(tt.value, tt.sigDigits, tt.sep))
		})
	}
}

func TestLatexEscape(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  string
	}{
		"percent and ampersand": {input: "50% & rising", want: `50\% \& rising`},
		"underscore":            {input: "a_b", want: `a\_b`},
		"backslash first":       {input: `\x`, want: `\textbackslash x`},
		"escaped underscore":    {input: `\_`, want: `\textbackslash \_`},
		"braces":                {input: "{x}", want: `\{x\}`},
		"tilde and caret":       {input: "~^", want: `\textasciitilde \textasciicircum `},
		"clean":                 {input: "hello", want: "hello"},
	}
	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, latexEscape(tt.input))
		})
	}
}

func TestAlignCell(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		s     string
		width int
		align Alignment
		want  string
	}{
		"left":             {s: "ab", width: 5, align: AlignLeft, want: "ab   "},
		"right":            {s: "ab", width: 5, align: AlignRight, want: "   ab"},
		"center uneven":    {s: "ab", width: 5, align: AlignCenter, want: " ab  "},
		"exact fit":        {s: "abcde", width: 5, align: AlignCenter, want: "abcde"},
		"overflow":         {s: "abcdef", width: 5, align: AlignLeft, want: "abcdef"},
		"wide char center": {s: "你", width: 4, align: AlignCenter, want: " 你 "},
	}
	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, alignCell(tt.s, tt.width, tt.align))
		})
	}
}

func TestMeasureASCII(t *testing.T) {
	t.Parallel()
	ds, err := NewDataset("A", "B")
	require.NoError(t, err)
	require.NoError(t, ds.AddRow("x", 1.0, 2.0))
	require.NoError(t, ds.AddRow("y", 3.0, 4.5))
	tbl, err := NewTable(ds)
	require.NoError(t, err)

	rows := tbl.rows()
	dims := measureASCII(tbl, rows, 2)
	// Widest body cell is "1.000" (5) plus padding on both sides.
	assert.Equal(t, 9, dims.bodyCell)
	assert.Equal(t, 5, dims.indexCell)
	assert.Equal(t, 23, dims.width)

	dims = measureASCII(tbl, rows, 0)
	assert.Equal(t, 5, dims.bodyCell)
	assert.Equal(t, 1, dims.indexCell)
	assert.Equal(t, 11, dims.width)
}

func TestMeasureASCIILongColumnLabel(t *testing.T) {
	t.Parallel()
	ds, err := NewDataset("A", "B")
	require.NoError(t, err)
	require.NoError(t, ds.AddRow("x", 1.0, 2.0))
	tbl, err := NewTable(ds)
	require.NoError(t, err)
	tbl.RenameColumns(map[string]string{"A": "Measurement"})

	dims := measureASCII(tbl, tbl.rows(), 2)
	// The label "Measurement" (11) now drives the uniform body width.
	assert.Equal(t, 15, dims.bodyCell)
}

func TestMeasureASCIIWithoutIndex(t *testing.T) {
	t.Parallel()
	ds, err := NewDataset("A", "B")
	require.NoError(t, err)
	require.NoError(t, ds.AddRow("x", 1.0, 2.0))
	tbl, err := NewTable(ds)
	require.NoError(t, err)
	require.NoError(t, tbl.Params().Set("include_index", false))

	dims := measureASCII(tbl, tbl.rows(), 2)
	assert.Equal(t, 0, dims.indexCell)
	assert.Equal(t, dims.bodyCell*2, dims.width)
}

func TestWelchTTest(t *testing.T) {
	t.Parallel()
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{4, 5, 6, 7, 8}

	tstat, pTwo := welchTTest(x, y, TwoSided)
	assert.InDelta(t, -3.0, tstat, 1e-12)
	assert.Greater(t, pTwo, 0.01)
	assert.Less(t, pTwo, 0.03)

	_, pLess := welchTTest(x, y, Less)
	_, pGreater := welchTTest(x, y, Greater)
	assert.InDelta(t, pTwo, 2*pLess, 1e-12)
	assert.InDelta(t, 1.0, pLess+pGreater, 1e-12)
}

func TestWelchTTestDegenerate(t *testing.T) {
	t.Parallel()
	tstat, pval := welchTTest([]float64{1}, []float64{2, 3}, TwoSided)
	assert.True(t, math.IsNaN(tstat))
	assert.True(t, math.IsNaN(pval))

	// Zero variance in both samples leaves the statistic undefined.
	tstat, pval = welchTTest([]float64{2, 2}, []float64{2, 2}, TwoSided)
	assert.True(t, math.IsNaN(tstat))
	assert.True(t, math.IsNaN(pval))
}

func TestPstars(t *testing.T) {
	t.Parallel()
	levels := []float64{0.1, 0.05, 0.01}
	tests := map[string]struct {
		pval float64
		want string
	}{
		"not significant": {pval: 0.2, want: ""},
		"one star":        {pval: 0.07, want: "*"},
		"two stars":       {pval: 0.03, want: "**"},
		"three stars":     {pval: 0.005, want: "***"},
		"threshold is exclusive": {pval: 0.05, want: "*"},
	}
	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pstars(tt.pval, levels))
		})
	}
}

func TestSignificanceLegend(t *testing.T) {
	t.Parallel()
	text, escape := significanceLegend(ASCII, []float64{0.1, 0.05, 0.01})
	assert.Equal(t, "Significance levels: * p< 0.1, ** p< 0.05, *** p< 0.01", text)
	assert.True(t, escape)

	// Levels are sorted loosest first regardless of input order.
	text, escape = significanceLegend(LaTeX, []float64{0.01, 0.1, 0.05})
	assert.Equal(t, "Significance levels: * p$<$ 0.1, ** p$<$ 0.05, *** p$<$ 0.01", text)
	assert.False(t, escape)
}

func TestParamsOverrideRestores(t *testing.T) {
	t.Parallel()
	p := newTableParams(nil)

	restore := p.override("show_columns", false)
	v, ok := p.Get("show_columns")
	require.True(t, ok)
	assert.Equal(t, false, v)
	restore()
	v, ok = p.Get("show_columns")
	require.True(t, ok)
	assert.Equal(t, true, v)

	// A pre-existing instance value survives an override round trip.
	require.NoError(t, p.Set("sig_digits", 5))
	restore = p.override("sig_digits", 0)
	assert.Equal(t, 0, p.SigDigits())
	restore()
	assert.Equal(t, 5, p.SigDigits())
}

func TestResolveIndex(t *testing.T) {
	t.Parallel()
	i, err := resolveIndex(-1, 3, "note")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	i, err = resolveIndex(0, 3, "note")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = resolveIndex(3, 3, "note")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = resolveIndex(-4, 3, "note")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecorationRollbackOnRenderError(t *testing.T) {
	t.Parallel()
	ds, err := NewDataset("group", "score")
	require.NoError(t, err)
	require.NoError(t, ds.AddRow("r1", "X", 1.0))
	require.NoError(t, ds.AddRow("r2", "X", 2.0))
	require.NoError(t, ds.AddRow("r3", "Y", 3.0))
	require.NoError(t, ds.AddRow("r4", "Y", 5.0))
	m, err := NewMeanDifferenceTable(ds, []string{"score"}, "group", nil, TwoSided)
	require.NoError(t, err)

	// Slip an out-of-range padding past validation so the plain-text
	// renderer fails after the decorations were injected.
	restore := m.params.override("ascii_padding", 99)
	defer restore()

	_, err = m.Render(ASCII)
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Empty(t, m.notes)
	assert.Empty(t, m.customLines[AfterColumns])
}

func TestRowWidthInvariant(t *testing.T) {
	t.Parallel()
	ds, err := NewDataset("group", "score")
	require.NoError(t, err)
	require.NoError(t, ds.AddRow("r1", "X", 1.0))
	require.NoError(t, ds.AddRow("r2", "X", 2.0))
	require.NoError(t, ds.AddRow("r3", "Y", 2.0))
	require.NoError(t, ds.AddRow("r4", "Y", 4.0))

	m, err := NewMeanDifferenceTable(ds, []string{"score"}, "group", nil, TwoSided)
	require.NoError(t, err)
	for _, row := range m.rows() {
		assert.Len(t, row, m.ncolumns+1)
	}

	tbl, err := NewTable(ds)
	require.NoError(t, err)
	for _, row := range tbl.rows() {
		assert.Len(t, row, tbl.ncolumns+1)
	}
	require.NoError(t, tbl.Params().Set("include_index", false))
	for _, row := range tbl.rows() {
		assert.Len(t, row, tbl.ncolumns)
	}
}
