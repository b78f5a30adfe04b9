package stattab

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const overallMeanColumn = "Overall Mean"

func meanDiffDefaults() map[string]any {
	return map[string]any{
		"include_index":            true,
		"show_n":                   true,
		"show_standard_errors":     true,
		"show_stars":               true,
		"show_significance_levels": true,
		"p_values":                 []float64{0.1, 0.05, 0.01},
	}
}

// MeanDifferenceTable shows the difference in means of selected variables
// between groups in the data, with standard errors and Welch t-test
// significance stars. It delegates all rendering to the shared backends.
type MeanDifferenceTable struct {
	Table

	groups      []string
	vars        []string
	diffColumns []string
	groupSizes  map[string]int

	means   map[string]map[string]float64 // variable -> column -> mean
	sems    map[string]map[string]float64 // variable -> group -> SE of mean
	tStats  map[string]float64            // "column_variable" -> t statistic
	pValues map[string]float64            // "column_variable" -> p-value
}

// NewMeanDifferenceTable builds a mean-comparison table from raw
// observations. groupVar names the grouping column of data and vars the
// variables compared. pairs lists the group pairs differenced, in
// subtraction order; with exactly two groups it may be nil, with more it is
// required. alternative selects the t-test's alternative hypothesis.
func NewMeanDifferenceTable(data *Dataset, vars []string, groupVar string, pairs [][2]string, alternative Alternative) (*MeanDifferenceTable, error) {
	switch alternative {
	case TwoSided, Greater, Less:
	default:
		return nil, fmt.Errorf("%w: alternative %q", ErrInvalidParam, alternative)
	}

	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: at least one variable is required", ErrInvalidParam)
	}
	for _, v := range vars {
		if _, err := data.Column(v); err != nil {
			return nil, err
		}
	}
	groupCol, err := data.Column(groupVar)
	if err != nil {
		return nil, err
	}
	// Groups keep first-appearance order.
	var groups []string
	samples := make(map[string]map[string][]float64) // group -> variable -> values
	for i, g := range groupCol {
		key := groupKey(g)
		if _, ok := samples[key]; !ok {
			groups = append(groups, key)
			samples[key] = make(map[string][]float64)
		}
		for _, v := range vars {
			f, ok := toFloat(data.rows[i].cells[v])
			if !ok {
				return nil, fmt.Errorf("%w: variable %q row %d is not numeric", ErrInvalidParam, v, i)
			}
			samples[key][v] = append(samples[key][v], f)
		}
	}
	if len(groups) < 2 {
		return nil, fmt.Errorf("%w: need at least two groups, got %d", ErrInvalidParam, len(groups))
	}
	if len(groups) > 2 && len(pairs) == 0 {
		return nil, fmt.Errorf("%w: diff pairs are required with more than two groups", ErrInvalidParam)
	}

	m := &MeanDifferenceTable{
		groups:     groups,
		vars:       vars,
		groupSizes: make(map[string]int, len(groups)+1),
		means:      make(map[string]map[string]float64, len(vars)),
		sems:       make(map[string]map[string]float64, len(vars)),
		tStats:     make(map[string]float64),
		pValues:    make(map[string]float64),
	}
	for _, v := range vars {
		m.means[v] = make(map[string]float64)
		m.sems[v] = make(map[string]float64)
	}
	for _, g := range groups {
		m.groupSizes[g] = len(samples[g][vars[0]])
		for _, v := range vars {
			xs := samples[g][v]
			m.means[v][g] = stat.Mean(xs, nil)
			m.sems[v][g] = stat.StdDev(xs, nil) / math.Sqrt(float64(len(xs)))
		}
	}
	m.groupSizes[overallMeanColumn] = data.Len()
	for _, v := range vars {
		all := make([]float64, 0, data.Len())
		for _, g := range groups {
			all = append(all, samples[g][v]...)
		}
		m.means[v][overallMeanColumn] = stat.Mean(all, nil)
	}

	// Difference columns, one per pair. Only the implicit two-group pair is
	// labeled plainly; explicit pairs keep their subtraction order visible.
	implicit := len(pairs) == 0
	if implicit {
		pairs = [][2]string{{groups[0], groups[1]}}
	}
	for _, pair := range pairs {
		for _, g := range pair {
			if _, ok := samples[g]; !ok {
				return nil, fmt.Errorf("%w: group %q", ErrNotFound, g)
			}
		}
		col := pair[0] + " - " + pair[1]
		if implicit {
			col = "Difference"
		}
		m.diffColumns = append(m.diffColumns, col)
		for _, v := range vars {
			m.means[v][col] = m.means[v][pair[0]] - m.means[v][pair[1]]
			tstat, pval := welchTTest(samples[pair[0]][v], samples[pair[1]][v], alternative)
			m.tStats[col+"_"+v] = tstat
			m.pValues[col+"_"+v] = pval
		}
	}

	columns := make([]string, 0, len(groups)+1+len(m.diffColumns))
	columns = append(columns, groups...)
	columns = append(columns, overallMeanColumn)
	columns = append(columns, m.diffColumns...)
	tbl, err := newTable(columns, nil, meanDiffDefaults())
	if err != nil {
		return nil, err
	}
	m.Table = *tbl
	m.Table.source = m

	if err := m.AddMulticolumns(
		[]string{"Means", "", "Differences"},
		[]int{len(groups), 1, len(m.diffColumns)},
	); err != nil {
		return nil, err
	}
	// Partial rules under "Means" and "Differences", skipping the gap column.
	cline := fmt.Sprintf("\\cline{2-%d}\\cline{%d-%d}",
		len(groups)+1, len(groups)+3, m.ncolumns+1)
	if err := m.AddLaTeXLine(cline, AfterMulticolumns); err != nil {
		return nil, err
	}
	return m, nil
}

// TStat returns the t statistic of the difference column for one variable.
func (m *MeanDifferenceTable) TStat(column, variable string) (float64, bool) {
	t, ok := m.tStats[column+"_"+variable]
	return t, ok
}

// PValue returns the t-test p-value of the difference column for one variable.
func (m *MeanDifferenceTable) PValue(column, variable string) (float64, bool) {
	p, ok := m.pValues[column+"_"+variable]
	return p, ok
}

// tableRows materializes one mean row per variable, stars appended on the
// difference columns, followed by a parenthesized standard-error row when
// enabled.
func (m *MeanDifferenceTable) tableRows(t *Table) [][]string {
	includeIndex := t.params.IncludeIndex()
	showStars := t.params.boolValue("show_stars")
	showSEs := t.params.boolValue("show_standard_errors")
	levels := t.params.PValues()

	var rows [][]string
	for _, v := range m.vars {
		meanRow := make([]string, 0, t.ncolumns+1)
		semRow := make([]string, 0, t.ncolumns+1)
		if includeIndex {
			meanRow = append(meanRow, t.indexLabel(v))
			semRow = append(semRow, "")
		}
		for _, col := range t.columns {
			formatted := t.cellFormatter(v, col)(m.means[v][col])
			if showStars {
				if pval, ok := m.pValues[col+"_"+v]; ok {
					formatted += pstars(pval, levels)
				}
			}
			meanRow = append(meanRow, formatted)
			if se, ok := m.sems[v][col]; ok {
				semRow = append(semRow, "("+formatNumber(se, t.params.SigDigits(), t.params.ThousandsSep())+")")
			} else {
				semRow = append(semRow, "")
			}
		}
		rows = append(rows, meanRow)
		if showSEs {
			rows = append(rows, semRow)
		}
	}
	return rows
}

// Write renders like Table.Write with render-time decorations: a group-size
// line after the column labels and a significance legend note. Both are
// removed again on every exit path, so the table's persistent configuration
// is unchanged after the call returns.
func (m *MeanDifferenceTable) Write(w io.Writer, f Format) error {
	undo, err := m.decorate(f)
	if err != nil {
		return err
	}
	defer undo()
	return m.Table.Write(w, f)
}

// Render renders the decorated table and returns the document string.
func (m *MeanDifferenceTable) Render(f Format) (string, error) {
	var buf bytes.Buffer
	if err := m.Write(&buf, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteFile renders the decorated table to path.
func (m *MeanDifferenceTable) WriteFile(path string, f Format) error {
	doc, err := m.Render(f)
	if err != nil {
		return err
	}
	return writeDocument(path, doc)
}

// String renders the decorated ASCII form.
func (m *MeanDifferenceTable) String() string {
	out, err := m.Render(ASCII)
	if err != nil {
		return fmt.Sprintf("stattab: %v", err)
	}
	return out
}

func (m *MeanDifferenceTable) decorate(f Format) (undo func(), err error) {
	var addedLine, addedNote bool
	undo = func() {
		if addedLine {
			_ = m.RemoveLineAt(AfterColumns, -1)
		}
		if addedNote {
			_ = m.RemoveNoteAt(-1)
		}
	}
	defer func() {
		if err != nil {
			undo()
		}
	}()

	if m.params.boolValue("show_n") {
		cells := make([]string, 0, m.ncolumns)
		for _, col := range m.columns {
			if n, ok := m.groupSizes[col]; ok {
				cells = append(cells, "N="+formatNumber(float64(n), 0, m.params.ThousandsSep()))
			} else {
				cells = append(cells, "")
			}
		}
		if err := m.AddLine(cells, AfterColumns, ""); err != nil {
			return undo, err
		}
		addedLine = true
	}
	if m.params.boolValue("show_stars") && m.params.boolValue("show_significance_levels") {
		note, escape := significanceLegend(f, m.params.PValues())
		if err := m.AddNote(note, AlignRight, escape); err != nil {
			return undo, err
		}
		addedNote = true
	}
	return undo, nil
}

// significanceLegend builds the star legend, e.g.
// "Significance levels: * p< 0.1, ** p< 0.05, *** p< 0.01". The LaTeX
// backend gets math-mode comparison markup and skips escaping for it.
func significanceLegend(f Format, levels []float64) (text string, escape bool) {
	lt := "p<"
	escape = true
	if f == LaTeX || f == LaTeXTabular {
		lt = "p$<$"
		escape = false
	}
	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = fmt.Sprintf("%s %s %s", strings.Repeat("*", i+1), lt, strconv.FormatFloat(p, 'g', -1, 64))
	}
	return "Significance levels: " + strings.Join(parts, ", "), escape
}

// pstars returns one star per significance threshold the p-value clears.
func pstars(pval float64, levels []float64) string {
	stars := 0
	for _, level := range levels {
		if pval < level {
			stars++
		}
	}
	return strings.Repeat("*", stars)
}

// welchTTest runs a two-sample t-test without assuming equal variances,
// with the Welch–Satterthwaite degrees of freedom. Undersized samples
// produce NaN rather than an error, matching how the statistics are
// displayed (a missing star, not a failed render).
func welchTTest(x, y []float64, alt Alternative) (tstat, pval float64) {
	nx, ny := float64(len(x)), float64(len(y))
	if nx < 2 || ny < 2 {
		return math.NaN(), math.NaN()
	}
	mx, vx := stat.MeanVariance(x, nil)
	my, vy := stat.MeanVariance(y, nil)
	sx, sy := vx/nx, vy/ny
	se := math.Sqrt(sx + sy)
	if se == 0 {
		return math.NaN(), math.NaN()
	}
	tstat = (mx - my) / se
	df := (sx + sy) * (sx + sy) / (sx*sx/(nx-1) + sy*sy/(ny-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	switch alt {
	case Greater:
		pval = dist.Survival(tstat)
	case Less:
		pval = dist.CDF(tstat)
	default:
		pval = 2 * dist.Survival(math.Abs(tstat))
	}
	return tstat, pval
}

// groupKey turns a raw grouping cell into a column key.
func groupKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
