package stattab

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"
)

// Named statistics a model adapter may supply. Coefficient-keyed statistics
// are map[string]float64; the rest are scalars (float64 or string).
const (
	StatParams            = "params"
	StatStdErrs           = "standard_errors"
	StatPValues           = "p_values"
	StatCILow             = "confidence_interval_low"
	StatCIHigh            = "confidence_interval_high"
	StatObservations      = "observations"
	StatRSquared          = "r_squared"
	StatAdjustedRSquared  = "adjusted_r_squared"
	StatPseudoRSquared    = "pseudo_r_squared"
	StatFStat             = "fstat"
	StatNGroups           = "ngroups"
	StatDOFModel          = "dof_model"
	StatDOFResid          = "dof_resid"
	StatModelType         = "model_type"
	StatDependentVariable = "dependent_variable_name"
)

// Statistics that always format as integers.
var intStats = map[string]bool{
	StatObservations: true,
	StatNGroups:      true,
}

// ModelData adapts a fitted statistical model for table rendering. It holds
// whatever named statistics the model could supply; everything except the
// coefficient estimates is optional, and a missing statistic is simply
// omitted from the output.
type ModelData struct {
	stats map[string]any
}

// NewModelData wraps a statistic map. The coefficient estimates
// ("params", map[string]float64) are required; without them there is no
// table to build.
func NewModelData(stats map[string]any) (*ModelData, error) {
	params, ok := stats[StatParams].(map[string]float64)
	if !ok || len(params) == 0 {
		return nil, fmt.Errorf("%w: %q (map[string]float64) is required", ErrMissingStat, StatParams)
	}
	copied := make(map[string]any, len(stats))
	for k, v := range stats {
		copied[k] = v
	}
	return &ModelData{stats: copied}, nil
}

// Get returns the named statistic, failing with ErrMissingStat when the
// model did not supply it.
func (m *ModelData) Get(name string) (any, error) {
	v, ok := m.stats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingStat, name)
	}
	return v, nil
}

// Has reports whether the model supplied the named statistic.
func (m *ModelData) Has(name string) bool {
	_, ok := m.stats[name]
	return ok
}

// Params returns the coefficient estimates.
func (m *ModelData) Params() map[string]float64 {
	return m.stats[StatParams].(map[string]float64)
}

// StdErrs returns the coefficient standard errors, if supplied.
func (m *ModelData) StdErrs() (map[string]float64, bool) { return m.coefStat(StatStdErrs) }

// PValues returns the coefficient p-values, if supplied.
func (m *ModelData) PValues() (map[string]float64, bool) { return m.coefStat(StatPValues) }

// ConfidenceInterval returns the per-coefficient interval bounds, if supplied.
func (m *ModelData) ConfidenceInterval() (low, high map[string]float64, ok bool) {
	low, okLow := m.coefStat(StatCILow)
	high, okHigh := m.coefStat(StatCIHigh)
	return low, high, okLow && okHigh
}

// DependentVariable returns the dependent variable's name, if supplied.
func (m *ModelData) DependentVariable() (string, bool) {
	s, ok := m.stats[StatDependentVariable].(string)
	return s, ok
}

func (m *ModelData) coefStat(name string) (map[string]float64, bool) {
	v, ok := m.stats[name].(map[string]float64)
	return v, ok
}

func (m *ModelData) scalar(name string) (float64, bool) {
	v, ok := m.stats[name]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// formattedScalar renders a scalar statistic for display: integer counts
// are grouped with no decimals, strings pass through, other numbers use the
// table's significant digits.
func (m *ModelData) formattedScalar(name string, sigDigits int, sep string) (string, bool) {
	v, ok := m.stats[name]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	f, ok := toFloat(v)
	if !ok {
		return "", false
	}
	if intStats[name] {
		return formatNumber(f, 0, sep), true
	}
	return formatNumber(f, sigDigits, sep), true
}

// --- Model table ---

func modelTableDefaults() map[string]any {
	return map[string]any{
		"include_index":            true,
		"show_observations":        true,
		"show_r2":                  true,
		"show_adjusted_r2":         false,
		"show_pseudo_r2":           true,
		"show_dof":                 false,
		"show_ses":                 true,
		"show_cis":                 false,
		"show_fstat":               true,
		"single_row":               false,
		"show_ngroups":             true,
		"show_model_numbers":       true,
		"show_model_type":          true,
		"show_stars":               true,
		"show_significance_levels": true,
		"p_values":                 []float64{0.1, 0.05, 0.01},
	}
}

// ModelTable renders the coefficients and summary statistics of one or more
// fitted models side by side, one column per model.
type ModelTable struct {
	Table

	models    []*ModelData
	coefOrder []string
}

// NewModelTable builds a coefficient table over the given model adapters.
// Columns are numbered (1)…(n); when every model names its dependent
// variable, the names become a group header row.
func NewModelTable(models ...*ModelData) (*ModelTable, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: at least one model is required", ErrInvalidParam)
	}
	columns := make([]string, len(models))
	for i := range models {
		columns[i] = fmt.Sprintf("(%d)", i+1)
	}

	mt := &ModelTable{models: models, coefOrder: defaultCoefOrder(models)}
	tbl, err := newTable(columns, nil, modelTableDefaults())
	if err != nil {
		return nil, err
	}
	mt.Table = *tbl
	mt.Table.source = mt

	depvars := make([]string, len(models))
	spans := make([]int, len(models))
	haveAll := true
	for i, m := range models {
		name, ok := m.DependentVariable()
		if !ok {
			haveAll = false
			break
		}
		depvars[i], spans[i] = name, 1
	}
	if haveAll {
		if err := mt.AddMulticolumns(depvars, spans); err != nil {
			return nil, err
		}
	}
	return mt, nil
}

// defaultCoefOrder is the sorted union of every model's coefficient names.
// SetParameterOrder replaces it.
func defaultCoefOrder(models []*ModelData) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range models {
		for name := range m.Params() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// SetParameterOrder fixes the display order of coefficient rows. Names
// absent from every model render as blank rows; coefficients left out of
// the order are dropped from the output.
func (mt *ModelTable) SetParameterOrder(names []string) {
	mt.coefOrder = slices.Clone(names)
}

// tableRows materializes one row per coefficient: the starred estimate,
// then a parenthesized standard-error row or a confidence-interval row
// beneath it. With single_row set, estimate and standard error share a row.
func (mt *ModelTable) tableRows(t *Table) [][]string {
	includeIndex := t.params.IncludeIndex()
	showStars := t.params.boolValue("show_stars")
	showSEs := t.params.boolValue("show_ses")
	showCIs := t.params.boolValue("show_cis")
	singleRow := t.params.boolValue("single_row")
	levels := t.params.PValues()
	sigDigits := t.params.SigDigits()
	sep := t.params.ThousandsSep()

	var rows [][]string
	for _, coef := range mt.coefOrder {
		estRow := make([]string, 0, t.ncolumns+1)
		underRow := make([]string, 0, t.ncolumns+1)
		if includeIndex {
			estRow = append(estRow, t.indexLabel(coef))
			underRow = append(underRow, "")
		}
		anyUnder := false
		for i, m := range mt.models {
			col := t.columns[i]
			est, ok := m.Params()[coef]
			if !ok {
				estRow = append(estRow, "")
				underRow = append(underRow, "")
				continue
			}
			cell := t.cellFormatter(coef, col)(est)
			if showStars {
				if pvals, ok := m.PValues(); ok {
					if p, ok := pvals[coef]; ok {
						cell += pstars(p, levels)
					}
				}
			}
			under := ""
			if showCIs {
				if low, high, ok := m.ConfidenceInterval(); ok {
					lo, okLo := low[coef]
					hi, okHi := high[coef]
					if okLo && okHi {
						under = "[" + formatNumber(lo, sigDigits, sep) + ", " + formatNumber(hi, sigDigits, sep) + "]"
					}
				}
			} else if showSEs {
				if ses, ok := m.StdErrs(); ok {
					if se, ok := ses[coef]; ok {
						under = "(" + formatNumber(se, sigDigits, sep) + ")"
					}
				}
			}
			if singleRow && under != "" {
				cell += " " + under
				under = ""
			}
			if under != "" {
				anyUnder = true
			}
			estRow = append(estRow, cell)
			underRow = append(underRow, under)
		}
		rows = append(rows, estRow)
		if anyUnder && !singleRow {
			rows = append(rows, underRow)
		}
	}
	return rows
}

// modelStatLine describes one summary-statistic line of the footer block:
// the gating parameter, the statistic pulled from each model, and its
// per-backend labels.
type modelStatLine struct {
	param string
	stat  string
	ascii string
	latex string
	html  string
}

var modelStatLines = []modelStatLine{
	{"show_observations", StatObservations, "Observations", "Observations", "Observations"},
	{"show_r2", StatRSquared, "R2", "R$^2$", "R<sup>2</sup>"},
	{"show_adjusted_r2", StatAdjustedRSquared, "Adjusted R2", "Adjusted R$^2$", "Adjusted R<sup>2</sup>"},
	{"show_pseudo_r2", StatPseudoRSquared, "Pseudo R2", "Pseudo $R^2$", "Pseudo R<sup>2</sup>"},
	{"show_fstat", StatFStat, "F Statistic", "F Statistic", "F Statistic"},
	{"show_dof", StatDOFModel, "DoF Model", "DoF Model", "DoF Model"},
	{"show_dof", StatDOFResid, "DoF Residuals", "DoF Residuals", "DoF Residuals"},
	{"show_ngroups", StatNGroups, "N. Groups", "N. Groups", "N. Groups"},
	{"show_model_type", StatModelType, "Model Type", "Model Type", "Model Type"},
}

func (l modelStatLine) label(f Format) string {
	switch f {
	case LaTeX, LaTeXTabular:
		return l.latex
	case HTML:
		return l.html
	default:
		return l.ascii
	}
}

// Write renders like Table.Write with render-time decorations: one summary
// line per enabled statistic after the body, and the significance legend.
// All decorations are removed on every exit path.
func (mt *ModelTable) Write(w io.Writer, f Format) error {
	undo, err := mt.decorate(f)
	if err != nil {
		return err
	}
	defer undo()
	return mt.Table.Write(w, f)
}

// Render renders the decorated table and returns the document string.
func (mt *ModelTable) Render(f Format) (string, error) {
	var buf bytes.Buffer
	if err := mt.Write(&buf, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteFile renders the decorated table to path.
func (mt *ModelTable) WriteFile(path string, f Format) error {
	doc, err := mt.Render(f)
	if err != nil {
		return err
	}
	return writeDocument(path, doc)
}

// String renders the decorated ASCII form.
func (mt *ModelTable) String() string {
	out, err := mt.Render(ASCII)
	if err != nil {
		return fmt.Sprintf("stattab: %v", err)
	}
	return out
}

func (mt *ModelTable) decorate(f Format) (undo func(), err error) {
	addedLines := 0
	addedNote := false
	addedMulticolumn := false
	var restoreColumns func()
	undo = func() {
		for ; addedLines > 0; addedLines-- {
			_ = mt.RemoveLineAt(AfterBody, -1)
		}
		if addedNote {
			_ = mt.RemoveNoteAt(-1)
			addedNote = false
		}
		if addedMulticolumn {
			mt.popMulticolumn()
			addedMulticolumn = false
		}
		if restoreColumns != nil {
			restoreColumns()
			restoreColumns = nil
		}
	}
	defer func() {
		if err != nil {
			undo()
		}
	}()

	if !mt.params.boolValue("show_model_numbers") {
		restoreColumns = mt.params.override("show_columns", false)
	}
	if dv := mt.params.stringValue("dependent_variable"); dv != "" {
		if err := mt.AddMulticolumns([]string{dv}, nil); err != nil {
			return undo, err
		}
		addedMulticolumn = true
	}

	sigDigits := mt.params.SigDigits()
	sep := mt.params.ThousandsSep()
	for _, statLine := range modelStatLines {
		if !mt.params.boolValue(statLine.param) {
			continue
		}
		cells := make([]string, len(mt.models))
		present := false
		for i, m := range mt.models {
			if v, ok := m.formattedScalar(statLine.stat, sigDigits, sep); ok {
				cells[i] = v
				present = true
			}
		}
		if !present {
			// No model supplies the statistic; the line is omitted, not an error.
			continue
		}
		if err := mt.AddLine(cells, AfterBody, statLine.label(f)); err != nil {
			return undo, err
		}
		addedLines++
	}
	if mt.params.boolValue("show_stars") && mt.params.boolValue("show_significance_levels") {
		note, escape := significanceLegend(f, mt.params.PValues())
		if err := mt.AddNote(note, AlignRight, escape); err != nil {
			return undo, err
		}
		addedNote = true
	}
	return undo, nil
}
