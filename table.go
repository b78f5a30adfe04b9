package stattab

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Formatter converts a single raw cell value to its display string.
type Formatter func(value any) string

// Note is a single line rendered under the table rule.
type Note struct {
	Text   string
	Align  Alignment
	Escape bool
}

// Line is a row-shaped custom line spliced into the rendered output at a
// named insertion point. Cells must match the table's column count; Label
// fills the index cell when the index is rendered.
type Line struct {
	Label string
	Cells []string
}

type multicolumn struct {
	labels []string
	spans  []int
}

// rowSource produces the materialized string rows a table renders. The
// generic dataset source applies the shared formatter pipeline; the table
// variants materialize their own precomputed statistics.
type rowSource interface {
	tableRows(t *Table) [][]string
}

// Table is the abstract table model shared by every renderer. It is built
// once from source data, configured through mutator calls, and rendered any
// number of times; rendering never mutates it.
type Table struct {
	columns  []string
	ncolumns int
	source   rowSource
	params   *TableParams

	// Typeset-only metadata.
	Caption string
	Label   string

	// IndexName labels the leading index column.
	IndexName string

	columnLabels map[string]string
	indexLabels  map[string]string
	multicolumns []multicolumn
	notes        []Note
	customLines  map[LineLocation][]Line

	// Pre-formatted per-backend injections, rendered verbatim.
	customLaTeXLines map[LineLocation][]string
	customHTMLLines  map[LineLocation][]string

	formatters    map[string]Formatter
	formatterAxis Axis // empty until CustomFormatters is called
}

func newTable(columns []string, source rowSource, typeDefaults map[string]any) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = true
	}
	return &Table{
		columns:          slices.Clone(columns),
		ncolumns:         len(columns),
		source:           source,
		params:           newTableParams(typeDefaults),
		columnLabels:     make(map[string]string),
		indexLabels:      make(map[string]string),
		customLines:      make(map[LineLocation][]Line),
		customLaTeXLines: make(map[LineLocation][]string),
		customHTMLLines:  make(map[LineLocation][]string),
	}, nil
}

// NewTable creates a generic table over a dataset. The index column is
// included by default.
func NewTable(data *Dataset) (*Table, error) {
	return newTable(data.Columns(), data, map[string]any{"include_index": true})
}

// NewSummaryTable creates a generic table of summary statistics (count,
// mean, std, min, quartiles, max) for the named numeric columns of data.
func NewSummaryTable(data *Dataset, vars ...string) (*Table, error) {
	summary, err := data.Describe(vars...)
	if err != nil {
		return nil, err
	}
	return NewTable(summary)
}

// Params exposes the table's three-tier parameter resolution.
func (t *Table) Params() *TableParams { return t.params }

// NColumns returns the fixed column count, not counting the index.
func (t *Table) NColumns() int { return t.ncolumns }

// Columns returns the column keys in display order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Notes returns a copy of the registered notes in registration order.
func (t *Table) Notes() []Note { return slices.Clone(t.notes) }

// Lines returns a copy of the custom lines registered at loc. Cell slices
// are copied too, so callers cannot reach the table's stored state.
func (t *Table) Lines(loc LineLocation) []Line {
	lines := make([]Line, len(t.customLines[loc]))
	for i, l := range t.customLines[loc] {
		lines[i] = Line{Label: l.Label, Cells: slices.Clone(l.Cells)}
	}
	return lines
}

// --- Configuration mutators ---
//
// All structural validation happens here, at mutation time; a table that
// accepted its configuration always renders without structural errors.

// RenameColumns maps raw column keys to display labels. Keys with no entry
// keep their raw key as the label.
func (t *Table) RenameColumns(labels map[string]string) {
	t.columnLabels = make(map[string]string, len(labels))
	for k, v := range labels {
		t.columnLabels[k] = v
	}
}

// RenameIndex maps raw row keys to display labels.
func (t *Table) RenameIndex(labels map[string]string) {
	t.indexLabels = make(map[string]string, len(labels))
	for k, v := range labels {
		t.indexLabels[k] = v
	}
}

// AddMulticolumns registers a header group row: each label spans the
// corresponding number of columns. The spans must sum to the table's column
// count, the index column excluded. Passing no spans makes a single label
// span the whole table.
func (t *Table) AddMulticolumns(labels []string, spans []int) error {
	if len(spans) == 0 {
		spans = []int{t.ncolumns}
	}
	if len(labels) != len(spans) {
		return fmt.Errorf("%w: %d labels for %d spans", ErrColumnMismatch, len(labels), len(spans))
	}
	total := 0
	for _, s := range spans {
		total += s
	}
	if total != t.ncolumns {
		return fmt.Errorf("%w: spans sum to %d, table has %d columns", ErrColumnMismatch, total, t.ncolumns)
	}
	t.multicolumns = append(t.multicolumns, multicolumn{
		labels: slices.Clone(labels),
		spans:  slices.Clone(spans),
	})
	return nil
}

func (t *Table) popMulticolumn() {
	if n := len(t.multicolumns); n > 0 {
		t.multicolumns = t.multicolumns[:n-1]
	}
}

// CustomFormatters registers per-key value formatters. With AxisColumns the
// lookup key is the column key, with AxisIndex the row key. The two modes
// are mutually exclusive per table: the last call wins, and overwriting a
// previously set axis emits a warning on WarningWriter.
func (t *Table) CustomFormatters(formatters map[string]Formatter, axis Axis) error {
	switch axis {
	case AxisColumns, AxisIndex:
	default:
		return fmt.Errorf("%w: formatter axis must be %q or %q", ErrInvalidParam, AxisColumns, AxisIndex)
	}
	for key, f := range formatters {
		if f == nil {
			return fmt.Errorf("%w: formatter for %q is nil", ErrInvalidParam, key)
		}
	}
	if t.formatterAxis != "" && t.formatterAxis != axis {
		fmt.Fprintf(WarningWriter, "stattab: %s formatters were already set and will be overwritten\n", t.formatterAxis)
	}
	t.formatters = make(map[string]Formatter, len(formatters))
	for k, f := range formatters {
		t.formatters[k] = f
	}
	t.formatterAxis = axis
	return nil
}

// AddNote appends a single-line note under the bottom rule. The note spans
// the full table width, aligned per align. When escape is set the typeset
// backend escapes its reserved characters in the text.
func (t *Table) AddNote(text string, align Alignment, escape bool) error {
	if !align.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, align)
	}
	t.notes = append(t.notes, Note{Text: text, Align: align, Escape: escape})
	return nil
}

// RemoveNote removes the first note whose text equals text.
func (t *Table) RemoveNote(text string) error {
	for i, n := range t.notes {
		if n.Text == text {
			t.notes = slices.Delete(t.notes, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: note %q", ErrNotFound, text)
}

// RemoveNoteAt removes the note at index i. Negative indices count from the
// end, so -1 removes the most recently added note.
func (t *Table) RemoveNoteAt(i int) error {
	i, err := resolveIndex(i, len(t.notes), "note")
	if err != nil {
		return err
	}
	t.notes = slices.Delete(t.notes, i, i+1)
	return nil
}

// AddLine registers a custom line at the given insertion point. The line is
// formatted by each backend like a body row, with label in the index cell.
func (t *Table) AddLine(cells []string, loc LineLocation, label string) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	if len(cells) != t.ncolumns {
		return fmt.Errorf("%w: line has %d cells, table has %d columns", ErrColumnMismatch, len(cells), t.ncolumns)
	}
	t.customLines[loc] = append(t.customLines[loc], Line{Label: label, Cells: slices.Clone(cells)})
	return nil
}

// RemoveLine removes the first line at loc whose cells equal cells.
func (t *Table) RemoveLine(loc LineLocation, cells []string) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	for i, l := range t.customLines[loc] {
		if slices.Equal(l.Cells, cells) {
			t.customLines[loc] = slices.Delete(t.customLines[loc], i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: line at %q", ErrNotFound, loc)
}

// RemoveLineAt removes the line at index i of loc. Negative indices count
// from the end.
func (t *Table) RemoveLineAt(loc LineLocation, i int) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	i, err := resolveIndex(i, len(t.customLines[loc]), "line")
	if err != nil {
		return err
	}
	t.customLines[loc] = slices.Delete(t.customLines[loc], i, i+1)
	return nil
}

// AddLaTeXLine registers a raw line rendered verbatim by the LaTeX backend
// only, bypassing the shared formatting and escaping pipeline.
func (t *Table) AddLaTeXLine(line string, loc LineLocation) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	t.customLaTeXLines[loc] = append(t.customLaTeXLines[loc], line)
	return nil
}

// RemoveLaTeXLine removes the first verbatim LaTeX line at loc equal to line.
func (t *Table) RemoveLaTeXLine(loc LineLocation, line string) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	if i := slices.Index(t.customLaTeXLines[loc], line); i >= 0 {
		t.customLaTeXLines[loc] = slices.Delete(t.customLaTeXLines[loc], i, i+1)
		return nil
	}
	return fmt.Errorf("%w: latex line at %q", ErrNotFound, loc)
}

// RemoveLaTeXLineAt removes the verbatim LaTeX line at index i of loc.
// Negative indices count from the end.
func (t *Table) RemoveLaTeXLineAt(loc LineLocation, i int) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	i, err := resolveIndex(i, len(t.customLaTeXLines[loc]), "latex line")
	if err != nil {
		return err
	}
	t.customLaTeXLines[loc] = slices.Delete(t.customLaTeXLines[loc], i, i+1)
	return nil
}

// AddHTMLLine registers a raw line rendered verbatim by the HTML backend only.
func (t *Table) AddHTMLLine(line string, loc LineLocation) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	t.customHTMLLines[loc] = append(t.customHTMLLines[loc], line)
	return nil
}

// RemoveHTMLLine removes the first verbatim HTML line at loc equal to line.
func (t *Table) RemoveHTMLLine(loc LineLocation, line string) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	if i := slices.Index(t.customHTMLLines[loc], line); i >= 0 {
		t.customHTMLLines[loc] = slices.Delete(t.customHTMLLines[loc], i, i+1)
		return nil
	}
	return fmt.Errorf("%w: html line at %q", ErrNotFound, loc)
}

// RemoveHTMLLineAt removes the verbatim HTML line at index i of loc.
// Negative indices count from the end.
func (t *Table) RemoveHTMLLineAt(loc LineLocation, i int) error {
	if err := validateLocation(loc); err != nil {
		return err
	}
	i, err := resolveIndex(i, len(t.customHTMLLines[loc]), "html line")
	if err != nil {
		return err
	}
	t.customHTMLLines[loc] = slices.Delete(t.customHTMLLines[loc], i, i+1)
	return nil
}

func resolveIndex(i, length int, what string) (int, error) {
	resolved := i
	if resolved < 0 {
		resolved += length
	}
	if resolved < 0 || resolved >= length {
		return 0, fmt.Errorf("%w: %s index %d with %d registered", ErrNotFound, what, i, length)
	}
	return resolved, nil
}

// --- Row materialization ---

// rows returns the materialized string rows. Every row has
// ncolumns + 1 cells when the index is included, ncolumns otherwise.
func (t *Table) rows() [][]string {
	return t.source.tableRows(t)
}

// columnLabel returns the display label for a column key.
func (t *Table) columnLabel(key string) string {
	if l, ok := t.columnLabels[key]; ok {
		return l
	}
	return key
}

// indexLabel returns the display label for a row key.
func (t *Table) indexLabel(key string) string {
	if l, ok := t.indexLabels[key]; ok {
		return l
	}
	return key
}

// cellFormatter resolves the formatter for one cell. Lookup misses fall
// back to the default formatter; they never fail.
func (t *Table) cellFormatter(rowKey, columnKey string) Formatter {
	var key string
	switch t.formatterAxis {
	case AxisIndex:
		key = rowKey
	case AxisColumns:
		key = columnKey
	default:
		return t.defaultFormat
	}
	if f, ok := t.formatters[key]; ok {
		return f
	}
	return t.defaultFormat
}

// defaultFormat renders numbers with the configured decimal places and
// thousands separator and passes strings through unchanged.
func (t *Table) defaultFormat(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if f, ok := toFloat(value); ok {
		return formatNumber(f, t.params.SigDigits(), t.params.ThousandsSep())
	}
	return fmt.Sprintf("%v", value)
}

// tableRows materializes a generic dataset: the labeled row key first when
// the index is included, then each column's value through the formatter
// pipeline.
func (d *Dataset) tableRows(t *Table) [][]string {
	includeIndex := t.params.IncludeIndex()
	rows := make([][]string, 0, len(d.rows))
	for _, r := range d.rows {
		row := make([]string, 0, t.ncolumns+1)
		if includeIndex {
			row = append(row, t.indexLabel(r.key))
		}
		for _, col := range t.columns {
			row = append(row, t.cellFormatter(r.key, col)(r.cells[col]))
		}
		rows = append(rows, row)
	}
	return rows
}

// formatNumber renders v with the given decimal places, grouping the
// integer digits with sep.
func formatNumber(v float64, sigDigits int, sep string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', sigDigits, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if sep != "" && len(intPart) > 3 {
		var grouped strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			grouped.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if grouped.Len() > 0 {
				grouped.WriteString(sep)
			}
			grouped.WriteString(intPart[i : i+3])
		}
		intPart = grouped.String()
	}
	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}
