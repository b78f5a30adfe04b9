package stattab

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// displayWidth measures content in display cells, not bytes.
func displayWidth(s string) int { return runewidth.StringWidth(s) }

// asciiDims holds the measured plain-text layout: one uniform width for
// every body cell, an independent width for the index column, and the total
// table width. A uniform body width keeps all columns aligned under
// multi-column group headers without per-column span arithmetic.
type asciiDims struct {
	bodyCell  int
	indexCell int
	width     int
}

// measureASCII pre-scans every materialized row, header label, and custom
// line to size the table before any output is emitted. Cell sizes include
// padding on both sides.
func measureASCII(t *Table, rows [][]string, padding int) asciiDims {
	var d asciiDims
	includeIndex := t.params.IncludeIndex()

	bodyCell := func(s string) {
		if size := displayWidth(s) + 2*padding; size > d.bodyCell {
			d.bodyCell = size
		}
	}
	indexCell := func(s string) {
		if size := displayWidth(s) + 2*padding; size > d.indexCell {
			d.indexCell = size
		}
	}

	for _, row := range rows {
		for i, cell := range row {
			if includeIndex && i == 0 {
				indexCell(cell)
				continue
			}
			bodyCell(cell)
		}
	}
	if t.params.ShowColumns() {
		for _, col := range t.columns {
			bodyCell(t.columnLabel(col))
		}
	}
	if includeIndex {
		indexCell(t.IndexName)
	}
	for _, loc := range lineLocations {
		for _, line := range t.customLines[loc] {
			for _, cell := range line.Cells {
				bodyCell(cell)
			}
			if includeIndex {
				indexCell(line.Label)
			}
		}
	}

	if !includeIndex {
		d.indexCell = 0
	}
	d.width = d.bodyCell*t.ncolumns + d.indexCell
	return d
}

// asciiRenderer emits a fixed-width, border-decorated block suitable for
// terminal or log output. It requires the measurement pass above; no
// reflow happens after that.
type asciiRenderer struct {
	table *Table
}

func (r asciiRenderer) render() (string, error) {
	t := r.table
	padding := t.params.Padding()
	if padding < 0 || padding > maxPadding {
		return "", fmt.Errorf("%w: ascii_padding %d out of range [0, %d]", ErrInvalidParam, padding, maxPadding)
	}
	rows := t.rows()
	dims := measureASCII(t, rows, padding)

	var sb strings.Builder
	r.header(&sb, dims)
	r.body(&sb, rows, dims)
	r.footer(&sb, dims)
	return sb.String(), nil
}

func (r asciiRenderer) header(sb *strings.Builder, dims asciiDims) {
	t := r.table
	rule := r.rule(t.params.stringValue("ascii_header_char"), dims)
	sb.WriteString(rule + "\n")
	if t.params.boolValue("ascii_double_top_rule") {
		sb.WriteString(rule + "\n")
	}

	border := t.params.stringValue("ascii_border_char")
	for _, mc := range t.multicolumns {
		sb.WriteString(border)
		if t.params.IncludeIndex() {
			sb.WriteString(strings.Repeat(" ", dims.indexCell))
		}
		for i, label := range mc.labels {
			sb.WriteString(alignCell(label, dims.bodyCell*mc.spans[i], AlignCenter))
		}
		sb.WriteString(border + "\n")
	}
	for _, line := range t.customLines[AfterMulticolumns] {
		sb.WriteString(r.lineRow(line, dims) + "\n")
	}

	if t.params.ShowColumns() {
		sb.WriteString(border)
		if t.params.IncludeIndex() {
			sb.WriteString(alignCell(t.IndexName, dims.indexCell, t.params.IndexAlignment()))
		}
		for _, col := range t.columns {
			sb.WriteString(alignCell(t.columnLabel(col), dims.bodyCell, t.params.ColumnAlignment()))
		}
		sb.WriteString(border + "\n")
	}
	for _, line := range t.customLines[AfterColumns] {
		sb.WriteString(r.lineRow(line, dims) + "\n")
	}
	if t.params.ShowColumns() {
		mid := t.params.stringValue("ascii_mid_rule_char")
		sb.WriteString(border + strings.Repeat(mid, dims.width) + border + "\n")
	}
}

func (r asciiRenderer) body(sb *strings.Builder, rows [][]string, dims asciiDims) {
	t := r.table
	for _, row := range rows {
		sb.WriteString(r.cellRow(row, dims) + "\n")
	}
	for _, line := range t.customLines[AfterBody] {
		sb.WriteString(r.lineRow(line, dims) + "\n")
	}
}

// footer renders the bottom rule and notes. The document ends without a
// trailing newline.
func (r asciiRenderer) footer(sb *strings.Builder, dims asciiDims) {
	t := r.table
	rule := r.rule(t.params.stringValue("ascii_footer_char"), dims)
	sb.WriteString(rule)
	if t.params.boolValue("ascii_double_bottom_rule") {
		sb.WriteString("\n" + rule)
	}
	if lines := t.customLines[AfterFooter]; len(lines) > 0 {
		for _, line := range lines {
			sb.WriteString("\n" + r.lineRow(line, dims))
		}
		sb.WriteString("\n" + rule)
	}
	for _, note := range t.notes {
		sb.WriteString("\n" + alignCell(note.Text, dims.width, note.Align))
	}
}

// rule spans the table width plus the borders on both sides.
func (r asciiRenderer) rule(char string, dims asciiDims) string {
	border := r.table.params.stringValue("ascii_border_char")
	return strings.Repeat(char, dims.width+2*displayWidth(border))
}

// cellRow pads every cell to the measured uniform width; the leading index
// cell, when present, uses its own width and alignment.
func (r asciiRenderer) cellRow(cells []string, dims asciiDims) string {
	t := r.table
	border := t.params.stringValue("ascii_border_char")
	var sb strings.Builder
	sb.WriteString(border)
	for i, cell := range cells {
		if t.params.IncludeIndex() && i == 0 {
			sb.WriteString(alignCell(cell, dims.indexCell, t.params.IndexAlignment()))
			continue
		}
		sb.WriteString(alignCell(cell, dims.bodyCell, t.params.ColumnAlignment()))
	}
	sb.WriteString(border)
	return sb.String()
}

func (r asciiRenderer) lineRow(line Line, dims asciiDims) string {
	if r.table.params.IncludeIndex() {
		return r.cellRow(append([]string{line.Label}, line.Cells...), dims)
	}
	return r.cellRow(line.Cells, dims)
}
