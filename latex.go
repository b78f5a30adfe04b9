package stattab

import (
	"fmt"
	"strings"
)

// latexEscapes are the reserved characters of the typeset dialect, replaced
// in header and body cells and in escaping notes. Order matters: the
// backslash must be rewritten before the replacements that introduce one.
var latexEscapes = [][2]string{
	{`\`, `\textbackslash `},
	{`_`, `\_`},
	{`%`, `\%`},
	{`$`, `\$`},
	{`#`, `\#`},
	{`{`, `\{`},
	{`}`, `\}`},
	{`~`, `\textasciitilde `},
	{`^`, `\textasciicircum `},
	{`&`, `\&`},
}

func latexEscape(text string) string {
	for _, e := range latexEscapes {
		text = strings.ReplaceAll(text, e[0], e[1])
	}
	return text
}

// latexRenderer emits a booktabs-style table. With onlyTabular set, only
// the tabular environment is produced, with no floating wrapper, caption,
// or label.
type latexRenderer struct {
	table       *Table
	onlyTabular bool
}

func (r latexRenderer) render() (string, error) {
	var sb strings.Builder
	r.header(&sb)
	r.body(&sb)
	r.footer(&sb)
	return sb.String(), nil
}

func (r latexRenderer) header(sb *strings.Builder) {
	t := r.table
	if !r.onlyTabular {
		sb.WriteString("\\begin{table}[!htbp]\n  \\centering\n")
		if t.params.CaptionLocation() == "top" {
			r.captionAndLabel(sb)
		}
	}

	colSpec := strings.Repeat(t.params.ColumnAlignment().letter(), t.ncolumns)
	if t.params.IncludeIndex() {
		colSpec = t.params.IndexAlignment().letter() + colSpec
	}
	sb.WriteString("\\begin{tabular}{" + colSpec + "}\n")
	sb.WriteString("  \\toprule\n")
	if t.params.boolValue("double_top_rule") {
		sb.WriteString("  \\toprule\n")
	}

	for _, mc := range t.multicolumns {
		if t.params.IncludeIndex() {
			sb.WriteString("  " + t.IndexName + " & ")
		}
		groups := make([]string, len(mc.labels))
		for i, label := range mc.labels {
			groups[i] = fmt.Sprintf("\\multicolumn{%d}{c}{%s}", mc.spans[i], latexEscape(label))
		}
		sb.WriteString(strings.Join(groups, " & ") + " \\\\\n")
	}
	for _, line := range t.customLaTeXLines[AfterMulticolumns] {
		sb.WriteString("  " + line + "\n")
	}
	for _, line := range t.customLines[AfterMulticolumns] {
		r.writeLine(sb, line)
	}

	if t.params.ShowColumns() {
		if t.params.IncludeIndex() {
			sb.WriteString("  " + t.IndexName + " & ")
		}
		labels := make([]string, t.ncolumns)
		for i, col := range t.columns {
			labels[i] = latexEscape(t.columnLabel(col))
		}
		sb.WriteString(strings.Join(labels, " & ") + "\\\\\n")
	}
	for _, line := range t.customLaTeXLines[AfterColumns] {
		sb.WriteString("  " + line + "\n")
	}
	for _, line := range t.customLines[AfterColumns] {
		r.writeLine(sb, line)
	}
	sb.WriteString("  \\midrule\n")
}

func (r latexRenderer) body(sb *strings.Builder) {
	t := r.table
	for _, row := range t.rows() {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = latexEscape(cell)
		}
		sb.WriteString("  " + strings.Join(cells, " & ") + " \\\\\n")
	}
	for _, line := range t.customLines[AfterBody] {
		r.writeLine(sb, line)
	}
	for _, line := range t.customLaTeXLines[AfterBody] {
		sb.WriteString(line)
	}
}

func (r latexRenderer) footer(sb *strings.Builder) {
	t := r.table
	sb.WriteString("  \\bottomrule\n")
	if t.params.boolValue("double_bottom_rule") {
		sb.WriteString("  \\bottomrule\n")
	}
	if lines := t.customLines[AfterFooter]; len(lines) > 0 {
		for _, line := range lines {
			r.writeLine(sb, line)
		}
		sb.WriteString("  \\bottomrule\n")
	}
	for _, line := range t.customLaTeXLines[AfterFooter] {
		sb.WriteString("  " + line + "\n")
	}
	spanCols := t.ncolumns
	if t.params.IncludeIndex() {
		spanCols++
	}
	for _, note := range t.notes {
		text := note.Text
		if note.Escape {
			text = latexEscape(text)
		}
		fmt.Fprintf(sb, "  \\multicolumn{%d}{%s}{{\\small \\textit{%s}}}\\\\\n", spanCols, note.Align.letter(), text)
	}
	sb.WriteString("\\end{tabular}\n")
	if !r.onlyTabular {
		if t.params.CaptionLocation() == "bottom" {
			r.captionAndLabel(sb)
		}
		sb.WriteString("\\end{table}\n")
	}
}

func (r latexRenderer) captionAndLabel(sb *strings.Builder) {
	if r.table.Caption != "" {
		sb.WriteString("  \\caption{" + r.table.Caption + "}\n")
	}
	if r.table.Label != "" {
		sb.WriteString("  \\label{" + r.table.Label + "}\n")
	}
}

// writeLine formats a generic custom line as a table row. Cells are emitted
// as registered, without escaping.
func (r latexRenderer) writeLine(sb *strings.Builder, line Line) {
	if r.table.params.IncludeIndex() {
		sb.WriteString("  " + line.Label + " & ")
	}
	sb.WriteString(strings.Join(line.Cells, " & ") + "\\\\\n")
}
