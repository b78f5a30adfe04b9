package stattab

import (
	"fmt"
	"strings"
)

// htmlRenderer emits a self-contained <table> fragment, usable standalone
// or embedded in a notebook-style rich display. No character escaping is
// performed; the display environment is trusted with the content.
type htmlRenderer struct {
	table *Table
}

func (r htmlRenderer) render() (string, error) {
	var sb strings.Builder
	r.header(&sb)
	r.body(&sb)
	r.footer(&sb)
	return sb.String(), nil
}

func (r htmlRenderer) header(sb *strings.Builder) {
	t := r.table
	sb.WriteString("<table>\n")
	sb.WriteString("  <thead>\n")
	for _, mc := range t.multicolumns {
		sb.WriteString("    <tr>\n")
		if t.params.IncludeIndex() {
			fmt.Fprintf(sb, "      <th>%s</th>\n", t.IndexName)
		}
		groups := make([]string, len(mc.labels))
		for i, label := range mc.labels {
			groups[i] = fmt.Sprintf(`<th colspan="%d" style="text-align:center;">%s</th>`, mc.spans[i], label)
		}
		sb.WriteString("      " + strings.Join(groups, " ") + "\n")
		sb.WriteString("    </tr>\n")
	}
	for _, line := range t.customHTMLLines[AfterMulticolumns] {
		sb.WriteString(line + "\n")
	}
	for _, line := range t.customLines[AfterMulticolumns] {
		r.writeLine(sb, line)
	}
	if t.params.ShowColumns() {
		sb.WriteString("    <tr>\n")
		if t.params.IncludeIndex() {
			fmt.Fprintf(sb, "      <th>%s</th>\n", t.IndexName)
		}
		for _, col := range t.columns {
			fmt.Fprintf(sb, "      <th style=\"text-align:center;\">%s</th>\n", t.columnLabel(col))
		}
		sb.WriteString("    </tr>\n")
	}
	for _, line := range t.customHTMLLines[AfterColumns] {
		sb.WriteString(line + "\n")
	}
	for _, line := range t.customLines[AfterColumns] {
		r.writeLine(sb, line)
	}
	sb.WriteString("  </thead>\n")
	sb.WriteString("  <tbody>\n")
}

func (r htmlRenderer) body(sb *strings.Builder) {
	t := r.table
	for _, row := range t.rows() {
		sb.WriteString("    <tr>\n")
		for _, cell := range row {
			fmt.Fprintf(sb, "      <td>%s</td>\n", cell)
		}
		sb.WriteString("    </tr>\n")
	}
	for _, line := range t.customLines[AfterBody] {
		r.writeLine(sb, line)
	}
	for _, line := range t.customHTMLLines[AfterBody] {
		sb.WriteString(line + "\n")
	}
}

func (r htmlRenderer) footer(sb *strings.Builder) {
	t := r.table
	for _, line := range t.customLines[AfterFooter] {
		r.writeLine(sb, line)
	}
	for _, line := range t.customHTMLLines[AfterFooter] {
		sb.WriteString(line + "\n")
	}
	spanCols := t.ncolumns
	if t.params.IncludeIndex() {
		spanCols++
	}
	for _, note := range t.notes {
		fmt.Fprintf(sb, "    <tr><td colspan=\"%d\" style=\"text-align:%s;\"><i>%s</i></td></tr>\n",
			spanCols, note.Align.keyword(), note.Text)
	}
	sb.WriteString("  </tbody>\n")
	sb.WriteString("</table>\n")
}

// writeLine formats a generic custom line as a header-cell row, matching
// how structural label rows are marked up.
func (r htmlRenderer) writeLine(sb *strings.Builder, line Line) {
	sb.WriteString("    <tr>\n")
	if r.table.params.IncludeIndex() {
		fmt.Fprintf(sb, "      <th>%s</th>\n", line.Label)
	}
	for _, cell := range line.Cells {
		fmt.Fprintf(sb, "      <th>%s</th>\n", cell)
	}
	sb.WriteString("    </tr>\n")
}
