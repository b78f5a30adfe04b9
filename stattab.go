package stattab

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidAlignment  = errors.New("invalid alignment")
	ErrInvalidLocation   = errors.New("invalid line location")
	ErrInvalidParam      = errors.New("invalid parameter")
	ErrColumnMismatch    = errors.New("column count mismatch")
	ErrDuplicateColumn   = errors.New("duplicate column")
	ErrNotFound          = errors.New("not found")
	ErrMissingStat       = errors.New("missing statistic")
)

// WarningWriter receives non-fatal configuration warnings, such as
// overwriting an already-registered formatter axis. Set to io.Discard to
// silence them.
var WarningWriter io.Writer = os.Stderr

// Format represents an output format.
type Format string

const (
	LaTeX        Format = "latex"
	LaTeXTabular Format = "latex-tabular" // tabular environment only, no floating wrapper
	HTML         Format = "html"
	ASCII        Format = "ascii"
)

var formats = []Format{LaTeX, LaTeXTabular, HTML, ASCII}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Formats returns all supported format names.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat parses a format string.
func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// --- Value Types ---

// Alignment controls text alignment of cells and notes.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// ParseAlignment parses an alignment code. Both the short codes (l, c, r)
// and the long keywords (left, center, right) are recognized.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "l", "left":
		return AlignLeft, nil
	case "c", "center":
		return AlignCenter, nil
	case "r", "right":
		return AlignRight, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAlignment, s)
}

func (a Alignment) valid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

// letter returns the short-form code used by the LaTeX backend.
func (a Alignment) letter() string {
	switch a {
	case AlignRight:
		return "r"
	case AlignCenter:
		return "c"
	default:
		return "l"
	}
}

// keyword returns the long-form keyword used by the HTML backend.
func (a Alignment) keyword() string {
	switch a {
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	default:
		return "left"
	}
}

// LineLocation names an insertion point for custom lines.
type LineLocation string

const (
	AfterMulticolumns LineLocation = "after-multicolumns"
	AfterColumns      LineLocation = "after-columns"
	AfterBody         LineLocation = "after-body"
	AfterFooter       LineLocation = "after-footer"
)

var lineLocations = []LineLocation{AfterMulticolumns, AfterColumns, AfterBody, AfterFooter}

func validateLocation(loc LineLocation) error {
	for _, l := range lineLocations {
		if l == loc {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidLocation, loc)
}

// Axis selects which key a custom formatter set is looked up by.
type Axis string

const (
	AxisColumns Axis = "columns"
	AxisIndex   Axis = "index"
)

// Alternative is the alternative hypothesis of a two-sample t-test.
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Greater  Alternative = "greater"
	Less     Alternative = "less"
)

// --- Rendering entry points ---

// Write renders the table in format f and writes the document to w.
// Rendering is a pure function of the current table state; a
// successfully-configured table never fails here for structural reasons.
func (t *Table) Write(w io.Writer, f Format) error {
	var doc string
	var err error
	switch f {
	case LaTeX:
		doc, err = latexRenderer{table: t}.render()
	case LaTeXTabular:
		doc, err = latexRenderer{table: t, onlyTabular: true}.render()
	case HTML:
		doc, err = htmlRenderer{table: t}.render()
	case ASCII:
		doc, err = asciiRenderer{table: t}.render()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}

// Render renders the table in format f and returns the document string.
func (t *Table) Render(f Format) (string, error) {
	var buf bytes.Buffer
	if err := t.Write(&buf, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteFile renders the table in format f and writes the document to path.
// The full document is computed before the file is touched.
func (t *Table) WriteFile(path string, f Format) error {
	doc, err := t.Render(f)
	if err != nil {
		return err
	}
	return writeDocument(path, doc)
}

// writeDocument writes a fully rendered document to path. The string is
// complete before the file is opened, so no partial-write recovery applies.
func writeDocument(path, doc string) error {
	return os.WriteFile(path, []byte(doc), 0o644)
}

// String renders the ASCII form, making tables printable directly. Render
// errors surface inline rather than as a return value.
func (t *Table) String() string {
	out, err := t.Render(ASCII)
	if err != nil {
		return fmt.Sprintf("stattab: %v", err)
	}
	return out
}

// --- Shared string helpers ---

// alignCell pads s to width using display width, not byte length.
func alignCell(s string, width int, align Alignment) string {
	pad := width - displayWidth(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", pad) + s
	case AlignCenter:
		left := pad / 2
		right := pad - left
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
	default:
		return s + strings.Repeat(" ", pad)
	}
}
