package stattab

import (
	"fmt"
	"io"
	"slices"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Parameter names recognized by the stores. Base parameters apply to every
// table; the show_* parameters are consulted only by the table variants that
// define them as type defaults.
const (
	maxPadding = 20
)

func defaultGlobalValues() map[string]any {
	return map[string]any{
		"ascii_padding":            2,
		"ascii_header_char":        "=",
		"ascii_footer_char":        "-",
		"ascii_border_char":        "",
		"ascii_mid_rule_char":      "-",
		"double_top_rule":          false,
		"double_bottom_rule":       false,
		"ascii_double_top_rule":    false,
		"ascii_double_bottom_rule": false,
		"index_alignment":          "l",
		"column_alignment":         "c",
		"caption_location":         "top",
		"sig_digits":               3,
		"thousands_sep":            ",",
		"include_index":            false,
		"show_columns":             true,
	}
}

// validateParam rejects unknown parameter names and out-of-domain values.
// All validation happens here, at the point of mutation, so renderers can
// trust whatever they read.
func validateParam(name string, value any) error {
	switch name {
	case "ascii_padding":
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s must be an int", ErrInvalidParam, name)
		}
		if v < 0 || v > maxPadding {
			return fmt.Errorf("%w: %s %d out of range [0, %d]", ErrInvalidParam, name, v, maxPadding)
		}
	case "ascii_header_char", "ascii_footer_char", "ascii_border_char", "ascii_mid_rule_char":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidParam, name)
		}
		if utf8.RuneCountInString(v) > 1 {
			return fmt.Errorf("%w: %s must be a single character or empty", ErrInvalidParam, name)
		}
	case "double_top_rule", "double_bottom_rule", "ascii_double_top_rule", "ascii_double_bottom_rule",
		"include_index", "show_columns",
		"show_n", "show_standard_errors", "show_stars", "show_significance_levels",
		"show_r2", "show_adjusted_r2", "show_pseudo_r2", "show_dof", "show_ses", "show_cis",
		"show_fstat", "single_row", "show_observations", "show_ngroups",
		"show_model_numbers", "show_model_type":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s must be a bool", ErrInvalidParam, name)
		}
	case "index_alignment", "column_alignment":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidParam, name)
		}
		if _, err := ParseAlignment(v); err != nil {
			return fmt.Errorf("%w: %s: %q", ErrInvalidAlignment, name, v)
		}
	case "caption_location":
		if value != "top" && value != "bottom" {
			return fmt.Errorf("%w: caption_location must be \"top\" or \"bottom\"", ErrInvalidParam)
		}
	case "sig_digits":
		v, ok := value.(int)
		if !ok || v < 0 {
			return fmt.Errorf("%w: sig_digits must be a non-negative int", ErrInvalidParam)
		}
	case "thousands_sep", "dependent_variable":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidParam, name)
		}
	case "p_values":
		if _, ok := value.([]float64); !ok {
			return fmt.Errorf("%w: p_values must be a []float64", ErrInvalidParam)
		}
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParam, name)
	}
	return nil
}

// --- Global parameter store ---

// GlobalParams is the process-wide default layer. It is initialized once at
// package load and only mutated through Set, Reset, and LoadYAML; table
// construction never writes to it.
type GlobalParams struct {
	values map[string]any
}

// STParams holds the package-wide defaults every table falls back to.
var STParams = newGlobalParams()

func newGlobalParams() *GlobalParams {
	return &GlobalParams{values: defaultGlobalValues()}
}

// Get returns the stored value for name.
func (g *GlobalParams) Get(name string) (any, bool) {
	v, ok := g.values[name]
	return v, ok
}

// Set validates and stores a global default.
func (g *GlobalParams) Set(name string, value any) error {
	if err := validateParam(name, value); err != nil {
		return err
	}
	g.values[name] = value
	return nil
}

// Reset restores every global default to its initial value.
func (g *GlobalParams) Reset() {
	g.values = defaultGlobalValues()
}

// LoadYAML applies parameter overrides from a YAML document of the form
//
//	ascii_padding: 1
//	column_alignment: r
//
// Every key is validated through Set; the first invalid entry aborts the
// load with the offending key in the error.
func (g *GlobalParams) LoadYAML(r io.Reader) error {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParam, err)
	}
	for name, value := range raw {
		if f, ok := value.(float64); ok {
			// YAML decodes untyped numbers loosely; sig_digits: 3.0 is fine.
			if f == float64(int(f)) {
				value = int(f)
			}
		}
		if list, ok := value.([]any); ok {
			fs := make([]float64, 0, len(list))
			for _, item := range list {
				switch n := item.(type) {
				case float64:
					fs = append(fs, n)
				case int:
					fs = append(fs, float64(n))
				default:
					return fmt.Errorf("%w: %s must be a list of numbers", ErrInvalidParam, name)
				}
			}
			value = fs
		}
		if err := g.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// --- Per-table parameter resolution ---

// TableParams resolves parameters through three explicit tiers: instance
// overrides, then table-type defaults, then the global store. Lookups never
// consult ambient state beyond the global store they were constructed with.
type TableParams struct {
	instance  map[string]any
	typeDefs  map[string]any
	canonical map[string]any // pristine copy of typeDefs for Reset
	global    *GlobalParams
}

func newTableParams(typeDefaults map[string]any) *TableParams {
	canonical := make(map[string]any, len(typeDefaults))
	typeDefs := make(map[string]any, len(typeDefaults))
	for k, v := range typeDefaults {
		canonical[k] = v
		typeDefs[k] = v
	}
	return &TableParams{
		instance:  make(map[string]any),
		typeDefs:  typeDefs,
		canonical: canonical,
		global:    STParams,
	}
}

// Get resolves name with precedence instance > type default > global.
func (p *TableParams) Get(name string) (any, bool) {
	if v, ok := p.instance[name]; ok {
		return v, true
	}
	if v, ok := p.typeDefs[name]; ok {
		return v, true
	}
	return p.global.Get(name)
}

// Set validates and stores an instance-level override.
func (p *TableParams) Set(name string, value any) error {
	if err := validateParam(name, value); err != nil {
		return err
	}
	p.instance[name] = value
	return nil
}

// override sets an instance value without validation and returns a func
// restoring the previous instance state. It backs render-time decorations
// that must leave the configuration untouched.
func (p *TableParams) override(name string, value any) func() {
	prev, had := p.instance[name]
	p.instance[name] = value
	return func() {
		if had {
			p.instance[name] = prev
		} else {
			delete(p.instance, name)
		}
	}
}

// Reset clears the instance overrides. When restoreDefaults is true the
// table-type defaults are also restored to their construction-time values.
func (p *TableParams) Reset(restoreDefaults bool) {
	p.instance = make(map[string]any)
	if restoreDefaults {
		p.typeDefs = make(map[string]any, len(p.canonical))
		for k, v := range p.canonical {
			p.typeDefs[k] = v
		}
	}
}

// --- Typed accessors ---
//
// Values are validated on every Set, so the assertions below cannot fail for
// stored values; the zero value covers names with no default anywhere.

func (p *TableParams) intValue(name string) int {
	if v, ok := p.Get(name); ok {
		return v.(int)
	}
	return 0
}

func (p *TableParams) stringValue(name string) string {
	if v, ok := p.Get(name); ok {
		return v.(string)
	}
	return ""
}

func (p *TableParams) boolValue(name string) bool {
	if v, ok := p.Get(name); ok {
		return v.(bool)
	}
	return false
}

func (p *TableParams) alignValue(name string) Alignment {
	a, err := ParseAlignment(p.stringValue(name))
	if err != nil {
		return AlignLeft
	}
	return a
}

// Padding returns the plain-text cell padding.
func (p *TableParams) Padding() int { return p.intValue("ascii_padding") }

// SigDigits returns the decimal places used by the default formatter.
func (p *TableParams) SigDigits() int { return p.intValue("sig_digits") }

// ThousandsSep returns the digit-grouping separator.
func (p *TableParams) ThousandsSep() string { return p.stringValue("thousands_sep") }

// IncludeIndex reports whether the leading index column is rendered.
func (p *TableParams) IncludeIndex() bool { return p.boolValue("include_index") }

// ShowColumns reports whether the column-label header row is rendered.
func (p *TableParams) ShowColumns() bool { return p.boolValue("show_columns") }

// CaptionLocation returns "top" or "bottom".
func (p *TableParams) CaptionLocation() string { return p.stringValue("caption_location") }

// ColumnAlignment returns the body-cell alignment.
func (p *TableParams) ColumnAlignment() Alignment { return p.alignValue("column_alignment") }

// IndexAlignment returns the index-cell alignment.
func (p *TableParams) IndexAlignment() Alignment { return p.alignValue("index_alignment") }

// PValues returns a copy of the significance thresholds used for stars.
func (p *TableParams) PValues() []float64 {
	if v, ok := p.Get("p_values"); ok {
		return slices.Clone(v.([]float64))
	}
	return nil
}
