// Package stattab renders tabular statistical output in multiple formats.
//
// A [Table] is an abstract description of a displayed table: ordered
// columns, an optional leading index column, multi-column group headers,
// notes, and custom lines spliced in at named insertion points. One table
// renders to any of three backends (LaTeX with booktabs rules, HTML, and
// fixed-width ASCII) through [Table.Write], [Table.Render], and
// [Table.WriteFile]:
//
//	ds, _ := stattab.NewDataset("price", "size")
//	ds.AddRow("Q1", 1234.5, 80)
//	ds.AddRow("Q2", 1410.0, 95)
//	t, _ := stattab.NewTable(ds)
//	out, _ := t.Render(stattab.LaTeX)
//
// # Table types
//
//   - [NewTable]: any dataset, with easy formatting and renaming.
//   - [NewSummaryTable]: per-variable summary statistics (count, mean,
//     std, min, quartiles, max).
//   - [NewMeanDifferenceTable]: group means compared with Welch t-tests,
//     standard errors, and significance stars.
//   - [NewModelTable]: regression coefficients from one or more fitted
//     models, supplied through [ModelData] adapters.
//
// # Configuration
//
// Formatting behavior resolves through three explicit tiers: per-table
// overrides set with [TableParams.Set], table-type defaults, and the
// package-wide [STParams] store. [GlobalParams.LoadYAML] applies bulk
// overrides from a YAML document.
//
// All structural validation (multicolumn span sums, custom line widths,
// insertion points, alignments, padding bounds) happens at configuration
// time; a table that accepted its configuration always renders.
//
// # Backends
//
// The backends share one materialized row model and stay structurally
// interchangeable. The LaTeX backend escapes its reserved characters in
// header and body cells and needs the booktabs package; [LaTeXTabular]
// skips the floating wrapper. The HTML backend emits a self-contained
// <table> fragment without escaping. The ASCII backend measures every cell
// up front and pads all body cells to one uniform width, so columns stay
// aligned under group headers.
//
// # Errors
//
// The package exports sentinel errors for programmatic handling, among
// them [ErrColumnMismatch] for structural violations, [ErrInvalidParam]
// for out-of-domain configuration, [ErrNotFound] for removals of absent
// notes or lines, and [ErrMissingStat] for model statistics a table
// requires but the adapter did not supply.
package stattab
