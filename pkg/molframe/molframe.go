// Package molframe implements the tabular molecule collection the SAR
// workflow operates on: named columns of string-backed cells with typed
// accessors, a cached structure column, CSV/SDF input and output and an
// HTML grid renderer.
package molframe

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/yvonneFtMore/mol-frame/pkg/chem"
)

// molColCandidates lists the columns that may hold a parseable structure,
// in resolution order.
var molColCandidates = []string{"Smiles", "SMILES", "smiles", "Mol", "Molblock", "molblock"}

// MolParser turns a stored cell value into a molecule, failing on
// malformed input.
type MolParser func(value string) (*chem.Molecule, error)

// MolFrame holds an ordered set of named columns with one cell per row.
// The zero value is an empty frame. Missing cells are empty strings.
type MolFrame struct {
	order []string
	cols  map[string][]string
	nrows int

	// UseCol is the resolved structure column, cached by FindMolCol.
	UseCol string
}

// New returns an empty frame.
func New() *MolFrame {
	return &MolFrame{cols: map[string][]string{}}
}

// Len returns the number of rows.
func (f *MolFrame) Len() int { return f.nrows }

// Columns returns the column names in order.
func (f *MolFrame) Columns() []string {
	return append([]string(nil), f.order...)
}

// HasColumn reports whether the column exists.
func (f *MolFrame) HasColumn(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns a copy of the named column's cells.
func (f *MolFrame) Column(name string) ([]string, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, errors.Errorf("molframe: no column %q", name)
	}
	return append([]string(nil), col...), nil
}

// SetColumn assigns a full column, creating it when absent. The value
// count must match the row count unless the frame is empty.
func (f *MolFrame) SetColumn(name string, values []string) error {
	if f.nrows == 0 && len(f.order) == 0 {
		f.nrows = len(values)
	}
	if len(values) != f.nrows {
		return errors.Errorf("molframe: column %q has %d values, want %d", name, len(values), f.nrows)
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = append([]string(nil), values...)
	return nil
}

// FillColumn assigns the same value to every cell of a (possibly new)
// column.
func (f *MolFrame) FillColumn(name, value string) error {
	values := make([]string, f.nrows)
	for i := range values {
		values[i] = value
	}
	return f.SetColumn(name, values)
}

// Cell returns one cell; empty string when the column is missing.
func (f *MolFrame) Cell(name string, row int) string {
	col, ok := f.cols[name]
	if !ok || row < 0 || row >= len(col) {
		return ""
	}
	return col[row]
}

// SetCell assigns one cell.
func (f *MolFrame) SetCell(name string, row int, value string) error {
	col, ok := f.cols[name]
	if !ok {
		return errors.Errorf("molframe: no column %q", name)
	}
	if row < 0 || row >= len(col) {
		return errors.Errorf("molframe: row %d out of range", row)
	}
	col[row] = value
	return nil
}

// Record is a read view of one row.
type Record struct {
	frame *MolFrame
	row   int
}

// Row returns the record view of row i.
func (f *MolFrame) Row(i int) Record { return Record{frame: f, row: i} }

// Index returns the row index of the record.
func (r Record) Index() int { return r.row }

// Get returns the raw cell value of the named field.
func (r Record) Get(name string) string { return r.frame.Cell(name, r.row) }

// Has reports whether the field exists and is non-empty.
func (r Record) Has(name string) bool {
	return r.frame.HasColumn(name) && r.frame.Cell(name, r.row) != ""
}

// Float coerces the named field to float64.
func (r Record) Float(name string) (float64, error) {
	v, err := cast.ToFloat64E(r.frame.Cell(name, r.row))
	if err != nil {
		return 0, errors.Wrapf(err, "molframe: row %d column %q", r.row, name)
	}
	return v, nil
}

// Int coerces the named field to int.
func (r Record) Int(name string) (int, error) {
	v, err := cast.ToIntE(r.frame.Cell(name, r.row))
	if err != nil {
		return 0, errors.Wrapf(err, "molframe: row %d column %q", r.row, name)
	}
	return v, nil
}

// Copy returns a deep copy of the frame, including the cached structure
// column.
func (f *MolFrame) Copy() *MolFrame {
	out := &MolFrame{
		order:  append([]string(nil), f.order...),
		cols:   make(map[string][]string, len(f.cols)),
		nrows:  f.nrows,
		UseCol: f.UseCol,
	}
	for name, col := range f.cols {
		out.cols[name] = append([]string(nil), col...)
	}
	return out
}

// Filter returns a new frame with the rows for which pred is true.
func (f *MolFrame) Filter(pred func(Record) bool) *MolFrame {
	keep := lo.Filter(lo.Range(f.nrows), func(i int, _ int) bool {
		return pred(f.Row(i))
	})
	out := &MolFrame{
		order:  append([]string(nil), f.order...),
		cols:   make(map[string][]string, len(f.cols)),
		nrows:  len(keep),
		UseCol: f.UseCol,
	}
	for name, col := range f.cols {
		out.cols[name] = lo.Map(keep, func(i int, _ int) string { return col[i] })
	}
	return out
}

// Select returns a new frame restricted to the given columns.
func (f *MolFrame) Select(names ...string) (*MolFrame, error) {
	out := &MolFrame{cols: map[string][]string{}, nrows: f.nrows}
	for _, name := range names {
		col, ok := f.cols[name]
		if !ok {
			return nil, errors.Errorf("molframe: no column %q", name)
		}
		out.order = append(out.order, name)
		out.cols[name] = append([]string(nil), col...)
	}
	if lo.Contains(names, f.UseCol) {
		out.UseCol = f.UseCol
	}
	return out, nil
}

// Append adds one row given as field->value; unknown fields create new
// columns, missing fields stay empty.
func (f *MolFrame) Append(rec map[string]string) {
	for name := range rec {
		if _, ok := f.cols[name]; !ok {
			f.order = append(f.order, name)
			f.cols[name] = make([]string, f.nrows)
		}
	}
	for name := range f.cols {
		f.cols[name] = append(f.cols[name], rec[name])
	}
	f.nrows++
}

// FindMolCol resolves which column holds the parseable structure and
// caches it in UseCol.
func (f *MolFrame) FindMolCol() error {
	if f.UseCol != "" && f.HasColumn(f.UseCol) {
		return nil
	}
	for _, cand := range molColCandidates {
		if f.HasColumn(cand) {
			f.UseCol = cand
			return nil
		}
	}
	return errors.Errorf("molframe: no structure column found (tried %s)",
		strings.Join(molColCandidates, ", "))
}

// MolMethod returns the parser matching the resolved structure column:
// molblock columns get the MOL V2000 parser, everything else SMILES.
func (f *MolFrame) MolMethod() (MolParser, error) {
	if err := f.FindMolCol(); err != nil {
		return nil, err
	}
	switch f.UseCol {
	case "Mol", "Molblock", "molblock":
		return chem.ParseMolBlock, nil
	default:
		return chem.ParseSmiles, nil
	}
}

// String summarizes the frame like the interactive workflow prints it.
func (f *MolFrame) String() string {
	return fmt.Sprintf("MolFrame  Rows: %6d  Columns: %2d   %v", f.nrows, len(f.order), f.order)
}
