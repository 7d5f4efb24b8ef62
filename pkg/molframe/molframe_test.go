package molframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *MolFrame {
	t.Helper()
	f := New()
	require.NoError(t, f.SetColumn("Compound_Id", []string{"1", "2", "3"}))
	require.NoError(t, f.SetColumn("Smiles", []string{"CCO", "CCCC", "c1ccccc1"}))
	require.NoError(t, f.SetColumn("AC_Real", []string{"1", "0", ""}))
	return f
}

func TestSetColumnAndCells(t *testing.T) {
	f := sampleFrame(t)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"Compound_Id", "Smiles", "AC_Real"}, f.Columns())
	assert.Equal(t, "CCCC", f.Cell("Smiles", 1))
	assert.Equal(t, "", f.Cell("Nope", 0))

	require.NoError(t, f.SetCell("AC_Real", 2, "0"))
	assert.Equal(t, "0", f.Cell("AC_Real", 2))
	assert.Error(t, f.SetCell("Nope", 0, "x"))
	assert.Error(t, f.SetColumn("Short", []string{"only one"}))

	require.NoError(t, f.FillColumn("Batch", "A"))
	assert.Equal(t, "A", f.Cell("Batch", 2))
}

func TestRecordAccessors(t *testing.T) {
	f := sampleFrame(t)
	rec := f.Row(0)
	assert.True(t, rec.Has("AC_Real"))
	assert.False(t, f.Row(2).Has("AC_Real"))

	v, err := rec.Int("AC_Real")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, err = rec.Float("Smiles")
	assert.Error(t, err)
}

func TestCopyIsDeep(t *testing.T) {
	f := sampleFrame(t)
	cp := f.Copy()
	require.NoError(t, cp.SetCell("Smiles", 0, "changed"))
	assert.Equal(t, "CCO", f.Cell("Smiles", 0))
	assert.Equal(t, "changed", cp.Cell("Smiles", 0))
}

func TestFilterAndSelect(t *testing.T) {
	f := sampleFrame(t)
	actives := f.Filter(func(r Record) bool { return r.Get("AC_Real") == "1" })
	assert.Equal(t, 1, actives.Len())
	assert.Equal(t, "CCO", actives.Cell("Smiles", 0))
	assert.Equal(t, 3, f.Len()) // unchanged

	sel, err := f.Select("Smiles")
	require.NoError(t, err)
	assert.Equal(t, []string{"Smiles"}, sel.Columns())
	_, err = f.Select("Nope")
	assert.Error(t, err)
}

func TestAppendGrowsColumns(t *testing.T) {
	f := sampleFrame(t)
	f.Append(map[string]string{"Smiles": "CCN", "New": "x"})
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, "CCN", f.Cell("Smiles", 3))
	assert.Equal(t, "x", f.Cell("New", 3))
	assert.Equal(t, "", f.Cell("New", 0))
}

func TestFindMolCol(t *testing.T) {
	f := sampleFrame(t)
	require.NoError(t, f.FindMolCol())
	assert.Equal(t, "Smiles", f.UseCol)

	parse, err := f.MolMethod()
	require.NoError(t, err)
	mol, err := parse("CCO")
	require.NoError(t, err)
	assert.Len(t, mol.Atoms, 3)

	empty := New()
	require.NoError(t, empty.SetColumn("Name", nil))
	assert.Error(t, empty.FindMolCol())
}
