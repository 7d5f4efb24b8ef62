package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSmilesEthanol(t *testing.T) {
	mol, err := ParseSmiles("CCO")
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 3)
	require.Len(t, mol.Bonds, 2)
	assert.Equal(t, "C", mol.Atoms[0].Element)
	assert.Equal(t, "O", mol.Atoms[2].Element)
	assert.Equal(t, 3, mol.Atoms[0].HCount)
	assert.Equal(t, 2, mol.Atoms[1].HCount)
	assert.Equal(t, 1, mol.Atoms[2].HCount)
}

func TestParseSmilesBenzene(t *testing.T) {
	mol, err := ParseSmiles("c1ccccc1")
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 6)
	require.Len(t, mol.Bonds, 6) // ring closure adds the sixth bond
	for i, a := range mol.Atoms {
		assert.Equal(t, "C", a.Element)
		assert.True(t, a.Aromatic, "atom %d", i)
		assert.Equal(t, 1, a.HCount, "atom %d", i)
	}
	for i, b := range mol.Bonds {
		assert.True(t, b.Aromatic, "bond %d", i)
	}
}

func TestParseSmilesBranchesAndOrders(t *testing.T) {
	mol, err := ParseSmiles("CC(=O)O") // acetic acid
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 4)
	require.Len(t, mol.Bonds, 3)
	assert.Equal(t, 2, mol.Bonds[1].Order)
	assert.Equal(t, 0, mol.Atoms[2].HCount) // carbonyl oxygen
	assert.Equal(t, 1, mol.Atoms[3].HCount) // hydroxyl oxygen
}

func TestParseSmilesBracketAtoms(t *testing.T) {
	mol, err := ParseSmiles("[NH4+]")
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 1)
	assert.Equal(t, "N", mol.Atoms[0].Element)
	assert.Equal(t, 1, mol.Atoms[0].Charge)
	assert.Equal(t, 4, mol.Atoms[0].HCount)

	mol, err = ParseSmiles("C[C@@H](N)C(=O)O") // alanine, chirality ignored
	require.NoError(t, err)
	assert.Len(t, mol.Atoms, 6)
	assert.Equal(t, 1, mol.Atoms[1].HCount)
}

func TestParseSmilesTwoLetterElements(t *testing.T) {
	mol, err := ParseSmiles("ClCCBr")
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 4)
	assert.Equal(t, "Cl", mol.Atoms[0].Element)
	assert.Equal(t, "Br", mol.Atoms[3].Element)
}

func TestParseSmilesPercentRingClosure(t *testing.T) {
	mol, err := ParseSmiles("C%10CCCCC%10")
	require.NoError(t, err)
	assert.Len(t, mol.Atoms, 6)
	assert.Len(t, mol.Bonds, 6)
}

func TestParseSmilesRingDigitReuse(t *testing.T) {
	// bicyclohexyl: the digit 1 closes the first ring and then opens a
	// second one
	mol, err := ParseSmiles("C1CCCCC1C1CCCCC1")
	require.NoError(t, err)
	assert.Len(t, mol.Atoms, 12)
	assert.Len(t, mol.Bonds, 13)
	// the two linked ring carbons carry one hydrogen, the rest two
	assert.Equal(t, 1, mol.Atoms[5].HCount)
	assert.Equal(t, 1, mol.Atoms[6].HCount)
	assert.Equal(t, 2, mol.Atoms[0].HCount)
}

func TestParseSmilesDisconnected(t *testing.T) {
	mol, err := ParseSmiles("CC.O")
	require.NoError(t, err)
	assert.Len(t, mol.Atoms, 3)
	assert.Len(t, mol.Bonds, 1)
}

func TestParseSmilesErrors(t *testing.T) {
	for _, bad := range []string{"", "C1CC", "[CH", "X", "C)C"} {
		_, err := ParseSmiles(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestComputeCoords(t *testing.T) {
	mol, err := ParseSmiles("CCCC")
	require.NoError(t, err)
	assert.False(t, mol.HasCoords())
	mol.ComputeCoords()
	assert.True(t, mol.HasCoords())
	// distinct positions for bonded atoms
	for _, b := range mol.Bonds {
		a1, a2 := mol.Atoms[b.From], mol.Atoms[b.To]
		assert.False(t, a1.X == a2.X && a1.Y == a2.Y)
	}
}
