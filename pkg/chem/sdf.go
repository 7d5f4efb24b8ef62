package chem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseMolBlock parses a MOL V2000 block (the structure part of an SDF
// record). The header may be shorter than the canonical three lines; the
// counts line is located by its V2000 tag when present.
func ParseMolBlock(block string) (*Molecule, error) {
	lines := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	if len(lines) < 4 {
		return nil, errors.New("chem: molblock too short")
	}
	countsIdx := -1
	for i, line := range lines {
		if len(line) >= 39 && strings.Contains(line[30:39], "V2000") {
			countsIdx = i
			break
		}
	}
	if countsIdx < 0 {
		// fall back to the canonical position
		countsIdx = 3
	}
	counts := lines[countsIdx]
	if len(counts) < 6 {
		return nil, errors.New("chem: molblock counts line too short")
	}
	numAtoms, err := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	if err != nil {
		return nil, errors.Wrap(err, "chem: molblock atom count")
	}
	numBonds, err := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err != nil {
		return nil, errors.Wrap(err, "chem: molblock bond count")
	}
	body := lines[countsIdx+1:]
	if len(body) < numAtoms+numBonds {
		return nil, errors.New("chem: molblock truncated atom/bond block")
	}

	mol := &Molecule{
		Atoms: make([]Atom, 0, numAtoms),
		Bonds: make([]Bond, 0, numBonds),
	}
	for i := 0; i < numAtoms; i++ {
		l := body[i]
		if len(l) < 34 {
			return nil, errors.Errorf("chem: molblock atom line %d too short", i+1)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(l[0:10]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "chem: molblock atom line %d", i+1)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(l[10:20]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "chem: molblock atom line %d", i+1)
		}
		mol.Atoms = append(mol.Atoms, Atom{
			X: x, Y: y,
			Element: strings.TrimSpace(l[31:34]),
		})
	}
	for i := 0; i < numBonds; i++ {
		l := body[numAtoms+i]
		if len(l) < 9 {
			return nil, errors.Errorf("chem: molblock bond line %d too short", i+1)
		}
		from, err := strconv.Atoi(strings.TrimSpace(l[0:3]))
		if err != nil {
			return nil, errors.Wrapf(err, "chem: molblock bond line %d", i+1)
		}
		to, err := strconv.Atoi(strings.TrimSpace(l[3:6]))
		if err != nil {
			return nil, errors.Wrapf(err, "chem: molblock bond line %d", i+1)
		}
		order, err := strconv.Atoi(strings.TrimSpace(l[6:9]))
		if err != nil {
			return nil, errors.Wrapf(err, "chem: molblock bond line %d", i+1)
		}
		b := Bond{From: from - 1, To: to - 1, Order: order}
		if order == 4 { // MDL aromatic bond type
			b.Order = 1
			b.Aromatic = true
		}
		mol.Bonds = append(mol.Bonds, b)
	}
	if err := mol.Validate(); err != nil {
		return nil, err
	}
	for i := range mol.Atoms {
		if mol.Atoms[i].Aromatic {
			continue
		}
		for _, bi := range mol.Neighbors(i) {
			if mol.Bonds[bi].Aromatic {
				mol.Atoms[i].Aromatic = true
				break
			}
		}
	}
	mol.FillImplicitHydrogens(nil)
	return mol, nil
}

// WriteMolBlock renders the molecule as a MOL V2000 block with a
// single-line name header.
func WriteMolBlock(mol *Molecule, name string) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString("\n\n\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(mol.Atoms), len(mol.Bonds))
	for _, a := range mol.Atoms {
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			a.X, a.Y, 0.0, a.Element)
	}
	for _, b := range mol.Bonds {
		order := b.Order
		if b.Aromatic {
			order = 4
		}
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.From+1, b.To+1, order)
	}
	sb.WriteString("M  END\n")
	return sb.String()
}
