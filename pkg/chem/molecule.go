// Package chem provides the minimal cheminformatics layer used by the SAR
// workflow: molecule parsing (SMILES and MOL/SDF V2000), implicit hydrogen
// assignment, 2D coordinate generation and Morgan-style circular
// fingerprints.
package chem

import (
	"math"

	"github.com/pkg/errors"
)

// Atom is a single atom of a molecule. Coordinates are 2D; SMILES-parsed
// molecules carry zero coordinates until ComputeCoords is called.
type Atom struct {
	Element  string
	Charge   int
	HCount   int
	Aromatic bool
	X, Y     float64
}

// Bond connects two atoms by index. Order is 1, 2 or 3; aromatic bonds
// are stored with Order 1 and Aromatic set.
type Bond struct {
	From, To int
	Order    int
	Aromatic bool
}

// Molecule is a simple molecular graph.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond
}

// NumAtoms returns the number of atoms.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// Neighbors returns the bond indices incident to atom i.
func (m *Molecule) Neighbors(i int) []int {
	var out []int
	for bi, b := range m.Bonds {
		if b.From == i || b.To == i {
			out = append(out, bi)
		}
	}
	return out
}

// Degree returns the number of explicit connections of atom i.
func (m *Molecule) Degree(i int) int { return len(m.Neighbors(i)) }

// Other returns the atom on the far side of bond b as seen from atom i.
func (b Bond) Other(i int) int {
	if b.From == i {
		return b.To
	}
	return b.From
}

// defaultValence returns the default valence used for implicit hydrogen
// filling. Unknown elements get 0 (no implicit hydrogens).
func defaultValence(element string) int {
	switch element {
	case "C":
		return 4
	case "N", "P", "B":
		return 3
	case "O", "S":
		return 2
	case "F", "Cl", "Br", "I", "H":
		return 1
	default:
		return 0
	}
}

// FillImplicitHydrogens assigns Atom.HCount from default valences.
// Atoms that already carry an explicit hydrogen count (from a bracket
// SMILES atom) keep it; the explicit flag is tracked by the parsers.
func (m *Molecule) FillImplicitHydrogens(explicit []bool) {
	for i := range m.Atoms {
		if explicit != nil && explicit[i] {
			continue
		}
		a := &m.Atoms[i]
		dv := defaultValence(a.Element)
		if dv == 0 {
			a.HCount = 0
			continue
		}
		sum := 0.0
		for _, bi := range m.Neighbors(i) {
			b := m.Bonds[bi]
			if b.Aromatic {
				sum += 1.5
			} else {
				sum += float64(b.Order)
			}
		}
		h := dv - int(math.Ceil(sum)) + chargeValenceShift(a.Element, a.Charge)
		if h < 0 {
			h = 0
		}
		a.HCount = h
	}
}

// chargeValenceShift adjusts the effective valence for common charged
// atoms (e.g. [NH4+] has valence 4, [O-] has valence 1).
func chargeValenceShift(element string, charge int) int {
	switch element {
	case "N", "P", "O", "S":
		return charge
	case "C", "B":
		return -abs(charge)
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// HasCoords reports whether any atom carries nonzero 2D coordinates.
func (m *Molecule) HasCoords() bool {
	for _, a := range m.Atoms {
		if a.X != 0 || a.Y != 0 {
			return true
		}
	}
	return false
}

// ComputeCoords generates rough 2D coordinates for display when the
// molecule has none (SMILES input). Atoms are placed breadth-first with
// unit bond length, fanning children around their parent. The layout is
// only meant for diagnostic drawings, not for publication depictions.
func (m *Molecule) ComputeCoords() {
	if len(m.Atoms) == 0 || m.HasCoords() {
		return
	}
	placed := make([]bool, len(m.Atoms))
	type qe struct {
		idx    int
		angle  float64
		parent int
	}
	for start := 0; start < len(m.Atoms); start++ {
		if placed[start] {
			continue
		}
		placed[start] = true
		queue := []qe{{idx: start, angle: 0, parent: -1}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			var todo []int
			for _, bi := range m.Neighbors(cur.idx) {
				n := m.Bonds[bi].Other(cur.idx)
				if !placed[n] {
					todo = append(todo, n)
				}
			}
			if len(todo) == 0 {
				continue
			}
			// fan the unplaced neighbors around the incoming direction
			spread := math.Pi * 2 / 3
			base := cur.angle - spread*float64(len(todo)-1)/2
			for k, n := range todo {
				ang := base + spread*float64(k)
				m.Atoms[n].X = m.Atoms[cur.idx].X + math.Cos(ang)
				m.Atoms[n].Y = m.Atoms[cur.idx].Y + math.Sin(ang)
				placed[n] = true
				queue = append(queue, qe{idx: n, angle: ang, parent: cur.idx})
			}
		}
	}
}

// Validate performs basic sanity checks on the molecular graph.
func (m *Molecule) Validate() error {
	if len(m.Atoms) == 0 {
		return errors.New("chem: molecule has no atoms")
	}
	for i, b := range m.Bonds {
		if b.From < 0 || b.From >= len(m.Atoms) || b.To < 0 || b.To >= len(m.Atoms) {
			return errors.Errorf("chem: bond %d references atom out of range", i)
		}
		if b.From == b.To {
			return errors.Errorf("chem: bond %d is a self loop", i)
		}
	}
	return nil
}
