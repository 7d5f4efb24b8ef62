package chem

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// organic subset elements that may appear without brackets, longest first
// so that Cl/Br match before C/B.
var organicSubset = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I"}

// ParseSmiles parses a SMILES string into a Molecule. The supported
// subset covers the organic subset atoms, bracket atoms with charge and
// explicit hydrogen counts, aromatic lowercase atoms, branches, ring
// closures (including %nn) and bond symbols - = # : / \.
func ParseSmiles(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("chem: empty SMILES")
	}
	p := &smilesParser{
		input:    s,
		mol:      &Molecule{},
		rings:    map[int]ringOpen{},
		prev:     -1,
		nextBond: 1,
	}
	if err := p.run(); err != nil {
		return nil, errors.Wrapf(err, "chem: parse SMILES %q", s)
	}
	if len(p.rings) > 0 {
		return nil, errors.Errorf("chem: parse SMILES %q: unclosed ring bond", s)
	}
	if err := p.mol.Validate(); err != nil {
		return nil, err
	}
	p.mol.FillImplicitHydrogens(p.explicitH)
	return p.mol, nil
}

type ringOpen struct {
	atom  int
	order int
	arom  bool
}

type smilesParser struct {
	input     string
	pos       int
	mol       *Molecule
	explicitH []bool
	stack     []int
	rings     map[int]ringOpen // open ring-closure digits by number
	prev      int
	nextBond  int  // pending bond order for the next atom/ring closure
	nextArom  bool // pending bond is aromatic (":")
}

func (p *smilesParser) run() error {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return errors.New("branch before any atom")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return errors.New("unmatched ')'")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case c == '-' || c == '/' || c == '\\':
			p.nextBond = 1
			p.pos++
		case c == '=':
			p.nextBond = 2
			p.pos++
		case c == '#':
			p.nextBond = 3
			p.pos++
		case c == ':':
			p.nextBond = 1
			p.nextArom = true
			p.pos++
		case c == '.':
			// disconnected component
			p.prev = -1
			p.pos++
		case c >= '0' && c <= '9':
			p.closeRing(int(c - '0'))
			p.pos++
		case c == '%':
			if p.pos+2 >= len(p.input) {
				return errors.New("truncated %nn ring closure")
			}
			n, err := strconv.Atoi(p.input[p.pos+1 : p.pos+3])
			if err != nil {
				return errors.New("bad %nn ring closure")
			}
			p.closeRing(n)
			p.pos += 3
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.plainAtom(); err != nil {
				return err
			}
		}
	}
	return nil
}

// addAtom appends the atom and bonds it to the previous one using the
// pending bond order.
func (p *smilesParser) addAtom(a Atom, explicitH bool) {
	p.mol.Atoms = append(p.mol.Atoms, a)
	p.explicitH = append(p.explicitH, explicitH)
	idx := len(p.mol.Atoms) - 1
	if p.prev >= 0 {
		arom := p.nextArom || (a.Aromatic && p.mol.Atoms[p.prev].Aromatic)
		p.mol.Bonds = append(p.mol.Bonds, Bond{
			From: p.prev, To: idx, Order: p.nextBond, Aromatic: arom && p.nextBond == 1,
		})
	}
	p.prev = idx
	p.nextBond = 1
	p.nextArom = false
}

func (p *smilesParser) closeRing(n int) {
	if open, ok := p.rings[n]; ok {
		arom := p.nextArom || open.arom ||
			(p.mol.Atoms[open.atom].Aromatic && p.mol.Atoms[p.prev].Aromatic)
		order := p.nextBond
		if open.order > order {
			order = open.order
		}
		p.mol.Bonds = append(p.mol.Bonds, Bond{
			From: open.atom, To: p.prev, Order: order, Aromatic: arom && order == 1,
		})
		delete(p.rings, n)
	} else {
		p.rings[n] = ringOpen{atom: p.prev, order: p.nextBond, arom: p.nextArom}
	}
	p.nextBond = 1
	p.nextArom = false
}

func (p *smilesParser) plainAtom() error {
	rest := p.input[p.pos:]
	for _, el := range organicSubset {
		if strings.HasPrefix(rest, el) {
			p.addAtom(Atom{Element: el}, false)
			p.pos += len(el)
			return nil
		}
	}
	// aromatic organic subset
	switch rest[0] {
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.addAtom(Atom{Element: strings.ToUpper(rest[:1]), Aromatic: true}, false)
		p.pos++
		return nil
	}
	return errors.Errorf("unexpected character %q at %d", rest[0], p.pos)
}

// bracketAtom parses "[<isotope><element><chirality><Hn><charge>]".
// Isotope digits and chirality markers (@, @@) are accepted and ignored.
func (p *smilesParser) bracketAtom() error {
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return errors.New("unclosed bracket atom")
	}
	body := p.input[p.pos+1 : p.pos+end]
	p.pos += end + 1
	i := 0
	for i < len(body) && body[i] >= '0' && body[i] <= '9' { // isotope
		i++
	}
	if i >= len(body) {
		return errors.New("bracket atom without element")
	}
	aromatic := false
	var element string
	if body[i] >= 'a' && body[i] <= 'z' {
		aromatic = true
		element = strings.ToUpper(body[i : i+1])
		i++
	} else {
		element = body[i : i+1]
		i++
		if i < len(body) && body[i] >= 'a' && body[i] <= 'z' {
			element += body[i : i+1]
			i++
		}
	}
	hcount := 0
	explicitH := true
	charge := 0
	for i < len(body) {
		switch body[i] {
		case '@': // chirality, ignored
			i++
		case 'H':
			i++
			hcount = 1
			if i < len(body) && body[i] >= '0' && body[i] <= '9' {
				hcount = int(body[i] - '0')
				i++
			}
		case '+', '-':
			sign := 1
			if body[i] == '-' {
				sign = -1
			}
			i++
			n := 1
			if i < len(body) && body[i] >= '0' && body[i] <= '9' {
				n = int(body[i] - '0')
				i++
			} else {
				for i < len(body) && (body[i] == '+' || body[i] == '-') {
					n++
					i++
				}
			}
			charge = sign * n
		default:
			return errors.Errorf("unsupported bracket token %q", body[i])
		}
	}
	p.addAtom(Atom{Element: element, Charge: charge, HCount: hcount, Aromatic: aromatic}, explicitH)
	return nil
}
