package chem

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/bits"
	"sort"

	"github.com/pkg/errors"
)

// Fingerprint is an immutable folded bit-vector fingerprint.
type Fingerprint struct {
	Bits    []byte
	NumBits int
	Radius  int
}

// NewFingerprint constructs a fingerprint from raw bits.
func NewFingerprint(raw []byte, numBits, radius int) (*Fingerprint, error) {
	if numBits <= 0 {
		return nil, errors.New("chem: numBits must be positive")
	}
	if len(raw) < (numBits+7)/8 {
		return nil, errors.New("chem: insufficient bytes for numBits")
	}
	return &Fingerprint{
		Bits:    append([]byte(nil), raw...),
		NumBits: numBits,
		Radius:  radius,
	}, nil
}

// GetBit returns the bit at index i.
func (fp *Fingerprint) GetBit(i int) bool {
	if i < 0 || i >= fp.NumBits {
		return false
	}
	return fp.Bits[i/8]&(1<<uint(i%8)) != 0
}

// OnBits returns the sorted indices of the set bits.
func (fp *Fingerprint) OnBits() []int {
	var out []int
	for i := 0; i < fp.NumBits; i++ {
		if fp.GetBit(i) {
			out = append(out, i)
		}
	}
	return out
}

// BitCount returns the number of set bits.
func (fp *Fingerprint) BitCount() int {
	n := 0
	for _, b := range fp.Bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Density returns set bits / total bits.
func (fp *Fingerprint) Density() float64 {
	if fp.NumBits == 0 {
		return 0
	}
	return float64(fp.BitCount()) / float64(fp.NumBits)
}

// ToFloat64s converts the bit vector to a dense numeric feature vector.
func (fp *Fingerprint) ToFloat64s() []float64 {
	out := make([]float64, fp.NumBits)
	for i := 0; i < fp.NumBits; i++ {
		if fp.GetBit(i) {
			out[i] = 1
		}
	}
	return out
}

// Tanimoto returns the Tanimoto similarity to another fingerprint of the
// same length.
func (fp *Fingerprint) Tanimoto(other *Fingerprint) (float64, error) {
	if fp.NumBits != other.NumBits {
		return 0, errors.New("chem: fingerprint length mismatch")
	}
	common, union := 0, 0
	for i := range fp.Bits {
		common += bits.OnesCount8(fp.Bits[i] & other.Bits[i])
		union += bits.OnesCount8(fp.Bits[i] | other.Bits[i])
	}
	if union == 0 {
		return 0, nil
	}
	return float64(common) / float64(union), nil
}

func (fp *Fingerprint) String() string {
	return fmt.Sprintf("Fingerprint{bits=%d, radius=%d, density=%.4f}", fp.NumBits, fp.Radius, fp.Density())
}

// DefaultNumBits is the folded fingerprint width used by the SAR workflow.
const DefaultNumBits = 2048

// atomEnvironments computes the Morgan environment hashes of the
// molecule: one hash per (atom, layer) pair for layers 0..radius. The
// initial invariant of an atom is derived from its element, degree,
// charge, hydrogen count and aromaticity; each following layer hashes
// the previous invariant together with the sorted (bond order, neighbor
// invariant) pairs.
func atomEnvironments(mol *Molecule, radius int) [][]uint64 {
	n := len(mol.Atoms)
	envs := make([][]uint64, n)
	inv := make([]uint64, n)
	for i, a := range mol.Atoms {
		arom := uint64(0)
		if a.Aromatic {
			arom = 1
		}
		inv[i] = hashValues(
			hashString(a.Element),
			uint64(mol.Degree(i)),
			uint64(int64(a.Charge)+16),
			uint64(a.HCount),
			arom,
		)
		envs[i] = append(envs[i], inv[i])
	}
	for r := 1; r <= radius; r++ {
		next := make([]uint64, n)
		for i := range mol.Atoms {
			type nb struct{ order, einv uint64 }
			var nbs []nb
			for _, bi := range mol.Neighbors(i) {
				b := mol.Bonds[bi]
				order := uint64(b.Order)
				if b.Aromatic {
					order = 5 // distinct from single/double/triple
				}
				nbs = append(nbs, nb{order: order, einv: inv[b.Other(i)]})
			}
			sort.Slice(nbs, func(a, b int) bool {
				if nbs[a].order != nbs[b].order {
					return nbs[a].order < nbs[b].order
				}
				return nbs[a].einv < nbs[b].einv
			})
			vals := []uint64{uint64(r), inv[i]}
			for _, x := range nbs {
				vals = append(vals, x.order, x.einv)
			}
			next[i] = hashValues(vals...)
			envs[i] = append(envs[i], next[i])
		}
		inv = next
	}
	return envs
}

// MorganFingerprint computes an ECFP-style circular fingerprint folded
// into nbits bits. Deterministic for a given molecular graph.
func MorganFingerprint(mol *Molecule, radius, nbits int) (*Fingerprint, error) {
	return morganFingerprint(mol, -1, radius, nbits)
}

// MorganFingerprintExcluding computes the fingerprint with the
// environments centered on the given atom removed. The difference in a
// model's output between the full and the reduced fingerprint is the
// atom's contribution weight in a similarity map.
func MorganFingerprintExcluding(mol *Molecule, atomIdx, radius, nbits int) (*Fingerprint, error) {
	if atomIdx < 0 || atomIdx >= len(mol.Atoms) {
		return nil, errors.Errorf("chem: atom index %d out of range", atomIdx)
	}
	return morganFingerprint(mol, atomIdx, radius, nbits)
}

func morganFingerprint(mol *Molecule, skipAtom, radius, nbits int) (*Fingerprint, error) {
	if err := mol.Validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, errors.New("chem: radius must be non-negative")
	}
	if nbits <= 0 {
		return nil, errors.New("chem: nbits must be positive")
	}
	raw := make([]byte, (nbits+7)/8)
	envs := atomEnvironments(mol, radius)
	for i, layers := range envs {
		if i == skipAtom {
			continue
		}
		for _, h := range layers {
			bit := int(h % uint64(nbits))
			raw[bit/8] |= 1 << uint(bit%8)
		}
	}
	return &Fingerprint{Bits: raw, NumBits: nbits, Radius: radius}, nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func hashValues(vals ...uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	return h.Sum64()
}
