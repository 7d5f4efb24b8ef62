package sar

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/yvonneFtMore/mol-frame/pkg/chem"
	"github.com/yvonneFtMore/mol-frame/pkg/model"
	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// DefaultFigureDPI is the raster resolution of embedded figures.
const DefaultFigureDPI = 72

// AtomWeights computes the per-atom contribution of mol to the model's
// prediction: the drop in p(active) when the atom's fingerprint
// environments are removed. Positive weight means the atom pushes the
// prediction towards active.
func AtomWeights(mol *chem.Molecule, clf model.Classifier) ([]float64, error) {
	if clf == nil {
		return nil, ErrNoModel
	}
	full, err := chem.MorganFingerprint(mol, FingerprintRadius, FingerprintBits)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, 0, mol.NumAtoms()+1)
	rows = append(rows, full.ToFloat64s())
	for i := 0; i < mol.NumAtoms(); i++ {
		fp, err := chem.MorganFingerprintExcluding(mol, i, FingerprintRadius, FingerprintBits)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fp.ToFloat64s())
	}
	probas := clf.PredictProba(rows)
	weights := make([]float64, mol.NumAtoms())
	for i := range weights {
		weights[i] = probas[0] - probas[i+1]
	}
	return weights, nil
}

// SimMapFigure draws the similarity map of mol: bonds as gray segments,
// atoms as circles colored green for positive and red for negative
// contribution, circle area scaled by |weight|, non-carbon atoms
// labelled with their element.
func SimMapFigure(mol *chem.Molecule, weights []float64) (*plot.Plot, error) {
	if len(weights) != mol.NumAtoms() {
		return nil, errors.New("sar: weight count does not match atom count")
	}
	mol.ComputeCoords()

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.White

	for _, b := range mol.Bonds {
		seg := plotter.XYs{
			{X: mol.Atoms[b.From].X, Y: mol.Atoms[b.From].Y},
			{X: mol.Atoms[b.To].X, Y: mol.Atoms[b.To].Y},
		}
		line, err := plotter.NewLine(seg)
		if err != nil {
			return nil, errors.Wrap(err, "sar: simmap bond")
		}
		line.Color = color.Gray{Y: 0x60}
		line.Width = vg.Points(1.5)
		p.Add(line)
	}

	maxW := 0.0
	for _, w := range weights {
		if a := math.Abs(w); a > maxW {
			maxW = a
		}
	}
	if maxW == 0 {
		maxW = 1
	}
	pts := make(plotter.XYs, mol.NumAtoms())
	for i, a := range mol.Atoms {
		pts[i] = plotter.XY{X: a.X, Y: a.Y}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "sar: simmap atoms")
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		w := weights[i] / maxW
		col := color.RGBA{R: 0xcc, G: 0xff, B: 0xcc, A: 0xff}
		if w < 0 {
			col = color.RGBA{R: 0xff, G: 0xcc, B: 0xcc, A: 0xff}
		}
		return draw.GlyphStyle{
			Color:  col,
			Radius: vg.Points(4 + 12*math.Abs(w)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	var labelXYs plotter.XYs
	var labels []string
	for _, a := range mol.Atoms {
		if a.Element == "C" {
			continue
		}
		labelXYs = append(labelXYs, plotter.XY{X: a.X, Y: a.Y})
		labels = append(labels, a.Element)
	}
	if len(labels) > 0 {
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labels})
		if err != nil {
			return nil, errors.Wrap(err, "sar: simmap labels")
		}
		p.Add(lbl)
	}
	return p, nil
}

// B64Figure renders the figure to a cropped PNG and returns its base64
// encoding, ready to be embedded in a data URI. Deterministic for a
// given figure and dpi.
func B64Figure(fig *plot.Plot, dpi int) (string, error) {
	if dpi <= 0 {
		dpi = DefaultFigureDPI
	}
	c := vgimg.NewWith(
		vgimg.UseWH(4*vg.Inch, 4*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	fig.Draw(draw.New(c))
	img := autocrop(c.Image())
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrap(err, "sar: encode figure")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// autocrop trims the uniform border around the figure content, keeping a
// two pixel margin.
func autocrop(img image.Image) image.Image {
	b := img.Bounds()
	bg := img.At(b.Min.X, b.Min.Y)
	bgR, bgG, bgB, bgA := bg.RGBA()
	same := func(x, y int) bool {
		r, g, bb, a := img.At(x, y).RGBA()
		return r == bgR && g == bgG && bb == bgB && a == bgA
	}
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !same(x, y) {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if minX > maxX || minY > maxY {
		return img // fully uniform, nothing to crop
	}
	const margin = 2
	rect := image.Rect(
		maxInt(minX-margin, b.Min.X), maxInt(minY-margin, b.Min.Y),
		minInt(maxX+margin+1, b.Max.X), minInt(maxY+margin+1, b.Max.Y),
	)
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	return img
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AddSimMaps computes the similarity map of every row and returns a new
// frame with a Map column of embedded PNG images. The input frame is not
// modified.
func AddSimMaps(molf *molframe.MolFrame, clf model.Classifier) (*molframe.MolFrame, error) {
	if clf == nil {
		return nil, ErrNoModel
	}
	parse, err := molf.MolMethod()
	if err != nil {
		return nil, err
	}
	result := molf.Copy()
	maps := make([]string, molf.Len())
	for i := 0; i < molf.Len(); i++ {
		value := molf.Cell(molf.UseCol, i)
		mol, err := parse(value)
		if err != nil {
			return nil, errors.Wrapf(err, "sar: row %d: unparseable structure %q", i, value)
		}
		weights, err := AtomWeights(mol, clf)
		if err != nil {
			return nil, errors.Wrapf(err, "sar: row %d", i)
		}
		fig, err := SimMapFigure(mol, weights)
		if err != nil {
			return nil, errors.Wrapf(err, "sar: row %d", i)
		}
		b64, err := B64Figure(fig, DefaultFigureDPI)
		if err != nil {
			return nil, errors.Wrapf(err, "sar: row %d", i)
		}
		maps[i] = fmt.Sprintf(`<img src="data:image/png;base64,%s" alt="Map" />`, b64)
	}
	if err := result.SetColumn(ColMap, maps); err != nil {
		return nil, errors.Wrap(err, "sar: add sim maps")
	}
	return result, nil
}
