package sar

import (
	"fmt"
	"io"

	"github.com/yvonneFtMore/mol-frame/pkg/molframe"
)

// Cell background colors of the highlighted grid.
const (
	ColWhite  = "#ffffff"
	ColGreen  = "#ccffcc"
	ColYellow = "#ffffcc"
	ColRed    = "#ffcccc"
)

// GridOptions extends the plain grid rendering with result coloring.
type GridOptions struct {
	molframe.GridOptions
	// Highlight wraps the probability and confidence cells in a color
	// matching the confidence tier, and the real/predicted activity
	// cells in green when they agree and red when they differ.
	Highlight bool
}

// DefaultGridOptions returns the rendering defaults.
func DefaultGridOptions() GridOptions {
	return GridOptions{GridOptions: molframe.DefaultGridOptions()}
}

func colorDiv(colorHex, value string) string {
	return fmt.Sprintf(`<div style="background-color: %s;">%s</div>`, colorHex, value)
}

func tierColor(tier string) string {
	switch tier {
	case ConfidenceHigh:
		return ColGreen
	case ConfidenceMedium:
		return ColYellow
	default:
		return ColRed
	}
}

// WriteGrid renders the frame as an HTML grid, optionally with result
// highlighting. Highlighting operates on a copy; the input frame is not
// modified.
func WriteGrid(molf *molframe.MolFrame, w io.Writer, opts GridOptions) error {
	if !opts.Highlight {
		return molf.WriteGrid(w, opts.GridOptions)
	}
	tmp := molf.Copy()
	for i := 0; i < tmp.Len(); i++ {
		rec := tmp.Row(i)
		tier := rec.Get(ColConfidence)
		col := tierColor(tier)
		if rec.Has(ColProb) {
			_ = tmp.SetCell(ColProb, i, colorDiv(col, rec.Get(ColProb)))
		}
		if rec.Has(ColConfidence) {
			_ = tmp.SetCell(ColConfidence, i, colorDiv(col, tier))
		}
		if rec.Has(ColActReal) && rec.Has(ColActPred) {
			agree := ColRed
			if rec.Get(ColActReal) == rec.Get(ColActPred) {
				agree = ColGreen
			}
			_ = tmp.SetCell(ColActReal, i, colorDiv(agree, rec.Get(ColActReal)))
			_ = tmp.SetCell(ColActPred, i, colorDiv(agree, rec.Get(ColActPred)))
		}
	}
	gridOpts := opts.GridOptions
	if gridOpts.Truncate == 0 {
		gridOpts.Truncate = 100
	}
	return tmp.WriteGrid(w, gridOpts)
}
