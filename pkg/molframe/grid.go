package molframe

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// GridOptions controls the HTML grid rendering.
type GridOptions struct {
	// ColumnsPerRow is the number of grid cells per table row.
	ColumnsPerRow int
	// Truncate cuts cell values longer than this many characters.
	// 0 disables truncation. Values containing markup are never cut.
	Truncate int
	// Title becomes the page title and heading.
	Title string
}

// DefaultGridOptions returns the rendering defaults.
func DefaultGridOptions() GridOptions {
	return GridOptions{ColumnsPerRow: 4, Title: "MolFrame Grid"}
}

const gridStyle = `table.molgrid { border-collapse: collapse; }
table.molgrid td { border: 1px solid #dddddd; padding: 6px; vertical-align: top; }
table.molgrid .prop { font-size: small; }
table.molgrid .propname { color: #808080; }`

// WriteGrid renders the frame as an HTML grid to w: one cell per record
// with the structure image (any cell value already containing an <img>
// tag is emitted verbatim) followed by the remaining fields. Cell values
// are not HTML-escaped; the workflow embeds markup (colored divs, data
// URI images) in cells on purpose.
func (f *MolFrame) WriteGrid(w io.Writer, opts GridOptions) error {
	if opts.ColumnsPerRow <= 0 {
		opts.ColumnsPerRow = 4
	}
	if opts.Title == "" {
		opts.Title = "MolFrame Grid"
	}
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n", opts.Title, gridStyle)
	fmt.Fprintf(&sb, "<h2>%s</h2>\n<table class=\"molgrid\">\n", opts.Title)
	for i := 0; i < f.nrows; i++ {
		if i%opts.ColumnsPerRow == 0 {
			if i > 0 {
				sb.WriteString("</tr>\n")
			}
			sb.WriteString("<tr>\n")
		}
		sb.WriteString("<td>")
		f.writeGridCell(&sb, i, opts)
		sb.WriteString("</td>\n")
	}
	if f.nrows > 0 {
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table>\n</body>\n</html>\n")
	_, err := io.WriteString(w, sb.String())
	return errors.Wrap(err, "molframe: write grid")
}

// WriteGridFile renders the grid into a file.
func (f *MolFrame) WriteGridFile(path string, opts GridOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "molframe: write grid")
	}
	defer file.Close()
	return f.WriteGrid(file, opts)
}

func (f *MolFrame) writeGridCell(sb *strings.Builder, row int, opts GridOptions) {
	// image first, when a column carries one
	for _, name := range f.order {
		v := f.cols[name][row]
		if strings.Contains(v, "<img") {
			sb.WriteString(v)
			sb.WriteString("<br/>")
			break
		}
	}
	for _, name := range f.order {
		v := f.cols[name][row]
		if v == "" || strings.Contains(v, "<img") {
			continue
		}
		if name == f.UseCol && f.UseCol != "" && strings.Count(v, "\n") > 1 {
			continue // molblocks are not worth printing
		}
		if opts.Truncate > 0 && len(v) > opts.Truncate && !strings.Contains(v, "<") {
			v = v[:opts.Truncate] + "…"
		}
		fmt.Fprintf(sb, "<div class=\"prop\"><span class=\"propname\">%s:</span> %s</div>", name, v)
	}
}
