package molframe

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/yvonneFtMore/mol-frame/pkg/chem"
)

// ReadCSV reads a delimited text file with a header row. sep 0 defaults
// to tab, the workflow's native table format.
func ReadCSV(path string, sep rune) (*MolFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "molframe: read csv")
	}
	defer file.Close()
	return ParseCSV(file, sep)
}

// ParseCSV reads delimited text from r. See ReadCSV.
func ParseCSV(r io.Reader, sep rune) (*MolFrame, error) {
	if sep == 0 {
		sep = '\t'
	}
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "molframe: csv header")
	}
	f := New()
	f.order = append([]string(nil), header...)
	for _, name := range header {
		f.cols[name] = nil
	}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "molframe: csv row")
		}
		for i, name := range header {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			f.cols[name] = append(f.cols[name], v)
		}
		f.nrows++
	}
	return f, nil
}

// WriteCSV writes the frame as delimited text with a header row. sep 0
// defaults to tab.
func WriteCSV(f *MolFrame, path string, sep rune) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "molframe: write csv")
	}
	defer file.Close()
	return FormatCSV(f, file, sep)
}

// FormatCSV writes the frame as delimited text to w.
func FormatCSV(f *MolFrame, w io.Writer, sep rune) error {
	if sep == 0 {
		sep = '\t'
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(f.order); err != nil {
		return errors.Wrap(err, "molframe: csv header")
	}
	row := make([]string, len(f.order))
	for i := 0; i < f.nrows; i++ {
		for j, name := range f.order {
			row[j] = f.cols[name][i]
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "molframe: csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "molframe: csv flush")
}

// ReadSDF reads an SDF file: records separated by "$$$$", the molblock
// stored in the Mol column and each data field ("> <Tag>") in a column
// of its own.
func ReadSDF(path string) (*MolFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "molframe: read sdf")
	}
	defer file.Close()
	return ParseSDF(file)
}

// ParseSDF reads SDF records from r. See ReadSDF.
func ParseSDF(r io.Reader) (*MolFrame, error) {
	f := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var block []string
	for {
		more := scanner.Scan()
		line := scanner.Text()
		if more && strings.TrimSpace(line) != "$$$$" {
			block = append(block, line)
			continue
		}
		if len(block) > 0 {
			rec, err := parseSDFRecord(block)
			if err != nil {
				return nil, err
			}
			f.Append(rec)
			block = block[:0]
		}
		if !more {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "molframe: sdf scan")
	}
	f.UseCol = "Mol"
	return f, nil
}

// parseSDFRecord splits one SDF record into the molblock and its data
// fields.
func parseSDFRecord(lines []string) (map[string]string, error) {
	molEnd := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "M  END") {
			molEnd = i
			break
		}
	}
	if molEnd < 0 {
		return nil, errors.New("molframe: sdf record without M  END")
	}
	rec := map[string]string{
		"Mol": strings.Join(lines[:molEnd+1], "\n"),
	}
	i := molEnd + 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, ">") {
			i++
			continue
		}
		open := strings.IndexByte(line, '<')
		end := strings.LastIndexByte(line, '>')
		if open < 0 || end <= open {
			i++
			continue
		}
		tag := line[open+1 : end]
		i++
		var vals []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			vals = append(vals, lines[i])
			i++
		}
		rec[tag] = strings.Join(vals, "\n")
	}
	return rec, nil
}

// WriteSDF writes the frame as an SDF file. The structure column must be
// resolvable; SMILES structures are parsed and laid out on the fly.
func WriteSDF(f *MolFrame, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "molframe: write sdf")
	}
	defer file.Close()
	return FormatSDF(f, file)
}

// FormatSDF writes SDF records to w.
func FormatSDF(f *MolFrame, w io.Writer) error {
	parse, err := f.MolMethod()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < f.nrows; i++ {
		mol, err := parse(f.Cell(f.UseCol, i))
		if err != nil {
			return errors.Wrapf(err, "molframe: sdf row %d", i)
		}
		mol.ComputeCoords()
		if _, err := bw.WriteString(chem.WriteMolBlock(mol, "")); err != nil {
			return errors.Wrap(err, "molframe: write sdf")
		}
		for _, name := range f.order {
			if name == f.UseCol {
				continue
			}
			v := f.cols[name][i]
			if v == "" {
				continue
			}
			if _, err := bw.WriteString(">  <" + name + ">\n" + v + "\n\n"); err != nil {
				return errors.Wrap(err, "molframe: write sdf")
			}
		}
		if _, err := bw.WriteString("$$$$\n"); err != nil {
			return errors.Wrap(err, "molframe: write sdf")
		}
	}
	return errors.Wrap(bw.Flush(), "molframe: write sdf")
}
