package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/carbocation/neoantigen"
	"github.com/carbocation/pfx"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name given to the single sheet of written workbooks.
const SheetName = "Sheet1"

// WriteDelimited writes the header and rows separated by comma.
func (t *Table) WriteDelimited(w io.Writer, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}

	return cw.Error()
}

// WriteXLSX writes the table as a single-sheet workbook. Cells that hold a
// canonical number are stored as numbers, everything else as text.
func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range append([][]string{t.Header}, t.Rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = xlsxValue(v, i == 0)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func xlsxValue(v string, header bool) interface{} {
	if header {
		return v
	}

	// Only store a number when the text would survive the round trip, so
	// identifiers like "0052" stay as written.
	if f, err := strconv.ParseFloat(v, 64); err == nil && FormatFloat(f) == v {
		return f
	}

	return v
}

// WriteFile writes the table to path, choosing the format from its extension:
// .xlsx for a workbook, .csv for comma separated and tab separated otherwise.
// Missing parent directories are created.
func (t *Table) WriteFile(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = pfx.Err(cerr)
		}
	}()

	buf := bufio.NewWriter(f)

	switch neoantigen.Extension(path) {
	case ".xlsx":
		err = t.WriteXLSX(buf)
	case ".csv":
		err = t.WriteDelimited(buf, ',')
	default:
		err = t.WriteDelimited(buf, '\t')
	}
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return buf.Flush()
}
