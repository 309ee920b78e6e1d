package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/neoantigen"
	"github.com/carbocation/pfx"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// Read loads a table from a local path or, with a non-nil client, a gs://
// path. Spreadsheets (.xlsx, .xls) are read from their first sheet. Anything
// else is treated as delimited text: .tsv is tab separated, .csv is comma
// separated, and other files have their delimiter detected. Compressed files
// are decompressed first.
func Read(ctx context.Context, path string, client *storage.Client) (*Table, error) {
	data, err := neoantigen.ReadAll(ctx, path, client)
	if err != nil {
		return nil, err
	}

	var t *Table
	switch neoantigen.Extension(path) {
	case ".xlsx", ".xlsm":
		t, err = ReadXLSX(bytes.NewReader(data))
	case ".xls":
		t, err = ReadXLS(bytes.NewReader(data))
	default:
		t, err = ReadDelimited(bytes.NewReader(data), neoantigen.DelimiterFor(path, data))
	}
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return t, nil
}

// ReadDelimited parses delimited text whose first record is the header.
func ReadDelimited(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	return FromRecords(records)
}

// FromRecords builds a table from a header record followed by data records.
// Short records are padded with empty cells; blank records are skipped.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := New(header...)
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, len(header), len(rec))
		}

		row := make([]string, len(header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}

	return true
}

// ReadXLSX reads the first sheet of an Office Open XML workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	return FromRecords(rows)
}

// ReadXLS reads the first sheet of a legacy Excel workbook.
func ReadXLS(r io.ReadSeeker) (*Table, error) {
	spreadsheet, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, err
	}

	if spreadsheet.NumSheets() < 1 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := spreadsheet.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("sheet 0 was nil")
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	width := 0
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := sheet.Row(rowID)
		if row == nil {
			records = append(records, nil)
			continue
		}

		if rowID == 0 {
			width = row.LastCol()
		}

		rec := make([]string, 0, width)
		for colID := 0; colID < row.LastCol() && colID < width; colID++ {
			rec = append(rec, row.Col(colID))
		}
		records = append(records, rec)
	}

	return FromRecords(records)
}
