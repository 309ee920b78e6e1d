package table

import (
	"io"

	"github.com/gocarina/gocsv"
)

// Unmarshal decodes the rows of t into out, which must be a pointer to a slice
// of structs with gocsv `csv:"..."` tags. Columns without a matching field are
// ignored.
func (t *Table) Unmarshal(out interface{}) error {
	return gocsv.UnmarshalCSV(&recordReader{t: t}, out)
}

// recordReader presents a Table as a gocsv.CSVReader.
type recordReader struct {
	t   *Table
	pos int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos == 0 {
		r.pos++
		return r.t.Header, nil
	}
	if r.pos > len(r.t.Rows) {
		return nil, io.EOF
	}

	row := r.t.Rows[r.pos-1]
	r.pos++

	return row, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	out := make([][]string, 0, len(r.t.Rows)+1)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
