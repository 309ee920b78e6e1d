package predict

import (
	"fmt"

	"github.com/carbocation/neoantigen/table"
)

// DefaultCategories are the encodings the historical model was trained with.
// They apply only when a model carries no category lists of its own.
var DefaultCategories = map[string][]string{
	"Biotype":      {"IG_V_gene", "nonsense_mediated_decay", "protein_coding"},
	"Variant.Type": {"FS", "inframe_del", "inframe_ins", "missense"},
	"Prob.match":   {"NO", "YES"},
	"driver_gene":  {"NO", "YES"},
}

// Encoder turns cells into model inputs. Categorical columns get the position
// of their value in the column's category list; other columns are parsed as
// numbers.
type Encoder struct {
	codes map[string]map[string]int
}

// NewEncoder builds an Encoder from category lists.
func NewEncoder(categories map[string][]string) Encoder {
	e := Encoder{codes: make(map[string]map[string]int, len(categories))}
	for col, classes := range categories {
		m := make(map[string]int, len(classes))
		for i, c := range classes {
			m[c] = i
		}
		e.codes[col] = m
	}

	return e
}

// Categorical reports whether col is encoded by category.
func (e Encoder) Categorical(col string) bool {
	_, ok := e.codes[col]
	return ok
}

// Encode converts one cell. ok is false when the cell is missing or not a
// number. A categorical value outside its list is an error.
func (e Encoder) Encode(col, value string) (x float64, ok bool, err error) {
	if table.IsNA(value) {
		return 0, false, nil
	}

	if codes, categorical := e.codes[col]; categorical {
		code, known := codes[value]
		if !known {
			return 0, false, fmt.Errorf("column %q: unseen category %q", col, value)
		}
		return float64(code), true, nil
	}

	x, ok = table.ParseFloat(value)
	return x, ok, nil
}
