// Package variantid decomposes the composite variant identifiers used as the
// ID column of review files: chromosome-start-stop-reference-variant.
package variantid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the five parts of a composite ID.
const Separator = "-"

// ErrMalformedID is returned for identifiers that do not split into exactly
// five parts with integer coordinates. Alleles that themselves contain the
// separator land here too; they are reported, not repaired.
var ErrMalformedID = errors.New("malformed composite variant ID")

// Columns names the decomposed parts, in order.
var Columns = []string{"Chromosome", "Start", "Stop", "Reference", "Variant"}

type ID struct {
	Chromosome string
	Start      int
	Stop       int
	Reference  string
	Variant    string
}

// Parse splits a composite ID.
func Parse(s string) (ID, error) {
	parts := strings.Split(s, Separator)
	if len(parts) != len(Columns) {
		return ID{}, fmt.Errorf("%w: %q has %d parts, expected %d", ErrMalformedID, s, len(parts), len(Columns))
	}

	start, err := strconv.Atoi(parts[1])
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q has a non-integer start %q", ErrMalformedID, s, parts[1])
	}

	stop, err := strconv.Atoi(parts[2])
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q has a non-integer stop %q", ErrMalformedID, s, parts[2])
	}

	return ID{
		Chromosome: parts[0],
		Start:      start,
		Stop:       stop,
		Reference:  parts[3],
		Variant:    parts[4],
	}, nil
}

// Fields returns the parts in Columns order, with coordinates in canonical
// integer form.
func (id ID) Fields() []string {
	return []string{id.Chromosome, strconv.Itoa(id.Start), strconv.Itoa(id.Stop), id.Reference, id.Variant}
}

func (id ID) String() string {
	return strings.Join(id.Fields(), Separator)
}

// CanonicalPosition rewrites an integer coordinate cell so that it compares
// equal to Fields output ("0100" and "100.0" both become "100").
func CanonicalPosition(v string) (string, error) {
	v = strings.TrimSpace(v)
	if i, err := strconv.Atoi(v); err == nil {
		return strconv.Itoa(i), nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return "", fmt.Errorf("%q is not an integer position", v)
	}

	return strconv.Itoa(int(f)), nil
}
