// Package purity estimates tumor purity from the variant allele frequencies of
// a patient's review file. The estimate is twice the VAF of one selected
// candidate, preferring a heterozygous (VAF < 0.5) driver-gene variant.
package purity

import (
	"fmt"
	"strings"

	"github.com/carbocation/neoantigen/table"
	"gopkg.in/guregu/null.v3"
)

// MaxVAF is the exclusive upper bound on the VAF of a variant that can be
// used to estimate purity.
const MaxVAF = 0.5

// Review file columns read by this package.
const (
	ColumnID   = "ID"
	ColumnGene = "Gene"
	ColumnVAF  = "DNA VAF"
)

// VAF is a variant allele frequency cell. Cells that are not numbers decode
// to null rather than failing.
type VAF struct {
	null.Float
}

func (v *VAF) UnmarshalCSV(s string) error {
	if f, ok := table.ParseFloat(s); ok {
		v.Float = null.FloatFrom(f)
	} else {
		v.Float = null.Float{}
	}

	return nil
}

func (v VAF) MarshalCSV() (string, error) {
	if !v.Valid {
		return "", nil
	}

	return table.FormatFloat(v.Float64), nil
}

// Candidate is one row of a review file, reduced to what the estimate needs.
type Candidate struct {
	ID   string `csv:"ID"`
	Gene string `csv:"Gene"`
	VAF  VAF    `csv:"DNA VAF"`
}

// complete is true when no field is missing.
func (c Candidate) complete() bool {
	return !table.IsNA(c.ID) && !table.IsNA(c.Gene) && c.VAF.Valid
}

func (c Candidate) usable() bool {
	return c.VAF.Valid && c.VAF.Float64 < MaxVAF
}

// Rule records which branch of the selection procedure applied.
type Rule int

const (
	// NoDrivers: the patient has no driver genes, so nothing is estimated.
	NoDrivers Rule = iota
	// SingleDriverBelow: one driver candidate, below MaxVAF. It is used.
	SingleDriverBelow
	// SingleDriverAbove: one driver candidate, at or above MaxVAF. The highest
	// VAF below MaxVAF across all candidates is used.
	SingleDriverAbove
	// SeveralDriversBelow: several driver candidates, some below MaxVAF. The
	// highest of those is used.
	SeveralDriversBelow
	// SeveralDriversAbove: several driver candidates, none below MaxVAF. The
	// highest VAF below MaxVAF across all candidates is used.
	SeveralDriversAbove
	// NoDriverCandidates: no candidate falls in a driver gene. The highest VAF
	// below MaxVAF across all candidates is used.
	NoDriverCandidates
)

func (r Rule) String() string {
	switch r {
	case NoDrivers:
		return "no driver genes"
	case SingleDriverBelow:
		return "single driver below 0.5"
	case SingleDriverAbove:
		return "single driver at or above 0.5"
	case SeveralDriversBelow:
		return "several drivers, some below 0.5"
	case SeveralDriversAbove:
		return "several drivers, none below 0.5"
	case NoDriverCandidates:
		return "no driver candidates"
	}

	return fmt.Sprintf("Rule(%d)", int(r))
}

// Estimate is a purity estimate and the candidate it was derived from.
type Estimate struct {
	ID         string
	Gene       string
	VAF        float64
	FromDriver bool
	Purity     float64
	Rule       Rule
}

// FromDriverFlag renders FromDriver the way the metadata table records it.
func (e Estimate) FromDriverFlag() string {
	if e.FromDriver {
		return "YES"
	}

	return "NO"
}

// ParseDriverGenes splits a comma-separated gene list, dropping blanks.
func ParseDriverGenes(s string) []string {
	if table.IsNA(s) {
		return nil
	}

	out := make([]string, 0)
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}

	return out
}

// Select applies the selection procedure. The returned Rule is always set; ok
// is false when the applicable rule found no usable candidate. Ties on VAF go
// to the earliest candidate.
func Select(candidates []Candidate, drivers []string) (est Estimate, ok bool) {
	if len(drivers) == 0 {
		return Estimate{Rule: NoDrivers}, false
	}

	driverSet := make(map[string]struct{}, len(drivers))
	for _, g := range drivers {
		driverSet[g] = struct{}{}
	}

	driverCandidates := make([]Candidate, 0)
	for _, c := range candidates {
		if _, isDriver := driverSet[c.Gene]; isDriver && c.complete() {
			driverCandidates = append(driverCandidates, c)
		}
	}

	anyDriverBelow := false
	for _, c := range driverCandidates {
		if c.usable() {
			anyDriverBelow = true
			break
		}
	}

	var rule Rule
	var pool []Candidate
	fromDriver := false

	switch {
	case len(driverCandidates) == 1 && anyDriverBelow:
		rule, pool, fromDriver = SingleDriverBelow, driverCandidates, true
	case len(driverCandidates) == 1:
		rule, pool = SingleDriverAbove, candidates
	case len(driverCandidates) > 1 && anyDriverBelow:
		rule, pool, fromDriver = SeveralDriversBelow, driverCandidates, true
	case len(driverCandidates) > 1:
		rule, pool = SeveralDriversAbove, candidates
	default:
		rule, pool = NoDriverCandidates, candidates
	}

	best, found := highestUsable(pool)
	if !found {
		return Estimate{Rule: rule}, false
	}

	return Estimate{
		ID:         best.ID,
		Gene:       best.Gene,
		VAF:        best.VAF.Float64,
		FromDriver: fromDriver,
		Purity:     best.VAF.Float64 * 2,
		Rule:       rule,
	}, true
}

func highestUsable(pool []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range pool {
		if !c.usable() {
			continue
		}
		if !found || c.VAF.Float64 > best.VAF.Float64 {
			best = c
			found = true
		}
	}

	return best, found
}

// Candidates decodes the review table rows needed by Select. The ID, Gene and
// DNA VAF columns must be present.
func Candidates(t *table.Table) ([]Candidate, error) {
	for _, col := range []string{ColumnID, ColumnGene, ColumnVAF} {
		if !t.Has(col) {
			return nil, fmt.Errorf("review table has no %q column", col)
		}
	}

	out := make([]Candidate, 0, t.Len())
	if err := t.Unmarshal(&out); err != nil {
		return nil, err
	}

	return out, nil
}
