package purity

import (
	"math"
	"strings"
	"testing"

	"github.com/carbocation/neoantigen/table"
	"gopkg.in/guregu/null.v3"
)

func cand(id, gene string, vaf float64) Candidate {
	return Candidate{ID: id, Gene: gene, VAF: VAF{null.FloatFrom(vaf)}}
}

func nullCand(id, gene string) Candidate {
	return Candidate{ID: id, Gene: gene}
}

type expectation struct {
	Name       string
	Candidates []Candidate
	Drivers    []string

	OK         bool
	Rule       Rule
	ID         string
	FromDriver bool
	Purity     float64
}

func TestSelect(t *testing.T) {
	for _, v := range []expectation{
		{
			Name:       "no drivers listed",
			Candidates: []Candidate{cand("a", "TP53", 0.3)},
			Drivers:    nil,
			OK:         false,
			Rule:       NoDrivers,
		},
		{
			Name:       "single driver below 0.5",
			Candidates: []Candidate{cand("a", "TP53", 0.3), cand("b", "TTN", 0.45)},
			Drivers:    []string{"TP53"},
			OK:         true,
			Rule:       SingleDriverBelow,
			ID:         "a",
			FromDriver: true,
			Purity:     0.6,
		},
		{
			Name:       "single driver above 0.5 falls back to all candidates",
			Candidates: []Candidate{cand("a", "TP53", 0.8), cand("b", "TTN", 0.3), cand("c", "MUC16", 0.2)},
			Drivers:    []string{"TP53"},
			OK:         true,
			Rule:       SingleDriverAbove,
			ID:         "b",
			FromDriver: false,
			Purity:     0.6,
		},
		{
			Name:       "single driver exactly 0.5 with nothing below",
			Candidates: []Candidate{cand("a", "TP53", 0.5), cand("b", "TTN", 0.7)},
			Drivers:    []string{"TP53"},
			OK:         false,
			Rule:       SingleDriverAbove,
		},
		{
			Name:       "several drivers, some below 0.5",
			Candidates: []Candidate{cand("a", "TP53", 0.2), cand("b", "KRAS", 0.4), cand("c", "KRAS", 0.7), cand("d", "TTN", 0.49)},
			Drivers:    []string{"TP53", "KRAS"},
			OK:         true,
			Rule:       SeveralDriversBelow,
			ID:         "b",
			FromDriver: true,
			Purity:     0.8,
		},
		{
			Name:       "several drivers, none below 0.5",
			Candidates: []Candidate{cand("a", "TP53", 0.6), cand("b", "KRAS", 0.9), cand("c", "TTN", 0.1), cand("d", "MUC16", 0.35)},
			Drivers:    []string{"TP53", "KRAS"},
			OK:         true,
			Rule:       SeveralDriversAbove,
			ID:         "d",
			FromDriver: false,
			Purity:     0.7,
		},
		{
			Name:       "no driver candidates",
			Candidates: []Candidate{cand("a", "TTN", 0.1), cand("b", "MUC16", 0.25)},
			Drivers:    []string{"TP53"},
			OK:         true,
			Rule:       NoDriverCandidates,
			ID:         "b",
			FromDriver: false,
			Purity:     0.5,
		},
		{
			Name:       "null VAF driver rows do not count as driver candidates",
			Candidates: []Candidate{nullCand("a", "TP53"), cand("b", "TP53", 0.2), cand("c", "TTN", 0.4)},
			Drivers:    []string{"TP53"},
			OK:         true,
			Rule:       SingleDriverBelow,
			ID:         "b",
			FromDriver: true,
			Purity:     0.4,
		},
		{
			Name:       "nothing usable at all",
			Candidates: []Candidate{nullCand("a", "TTN"), cand("b", "MUC16", 0.9)},
			Drivers:    []string{"TP53"},
			OK:         false,
			Rule:       NoDriverCandidates,
		},
		{
			Name:       "ties go to the earliest row",
			Candidates: []Candidate{cand("a", "TTN", 0.3), cand("b", "MUC16", 0.3)},
			Drivers:    []string{"TP53"},
			OK:         true,
			Rule:       NoDriverCandidates,
			ID:         "a",
			Purity:     0.6,
		},
	} {
		est, ok := Select(v.Candidates, v.Drivers)

		if ok != v.OK || est.Rule != v.Rule {
			t.Errorf("%s: got ok=%v rule=%v, want ok=%v rule=%v", v.Name, ok, est.Rule, v.OK, v.Rule)
			continue
		}
		if !ok {
			continue
		}
		if est.ID != v.ID || est.FromDriver != v.FromDriver || math.Abs(est.Purity-v.Purity) > 1e-12 {
			t.Errorf("%s: got %+v, want ID=%s FromDriver=%v Purity=%v", v.Name, est, v.ID, v.FromDriver, v.Purity)
		}
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	cands := []Candidate{cand("a", "TP53", 0.35), cand("b", "KRAS", 0.35), cand("c", "KRAS", 0.1)}
	first, _ := Select(cands, []string{"TP53", "KRAS"})

	for i := 0; i < 50; i++ {
		again, _ := Select(cands, []string{"KRAS", "TP53"})
		if again != first {
			t.Fatalf("run %d: got %+v, want %+v", i, again, first)
		}
	}
}

// A driver row at VAF 0.8 and a non-driver at 0.3: the non-driver is used.
func TestPatientP1(t *testing.T) {
	review, err := table.ReadDelimited(strings.NewReader(
		"ID\tGene\tDNA VAF\tEvaluation\n"+
			"chr17-7675088-7675089-C-T\tTP53\t0.8\tAccept\n"+
			"chr2-178527-178528-G-A\tTTN\t0.3\tReject\n"), '\t')
	if err != nil {
		t.Fatal(err)
	}

	cands, err := Candidates(review)
	if err != nil {
		t.Fatal(err)
	}

	est, ok := Select(cands, ParseDriverGenes("TP53"))
	if !ok {
		t.Fatal("expected an estimate")
	}
	if est.ID != "chr2-178527-178528-G-A" || est.FromDriverFlag() != "NO" || math.Abs(est.Purity-0.6) > 1e-12 {
		t.Errorf("unexpected estimate %+v", est)
	}
}

func TestCandidatesCoercesVAF(t *testing.T) {
	review, err := table.ReadDelimited(strings.NewReader(
		"ID\tGene\tDNA VAF\n"+
			"a\tTP53\tNA\n"+
			"b\tTP53\tnot-a-number\n"+
			"c\tTP53\t0.25\n"), '\t')
	if err != nil {
		t.Fatal(err)
	}

	cands, err := Candidates(review)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 3 || cands[0].VAF.Valid || cands[1].VAF.Valid || !cands[2].VAF.Valid || cands[2].VAF.Float64 != 0.25 {
		t.Errorf("unexpected candidates %+v", cands)
	}

	if _, err := Candidates(table.New("ID", "Gene")); err == nil {
		t.Errorf("expected an error without a DNA VAF column")
	}
}

func TestParseDriverGenes(t *testing.T) {
	got := ParseDriverGenes(" TP53, KRAS ,,")
	if len(got) != 2 || got[0] != "TP53" || got[1] != "KRAS" {
		t.Errorf("got %q", got)
	}

	if len(ParseDriverGenes("")) != 0 || len(ParseDriverGenes("NA")) != 0 {
		t.Errorf("expected no genes for missing values")
	}
}
