package variantid

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	id, err := Parse("chr17-7675088-7675089-C-T")
	if err != nil {
		t.Fatal(err)
	}

	if id.Chromosome != "chr17" || id.Start != 7675088 || id.Stop != 7675089 || id.Reference != "C" || id.Variant != "T" {
		t.Errorf("unexpected parse %+v", id)
	}

	if id.String() != "chr17-7675088-7675089-C-T" {
		t.Errorf("round trip gave %s", id)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, v := range []string{
		"chr1-100-101-A",
		"chr1-100-101-AT--",
		"chr1-x-101-A-T",
		"chr1-100-1.5-A-T",
		"",
	} {
		if _, err := Parse(v); !errors.Is(err, ErrMalformedID) {
			t.Errorf("Parse(%q): expected ErrMalformedID, got %v", v, err)
		}
	}
}

func TestCanonicalPosition(t *testing.T) {
	for in, want := range map[string]string{
		"100":   "100",
		"0100":  "100",
		"100.0": "100",
		" 7 ":   "7",
	} {
		got, err := CanonicalPosition(in)
		if err != nil || got != want {
			t.Errorf("CanonicalPosition(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := CanonicalPosition("100.5"); err == nil {
		t.Errorf("expected an error for a fractional position")
	}
}
