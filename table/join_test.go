package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInnerJoinSharedKey(t *testing.T) {
	left := New("ID", "Gene", "Score")
	left.Append("a", "TP53", "1")
	left.Append("b", "KRAS", "2")
	left.Append("c", "EGFR", "3")

	right := New("ID", "Score", "Extra")
	right.Append("c", "30", "z")
	right.Append("a", "10", "x")
	right.Append("a", "11", "y")

	got, err := InnerJoin(left, right, "ID")
	if err != nil {
		t.Fatal(err)
	}

	want := New("ID", "Gene", "Score_x", "Score_y", "Extra")
	want.Append("a", "TP53", "1", "10", "x")
	want.Append("a", "TP53", "1", "11", "y")
	want.Append("c", "EGFR", "3", "30", "z")

	if diff := cmp.Diff(want.Header, got.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Rows, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinDifferentKeyNamesKeepsBoth(t *testing.T) {
	left := New("Chromosome", "Allele", "Peptide")
	left.Append("1", "HLA-A*02:01", "AAA")
	left.Append("2", "HLA-B*07:02", "CCC")

	right := New("Chromosome", "HLA Allele", "MT Epitope Seq", "Score")
	right.Append("1", "HLA-A*02:01", "AAA", "0.5")
	right.Append("2", "HLA-B*07:02", "GGG", "0.9")

	got, err := Join(left, right,
		[]string{"Chromosome", "Allele", "Peptide"},
		[]string{"Chromosome", "HLA Allele", "MT Epitope Seq"},
		Inner)
	if err != nil {
		t.Fatal(err)
	}

	wantHeader := []string{"Chromosome", "Allele", "Peptide", "HLA Allele", "MT Epitope Seq", "Score"}
	if diff := cmp.Diff(wantHeader, got.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if got.Len() != 1 || got.Value(0, "Score") != "0.5" {
		t.Errorf("unexpected rows %v", got.Rows)
	}
}

func TestLeftJoinKeepsUnmatched(t *testing.T) {
	left := New("patient_id", "include_ML")
	left.Append("P1", "Yes")
	left.Append("P2", "No")

	right := New("patient_id", "n_peptides")
	right.Append("P1", "12")

	got, err := LeftJoin(left, right, "patient_id")
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"P1", "Yes", "12"},
		{"P2", "No", ""},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinMissingKey(t *testing.T) {
	left := New("ID")
	right := New("Other")

	if _, err := InnerJoin(left, right, "ID"); err == nil {
		t.Errorf("expected an error for a missing right key")
	}
	if _, err := Join(left, right, []string{"ID"}, nil, Inner); err == nil {
		t.Errorf("expected an error for mismatched key lists")
	}
}
