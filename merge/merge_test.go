package merge

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/neoantigen/cohort"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	"github.com/carbocation/neoantigen/variantid"
	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
)

const (
	reviewTSV = "ID\tGene\tAllele\tBest Peptide\tBest Transcript\tIC50 MT\tIC50 WT\t%ile MT\t%ile WT\tDNA VAF\tEvaluation\n" +
		"chr1-100-101-A-T\tTP53\tHLA-A*02:01\tPEPTIDEA\tENST1\t50\t500\t0.5\t2.0\t0.3\tAccept\n" +
		"chr2-200-201-G-C\tKRAS\tHLA-B*07:02\tPEPTIDEB\tENST2\t100\t900\t1.0\t3.0\t0.4\tReview\n"

	classIITSV = "ID\tGene\tBest Peptide\tBest Transcript\tIC50 MT\tIC50 WT\t%ile MT\t%ile WT\tDNA VAF\tDNA Depth\n" +
		"chr1-100-101-A-T\tTP53\tLONGPEPTIDEA\tENST1\t300\t800\t5\t9\t0.31\t120\n" +
		"chr2-200-201-G-C\tKRAS\tLONGPEPTIDEB\tENST2\t400\t700\t6\t8\t0.41\t80\n"

	epitopesTSV = "Chromosome\tStart\tStop\tReference\tVariant\tTranscript\tMT Epitope Seq\tHLA Allele\tMedian MT IC50 Score\tGene Name\n" +
		"chr1\t100\t101\tA\tT\tENST1\tPEPTIDEA\tHLA-A*02:01\t48.5\tTP53\n" +
		"chr1\t100\t101\tA\tT\tENST1\tPEPTIDEZ\tHLA-A*02:01\t999\tTP53\n" +
		"chr2\t200\t201\tG\tC\tENST2\tPEPTIDEX\tHLA-B*07:02\t77\tKRAS\n"
)

func mustRead(t *testing.T, body string) *table.Table {
	t.Helper()
	tab, err := table.ReadDelimited(strings.NewReader(body), '\t')
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestTables(t *testing.T) {
	review := mustRead(t, reviewTSV)

	got, err := Tables(log.WithField("patient_id", "PT-A"), review, mustRead(t, epitopesTSV), mustRead(t, classIITSV))
	if err != nil {
		t.Fatal(err)
	}

	wantHeader := []string{
		"ID", "Gene", "Allele",
		"Best Peptide class1", "Best Transcript class1", "IC50 MT class1", "IC50 WT class1", "percentile MT class1", "percentile WT class1",
		"DNA VAF", "Evaluation",
		"Best Peptide class2", "Best Transcript class2", "IC50 MT class2", "IC50 WT class2", "percentile MT class2", "percentile WT class2",
		"DNA Depth",
		"Median MT IC50 Score", "Gene Name",
	}
	if diff := cmp.Diff(wantHeader, got.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	// Only the first review row matches an epitope on all eight keys
	wantRows := [][]string{{
		"chr1-100-101-A-T", "TP53", "HLA-A*02:01",
		"PEPTIDEA", "ENST1", "50", "500", "0.5", "2.0",
		"0.3", "Accept",
		"LONGPEPTIDEA", "ENST1", "300", "800", "5", "9",
		"120",
		"48.5", "TP53",
	}}
	if diff := cmp.Diff(wantRows, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	// Inputs are left untouched
	if review.Has("Best Peptide class1") {
		t.Errorf("review table was modified")
	}
}

func TestTablesMalformedID(t *testing.T) {
	review := mustRead(t, strings.Replace(reviewTSV, "chr2-200-201-G-C", "chr2-200-203-GTA--", 1))
	classII := mustRead(t, strings.Replace(classIITSV, "chr2-200-201-G-C", "chr2-200-203-GTA--", 1))

	_, err := Tables(log.WithField("patient_id", "PT-A"), review, mustRead(t, epitopesTSV), classII)
	if !errors.Is(err, variantid.ErrMalformedID) {
		t.Errorf("expected ErrMalformedID, got %v", err)
	}
}

func TestTablesNonIntegerEpitopePosition(t *testing.T) {
	epitopes := mustRead(t, strings.Replace(epitopesTSV, "\t200\t", "\tabc\t", 1))

	if _, err := Tables(log.WithField("patient_id", "PT-A"), mustRead(t, reviewTSV), epitopes, mustRead(t, classIITSV)); err == nil {
		t.Errorf("expected an error for a non-integer Start")
	}
}

func setup(t *testing.T, withClassII bool) *Merger {
	t.Helper()
	root := t.TempDir()

	dirs := map[string]string{"itb_review": reviewTSV, "all_epitopes": epitopesTSV, "class2": classIITSV}
	for dir, body := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatal(err)
		}
		if dir == "class2" && !withClassII {
			continue
		}
		if err := os.WriteFile(filepath.Join(root, dir, "PT-A_"+dir+".tsv"), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	return &Merger{
		Sources: Sources{
			Reviews:  resolve.Dir{Path: filepath.Join(root, "itb_review"), Suffix: ".tsv"},
			Epitopes: resolve.Dir{Path: filepath.Join(root, "all_epitopes"), Suffix: ".tsv"},
			ClassII:  resolve.Dir{Path: filepath.Join(root, "class2"), Suffix: ".tsv"},
		},
		OutDir: filepath.Join(root, "out"),
	}
}

func TestPatientIsIdempotent(t *testing.T) {
	m := setup(t, true)
	ctx := context.Background()
	out := filepath.Join(m.OutDir, OutputName("PT-A"))

	if err := m.Patient(ctx, "PT-A"); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Patient(ctx, "PT-A"); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("outputs differ:\n%s\n---\n%s", first, second)
	}
	if !bytes.HasPrefix(first, []byte("ID\tGene\tAllele\tBest Peptide class1")) {
		t.Errorf("unexpected output:\n%s", first)
	}
}

func TestPatientMissingFiles(t *testing.T) {
	m := setup(t, false)
	ctx := context.Background()

	err := m.Patient(ctx, "PT-Z")
	if !cohort.IsSkip(err) {
		t.Errorf("a patient without a review file should be skipped, got %v", err)
	}

	err = m.Patient(ctx, "PT-A")
	if err == nil || cohort.IsSkip(err) || !errors.Is(err, resolve.ErrNoMatch) {
		t.Errorf("a missing class2 file should fail, got %v", err)
	}
}
