package table

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadDelimitedPadsShortRows(t *testing.T) {
	in := "\ufeffID\tGene\tDNA VAF\n1-1-2-A-T\tTP53\n\n2-5-6-C-G\tKRAS\t0.2\n"

	tab, err := ReadDelimited(strings.NewReader(in), '\t')
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"ID", "Gene", "DNA VAF"}, tab.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if tab.Len() != 2 || tab.Value(0, "DNA VAF") != "" || tab.Value(1, "DNA VAF") != "0.2" {
		t.Errorf("unexpected rows %v", tab.Rows)
	}
}

func TestReadDelimitedTooManyFields(t *testing.T) {
	if _, err := ReadDelimited(strings.NewReader("a,b\n1,2,3\n"), ','); err == nil {
		t.Errorf("expected an error for a wide row")
	}
}

func TestWriteAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	src := sample()

	for _, name := range []string{"out.tsv", "out.csv", "out.xlsx", filepath.Join("nested", "out.tsv")} {
		path := filepath.Join(dir, name)
		if err := src.WriteFile(path); err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		got, err := Read(context.Background(), path, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if diff := cmp.Diff(src.Header, got.Header); diff != "" {
			t.Errorf("%s header mismatch (-want +got):\n%s", name, diff)
		}
		if diff := cmp.Diff(src.Rows, got.Rows); diff != "" {
			t.Errorf("%s rows mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestReadGzippedCSV(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("patient_id,driver_genes\nP1,\"TP53, KRAS\"\n"))
	zw.Close()

	path := filepath.Join(t.TempDir(), "meta.csv.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	tab, err := Read(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tab.Value(0, "driver_genes") != "TP53, KRAS" {
		t.Errorf("unexpected rows %v", tab.Rows)
	}
}

func TestStoreSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "out.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := sample().Store(ctx, db, "itb review"); err != nil {
		t.Fatal(err)
	}
	// Storing twice replaces the table
	if err := sample().Store(ctx, db, "itb review"); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM "itb review" WHERE "Gene" = 'TP53'`); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d TP53 rows, want 2", n)
	}
}

func TestReadWorkbookIsNotUnzipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "P1_cleaned.xlsx")

	src := New("ID", "patient_id", "IC50 MT")
	src.Append("1-100-100-A-T", "P1", "52.5")
	if err := src.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	got, err := Read(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(src.Rows, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
