// Package merge joins a patient's class I review, all-epitopes and class II
// review tables into one table.
package merge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/neoantigen/cohort"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	"github.com/carbocation/neoantigen/variantid"
	log "github.com/sirupsen/logrus"
)

// ColumnID is the composite variant ID shared by the review tables.
const ColumnID = "ID"

// classColumns are renamed with a per-class suffix so the class I and class II
// predictions can sit side by side.
var classColumns = []struct{ From, To string }{
	{"Best Peptide", "Best Peptide"},
	{"Best Transcript", "Best Transcript"},
	{"IC50 MT", "IC50 MT"},
	{"IC50 WT", "IC50 WT"},
	{"%ile MT", "percentile MT"},
	{"%ile WT", "percentile WT"},
}

// ClassRenames returns the renames for one MHC class ("class1" or "class2").
func ClassRenames(class string) map[string]string {
	out := make(map[string]string, len(classColumns))
	for _, c := range classColumns {
		out[c.From] = c.To + " " + class
	}

	return out
}

// ClassIIPrefix selects the extra class II columns that are kept. ExcludedColumn
// already comes from the class I table.
const (
	ClassIIPrefix  = "D"
	ExcludedColumn = "DNA VAF"
)

// Epitope join keys: the decomposed ID plus transcript, peptide and allele.
var (
	leftKeys  = append(append([]string(nil), variantid.Columns...), "Best Transcript class1", "Best Peptide class1", "Allele")
	rightKeys = append(append([]string(nil), variantid.Columns...), "Transcript", "MT Epitope Seq", "HLA Allele")
)

// Sources locates and reads the three input tables.
type Sources struct {
	Reviews  resolve.Resolver
	Epitopes resolve.Resolver
	ClassII  resolve.Resolver

	// Client is used for gs:// inputs and may be nil otherwise
	Client *storage.Client
}

// Merger writes one merged table per patient into OutDir.
type Merger struct {
	Sources
	OutDir string
}

// OutputName is the merged file name for a patient.
func OutputName(patientID string) string {
	return patientID + "_merged.tsv"
}

// Patient merges one patient's tables and writes the result. A missing class I
// review file skips the patient; any other missing input is an error.
func (m *Merger) Patient(ctx context.Context, patientID string) error {
	entry := log.WithField("patient_id", patientID)

	reviewPath, err := m.Reviews.Resolve(ctx, patientID)
	if errors.Is(err, resolve.ErrNoMatch) {
		return cohort.Skip(err)
	} else if err != nil {
		return err
	}
	entry.Info("[PROCESS] Merging files")

	epitopesPath, err := m.Epitopes.Resolve(ctx, patientID)
	if err != nil {
		return fmt.Errorf("all_epitopes: %w", err)
	}

	classIIPath, err := m.ClassII.Resolve(ctx, patientID)
	if err != nil {
		return fmt.Errorf("class2: %w", err)
	}

	review, err := table.Read(ctx, reviewPath, m.Client)
	if err != nil {
		return err
	}
	epitopes, err := table.Read(ctx, epitopesPath, m.Client)
	if err != nil {
		return err
	}
	classII, err := table.Read(ctx, classIIPath, m.Client)
	if err != nil {
		return err
	}

	merged, err := Tables(entry, review, epitopes, classII)
	if err != nil {
		return err
	}

	return merged.WriteFile(filepath.Join(m.OutDir, OutputName(patientID)))
}

// Tables performs the merge on already loaded tables. Row count mismatches
// are logged to entry but do not stop the merge.
func Tables(entry *log.Entry, review, epitopes, classII *table.Table) (*table.Table, error) {
	review = review.Clone().Rename(ClassRenames("class1"))
	classII = classII.Clone().Rename(ClassRenames("class2"))
	epitopes = epitopes.Clone()

	keep := []string{ColumnID}
	for _, c := range classColumns {
		keep = append(keep, c.To+" class2")
	}
	for _, col := range classII.Header {
		if strings.HasPrefix(col, ClassIIPrefix) && col != ExcludedColumn {
			keep = append(keep, col)
		}
	}
	classII = classII.Select(keep...)

	if review.Len() != classII.Len() {
		entry.WithFields(log.Fields{
			"class1_rows": review.Len(),
			"class2_rows": classII.Len(),
		}).Warn("itb_review file and class2 file rows DO NOT match, but continue processing")
	}

	withClassII, err := table.InnerJoin(review, classII, ColumnID)
	if err != nil {
		return nil, fmt.Errorf("joining class2: %w", err)
	}

	if err := addDecomposedID(withClassII); err != nil {
		return nil, err
	}
	if err := canonicalizePositions(epitopes); err != nil {
		return nil, fmt.Errorf("all_epitopes: %w", err)
	}

	merged, err := table.Join(withClassII, epitopes, leftKeys, rightKeys, table.Inner)
	if err != nil {
		return nil, fmt.Errorf("joining all_epitopes: %w", err)
	}

	merged, err = merged.Drop(append(append([]string(nil), variantid.Columns...), "Transcript", "MT Epitope Seq", "HLA Allele")...)
	if err != nil {
		return nil, err
	}

	if merged.Len() != review.Len() {
		entry.WithFields(log.Fields{
			"class1_rows": review.Len(),
			"merged_rows": merged.Len(),
		}).Warn("itb_review file and merged file rows DO NOT match, but continue saving")
	}

	return merged, nil
}

// addDecomposedID appends the parts of the composite ID as columns. Every ID
// must decompose.
func addDecomposedID(t *table.Table) error {
	ids, err := t.Column(ColumnID)
	if err != nil {
		return err
	}

	parts := make([][]string, len(variantid.Columns))
	for k := range parts {
		parts[k] = make([]string, len(ids))
	}

	bad := make([]string, 0)
	for i, raw := range ids {
		id, err := variantid.Parse(raw)
		if err != nil {
			bad = append(bad, raw)
			continue
		}
		for k, v := range id.Fields() {
			parts[k][i] = v
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %d IDs cannot be decomposed, e.g. %q", variantid.ErrMalformedID, len(bad), bad[0])
	}

	for k, col := range variantid.Columns {
		if err := t.Set(col, parts[k]); err != nil {
			return err
		}
	}

	return nil
}

// canonicalizePositions rewrites Start and Stop so they compare equal to the
// decomposed ID.
func canonicalizePositions(t *table.Table) error {
	for _, col := range []string{"Start", "Stop"} {
		values, err := t.Column(col)
		if err != nil {
			return err
		}
		for i, v := range values {
			if values[i], err = variantid.CanonicalPosition(v); err != nil {
				return fmt.Errorf("%s row %d: %w", col, i+1, err)
			}
		}
		if err := t.Set(col, values); err != nil {
			return err
		}
	}

	return nil
}
