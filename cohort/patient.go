// Package cohort reads the patient metadata table and runs per-patient work
// across the selected patients.
package cohort

import (
	"fmt"
	"strings"

	"github.com/carbocation/neoantigen/table"
)

// Metadata table columns.
const (
	ColumnPatientID          = "patient_id"
	ColumnIncludeML          = "include_ML"
	ColumnExternalValidation = "external_validation"
	ColumnDriverGenes        = "driver_genes"
)

// Yes is the affirmative value of the inclusion flags.
const Yes = "Yes"

// Patient is one row of the metadata table. Columns not listed here stay in
// the table and are carried through enrichment untouched.
type Patient struct {
	ID                 string `csv:"patient_id"`
	IncludeML          string `csv:"include_ML"`
	ExternalValidation string `csv:"external_validation"`
	DriverGenes        string `csv:"driver_genes"`
}

// InModel reports whether the patient is used for training or external
// validation.
func (p Patient) InModel() bool {
	return p.IncludeML == Yes || p.ExternalValidation == Yes
}

// InValidation reports whether the patient belongs to the external validation
// set.
func (p Patient) InValidation() bool {
	return p.ExternalValidation == Yes
}

// Patients decodes the metadata table. The patient_id column is required.
func Patients(meta *table.Table) ([]Patient, error) {
	if !meta.Has(ColumnPatientID) {
		return nil, fmt.Errorf("metadata has no %q column", ColumnPatientID)
	}

	out := make([]Patient, 0, meta.Len())
	if err := meta.Unmarshal(&out); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].ID = strings.TrimSpace(out[i].ID)
	}

	return out, nil
}

// ByID indexes patients by ID. The first row of a repeated ID wins.
func ByID(patients []Patient) map[string]Patient {
	out := make(map[string]Patient, len(patients))
	for _, p := range patients {
		if _, exists := out[p.ID]; !exists {
			out[p.ID] = p
		}
	}

	return out
}

// Select returns the IDs of the patients for which keep is true, in table
// order, without blanks or repeats. A nil keep selects everyone.
func Select(patients []Patient, keep func(Patient) bool) []string {
	out := make([]string, 0, len(patients))
	seen := make(map[string]struct{}, len(patients))
	for _, p := range patients {
		if p.ID == "" || (keep != nil && !keep(p)) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p.ID)
	}

	return out
}
