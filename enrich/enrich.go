// Package enrich adds peptide counts and purity estimates to the patient
// metadata table.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/neoantigen/cohort"
	"github.com/carbocation/neoantigen/purity"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

// Review file columns that are counted.
const (
	ColumnTier       = "Tier"
	ColumnEvaluation = "Evaluation"
)

// Columns added to the metadata.
var (
	CountColumns  = []string{cohort.ColumnPatientID, "n_peptides", "n_pass", "n_accept"}
	PurityColumns = []string{cohort.ColumnPatientID, purity.ColumnID, purity.ColumnGene, purity.ColumnVAF, "purity_from_driver", "purity"}
)

// Enricher reads each patient's review file through Reviews.
type Enricher struct {
	Reviews resolve.Resolver

	// Client is used for gs:// review files and may be nil otherwise
	Client *storage.Client

	Options cohort.Options
}

// Count summarizes one review file.
type Count struct {
	PatientID string
	Peptides  int
	Pass      null.Int
	Accept    null.Int
}

// CountPeptides counts the rows of a review file, the rows that passed tiering
// and the rows already accepted. Pass and Accept are null when the file lacks
// the column they are computed from.
func CountPeptides(patientID string, review *table.Table) Count {
	out := Count{PatientID: patientID, Peptides: review.Len()}

	if n, err := review.Count(ColumnTier, "Pass"); err == nil {
		out.Pass = null.IntFrom(int64(n))
	}
	if n, err := review.Count(ColumnEvaluation, "Accept"); err == nil {
		out.Accept = null.IntFrom(int64(n))
	}

	return out
}

func (c Count) row() []string {
	return []string{c.PatientID, strconv.Itoa(c.Peptides), formatNullInt(c.Pass), formatNullInt(c.Accept)}
}

func formatNullInt(n null.Int) string {
	if !n.Valid {
		return ""
	}

	return strconv.FormatInt(n.Int64, 10)
}

// loadReview finds and reads a patient's review file. A missing file is a
// skip, not a failure.
func (e *Enricher) loadReview(ctx context.Context, patientID string) (*table.Table, error) {
	path, err := e.Reviews.Resolve(ctx, patientID)
	if errors.Is(err, resolve.ErrNoMatch) {
		return nil, cohort.Skip(err)
	}
	if err != nil {
		return nil, err
	}

	return table.Read(ctx, path, e.Client)
}

// Counts computes a Count for every patient with a review file. The result
// has one row per counted patient, in the order given.
func (e *Enricher) Counts(ctx context.Context, patientIDs []string) (*table.Table, cohort.Summary) {
	results := make(map[string]Count)
	var mu sync.Mutex

	summary := cohort.Run(ctx, patientIDs, e.Options, func(ctx context.Context, patientID string) error {
		review, err := e.loadReview(ctx, patientID)
		if err != nil {
			return err
		}

		log.WithField("patient_id", patientID).Info("[PROCESS] Counting peptides")
		c := CountPeptides(patientID, review)

		mu.Lock()
		results[patientID] = c
		mu.Unlock()

		return nil
	})

	out := table.New(CountColumns...)
	for _, id := range patientIDs {
		if c, ok := results[id]; ok {
			out.Rows = append(out.Rows, c.row())
		}
	}

	return out, summary
}

// Purity estimates purity for every patient. Patients without driver genes,
// review files, the needed columns or a usable candidate are skipped.
func (e *Enricher) Purity(ctx context.Context, patients []cohort.Patient) (*table.Table, []purity.Estimate, cohort.Summary) {
	byID := cohort.ByID(patients)
	ids := cohort.Select(patients, nil)

	results := make(map[string]purity.Estimate)
	var mu sync.Mutex

	summary := cohort.Run(ctx, ids, e.Options, func(ctx context.Context, patientID string) error {
		drivers := purity.ParseDriverGenes(byID[patientID].DriverGenes)
		if len(drivers) == 0 {
			return cohort.Skip(fmt.Errorf("no driver genes"))
		}

		review, err := e.loadReview(ctx, patientID)
		if err != nil {
			return err
		}

		entry := log.WithField("patient_id", patientID)
		entry.Info("[PROCESS] Calculating purity")

		if !review.Has(purity.ColumnVAF) || !review.Has(purity.ColumnGene) {
			entry.Warn("[WARN] Missing DNA VAF or Gene column")
			return cohort.Skip(fmt.Errorf("review file lacks %q or %q", purity.ColumnVAF, purity.ColumnGene))
		}

		candidates, err := purity.Candidates(review)
		if err != nil {
			return err
		}

		est, ok := purity.Select(candidates, drivers)
		if !ok {
			entry.WithField("rule", est.Rule).Warn("[WARN] No valid purity row")
			return cohort.Skip(fmt.Errorf("no valid purity row (%s)", est.Rule))
		}

		entry.WithFields(log.Fields{
			"rule":   est.Rule,
			"ID":     est.ID,
			"purity": est.Purity,
		}).Debug("purity estimated")

		mu.Lock()
		results[patientID] = est
		mu.Unlock()

		return nil
	})

	out := table.New(PurityColumns...)
	estimates := make([]purity.Estimate, 0, len(results))
	for _, id := range ids {
		est, ok := results[id]
		if !ok {
			continue
		}
		estimates = append(estimates, est)
		out.Rows = append(out.Rows, []string{
			id,
			est.ID,
			est.Gene,
			table.FormatFloat(est.VAF),
			est.FromDriverFlag(),
			table.FormatFloat(est.Purity),
		})
	}

	return out, estimates, summary
}

// Metadata left-joins the counts and purity tables onto the metadata, so
// patients without results keep empty cells.
func Metadata(meta, counts, purities *table.Table) (*table.Table, error) {
	withCounts, err := table.LeftJoin(meta, counts, cohort.ColumnPatientID)
	if err != nil {
		return nil, fmt.Errorf("joining counts: %w", err)
	}

	out, err := table.LeftJoin(withCounts, purities, cohort.ColumnPatientID)
	if err != nil {
		return nil, fmt.Errorf("joining purity: %w", err)
	}

	return out, nil
}
