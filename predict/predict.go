// Package predict labels candidate neoantigens with a trained classifier and
// writes the labels back into the patient's review file.
package predict

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

// Column names used when scoring and writing predictions.
const (
	ColumnID          = "ID"
	ColumnPatientID   = "patient_id"
	ColumnEvaluation  = "Evaluation"
	ColumnComments    = "Comments"
	ColumnPrediction  = "Evaluation_pred"
	ColumnProbability = "Accept_pred_prob"
)

// Classifier scores one encoded feature vector.
type Classifier interface {
	// FeatureNames lists the input columns in the order Probability expects.
	FeatureNames() []string

	// Probability returns the probability that the candidate is accepted.
	Probability(x []float64) float64
}

// Result is the prediction for one row of a cleaned table.
type Result struct {
	ID          string
	Probability null.Float
	Label       string
}

// Score encodes every row of the cleaned table and classifies it. Rows with a
// missing or non-numeric feature get a null probability.
func Score(cleaned *table.Table, clf Classifier, enc Encoder) ([]Result, error) {
	if !cleaned.Has(ColumnID) {
		return nil, fmt.Errorf("cleaned table has no %q column", ColumnID)
	}

	features := clf.FeatureNames()
	idx := make([]int, len(features))
	for k, col := range features {
		if idx[k] = cleaned.Col(col); idx[k] < 0 {
			return nil, fmt.Errorf("cleaned table has no feature column %q", col)
		}
	}

	out := make([]Result, len(cleaned.Rows))
	x := make([]float64, len(features))
	for i, row := range cleaned.Rows {
		complete := true
		for k, j := range idx {
			v, ok, err := enc.Encode(features[k], row[j])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			if !ok {
				complete = false
			}
			x[k] = v
		}

		res := Result{ID: row[cleaned.Col(ColumnID)]}
		if complete {
			res.Probability = null.FloatFrom(clf.Probability(x))
		}
		res.Label = Label(res.Probability)
		out[i] = res
	}

	return out, nil
}

// ResultTable holds results with ID, Evaluation_pred and Accept_pred_prob.
func ResultTable(results []Result) *table.Table {
	out := table.New(ColumnID, ColumnPrediction, ColumnProbability)
	for _, r := range results {
		out.Rows = append(out.Rows, []string{r.ID, r.Label, formatNullFloat(r.Probability)})
	}

	return out
}

func formatNullFloat(f null.Float) string {
	if !f.Valid {
		return ""
	}

	return table.FormatFloat(f.Float64)
}

// Outputs replaces the review table's Evaluation with the predictions.
// labeled carries the new Evaluation and a Comments note; detailed keeps
// Evaluation_pred and Accept_pred_prob instead.
func Outputs(review *table.Table, results []Result) (labeled, detailed *table.Table, err error) {
	base, err := review.Drop(ColumnEvaluation)
	if err != nil {
		return nil, nil, err
	}

	detailed, err = table.LeftJoin(base, ResultTable(results), ColumnID)
	if err != nil {
		return nil, nil, err
	}

	labeled = detailed.Clone()

	probs, err := labeled.Column(ColumnProbability)
	if err != nil {
		return nil, nil, err
	}
	comments := make([]string, len(probs))
	for i, v := range probs {
		p := null.Float{}
		if f, ok := table.ParseFloat(v); ok {
			p = null.FloatFrom(f)
		}
		comments[i] = Comment(p)
	}

	labeled.Rename(map[string]string{ColumnPrediction: ColumnEvaluation})
	if err := labeled.Set(ColumnComments, comments); err != nil {
		return nil, nil, err
	}
	if labeled, err = labeled.Drop(ColumnProbability); err != nil {
		return nil, nil, err
	}

	return labeled, detailed, nil
}

// OutputNames are the two files written per patient.
func OutputNames(patientID string) (labeled, detailed string) {
	return patientID + "_predict_newThreshold.tsv", patientID + "_predict_newThreshold2.tsv"
}

// Predictor applies a classifier to each patient's cleaned table and writes
// the updated review files into OutDir.
type Predictor struct {
	Cleaned resolve.Resolver
	Reviews resolve.Resolver

	// Client is used for gs:// inputs and may be nil otherwise
	Client *storage.Client

	Model   Classifier
	Encoder Encoder
	OutDir  string

	mu  sync.Mutex
	all map[string][]Result
}

// Patient scores one patient. Unlike the other tools, a missing cleaned or
// review file is an error.
func (p *Predictor) Patient(ctx context.Context, patientID string) error {
	entry := log.WithField("patient_id", patientID)

	cleanedPath, err := p.Cleaned.Resolve(ctx, patientID)
	if err != nil {
		return fmt.Errorf("no cleaned data file: %w", err)
	}
	cleaned, err := table.Read(ctx, cleanedPath, p.Client)
	if err != nil {
		return err
	}

	results, err := Score(cleaned, p.Model, p.Encoder)
	if err != nil {
		return err
	}

	reviewPath, err := p.Reviews.Resolve(ctx, patientID)
	if err != nil {
		return fmt.Errorf("no itb_review file: %w", err)
	}
	review, err := table.Read(ctx, reviewPath, p.Client)
	if err != nil {
		return err
	}

	labeled, detailed, err := Outputs(review, results)
	if err != nil {
		return err
	}

	labeledName, detailedName := OutputNames(patientID)
	if err := labeled.WriteFile(filepath.Join(p.OutDir, labeledName)); err != nil {
		return err
	}
	if err := detailed.WriteFile(filepath.Join(p.OutDir, detailedName)); err != nil {
		return err
	}

	entry.WithFields(summarize(results)).Info("[PROCESS] Predictions written")

	p.mu.Lock()
	if p.all == nil {
		p.all = make(map[string][]Result)
	}
	p.all[patientID] = results
	p.mu.Unlock()

	return nil
}

// Predictions returns every result produced so far, one row per candidate,
// ordered by the given patient IDs.
func (p *Predictor) Predictions(patientIDs []string) *table.Table {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := table.New(ColumnPatientID, ColumnID, ColumnPrediction, ColumnProbability)
	for _, id := range patientIDs {
		for _, r := range p.all[id] {
			out.Rows = append(out.Rows, []string{id, r.ID, r.Label, formatNullFloat(r.Probability)})
		}
	}

	return out
}

// summarize counts labels and describes the probability distribution.
func summarize(results []Result) log.Fields {
	fields := log.Fields{Accept: 0, Review: 0, Reject: 0, Pending: 0}

	probs := make(stats.Float64Data, 0, len(results))
	for _, r := range results {
		fields[r.Label] = fields[r.Label].(int) + 1
		if r.Probability.Valid {
			probs = append(probs, r.Probability.Float64)
		}
	}

	if len(probs) > 0 {
		if mean, err := probs.Mean(); err == nil {
			fields["mean_prob"] = mean
		}
		if median, err := probs.Median(); err == nil {
			fields["median_prob"] = median
		}
	}

	return fields
}
