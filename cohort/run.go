package cohort

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one patient's work.
type Status int

const (
	Processed Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// Skip wraps a reason for leaving a patient out. Returning it from a Task
// marks the patient Skipped instead of Failed.
func Skip(reason error) error {
	return &skipError{reason}
}

type skipError struct{ reason error }

func (e *skipError) Error() string { return e.reason.Error() }
func (e *skipError) Unwrap() error { return e.reason }

// IsSkip reports whether err came from Skip.
func IsSkip(err error) bool {
	var s *skipError
	return errors.As(err, &s)
}

// Task does the work for one patient.
type Task func(ctx context.Context, patientID string) error

// Outcome is the result of a Task for one patient.
type Outcome struct {
	PatientID string
	Status    Status
	Err       error
}

// Options control Run.
type Options struct {
	// Workers bounds how many patients are processed at once. Values below 1
	// mean one.
	Workers int

	// FailFast stops scheduling new patients after the first failure.
	FailFast bool
}

// Summary collects the outcomes of a Run, in the order patients were given.
type Summary struct {
	Outcomes []Outcome
}

// Count returns how many patients ended with status s.
func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}

	return n
}

// Err returns an error naming the number of failed patients, or nil.
func (s Summary) Err() error {
	if n := s.Count(Failed); n > 0 {
		return fmt.Errorf("%d of %d patients failed", n, len(s.Outcomes))
	}

	return nil
}

// Log writes a one-line summary.
func (s Summary) Log(tool string) {
	entry := log.WithFields(log.Fields{
		"tool":      tool,
		"processed": s.Count(Processed),
		"skipped":   s.Count(Skipped),
		"failed":    s.Count(Failed),
	})

	if s.Count(Failed) > 0 {
		entry.Warn("finished with failures")
		return
	}
	entry.Info("finished")
}

// Run applies task to every patient. Patients are independent: each task is
// expected to touch only its own files. Failures and skips are logged with the
// patient ID; patients never attempted because of FailFast are absent from the
// Summary.
func Run(ctx context.Context, patientIDs []string, opts Options, task Task) Summary {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]*Outcome, len(patientIDs))

	var mu sync.Mutex
	failed := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, id := range patientIDs {
		i, id := i, id

		if opts.FailFast {
			mu.Lock()
			stop := failed
			mu.Unlock()
			if stop {
				break
			}
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// Cancelled by a fail-fast failure while waiting for a slot
			if gctx.Err() != nil {
				return nil
			}

			entry := log.WithField("patient_id", id)

			out := &Outcome{PatientID: id, Status: Processed}
			if err := task(gctx, id); IsSkip(err) {
				out.Status, out.Err = Skipped, err
				entry.WithError(err).Info("[SKIP]")
			} else if err != nil {
				out.Status, out.Err = Failed, err
				entry.WithError(err).Error("[ERROR]")
			}
			outcomes[i] = out

			if out.Status == Failed && opts.FailFast {
				mu.Lock()
				failed = true
				mu.Unlock()
				return out.Err
			}

			return nil
		})
	}

	// Errors are already recorded per patient
	_ = g.Wait()

	summary := Summary{Outcomes: make([]Outcome, 0, len(outcomes))}
	for _, o := range outcomes {
		if o != nil {
			summary.Outcomes = append(summary.Outcomes, *o)
		}
	}

	return summary
}
