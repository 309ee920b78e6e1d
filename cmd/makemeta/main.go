// makemeta adds peptide counts and tumor purity estimates to the patient
// metadata table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/neoantigen"
	"github.com/carbocation/neoantigen/cohort"
	_ "github.com/carbocation/neoantigen/compileinfoprint"
	"github.com/carbocation/neoantigen/config"
	"github.com/carbocation/neoantigen/enrich"
	"github.com/carbocation/neoantigen/purity"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	log "github.com/sirupsen/logrus"
)

// OutputName is the enriched metadata file name, without extension.
const OutputName = "metadata_count_purity"

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	var flags config.Flags
	var bins int

	flags.Register(flag.CommandLine, false)
	flag.IntVar(&bins, "bins", 10, "(Optional) Number of bins in the purity histogram printed to stderr. 0 disables it.")
	flag.Parse()

	if err := run(context.Background(), &flags, bins); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, flags *config.Flags, bins int) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	metaPath, err := cfg.Path(cfg.Metadata)
	if err != nil {
		return err
	}
	reviewDir, err := cfg.Path(cfg.ReviewDir)
	if err != nil {
		return err
	}
	outDir, err := cfg.OutputPath(cfg.MetaOutputDir)
	if err != nil {
		return err
	}

	client, err := neoantigen.NewStorageClient(ctx, metaPath, reviewDir)
	if err != nil {
		return err
	}

	meta, err := table.Read(ctx, metaPath, client)
	if err != nil {
		return err
	}
	patients, err := cohort.Patients(meta)
	if err != nil {
		return err
	}
	log.WithField("patients", len(patients)).Info("Loaded metadata from ", metaPath)

	e := &enrich.Enricher{
		Reviews: resolve.New(reviewDir, ".tsv", cfg.Policy(), client),
		Client:  client,
		Options: flags.Options(cfg),
	}

	// Counts are only needed for the patients that go into the model, but
	// purity is estimated for everyone.
	counts, countSummary := e.Counts(ctx, cohort.Select(patients, cohort.Patient.InModel))
	countSummary.Log("makemeta counts")

	purities, estimates, puritySummary := e.Purity(ctx, patients)
	puritySummary.Log("makemeta purity")

	enriched, err := enrich.Metadata(meta, counts, purities)
	if err != nil {
		return err
	}

	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(outDir, OutputName+ext)
		if err := enriched.WriteFile(path); err != nil {
			return err
		}
		log.Info("Wrote ", path)
	}

	if flags.SQLite != "" {
		if err := store(ctx, flags.SQLite, enriched); err != nil {
			return err
		}
	}

	if bins > 0 {
		printHistogram(estimates, bins)
	}

	if err := countSummary.Err(); err != nil {
		return fmt.Errorf("counting peptides: %w", err)
	}
	if err := puritySummary.Err(); err != nil {
		return fmt.Errorf("estimating purity: %w", err)
	}

	return nil
}

func store(ctx context.Context, path string, t *table.Table) error {
	db, err := table.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := t.Store(ctx, db, OutputName); err != nil {
		return err
	}
	log.Info("Stored ", OutputName, " in ", path)

	return nil
}

func printHistogram(estimates []purity.Estimate, bins int) {
	if len(estimates) == 0 {
		return
	}

	values := make([]float64, len(estimates))
	for i, est := range estimates {
		values[i] = est.Purity
	}

	fmt.Fprintln(os.Stderr, "Purity estimates:")
	hist := histogram.Hist(bins, values)
	if err := histogram.Fprint(os.Stderr, hist, histogram.Linear(40)); err != nil {
		log.Warnln(err)
	}
}
