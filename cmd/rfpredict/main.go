// rfpredict labels the candidate neoantigens of the external validation
// patients with the trained random forest and writes the labels back into
// their review files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/carbocation/neoantigen"
	"github.com/carbocation/neoantigen/cohort"
	_ "github.com/carbocation/neoantigen/compileinfoprint"
	"github.com/carbocation/neoantigen/config"
	"github.com/carbocation/neoantigen/predict"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	log "github.com/sirupsen/logrus"
)

// TableName is the SQLite table holding every prediction.
const TableName = "predictions"

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	var flags config.Flags
	var model string

	flags.Register(flag.CommandLine, true)
	flag.StringVar(&model, "model", "", "(Optional) Path to the JSON random forest. Overrides model from -config.")
	flag.Parse()

	if err := run(context.Background(), &flags, model); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, flags *config.Flags, model string) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Model = model
	}

	metaPath, err := cfg.Path(cfg.EnrichedMetadata)
	if err != nil {
		return err
	}
	modelPath, err := cfg.Path(cfg.Model)
	if err != nil {
		return err
	}
	cleanedDir, err := cfg.Path(cfg.CleanedDir)
	if err != nil {
		return err
	}
	reviewDir, err := cfg.Path(cfg.ReviewDir)
	if err != nil {
		return err
	}
	outDir, err := cfg.OutputPath(cfg.PredictOutputDir)
	if err != nil {
		return err
	}

	client, err := neoantigen.NewStorageClient(ctx, metaPath, modelPath, cleanedDir, reviewDir)
	if err != nil {
		return err
	}

	forest, err := predict.LoadForest(ctx, modelPath, client)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"trees":    len(forest.Trees),
		"features": len(forest.Features),
	}).Info("Loaded model from ", modelPath)

	categories := forest.CategoryLists()
	if len(categories) == 0 {
		log.Warn("Model has no category lists; using the default encodings")
		categories = predict.DefaultCategories
	}

	meta, err := table.Read(ctx, metaPath, client)
	if err != nil {
		return err
	}
	patients, err := cohort.Patients(meta)
	if err != nil {
		return err
	}
	ids := cohort.Select(patients, cohort.Patient.InValidation)
	log.WithField("patients", len(ids)).Info("Selected external validation patients from ", metaPath)

	policy := cfg.Policy()
	p := &predict.Predictor{
		Cleaned: resolve.New(cleanedDir, ".xlsx", policy, client),
		Reviews: resolve.New(reviewDir, ".tsv", policy, client),
		Client:  client,
		Model:   forest,
		Encoder: predict.NewEncoder(categories),
		OutDir:  outDir,
	}

	summary := cohort.Run(ctx, ids, flags.Options(cfg), p.Patient)
	summary.Log("rfpredict")

	if flags.SQLite != "" {
		if err := store(ctx, flags.SQLite, p.Predictions(ids)); err != nil {
			return err
		}
	}

	return summary.Err()
}

func store(ctx context.Context, path string, t *table.Table) error {
	db, err := table.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := t.Store(ctx, db, TableName); err != nil {
		return err
	}
	log.WithField("rows", t.Len()).Info("Stored ", TableName, " in ", path)

	return nil
}
