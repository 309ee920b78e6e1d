// mergedata joins each patient's class I review, all-epitopes and class II
// review tables into one <patient>_merged.tsv.
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
	"github.com/carbocation/neoantigen/merge"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/carbocation/neoantigen/table"
	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	var flags config.Flags
	flags.Register(flag.CommandLine, false)
	flag.Parse()

	if err := run(context.Background(), &flags); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, flags *config.Flags) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	metaPath, err := cfg.Path(cfg.EnrichedMetadata)
	if err != nil {
		return err
	}
	reviewDir, err := cfg.Path(cfg.ReviewDir)
	if err != nil {
		return err
	}
	epitopesDir, err := cfg.Path(cfg.EpitopesDir)
	if err != nil {
		return err
	}
	classIIDir, err := cfg.Path(cfg.ClassIIDir)
	if err != nil {
		return err
	}
	outDir, err := cfg.OutputPath(cfg.MergeOutputDir)
	if err != nil {
		return err
	}

	client, err := neoantigen.NewStorageClient(ctx, metaPath, reviewDir, epitopesDir, classIIDir)
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
	ids := cohort.Select(patients, cohort.Patient.InModel)
	log.WithField("patients", len(ids)).Info("Selected ML and external validation patients from ", metaPath)

	policy := cfg.Policy()
	m := &merge.Merger{
		Sources: merge.Sources{
			Reviews:  resolve.New(reviewDir, ".tsv", policy, client),
			Epitopes: resolve.New(epitopesDir, ".tsv", policy, client),
			ClassII:  resolve.New(classIIDir, ".tsv", policy, client),
			Client:   client,
		},
		OutDir: outDir,
	}

	summary := cohort.Run(ctx, ids, flags.Options(cfg), m.Patient)
	summary.Log("mergedata")

	if flags.SQLite != "" {
		log.Warn("-sqlite is not used by mergedata")
	}

	return summary.Err()
}
