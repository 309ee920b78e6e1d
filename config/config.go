// Package config describes where the review tools find their inputs and put
// their outputs. Relative paths are resolved against ProjectDir.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/carbocation/neoantigen"
	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ProjectDir string `yaml:"project_dir"`

	// Manually curated metadata, input to makemeta
	Metadata string `yaml:"metadata"`

	// Enriched metadata written by makemeta and read by the later tools
	EnrichedMetadata string `yaml:"enriched_metadata"`

	ReviewDir   string `yaml:"itb_review_dir"`
	EpitopesDir string `yaml:"all_epitopes_dir"`
	ClassIIDir  string `yaml:"class2_dir"`
	CleanedDir  string `yaml:"cleaned_dir"`
	Model       string `yaml:"model"`

	MetaOutputDir    string `yaml:"makemeta_output_dir"`
	MergeOutputDir   string `yaml:"mergedata_output_dir"`
	PredictOutputDir string `yaml:"rfpredict_output_dir"`

	// "first" or "unique"; see resolve.ParsePolicy
	MatchPolicy string `yaml:"match_policy"`
	Workers     int    `yaml:"workers"`
}

// Default mirrors the historical project layout.
func Default() Config {
	return Config{
		ProjectDir:       ".",
		Metadata:         "data/meta_manual.csv",
		EnrichedMetadata: "output_python/makemeta/metadata_count_purity.csv",
		ReviewDir:        "data/itb_review",
		EpitopesDir:      "data/all_epitopes",
		ClassIIDir:       "data/class2",
		CleanedDir:       "output/05-2_cleaning_prediction.Rmd",
		Model:            "output_python/07_ml_randomForest.ipynb/rf_model.json",
		MetaOutputDir:    "output_python/makemeta",
		MergeOutputDir:   "output_python/mergedata",
		PredictOutputDir: "output_python/rfpredict",
		MatchPolicy:      "first",
		Workers:          1,
	}
}

// Load reads a YAML file on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	path, err := neoantigen.ExpandHome(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, pfx.Err(err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}

// Path resolves p against ProjectDir. Absolute, home-relative and gs:// paths
// are returned as is (after ~ expansion).
func (c Config) Path(p string) (string, error) {
	if neoantigen.IsGoogleStorage(p) {
		return p, nil
	}

	p, err := neoantigen.ExpandHome(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}

	root, err := neoantigen.ExpandHome(c.ProjectDir)
	if err != nil {
		return "", err
	}

	if neoantigen.IsGoogleStorage(root) {
		return root + "/" + filepath.ToSlash(p), nil
	}

	return filepath.Join(root, p), nil
}

// OutputPath is Path for directories that will be written to, which must be
// local.
func (c Config) OutputPath(p string) (string, error) {
	out, err := c.Path(p)
	if err != nil {
		return "", err
	}
	if neoantigen.IsGoogleStorage(out) {
		return "", fmt.Errorf("%s: outputs must be written to a local directory", out)
	}

	return out, nil
}
