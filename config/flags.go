package config

import (
	"flag"
	"os"

	"github.com/carbocation/neoantigen/cohort"
	"github.com/carbocation/neoantigen/resolve"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// Flags are the command line options every tool accepts. Values given on the
// command line override the YAML file named by ConfigPath.
type Flags struct {
	ConfigPath string
	ProjectDir string
	Workers    int
	Policy     string
	FailFast   bool
	SQLite     string
	LogLevel   string
}

// Register adds the shared options to fs. failFast is the tool's default for
// -fail-fast.
func (f *Flags) Register(fs *flag.FlagSet, failFast bool) {
	fs.StringVar(&f.ConfigPath, "config", "", "(Optional) YAML file describing the project layout.")
	fs.StringVar(&f.ProjectDir, "project", "", "(Optional) Project directory that relative paths are resolved against. May be a gs:// path. Overrides project_dir from -config.")
	fs.IntVar(&f.Workers, "workers", 0, "(Optional) Number of patients to process at once. Overrides workers from -config; default 1.")
	fs.StringVar(&f.Policy, "policy", "", "(Optional) What to do when several files match one patient: 'first' takes the first name in sorted order, 'unique' fails. Overrides match_policy from -config.")
	fs.BoolVar(&f.FailFast, "fail-fast", failFast, "Stop scheduling patients after the first failure.")
	fs.StringVar(&f.SQLite, "sqlite", "", "(Optional) Also store the output table in this SQLite database file.")
	fs.StringVar(&f.LogLevel, "loglevel", "info", "Logging level (debug, info, warn, error).")
}

// Config sets up logging and returns the effective configuration.
func (f *Flags) Config() (Config, error) {
	lvl, err := log.ParseLevel(f.LogLevel)
	if err != nil {
		return Config{}, err
	}
	log.SetLevel(lvl)
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.StandardLogger().Formatter = &log.TextFormatter{DisableTimestamp: true}
	}

	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}

	if f.ProjectDir != "" {
		cfg.ProjectDir = f.ProjectDir
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.Policy != "" {
		cfg.MatchPolicy = f.Policy
	}

	if _, err := resolve.ParsePolicy(cfg.MatchPolicy); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Options are the cohort.Options for cfg.
func (f *Flags) Options(cfg Config) cohort.Options {
	return cohort.Options{Workers: cfg.Workers, FailFast: f.FailFast}
}

// Policy returns the parsed match policy. Config has already validated it.
func (c Config) Policy() resolve.Policy {
	p, _ := resolve.ParsePolicy(c.MatchPolicy)
	return p
}
