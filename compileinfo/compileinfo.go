// Package compileinfo reports which commit a binary was built from, so that
// every output directory can be traced back to the code that produced it.
package compileinfo

import (
	"fmt"
	"path"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

type CompileInfo struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

// Binary is the last element of the main package path, e.g. "rfpredict".
func (c CompileInfo) Binary() string {
	if c.Package == "" {
		return "unknown"
	}

	return path.Base(c.Package)
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("This %s binary was built with %s at commit %v at time %v.%s", c.Binary(), c.GoVersion, c.Commit, c.CommitTime, mod)
}

// Fields renders the build information for structured logs.
func (c CompileInfo) Fields() log.Fields {
	return log.Fields{
		"binary":      c.Binary(),
		"go_version":  c.GoVersion,
		"commit":      c.Commit,
		"commit_time": c.CommitTime,
		"modified":    c.Modified,
	}
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Log writes the build information at info level.
func Log() {
	z := Get()
	log.WithFields(z.Fields()).Info(z.String())
}
