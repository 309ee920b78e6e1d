// Package resolve maps a patient identifier to the one input file that belongs
// to it. A file belongs to a patient when its name contains the identifier and
// ends with the expected suffix.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/neoantigen"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

var (
	// ErrNoMatch means no file name contains the patient identifier.
	ErrNoMatch = errors.New("no matching file")

	// ErrAmbiguous means several files matched under the Unique policy.
	ErrAmbiguous = errors.New("several matching files")
)

// Policy decides what happens when more than one file matches.
type Policy int

const (
	// FirstMatch takes the lexicographically first matching name.
	FirstMatch Policy = iota
	// Unique refuses to choose between several matches.
	Unique
)

func (p Policy) String() string {
	switch p {
	case FirstMatch:
		return "first"
	case Unique:
		return "unique"
	}

	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts "first" or "unique".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "":
		return FirstMatch, nil
	case "unique":
		return Unique, nil
	}

	return FirstMatch, fmt.Errorf("unknown match policy %q (options: first, unique)", s)
}

// Resolver finds the file for a patient.
type Resolver interface {
	Resolve(ctx context.Context, patientID string) (string, error)
}

// New returns a Bucket resolver for gs:// locations and a Dir resolver for
// everything else.
func New(location, suffix string, policy Policy, client *storage.Client) Resolver {
	if neoantigen.IsGoogleStorage(location) {
		return Bucket{Client: client, Path: location, Suffix: suffix, Policy: policy}
	}

	return Dir{Path: location, Suffix: suffix, Policy: policy}
}

// Dir resolves against the entries of one local directory. Subdirectories are
// not searched.
type Dir struct {
	Path   string
	Suffix string
	Policy Policy
}

func (d Dir) Resolve(ctx context.Context, patientID string) (string, error) {
	entries, err := os.ReadDir(d.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w for patient %s: %s does not exist", ErrNoMatch, patientID, d.Path)
	} else if err != nil {
		return "", pfx.Err(err)
	}

	names := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matches(entry.Name(), patientID, d.Suffix) {
			names = append(names, entry.Name())
		}
	}

	name, err := choose(names, patientID, d.Policy, d.Path)
	if err != nil {
		return "", err
	}

	return filepath.Join(d.Path, name), nil
}

// Bucket resolves against the objects directly under a gs://bucket/prefix.
type Bucket struct {
	Client *storage.Client
	Path   string
	Suffix string
	Policy Policy
}

func (b Bucket) Resolve(ctx context.Context, patientID string) (string, error) {
	if b.Client == nil {
		return "", fmt.Errorf("%s: a Google Storage client is required", b.Path)
	}

	bucketName, prefix, err := neoantigen.SplitGoogleStoragePath(strings.TrimSuffix(b.Path, "/") + "/")
	if err != nil {
		return "", err
	}

	it := b.Client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix})
	names := make([]string, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", pfx.Err(err)
		}

		rel := strings.TrimPrefix(attrs.Name, prefix)
		if rel == "" || strings.Contains(rel, "/") {
			continue
		}
		if matches(rel, patientID, b.Suffix) {
			names = append(names, rel)
		}
	}

	name, err := choose(names, patientID, b.Policy, b.Path)
	if err != nil {
		return "", err
	}

	return "gs://" + path.Join(bucketName, prefix, name), nil
}

func matches(name, patientID, suffix string) bool {
	return strings.Contains(name, patientID) && strings.HasSuffix(name, suffix)
}

func choose(names []string, patientID string, policy Policy, location string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("%w for patient %s in %s", ErrNoMatch, patientID, location)
	}

	sort.Strings(names)
	if len(names) > 1 && policy == Unique {
		return "", fmt.Errorf("%w for patient %s in %s: %s", ErrAmbiguous, patientID, location, strings.Join(names, ", "))
	}

	return names[0], nil
}
