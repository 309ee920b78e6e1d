package neoantigen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// compressionSuffixes are stripped before looking at a file's real extension.
var compressionSuffixes = []string{".gz", ".bgz", ".xz", ".bz2", ".zip", ".z"}

// IsGoogleStorage reports whether path names an object in Google Storage.
func IsGoogleStorage(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// SplitGoogleStoragePath returns the bucket and object name of a gs:// path.
func SplitGoogleStoragePath(p string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(p, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// Extension returns the lower-cased extension of name, ignoring a trailing
// compression suffix. "x.tsv.gz" yields ".tsv".
func Extension(name string) string {
	name = strings.ToLower(path.Base(name))
	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	return path.Ext(name)
}

// Open returns a reader for a local path or, if client is not nil, for a
// gs://bucket/object path. Compressed content is transparently decompressed.
func Open(ctx context.Context, p string, client *storage.Client) (io.ReadCloser, error) {
	var rc io.ReadCloser

	if IsGoogleStorage(p) {
		if client == nil {
			return nil, fmt.Errorf("%s: a Google Storage client is required to read gs:// paths", p)
		}

		bucketName, objectName, err := SplitGoogleStoragePath(p)
		if err != nil {
			return nil, err
		}

		r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", p, err))
		}
		rc = r
	} else {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		rc = f
	}

	out, err := MaybeDecompressReadCloser(rc, p)
	if err != nil {
		rc.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", p, err))
	}

	return out, nil
}

// ReadAll opens p with Open and returns its full (decompressed) content.
func ReadAll(ctx context.Context, p string, client *storage.Client) ([]byte, error) {
	rc, err := Open(ctx, p, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// NewStorageClient initializes a Google Storage client only if one of paths
// points to Google Storage. Otherwise it returns nil.
func NewStorageClient(ctx context.Context, paths ...string) (*storage.Client, error) {
	for _, p := range paths {
		if IsGoogleStorage(p) {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, pfx.Err(err)
			}
			return client, nil
		}
	}

	return nil, nil
}
