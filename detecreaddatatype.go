package neoantigen

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType checks the leading bytes of a buffered stream against a set
// of known compression signatures without consuming them. Byte code signatures
// from https://stackoverflow.com/a/19127748/199475
func DetectDataType(r *bufio.Reader) (DataType, error) {
	buff, err := r.Peek(6)
	if err != nil && err != io.EOF {
		return DataTypeInvalid, err
	}

	// Match known signatures
Outer:
	for dt, sig := range byteCodeSigs {
		if len(buff) < len(sig) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompressReadCloser wraps rc so that reads yield decompressed bytes if
// the stream is compressed. Closing the result closes rc. Zip archives are
// only unpacked when name ends in .zip, since .xlsx workbooks are zip files
// too.
func MaybeDecompressReadCloser(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	dt, err := DetectDataType(br)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	switch dt {
	case DataTypeGzip:
		r, err = gzip.NewReader(br)
	case DataTypeZip:
		if !strings.HasSuffix(strings.ToLower(name), ".zip") {
			r = br
			break
		}
		// Only the first entry of an archive is read
		zr := zipstream.NewReader(br)
		if _, err = zr.Next(); err == nil {
			r = zr
		}
	case DataTypeBZip2:
		r = bzip2.NewReader(br)
	case DataTypeXZ:
		r, err = xz.NewReader(br, 0)
	case DataTypeZ:
		err = fmt.Errorf("unsupported compression: Unix compress (.Z)")
	default:
		// No data type detected. For now, we assume this is uncompressed.
		r = br
	}
	if err != nil {
		return nil, err
	}

	return &readCloserFaker{Reader: r, closer: rc}, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed by pointing
// Close at the underlying source.
type readCloserFaker struct {
	io.Reader
	closer io.Closer
}

func (c *readCloserFaker) Close() error {
	return c.closer.Close()
}
