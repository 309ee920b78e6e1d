package neoantigen

import (
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// DelimiterFor picks the delimiter for an in-memory file. Files named .tsv or
// .csv are trusted; anything else is sniffed from its content.
func DelimiterFor(name string, data []byte) rune {
	switch Extension(name) {
	case ".tsv", ".tab", ".txt":
		return '\t'
	case ".csv":
		return ','
	}

	// Only sniff the first few lines
	sample := data
	for i, n := 0, 0; i < len(data); i++ {
		if data[i] == '\n' {
			n++
			if n == 10 {
				sample = data[:i]
				break
			}
		}
	}

	return DetermineDelimiter(bytes.NewReader(sample))
}
