// Package ramdisk holds the CLI-only ramdisk helpers: compressor
// detection/extraction and fixed-width content patching. None of this is
// reachable from the core format engine; payload bytes stay opaque there.
package ramdisk

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io/ioutil"

	pgzip "github.com/klauspost/pgzip"
	"go4.org/bytereplacer"
)

// Compressor identifies the compression format wrapping a ramdisk.
type Compressor int

const (
	Gzip Compressor = iota
	Lz4
	Lzo
	Xz
	Bzip2
	Lzma
	Unknown
)

func (c Compressor) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Lz4:
		return "lz4"
	case Lzo:
		return "lzo"
	case Xz:
		return "xz"
	case Bzip2:
		return "bzip2"
	case Lzma:
		return "lzma"
	default:
		return "unknown"
	}
}

// Detect identifies the compressor wrapping a ramdisk from its leading
// bytes.
func Detect(data []byte) Compressor {
	if len(data) < 2 {
		return Unknown
	}
	switch fmt.Sprintf("%02x%02x", data[0], data[1]) {
	case "425a":
		return Bzip2
	case "1f8b", "1f9e":
		return Gzip
	case "0422":
		return Lz4
	case "894c":
		return Lzo
	case "5d00":
		return Lzma
	case "fd37":
		return Xz
	default:
		return Unknown
	}
}

// Extract decompresses a ramdisk. Only Gzip is currently supported; other
// recognized compressors return an error naming the format.
func Extract(data []byte, c Compressor) ([]byte, error) {
	if c != Gzip {
		return nil, fmt.Errorf("extracting ramdisk: %s decompression is not supported", c)
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preparing to extract ramdisk: %w", err)
	}
	out, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("extracting ramdisk: %w", err)
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("cleaning up ramdisk extraction: %w", err)
	}
	return out, nil
}

// Compress recompresses a ramdisk. Only Gzip is currently supported.
func Compress(data []byte, c Compressor) ([]byte, error) {
	if c != Gzip {
		return nil, fmt.Errorf("compressing ramdisk: %s compression is not supported", c)
	}

	var buf bytes.Buffer
	w, err := pgzip.NewWriterLevel(&buf, pgzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("preparing to compress ramdisk: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compressing ramdisk: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finishing ramdisk compression: %w", err)
	}
	return buf.Bytes(), nil
}

var errLengthMismatch = errors.New("ramdisk: replacement length mismatch")

// Replacer applies a set of fixed-width byte string substitutions to a
// ramdisk's contents, in either direction. Every from/to pair must share a
// length, since the replacement happens in place within an extracted
// ramdisk archive where shifting byte offsets would corrupt trailing entries.
type Replacer struct {
	pairs []string
}

// NewReplacer builds a Replacer from `from, to` pairs; reverse swaps the
// direction of every pair.
func NewReplacer(reverse bool, pairs ...[2]string) (*Replacer, error) {
	r := &Replacer{pairs: make([]string, 0, len(pairs)*2)}
	for _, p := range pairs {
		from, to := p[0], p[1]
		if reverse {
			from, to = to, from
		}
		if len(from) != len(to) {
			return nil, fmt.Errorf("%w: %q (%d) -> %q (%d)", errLengthMismatch, from, len(from), to, len(to))
		}
		r.pairs = append(r.pairs, from, to)
	}
	return r, nil
}

// Replace rewrites every occurrence of each configured pair in data.
func (r *Replacer) Replace(data []byte) []byte {
	return bytereplacer.New(r.pairs...).Replace(data)
}
