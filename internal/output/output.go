// Package output writes converted BEIOS files, optionally compressed, and
// fingerprints what it wrote.
package output

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
)

// Injectable functions for testing
var (
	gzipNewWriterLevel = gzip.NewWriterLevel
	xzNewWriter        = xz.NewWriter
	osCreateTemp       = os.CreateTemp
	osRename           = os.Rename
)

// Compression specifies how output files are compressed.
type Compression string

const (
	// None writes plain text.
	None Compression = "none"
	// XZ uses XZ/LZMA2 compression (best ratio).
	XZ Compression = "xz"
	// Gzip uses gzip compression (stdlib, faster).
	Gzip Compression = "gzip"
)

// ParseCompression validates a compression name; "" means None.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", None:
		return None, nil
	case XZ, Gzip:
		return Compression(s), nil
	}
	return "", errors.NewUnsupported("compression", s)
}

// Ext returns the file name suffix added for c.
func (c Compression) Ext() string {
	switch c {
	case XZ:
		return ".xz"
	case Gzip:
		return ".gz"
	}
	return ""
}

// WrittenFile describes a file on disk. Digest is the blake3 hex digest of
// the bytes on disk, after compression.
type WrittenFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Digest string `json:"blake3"`
}

// Digest returns the blake3 hex digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteFile compresses data with c and writes it to path plus c.Ext(). The
// file is written to a temporary sibling and renamed into place. The parent
// directory must exist.
func WriteFile(path string, data []byte, c Compression) (WrittenFile, error) {
	body, err := compress(data, c)
	if err != nil {
		return WrittenFile{}, err
	}

	final := path + c.Ext()
	tmp, err := osCreateTemp(filepath.Dir(final), "."+filepath.Base(final)+".*")
	if err != nil {
		return WrittenFile{}, errors.NewIO("create", final, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return WrittenFile{}, errors.NewIO("write", final, err)
	}
	if err := tmp.Close(); err != nil {
		return WrittenFile{}, errors.NewIO("write", final, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return WrittenFile{}, errors.NewIO("chmod", final, err)
	}
	if err := osRename(tmpName, final); err != nil {
		return WrittenFile{}, errors.NewIO("rename", final, err)
	}

	return WrittenFile{
		Path:   final,
		Size:   int64(len(body)),
		Digest: Digest(body),
	}, nil
}

func compress(data []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch c {
	case None, "":
		return data, nil
	case Gzip:
		w, err = gzipNewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gzip writer")
		}
	case XZ:
		w, err = xzNewWriter(&buf)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create xz writer")
		}
	default:
		return nil, errors.NewUnsupported("compression", string(c))
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to compress with %s", c)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "failed to finish %s stream", c)
	}
	return buf.Bytes(), nil
}
