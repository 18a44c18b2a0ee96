// Package validation checks user-supplied paths and names and screens corpus
// input files before conversion.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits on input size and naming (CWE-400).
const (
	// MaxFileSize is the maximum size of a single token or annotation file (256 MB).
	MaxFileSize = 256 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotText          = errors.New("not a text file")
)

// ValidateFilename checks that a single path component such as a corpus
// name is safe to create under an output directory.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidFilename)
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Can be confused with command flags
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// ValidatePath checks length limits and invalid characters without
// requiring a base directory.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// CheckFileSize rejects files larger than MaxFileSize.
func CheckFileSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, MaxFileSize)
	}
	return nil
}

// magicBytes are signatures of compressed or binary files that sometimes
// end up with a .tok.txt or .tok.ann name.
var magicBytes = []struct {
	kind   string
	magic  []byte
	offset int
}{
	{"tar", []byte("ustar"), 257},
	{"gzip", []byte{0x1f, 0x8b}, 0},
	{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{"zip", []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{"sqlite", []byte("SQLite format 3"), 0},
}

// ValidateText rejects content that is a known binary format, contains
// null bytes, or is not valid UTF-8. Empty content is valid.
func ValidateText(data []byte) error {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(data) &&
			bytes.Equal(data[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
			return fmt.Errorf("%w: looks like %s", ErrNotText, sig.kind)
		}
	}

	if bytes.IndexByte(data, 0) != -1 {
		return fmt.Errorf("%w: contains null bytes", ErrNotText)
	}

	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrNotText)
	}

	return nil
}
