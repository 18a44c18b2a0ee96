// Package corpus discovers tokenized-text and annotation file pairs in a
// corpus directory and reads them for conversion.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
	"github.com/FocuswithJustin/bsfbeios/internal/validation"
)

// File name suffixes of a document pair.
const (
	TokenSuffix      = ".tok.txt"
	AnnotationSuffix = ".tok.ann"
)

// Pair is one document: its tokenized text and its BSF annotations.
type Pair struct {
	Name           string
	TokenPath      string
	AnnotationPath string
}

// Discovery is the result of scanning a corpus directory.
type Discovery struct {
	Dir      string
	Pairs    []Pair
	Warnings []error
}

// Discover pairs *.tok.txt and *.tok.ann files in dir by base name. Files
// without a counterpart become warnings rather than errors, as does a
// directory with no corpus files at all.
func Discover(dir string) (*Discovery, error) {
	if err := validation.ValidatePath(dir); err != nil {
		return nil, errors.NewIO("scan", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewIO("scan", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.NewIO("scan", dir, fmt.Errorf("not a directory"))
	}

	tokens, err := glob(dir, TokenSuffix)
	if err != nil {
		return nil, err
	}
	annotations, err := glob(dir, AnnotationSuffix)
	if err != nil {
		return nil, err
	}

	d := &Discovery{Dir: dir}
	if len(tokens) == 0 || len(annotations) == 0 {
		d.Warnings = append(d.Warnings, fmt.Errorf("token and annotation files are not found at %s", dir))
		return d, nil
	}

	for name, tok := range tokens {
		ann, ok := annotations[name]
		if !ok {
			d.Warnings = append(d.Warnings, errors.NewPairing(name, tok, filepath.Join(dir, name+AnnotationSuffix)))
			continue
		}
		d.Pairs = append(d.Pairs, Pair{Name: name, TokenPath: tok, AnnotationPath: ann})
	}
	for name, ann := range annotations {
		if _, ok := tokens[name]; !ok {
			d.Warnings = append(d.Warnings, errors.NewPairing(name, ann, filepath.Join(dir, name+TokenSuffix)))
		}
	}

	sort.Slice(d.Pairs, func(i, j int) bool { return d.Pairs[i].Name < d.Pairs[j].Name })
	sort.Slice(d.Warnings, func(i, j int) bool { return d.Warnings[i].Error() < d.Warnings[j].Error() })
	return d, nil
}

// glob maps document base names to paths of files in dir ending in suffix.
func glob(dir, suffix string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+suffix))
	if err != nil {
		return nil, errors.NewIO("glob", dir, err)
	}
	out := make(map[string]string, len(matches))
	for _, m := range matches {
		out[strings.TrimSuffix(filepath.Base(m), suffix)] = m
	}
	return out, nil
}

// ReadPair reads both files of p. Files above validation.MaxFileSize or that
// are not UTF-8 text are rejected.
func ReadPair(p Pair) (text, annotation string, err error) {
	tokenData, err := readText(p.TokenPath)
	if err != nil {
		return "", "", err
	}
	annData, err := readText(p.AnnotationPath)
	if err != nil {
		return "", "", err
	}
	return string(tokenData), string(annData), nil
}

func readText(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIO("stat", path, err)
	}
	if err := validation.CheckFileSize(info.Size()); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	if err := validation.ValidateText(data); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}
