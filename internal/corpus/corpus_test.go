package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestDiscover_PairsByName(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "b.tok.txt", "b")
	createTestFile(t, dir, "b.tok.ann", "")
	createTestFile(t, dir, "a.tok.txt", "a")
	createTestFile(t, dir, "a.tok.ann", "")
	createTestFile(t, dir, "notes.txt", "ignored")

	d, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(d.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", d.Warnings)
	}
	if len(d.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(d.Pairs))
	}
	if d.Pairs[0].Name != "a" || d.Pairs[1].Name != "b" {
		t.Errorf("pairs not sorted by name: %+v", d.Pairs)
	}
	if d.Pairs[0].TokenPath != filepath.Join(dir, "a.tok.txt") || d.Pairs[0].AnnotationPath != filepath.Join(dir, "a.tok.ann") {
		t.Errorf("unexpected paths: %+v", d.Pairs[0])
	}
}

func TestDiscover_Orphans(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "a.tok.txt", "a")
	createTestFile(t, dir, "a.tok.ann", "")
	createTestFile(t, dir, "only_text.tok.txt", "x")
	createTestFile(t, dir, "only_ann.tok.ann", "")

	d, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(d.Pairs) != 1 || d.Pairs[0].Name != "a" {
		t.Errorf("Pairs = %+v, want only a", d.Pairs)
	}
	if len(d.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(d.Warnings), d.Warnings)
	}
	for _, w := range d.Warnings {
		if !errors.Is(w, errors.ErrMismatch) {
			t.Errorf("warning %v is not a pairing mismatch", w)
		}
	}
}

func TestDiscover_EmptyDirWarns(t *testing.T) {
	d, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(d.Pairs) != 0 || len(d.Warnings) != 1 {
		t.Errorf("Discover() = %+v, want no pairs and one warning", d)
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Discover() error = %v, want IOError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Discover() error = %v, want to wrap os.ErrNotExist", err)
	}
}

func TestDiscover_FileNotDir(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "file", "x")
	if _, err := Discover(path); err == nil {
		t.Error("Discover() on a file should fail")
	}
}

func TestReadPair(t *testing.T) {
	dir := t.TempDir()
	p := Pair{
		Name:           "doc",
		TokenPath:      createTestFile(t, dir, "doc.tok.txt", "Тарас Шевченко"),
		AnnotationPath: createTestFile(t, dir, "doc.tok.ann", "T1\tPERS 6 14\tШевченко"),
	}

	text, ann, err := ReadPair(p)
	if err != nil {
		t.Fatalf("ReadPair() error = %v", err)
	}
	if text != "Тарас Шевченко" || ann != "T1\tPERS 6 14\tШевченко" {
		t.Errorf("ReadPair() = %q, %q", text, ann)
	}
}

func TestReadPair_Errors(t *testing.T) {
	dir := t.TempDir()
	good := createTestFile(t, dir, "good.tok.txt", "text")
	binary := filepath.Join(dir, "bin.tok.ann")
	if err := os.WriteFile(binary, []byte{0x1f, 0x8b, 0x08, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		pair Pair
	}{
		{"missing annotation", Pair{Name: "x", TokenPath: good, AnnotationPath: filepath.Join(dir, "none.tok.ann")}},
		{"missing text", Pair{Name: "x", TokenPath: filepath.Join(dir, "none.tok.txt"), AnnotationPath: good}},
		{"binary annotation", Pair{Name: "x", TokenPath: good, AnnotationPath: binary}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadPair(tt.pair)
			var ioErr *errors.IOError
			if !errors.As(err, &ioErr) {
				t.Errorf("ReadPair() error = %v, want IOError", err)
			}
		})
	}
}
