package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/FocuswithJustin/bsfbeios/internal/output"
)

type putCall struct {
	bucket, key, contentType string
	body                     string
	metadata                 map[string]string
}

type fakePutter struct {
	calls  []putCall
	failAt int
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failAt > 0 && len(f.calls)+1 == f.failAt {
		return nil, errors.New("access denied")
	}
	body, _ := io.ReadAll(in.Body)
	f.calls = append(f.calls, putCall{
		bucket:      aws.ToString(in.Bucket),
		key:         aws.ToString(in.Key),
		contentType: aws.ToString(in.ContentType),
		body:        string(body),
		metadata:    in.Metadata,
	})
	return &s3.PutObjectOutput{}, nil
}

func writeFiles(t *testing.T) []output.WrittenFile {
	t.Helper()
	dir := t.TempDir()
	var files []output.WrittenFile
	for _, name := range []string{"train.bio", "dev.bio.xz"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("content of "+name), 0644); err != nil {
			t.Fatal(err)
		}
		files = append(files, output.WrittenFile{Path: p, Size: int64(len("content of " + name)), Digest: "d-" + name})
	}
	return files
}

func TestS3Uploader_Upload(t *testing.T) {
	fake := &fakePutter{}
	u := NewS3Uploader(fake, "corpora", "/ner/uk/", "run-7")

	keys, err := u.Upload(context.Background(), writeFiles(t))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "ner/uk/train.bio" || keys[1] != "ner/uk/dev.bio.xz" {
		t.Errorf("keys = %v", keys)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("got %d PutObject calls, want 2", len(fake.calls))
	}

	first := fake.calls[0]
	if first.bucket != "corpora" || first.body != "content of train.bio" {
		t.Errorf("unexpected first call: %+v", first)
	}
	if first.contentType != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", first.contentType)
	}
	if first.metadata["run-id"] != "run-7" || first.metadata["blake3"] != "d-train.bio" {
		t.Errorf("metadata = %v", first.metadata)
	}
	if fake.calls[1].contentType != "application/x-xz" {
		t.Errorf("xz content type = %q", fake.calls[1].contentType)
	}
}

func TestS3Uploader_StopsAtFailure(t *testing.T) {
	fake := &fakePutter{failAt: 2}
	u := NewS3Uploader(fake, "b", "", "r")

	keys, err := u.Upload(context.Background(), writeFiles(t))
	if err == nil {
		t.Fatal("Upload() should fail")
	}
	if len(keys) != 1 || keys[0] != "train.bio" {
		t.Errorf("keys = %v, want only the first upload", keys)
	}
}

func TestS3Uploader_MissingFile(t *testing.T) {
	u := NewS3Uploader(&fakePutter{}, "b", "p", "r")
	_, err := u.Upload(context.Background(), []output.WrittenFile{{Path: filepath.Join(t.TempDir(), "gone.bio")}})
	if err == nil {
		t.Error("Upload() of a missing file should fail")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, file, want string
	}{
		{"", "/out/c/train.bio", "train.bio"},
		{"a/b", "/out/c/train.bio", "a/b/train.bio"},
		{"/a/", "x.bio.gz", "a/x.bio.gz"},
	}
	for _, tt := range tests {
		u := NewS3Uploader(nil, "b", tt.prefix, "")
		if got := u.Key(tt.file); got != tt.want {
			t.Errorf("Key(%q) with prefix %q = %q, want %q", tt.file, tt.prefix, got, tt.want)
		}
	}
}
