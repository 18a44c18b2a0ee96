package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDocument(t *testing.T) {
	m := New()
	m.ObserveDocument("train", 100, 7, nil)
	m.ObserveDocument("train", 50, 3, nil)
	m.ObserveDocument("dev", 10, 1, nil)
	m.ObserveDocument("train", 999, 999, errors.New("unreadable"))

	if got := testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("train", StatusOK)); got != 2 {
		t.Errorf("train ok documents = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("train", StatusFailed)); got != 1 {
		t.Errorf("train failed documents = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TokensTotal.WithLabelValues("train")); got != 150 {
		t.Errorf("train tokens = %v, want 150", got)
	}
	if got := testutil.ToFloat64(m.EntitiesTotal.WithLabelValues("dev")); got != 1 {
		t.Errorf("dev entities = %v, want 1", got)
	}
}

func TestPairingWarnings(t *testing.T) {
	m := New()
	m.PairingWarningsTotal.Add(3)
	if got := testutil.ToFloat64(m.PairingWarningsTotal); got != 3 {
		t.Errorf("pairing warnings = %v, want 3", got)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveDocument("", 1, 1, nil)
	if got := testutil.ToFloat64(b.DocumentsTotal.WithLabelValues("", StatusOK)); got != 0 {
		t.Errorf("second Metrics saw %v documents, want 0", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveDocument("test", 5, 2, nil)
	m.PairingWarningsTotal.Inc()

	path := filepath.Join(t.TempDir(), "bsfbeios.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`bsfbeios_documents_total{split="test",status="ok"} 1`,
		`bsfbeios_tokens_total{split="test"} 5`,
		`bsfbeios_entities_total{split="test"} 2`,
		`bsfbeios_pairing_warnings_total 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m := New()
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("WriteTextfile() into a missing directory should fail")
	}
}
