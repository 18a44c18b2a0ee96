// Package convert runs BSF to BEIOS conversion over a corpus directory:
// it discovers document pairs, converts them on a worker pool, writes the
// results and feeds the optional index, metrics and upload sinks.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/bsfbeios/core/beios"
	"github.com/FocuswithJustin/bsfbeios/core/bsf"
	"github.com/FocuswithJustin/bsfbeios/core/errors"
	"github.com/FocuswithJustin/bsfbeios/internal/corpus"
	"github.com/FocuswithJustin/bsfbeios/internal/index"
	"github.com/FocuswithJustin/bsfbeios/internal/logging"
	"github.com/FocuswithJustin/bsfbeios/internal/metrics"
	"github.com/FocuswithJustin/bsfbeios/internal/output"
	"github.com/FocuswithJustin/bsfbeios/internal/split"
	"github.com/FocuswithJustin/bsfbeios/internal/validation"
	"github.com/FocuswithJustin/bsfbeios/internal/workerpool"
)

// DefaultCorpus follows Stanza's corpus naming for the lang-uk NER data.
const DefaultCorpus = "Ukrainian-languk"

// OutputExt is the extension of BEIOS files.
const OutputExt = ".bio"

// Layout selects how converted documents are written.
type Layout string

const (
	// LayoutDocuments writes one <name>.bio per document.
	LayoutDocuments Layout = "documents"
	// LayoutSplits writes train.bio, dev.bio and test.bio.
	LayoutSplits Layout = "splits"
)

// ParseLayout validates a layout name; "" means LayoutDocuments.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutDocuments:
		return LayoutDocuments, nil
	case LayoutSplits:
		return LayoutSplits, nil
	}
	return "", errors.NewUnsupported("layout", s)
}

// Uploader publishes written files.
type Uploader interface {
	Upload(ctx context.Context, files []output.WrittenFile) ([]string, error)
}

// Options configures a Run.
type Options struct {
	SrcDir string
	DstDir string
	Corpus string
	Layout Layout

	Weights  split.Weights
	Strategy split.Strategy
	Seed     uint64

	Workers     int
	Compression output.Compression
	Strict      bool
	Encoder     beios.Encoder

	RunID       string
	IndexPath   string
	MetricsFile string
	Uploader    Uploader
}

// Result is the outcome for one document pair. Digest is the blake3 digest
// of Output.
type Result struct {
	Pair     corpus.Pair
	Split    string
	Output   string
	Tokens   int
	Entities int
	Digest   string
	Err      error
}

// Report summarizes a Run.
type Report struct {
	RunID    string
	OutDir   string
	Results  []Result
	Files    []output.WrittenFile
	Uploaded []string
	Warnings []error
}

// Failed returns the number of documents that could not be converted.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// SplitCounts returns the number of converted documents per dataset.
func (r *Report) SplitCounts() map[string]int {
	counts := make(map[string]int)
	for _, res := range r.Results {
		if res.Err == nil {
			counts[res.Split]++
		}
	}
	return counts
}

type job struct {
	pair  corpus.Pair
	split string
}

func (o *Options) normalize() error {
	if o.Corpus == "" {
		o.Corpus = DefaultCorpus
	}
	if err := validation.ValidateFilename(o.Corpus); err != nil {
		return &errors.ValidationError{Field: "corpus", Message: err.Error(), Err: err}
	}
	if err := validation.ValidatePath(o.DstDir); err != nil {
		return &errors.ValidationError{Field: "dst", Message: err.Error(), Err: err}
	}
	layout, err := ParseLayout(string(o.Layout))
	if err != nil {
		return err
	}
	o.Layout = layout
	if o.Compression, err = output.ParseCompression(string(o.Compression)); err != nil {
		return err
	}
	if o.Weights == (split.Weights{}) {
		o.Weights = split.DefaultWeights
	}
	if o.Strategy == "" {
		o.Strategy = split.StrategyHash
	}
	if o.RunID == "" {
		o.RunID = uuid.New().String()
	}
	return nil
}

// Run converts every document pair in opts.SrcDir. Documents that fail to
// read or validate are reported in their Result and do not stop the run;
// output and sink failures do.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, opts.RunID)
	started := time.Now()
	m := metrics.New()

	report := &Report{
		RunID:  opts.RunID,
		OutDir: filepath.Join(opts.DstDir, opts.Corpus),
	}
	if err := os.MkdirAll(report.OutDir, 0755); err != nil {
		return nil, errors.NewIO("create directory", report.OutDir, err)
	}

	disc, err := corpus.Discover(opts.SrcDir)
	if err != nil {
		return nil, err
	}
	for _, w := range disc.Warnings {
		logging.PairingWarning(ctx, w.Error())
		m.PairingWarningsTotal.Inc()
	}
	report.Warnings = disc.Warnings

	logging.InfoContext(ctx, "run_started", "src", opts.SrcDir, "documents", len(disc.Pairs), "layout", string(opts.Layout))
	if len(disc.Pairs) == 0 {
		return report, writeMetrics(opts, m)
	}

	jobs, err := assign(disc.Pairs, opts)
	if err != nil {
		return nil, err
	}

	report.Results, err = convertAll(ctx, jobs, opts)
	if err != nil {
		return report, err
	}
	for _, res := range report.Results {
		m.ObserveDocument(res.Split, res.Tokens, res.Entities, res.Err)
	}

	if opts.Layout == LayoutSplits {
		report.Files, err = writeSplits(ctx, report.OutDir, report.Results, opts.Compression)
	} else {
		report.Files, err = writeDocuments(ctx, report.OutDir, report.Results, opts.Compression)
	}
	if err != nil {
		return report, err
	}

	if opts.IndexPath != "" {
		if err := recordIndex(ctx, opts, started, report.Results); err != nil {
			return report, err
		}
	}
	if err := writeMetrics(opts, m); err != nil {
		return report, err
	}
	if opts.Uploader != nil {
		report.Uploaded, err = opts.Uploader.Upload(ctx, report.Files)
		if err != nil {
			return report, err
		}
	}

	counts := report.SplitCounts()
	logging.InfoContext(ctx, "run_finished",
		"converted", len(report.Results)-report.Failed(),
		"failed", report.Failed(),
		"train", counts[split.Train],
		"dev", counts[split.Dev],
		"test", counts[split.Test],
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return report, nil
}

// assign fixes each document's dataset before any worker starts, so the
// split does not depend on scheduling.
func assign(pairs []corpus.Pair, opts Options) ([]job, error) {
	jobs := make([]job, len(pairs))
	if opts.Layout != LayoutSplits {
		for i, p := range pairs {
			jobs[i] = job{pair: p}
		}
		return jobs, nil
	}

	splitter, err := split.New(opts.Weights, opts.Strategy, opts.Seed)
	if err != nil {
		return nil, err
	}
	for i, p := range pairs {
		jobs[i] = job{pair: p, split: splitter.Assign(p.Name)}
	}
	return jobs, nil
}

func convertAll(ctx context.Context, jobs []job, opts Options) ([]Result, error) {
	pool := workerpool.New[job, Result](opts.Workers, len(jobs))
	logging.InfoContext(ctx, "conversion_started", "documents", len(jobs), "workers", pool.Workers())
	pool.Start(ctx, func(ctx context.Context, j job) Result {
		return convertOne(ctx, j, opts)
	})

	var submitErr error
	for _, j := range jobs {
		if submitErr = pool.Submit(ctx, j); submitErr != nil {
			break
		}
	}
	pool.Close()

	results := make([]Result, 0, len(jobs))
	for res := range pool.Results() {
		results = append(results, res)
	}
	if submitErr != nil {
		return nil, submitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, k int) bool { return results[i].Pair.Name < results[k].Pair.Name })
	return results, nil
}

func convertOne(ctx context.Context, j job, opts Options) Result {
	res := Result{Pair: j.pair, Split: j.split}

	text, annotation, err := corpus.ReadPair(j.pair)
	if err != nil {
		res.Err = err
		logging.DocumentFailed(ctx, j.pair.Name, err)
		return res
	}

	spans := bsf.Parse(annotation)
	if opts.Strict {
		if err := bsf.Validate(spans, utf8.RuneCountInString(text)); err != nil {
			res.Err = errors.Wrapf(err, "document %s", j.pair.Name)
			logging.DocumentFailed(ctx, j.pair.Name, err)
			return res
		}
	}

	doc := opts.Encoder.EncodeDocument(text, spans)
	res.Output = doc.Text
	res.Tokens = doc.Tokens
	res.Entities = doc.Entities
	res.Digest = output.Digest([]byte(doc.Text))
	logging.DocumentConverted(ctx, j.pair.Name, j.split, doc.Tokens, doc.Entities)
	return res
}

func writeDocuments(ctx context.Context, dir string, results []Result, c output.Compression) ([]output.WrittenFile, error) {
	var files []output.WrittenFile
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		wf, err := output.WriteFile(filepath.Join(dir, res.Pair.Name+OutputExt), []byte(res.Output), c)
		if err != nil {
			return files, err
		}
		logging.FileWritten(ctx, wf.Path, wf.Size, wf.Digest)
		files = append(files, wf)
	}
	return files, nil
}

// writeSplits writes every dataset file, even empty ones, joining
// documents with a single newline.
func writeSplits(ctx context.Context, dir string, results []Result, c output.Compression) ([]output.WrittenFile, error) {
	grouped := make(map[string][]string)
	for _, res := range results {
		if res.Err == nil {
			grouped[res.Split] = append(grouped[res.Split], res.Output)
		}
	}

	files := make([]output.WrittenFile, 0, len(split.Names))
	for _, name := range split.Names {
		data := strings.Join(grouped[name], "\n")
		wf, err := output.WriteFile(filepath.Join(dir, name+OutputExt), []byte(data), c)
		if err != nil {
			return files, err
		}
		logging.FileWritten(ctx, wf.Path, wf.Size, wf.Digest, "split", name, "documents", len(grouped[name]))
		files = append(files, wf)
	}
	return files, nil
}

func recordIndex(ctx context.Context, opts Options, started time.Time, results []Result) error {
	ix, err := index.Open(opts.IndexPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := ix.RecordRun(ctx, index.Run{
		ID:        opts.RunID,
		Corpus:    opts.Corpus,
		Layout:    string(opts.Layout),
		StartedAt: started,
	}); err != nil {
		return err
	}

	docs := make([]index.Document, len(results))
	for i, res := range results {
		docs[i] = index.Document{
			RunID:    opts.RunID,
			Name:     res.Pair.Name,
			Split:    res.Split,
			Tokens:   res.Tokens,
			Entities: res.Entities,
			Digest:   res.Digest,
		}
		if res.Err != nil {
			docs[i].Error = res.Err.Error()
		}
	}
	return ix.RecordDocuments(ctx, docs)
}

func writeMetrics(opts Options, m *metrics.Metrics) error {
	if opts.MetricsFile == "" {
		return nil
	}
	return m.WriteTextfile(opts.MetricsFile)
}
