// Command bsfbeios converts BSF-annotated corpora to BEIOS token-per-line
// files for NER training.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/bsfbeios/core/beios"
	"github.com/FocuswithJustin/bsfbeios/core/bsf"
	"github.com/FocuswithJustin/bsfbeios/core/errors"
	"github.com/FocuswithJustin/bsfbeios/internal/convert"
	"github.com/FocuswithJustin/bsfbeios/internal/corpus"
	"github.com/FocuswithJustin/bsfbeios/internal/index"
	"github.com/FocuswithJustin/bsfbeios/internal/logging"
	"github.com/FocuswithJustin/bsfbeios/internal/output"
	"github.com/FocuswithJustin/bsfbeios/internal/split"
	"github.com/FocuswithJustin/bsfbeios/internal/sqlite"
	"github.com/FocuswithJustin/bsfbeios/internal/upload"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Config    kong.ConfigFlag `help:"JSON configuration file"`
	LogLevel  string          `name:"log-level" default:"info" enum:"debug,info,warn,error" env:"BSFBEIOS_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	LogFormat string          `name:"log-format" default:"text" enum:"text,json" env:"BSFBEIOS_LOG_FORMAT" help:"Log format (text, json)"`
}

// CLI defines the command-line interface for bsfbeios.
type CLI struct {
	Globals

	Convert ConvertCmd `cmd:"" help:"Convert a corpus directory of .tok.txt/.tok.ann pairs"`
	File    FileCmd    `cmd:"" help:"Convert a single token/annotation pair"`
	Spans   SpansCmd   `cmd:"" help:"Print the spans parsed from a BSF annotation file"`
	Runs    RunsCmd    `cmd:"" help:"List runs recorded in a SQLite index"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts a whole corpus directory.
type ConvertCmd struct {
	Src    string `name:"src" required:"" type:"existingdir" env:"BSFBEIOS_SRC" help:"Directory with .tok.txt and .tok.ann files"`
	Dst    string `name:"dst" required:"" type:"path" env:"BSFBEIOS_DST" help:"Output directory"`
	Corpus string `name:"corpus" default:"Ukrainian-languk" env:"BSFBEIOS_CORPUS" help:"Corpus folder name under --dst"`
	Layout string `name:"layout" default:"documents" enum:"documents,splits" env:"BSFBEIOS_LAYOUT" help:"One file per document, or train/dev/test files"`

	Weights       string `name:"weights" default:"8,1,1" env:"BSFBEIOS_WEIGHTS" help:"train,dev,test weights for --layout=splits"`
	SplitStrategy string `name:"split-strategy" default:"hash" enum:"hash,random" env:"BSFBEIOS_SPLIT_STRATEGY" help:"Split assignment strategy"`
	Seed          uint64 `name:"seed" default:"0" env:"BSFBEIOS_SEED" help:"Seed for split assignment"`

	Workers     int    `name:"workers" short:"w" default:"0" env:"BSFBEIOS_WORKERS" help:"Number of workers (0 = NumCPU)"`
	Compress    string `name:"compress" default:"none" enum:"none,xz,gzip" env:"BSFBEIOS_COMPRESS" help:"Output compression"`
	Strict      bool   `name:"strict" env:"BSFBEIOS_STRICT" help:"Reject documents with out-of-range or overlapping spans"`
	FixTrailing bool   `name:"fix-trailing" env:"BSFBEIOS_FIX_TRAILING" help:"Keep a single trailing character after the last span"`

	Index       string `name:"index" type:"path" env:"BSFBEIOS_INDEX" help:"SQLite index database to record the run in"`
	MetricsFile string `name:"metrics-file" type:"path" env:"BSFBEIOS_METRICS_FILE" help:"Write Prometheus textfile metrics to this path"`

	S3Bucket   string `name:"s3-bucket" env:"BSFBEIOS_S3_BUCKET" help:"Upload written files to this bucket"`
	S3Prefix   string `name:"s3-prefix" env:"BSFBEIOS_S3_PREFIX" help:"Key prefix for uploads"`
	S3Region   string `name:"s3-region" env:"BSFBEIOS_S3_REGION" help:"S3 region"`
	S3Endpoint string `name:"s3-endpoint" env:"BSFBEIOS_S3_ENDPOINT" help:"S3-compatible endpoint (path-style)"`
}

func (c *ConvertCmd) options(ctx context.Context) (convert.Options, error) {
	weights, err := split.ParseWeights(c.Weights)
	if err != nil {
		return convert.Options{}, err
	}
	strategy, err := split.ParseStrategy(c.SplitStrategy)
	if err != nil {
		return convert.Options{}, err
	}
	layout, err := convert.ParseLayout(c.Layout)
	if err != nil {
		return convert.Options{}, err
	}
	compression, err := output.ParseCompression(c.Compress)
	if err != nil {
		return convert.Options{}, err
	}

	opts := convert.Options{
		SrcDir:      c.Src,
		DstDir:      c.Dst,
		Corpus:      c.Corpus,
		Layout:      layout,
		Weights:     weights,
		Strategy:    strategy,
		Seed:        c.Seed,
		Workers:     c.Workers,
		Compression: compression,
		Strict:      c.Strict,
		Encoder:     beios.Encoder{FixTrailingBoundary: c.FixTrailing},
		RunID:       uuid.New().String(),
		IndexPath:   c.Index,
		MetricsFile: c.MetricsFile,
	}

	if c.S3Bucket != "" {
		client, err := upload.NewS3Client(ctx, upload.Config{Region: c.S3Region, Endpoint: c.S3Endpoint})
		if err != nil {
			return convert.Options{}, err
		}
		opts.Uploader = upload.NewS3Uploader(client, c.S3Bucket, c.S3Prefix, opts.RunID)
	}
	return opts, nil
}

func (c *ConvertCmd) Run(out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := c.options(ctx)
	if err != nil {
		return err
	}

	report, err := convert.Run(ctx, opts)
	if err != nil {
		return err
	}

	converted := len(report.Results) - report.Failed()
	fmt.Fprintf(out, "Run: %s\n", report.RunID)
	fmt.Fprintf(out, "Output: %s\n", report.OutDir)
	fmt.Fprintf(out, "  Converted: %d\n", converted)
	fmt.Fprintf(out, "  Failed: %d\n", report.Failed())
	fmt.Fprintf(out, "  Warnings: %d\n", len(report.Warnings))
	if opts.Layout == convert.LayoutSplits {
		counts := report.SplitCounts()
		for _, name := range split.Names {
			fmt.Fprintf(out, "  %s: %d\n", name, counts[name])
		}
	}
	for _, f := range report.Files {
		fmt.Fprintf(out, "  %s  %s\n", f.Digest, filepath.Base(f.Path))
	}
	for _, key := range report.Uploaded {
		fmt.Fprintf(out, "  uploaded %s\n", key)
	}

	if c.Strict && report.Failed() > 0 {
		return fmt.Errorf("%d of %d documents failed validation", report.Failed(), len(report.Results))
	}
	return nil
}

// FileCmd converts one pair outside any corpus layout.
type FileCmd struct {
	Tokens      string `arg:"" type:"existingfile" help:"Tokenized text (.tok.txt)"`
	Annotations string `arg:"" type:"existingfile" help:"BSF annotations (.tok.ann)"`
	Out         string `name:"out" short:"o" type:"path" help:"Output file (default: stdout)"`
	Strict      bool   `name:"strict" help:"Reject out-of-range or overlapping spans"`
	FixTrailing bool   `name:"fix-trailing" help:"Keep a single trailing character after the last span"`
}

func (c *FileCmd) Run(out io.Writer) error {
	text, annotation, err := corpus.ReadPair(corpus.Pair{
		Name:           filepath.Base(c.Tokens),
		TokenPath:      c.Tokens,
		AnnotationPath: c.Annotations,
	})
	if err != nil {
		return err
	}

	spans := bsf.Parse(annotation)
	if c.Strict {
		if err := bsf.Validate(spans, utf8.RuneCountInString(text)); err != nil {
			return err
		}
	}

	doc := beios.Encoder{FixTrailingBoundary: c.FixTrailing}.EncodeDocument(text, spans)
	if c.Out == "" {
		if doc.Text == "" {
			return nil
		}
		_, err := io.WriteString(out, doc.Text+"\n")
		return err
	}

	wf, err := output.WriteFile(c.Out, []byte(doc.Text), output.None)
	if err != nil {
		return err
	}
	logging.FileWritten(context.Background(), wf.Path, wf.Size, wf.Digest, "tokens", doc.Tokens, "entities", doc.Entities)
	return nil
}

// SpansCmd prints parsed spans, one per line or as JSON.
type SpansCmd struct {
	Annotations string `arg:"" type:"existingfile" help:"BSF annotations (.tok.ann)"`
	JSON        bool   `name:"json" help:"Output as JSON"`
}

func (c *SpansCmd) Run(out io.Writer) error {
	data, err := os.ReadFile(c.Annotations)
	if err != nil {
		return errors.NewIO("read", c.Annotations, err)
	}

	spans := bsf.Parse(string(data))
	if c.JSON {
		if spans == nil {
			spans = []bsf.Span{}
		}
		return writeJSON(out, spans)
	}

	for _, s := range spans {
		fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%q\n", s.ID, s.Tag, s.Start, s.End, s.Token)
	}
	return nil
}

// RunsCmd lists runs in an index, or the documents of one run.
type RunsCmd struct {
	Index string `arg:"" type:"existingfile" help:"SQLite index database"`
	RunID string `name:"run" help:"Show the documents of this run"`
	JSON  bool   `name:"json" help:"Output as JSON"`
}

func (c *RunsCmd) Run(out io.Writer) error {
	ix, err := index.Open(c.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	ctx := context.Background()
	if c.RunID == "" {
		runs, err := ix.Runs(ctx)
		if err != nil {
			return err
		}
		if c.JSON {
			return writeJSON(out, runs)
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Corpus, r.Layout)
		}
		return nil
	}

	docs, err := ix.Documents(ctx, c.RunID)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(out, docs)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents recorded for run %s", c.RunID)
	}
	for _, d := range docs {
		status := "ok"
		if d.Error != "" {
			status = d.Error
		}
		fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%s\n", d.Name, d.Split, d.Tokens, d.Entities, status)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(out, "bsfbeios version %s\n", version)
	fmt.Fprintf(out, "  SQLite driver: %s (%s, cgo=%v)\n", info.DriverName, info.Package, info.IsCGO)
	return nil
}

func initLogging(g *Globals) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bsfbeios"),
		kong.Description("BSF to BEIOS converter for NER corpora"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "/etc/bsfbeios.json", "~/.config/bsfbeios.json"),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)
	ctx.FatalIfErrorf(initLogging(&cli.Globals))
	err := ctx.Run()
	if err != nil {
		logging.Error("command_failed", "command", ctx.Command(), "error", err.Error())
	}
	ctx.FatalIfErrorf(err)
}
