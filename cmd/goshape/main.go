package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/jsonschema"
	"github.com/reoring/goshape/source"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "validate":
		return validateCmd(ctx, args[1:], stdout, stderr)
	case "schema":
		return schemaCmd(args[1:], stdout, stderr)
	default:
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "goshape CLI\n\nUsage:\n  goshape validate -schema schema.json [-early] [-json] [-strict] [-jobs N] [-v] FILE...\n  goshape schema FILE\n\nNotes:\n  - Schemas are JSON Schema documents in JSON or YAML.\n  - validate exits 1 when a file is invalid and 2 on usage or read errors.")
}

// fileReport is the result for one validated document.
type fileReport struct {
	File   string        `json:"file"`
	Valid  bool          `json:"valid"`
	Issues []issueReport `json:"issues,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type issueReport struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func validateCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		schemaPath string
		early      bool
		asJSON     bool
		strict     bool
		verbose    bool
		jobs       int
	)
	fs.StringVar(&schemaPath, "schema", "", "JSON Schema file (.json, .yaml or .yml)")
	fs.BoolVar(&early, "early", false, "stop at the first issue of each file")
	fs.BoolVar(&asJSON, "json", false, "print the report as JSON")
	fs.BoolVar(&strict, "strict", false, "reject documents with duplicate keys")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	fs.IntVar(&jobs, "jobs", runtime.NumCPU(), "files validated concurrently")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if schemaPath == "" || fs.NArg() == 0 || jobs < 1 {
		fs.Usage()
		return exitUsage
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	shape, err := loadSchema(schemaPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	opt := goshape.ParseOpt{EarlyReturn: early, Logger: logger, Source: source.Options{Strict: strict}}

	files := fs.Args()
	reports := make([]fileReport, len(files))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, f := range files {
		g.Go(func() error {
			reports[i] = validateFile(ctx, shape, f, opt)
			logger.Debug("validated", "file", f, "valid", reports[i].Valid)
			return nil
		})
	}
	_ = g.Wait()

	if err := writeReports(stdout, reports, asJSON); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	code := exitOK
	for _, r := range reports {
		switch {
		case r.Error != "":
			return exitUsage
		case !r.Valid:
			code = exitInvalid
		}
	}
	return code
}

func loadSchema(path string) (goshape.Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return jsonschema.CompileYAML(data)
	}
	return jsonschema.CompileJSON(data)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func validateFile(ctx context.Context, s goshape.Shape, path string, opt goshape.ParseOpt) fileReport {
	rep := fileReport{File: path}
	data, err := os.ReadFile(path)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	if isYAML(path) {
		_, err = goshape.ParseYAML(ctx, s, data, opt)
	} else {
		_, err = goshape.ParseJSON(ctx, s, data, opt)
	}
	if err == nil {
		rep.Valid = true
		return rep
	}
	iss, ok := goshape.AsIssues(err)
	if !ok {
		rep.Error = err.Error()
		return rep
	}
	for _, it := range iss {
		rep.Issues = append(rep.Issues, issueReport{Path: it.Pointer(), Code: it.Code, Message: it.Message})
	}
	return rep
}

func writeReports(w io.Writer, reports []fileReport, asJSON bool) error {
	if asJSON {
		b, err := source.Marshal(reports, "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	for _, r := range reports {
		var err error
		switch {
		case r.Error != "":
			_, err = fmt.Fprintf(w, "%s: error: %s\n", r.File, r.Error)
		case r.Valid:
			_, err = fmt.Fprintf(w, "%s: ok\n", r.File)
		default:
			_, err = fmt.Fprintf(w, "%s: invalid\n", r.File)
			for _, it := range r.Issues {
				if err != nil {
					break
				}
				_, err = fmt.Fprintf(w, "  %s: %s: %s\n", it.Path, it.Code, it.Message)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// schemaCmd compiles a schema and prints its normalized form.
func schemaCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	shape, err := loadSchema(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, jsonschema.ErrInvalidSchema) {
			return exitInvalid
		}
		return exitUsage
	}
	sc, err := jsonschema.Export(shape)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	b, err := sc.MarshalIndent()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	fmt.Fprintf(stdout, "%s\n", b)
	return exitOK
}
