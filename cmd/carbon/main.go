// Command carbon benchmarks deep and shallow copies of built-in scenarios and
// loaded fixture graphs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/zoobzio/carbon"
	"github.com/zoobzio/carbon/bench"
	"github.com/zoobzio/carbon/digest"
	"github.com/zoobzio/carbon/fixture"
	"github.com/zoobzio/carbon/fixture/bson"
	"github.com/zoobzio/carbon/fixture/json"
	"github.com/zoobzio/carbon/fixture/msgpack"
	"github.com/zoobzio/carbon/fixture/yaml"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitUsageError   = 2
	ExitVerifyFailed = 3
	DefaultLogLevel  = "info"
	DefaultLogFmt    = "text"
	DefaultRuns      = 1000
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// ErrUnknownFormat indicates a fixture path with no matching codec.
var ErrUnknownFormat = errors.New("unknown fixture format")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return ExitUsageError
	}
	switch args[0] {
	case "bench":
		return runBenchCommand(args[1:], stdout, stderr)
	case "copy":
		return runCopyCommand(args[1:], stdout, stderr)
	case "-version", "--version", "version":
		printVersion(stdout)
		return ExitSuccess
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
	usage(stderr)
	return ExitUsageError
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: carbon <command> [flags...]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  bench    Time the built-in copy scenarios")
	fmt.Fprintln(w, "  copy     Copy a fixture graph loaded from a file")
	fmt.Fprintln(w, "  version  Print version information")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "carbon version %s\n", version)
	fmt.Fprintf(w, "commit: %s\n", commit)
	fmt.Fprintf(w, "built: %s\n", buildDate)
	fmt.Fprintf(w, "go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runBenchCommand(args []string, stdout, stderr io.Writer) int {
	benchFlags := flag.NewFlagSet("bench", flag.ContinueOnError)
	benchFlags.SetOutput(stderr)
	scenario := benchFlags.String("scenario", "all", "Scenario to run ("+strings.Join(bench.Names(), ", ")+", all)")
	runs := benchFlags.Int("n", DefaultRuns, "Number of copies per scenario")
	logLevel := benchFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := benchFlags.String("log-format", DefaultLogFmt, "Log format (text, json)")

	benchFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: carbon bench [flags...]\n\n")
		fmt.Fprintln(stderr, "Times deep copies of the built-in scenarios.")
		fmt.Fprintln(stderr, "\nFlags:")
		benchFlags.PrintDefaults()
	}

	if err := benchFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *logFormat != "text" && *logFormat != "json" {
		fmt.Fprintln(stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}
	if *runs <= 0 {
		fmt.Fprintln(stderr, "Error: -n must be positive")
		return ExitUsageError
	}

	log := newLogger(*logLevel, *logFormat, stderr)

	var scenarios []bench.Scenario
	if *scenario == "all" {
		scenarios = bench.Scenarios()
	} else {
		s, err := bench.Lookup(*scenario)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitUsageError
		}
		scenarios = []bench.Scenario{s}
	}

	runner, err := bench.NewRunner(carbon.New(carbon.WithSignals(false)))
	if err != nil {
		log.Error("Failed to create runner", "error", err)
		return ExitFailure
	}

	for _, s := range scenarios {
		log.Debug("Running scenario", "scenario", s.Name, "n", *runs)
		if err := runner.Run(s, *runs); err != nil {
			log.Error("Scenario failed", "scenario", s.Name, "error", err)
			return ExitFailure
		}
	}

	return report(runner, log, stdout)
}

func runCopyCommand(args []string, stdout, stderr io.Writer) int {
	copyFlags := flag.NewFlagSet("copy", flag.ContinueOnError)
	copyFlags.SetOutput(stderr)
	fixturePath := copyFlags.String("fixture", "", "Path to a .json, .yaml, .msgpack or .bson fixture (required)")
	mode := copyFlags.String("mode", string(carbon.ModeDeep), "Copy mode (deep, shallow)")
	share := copyFlags.Bool("share", true, "Share identical subtrees of the decoded graph before copying")
	verify := copyFlags.Bool("verify", false, "Check the copy's structural digest against the source")
	runs := copyFlags.Int("n", 1, "Number of timed copies")
	logLevel := copyFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := copyFlags.String("log-format", DefaultLogFmt, "Log format (text, json)")

	copyFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: carbon copy -fixture <path> [flags...]\n\n")
		fmt.Fprintln(stderr, "Loads a fixture graph and copies it.")
		fmt.Fprintln(stderr, "\nFlags:")
		copyFlags.PrintDefaults()
	}

	if err := copyFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *fixturePath == "" {
		fmt.Fprintln(stderr, "Error: -fixture flag is required")
		copyFlags.Usage()
		return ExitUsageError
	}
	copyMode := carbon.Mode(*mode)
	if copyMode != carbon.ModeDeep && copyMode != carbon.ModeShallow {
		fmt.Fprintln(stderr, "Error: -mode must be 'deep' or 'shallow'")
		return ExitUsageError
	}
	if *logFormat != "text" && *logFormat != "json" {
		fmt.Fprintln(stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}
	if *runs <= 0 {
		fmt.Fprintln(stderr, "Error: -n must be positive")
		return ExitUsageError
	}

	log := newLogger(*logLevel, *logFormat, stderr)

	codec, err := codecFor(*fixturePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsageError
	}

	graph, err := fixture.Load(codec, *fixturePath)
	if err != nil {
		log.Error("Failed to load fixture", "path", *fixturePath, "error", err)
		return ExitFailure
	}
	if *share {
		var shared int
		graph, shared = fixture.Share(graph)
		log.Debug("Shared identical subtrees", "references", shared)
	}
	log.Info("Loaded fixture", "path", *fixturePath, "content_type", codec.ContentType(), "digest", digest.Sum(graph).Short())

	c := carbon.New(carbon.WithSignals(false))
	if *verify {
		if code := verifyCopy(c, graph, copyMode, log); code != ExitSuccess {
			return code
		}
	}

	runner, err := bench.NewRunner(c)
	if err != nil {
		log.Error("Failed to create runner", "error", err)
		return ExitFailure
	}
	name := strings.TrimSuffix(filepath.Base(*fixturePath), filepath.Ext(*fixturePath))
	if err := runner.Run(bench.FromValue(name, graph, copyMode), *runs); err != nil {
		log.Error("Copy failed", "fixture", name, "error", err)
		return ExitFailure
	}

	return report(runner, log, stdout)
}

// verifyCopy copies graph once and compares structural digests.
func verifyCopy(c *carbon.Copier, graph any, mode carbon.Mode, log *slog.Logger) int {
	var (
		out any
		err error
	)
	if mode == carbon.ModeShallow {
		out, err = c.Copy(graph)
	} else {
		out, err = c.DeepCopy(graph)
	}
	if err != nil {
		log.Error("Copy failed", "error", err)
		return ExitFailure
	}

	want, got := digest.Sum(graph), digest.Sum(out)
	if want != got {
		log.Error("Copy digest mismatch", "source", want.Short(), "copy", got.Short())
		return ExitVerifyFailed
	}
	log.Info("Copy verified", "digest", got.Short(), "mode", string(mode))
	return ExitSuccess
}

// report writes the runner's results as a table.
func report(runner *bench.Runner, log *slog.Logger, stdout io.Writer) int {
	results, err := runner.Results()
	if err != nil {
		log.Error("Failed to read results", "error", err)
		return ExitFailure
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tCOPIES\tTOTAL\tMEAN")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Scenario, r.Count, r.Total, r.Mean)
	}
	if err := tw.Flush(); err != nil {
		log.Error("Failed to write results", "error", err)
		return ExitFailure
	}
	return ExitSuccess
}

// codecFor selects a fixture codec by file extension.
func codecFor(path string) (fixture.Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.New(), nil
	case ".yaml", ".yml":
		return yaml.New(), nil
	case ".msgpack", ".mp":
		return msgpack.New(), nil
	case ".bson":
		return bson.New(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}
