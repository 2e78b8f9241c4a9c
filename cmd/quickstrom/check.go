package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quickstrom/quickstrom-go/internal/clientscripts"
	"github.com/quickstrom/quickstrom-go/internal/config"
	errs "github.com/quickstrom/quickstrom-go/internal/errors"
	"github.com/quickstrom/quickstrom-go/internal/history"
	"github.com/quickstrom/quickstrom-go/internal/interpreter"
	"github.com/quickstrom/quickstrom-go/internal/log"
	"github.com/quickstrom/quickstrom-go/internal/metrics"
	"github.com/quickstrom/quickstrom-go/internal/process"
	"github.com/quickstrom/quickstrom-go/internal/reporter"
	"github.com/quickstrom/quickstrom-go/internal/screenshots"
	"github.com/quickstrom/quickstrom-go/internal/session"
	"github.com/quickstrom/quickstrom-go/internal/trace"
	"github.com/quickstrom/quickstrom-go/internal/tracing"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check MODULE ORIGIN",
		Short: "Run a property-based check of ORIGIN against the specification in MODULE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCheck(cmd, args[0], args[1])
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("browser", "B", "firefox", "browser to drive: chrome or firefox")
	flags.StringSliceP("include", "I", nil, "module search path (repeatable)")
	flags.BoolP("capture-screenshots", "S", false, "capture a screenshot at every observed state")
	flags.StringSlice("reporter", []string{"console"}, "reporter to run: console, json, html (repeatable)")
	flags.String("json-report-file", "", "write a combined JSON report to this path")
	flags.String("json-report-files-directory", "", "write one JSON file per result into this directory")
	flags.String("html-report-directory", "", "write results.json for the HTML viewer into this directory")
	flags.StringSlice("cookie", nil, `cookie as "DOMAIN NAME VALUE" (repeatable)`)
	flags.String("log-level", "info", "quiet, info, or verbose")
	flags.String("color", "auto", "auto, always, or no")
	flags.String("client-side-directory", "", "directory holding the three browser-side scripts (or set QUICKSTROM_CLIENT_SIDE_DIRECTORY)")
	flags.String("html-assets-directory", "", "static assets for the HTML reporter (or set QUICKSTROM_HTML_REPORT_DIRECTORY)")
	flags.String("interpreter", "quickstrom-interpreter", "interpreter executable to run")
	flags.String("interpreter-log", "", "path to capture the interpreter's stderr")
	flags.String("metrics-addr", "", "serve Prometheus /metrics on this address for the run's duration")
	flags.String("screenshot-s3-bucket", "", "persist screenshots to this S3 bucket instead of the in-memory store")
	flags.String("history-db", "", "append completed results to this SQLite file")

	return cmd
}

// runCheck never returns: every path terminates the process with the exit
// code spec §6 assigns to its outcome.
func runCheck(cmd *cobra.Command, module, origin string) {
	cfg, err := config.Load(cmd.Flags(), module, origin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}

	log.Setup(log.ParseLevel(cfg.LogLevel))

	rec := metrics.New()
	shutdownMetrics, err := rec.Serve(cfg.MetricsAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}
	defer shutdownMetrics()

	store, err := buildScreenshotStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}

	scripts, err := clientscripts.Load(cfg.ClientSideDirectory)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}

	proc, err := interpreter.Start(interpreter.Options{
		Path:         cfg.InterpreterPath,
		Module:       cfg.Module,
		Origin:       cfg.Origin,
		IncludePaths: cfg.IncludePaths,
		LogPath:      cfg.InterpreterLog,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}

	cancelInterrupt := process.OnInterrupt(func() {
		proc.Kill()
	})
	defer cancelInterrupt()

	engine := session.New(cfg, scripts, store, rec, tracing.New())
	rawResults, execErr := engine.Execute(proc)

	exitCode, waitErr := proc.Wait()
	if waitErr == nil && exitCode != 0 {
		// A nonzero subprocess exit always means InterpreterFailed, even if
		// Execute itself surfaced a ProtocolError reading the closed pipe.
		execErr = &errs.InterpreterFailed{ExitCode: exitCode, LogPath: cfg.InterpreterLog}
	}

	if execErr != nil {
		fmt.Fprintln(os.Stderr, execErr)
		os.Exit(exitCodeFor(execErr))
	}

	results, err := trace.FromDone(rawResults)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}

	recordHistory(cfg, results)

	if err := runReporters(cfg, results); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitEngineOrUsage)
	}

	os.Exit(finalExitCode(results))
}

func buildScreenshotStore(cfg config.CheckConfig) (screenshots.Store, error) {
	if cfg.ScreenshotS3Bucket == "" {
		return screenshots.NewMemoryStore(), nil
	}
	return screenshots.NewS3Store(context.Background(), cfg.ScreenshotS3Bucket, cfg.Module)
}

func recordHistory(cfg config.CheckConfig, results []trace.Result) {
	if cfg.HistoryDB == "" {
		return
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.L().Sugar().Warnw("history store unavailable", "error", err)
		return
	}
	defer store.Close()
	store.Record(cfg.Module, cfg.Origin, cfg.Browser, results)
}

func runReporters(cfg config.CheckConfig, results []trace.Result) error {
	for _, name := range cfg.Reporters {
		var err error
		switch name {
		case "console":
			err = reporter.NewConsole(os.Stdout, cfg.Color).Report(results)
		case "json":
			err = reporter.NewJSON(cfg.JSONReportFile, cfg.JSONReportFilesDir).Report(results)
		case "html":
			err = reporter.NewHTML(cfg.HTMLReportDir, cfg.HTMLAssetsDirectory).Report(results)
		default:
			err = &errs.UsageError{Detail: fmt.Sprintf("unknown reporter %q", name)}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func finalExitCode(results []trace.Result) int {
	for _, r := range results {
		if r.Kind != trace.KindPassed {
			return exitTestFailed
		}
	}
	return exitOK
}

