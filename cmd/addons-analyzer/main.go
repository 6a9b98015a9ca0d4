package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/camptocamp/odoo-addons-analyzer/internal/analyze"
	"github.com/camptocamp/odoo-addons-analyzer/internal/config"
	"github.com/camptocamp/odoo-addons-analyzer/internal/report"
	"github.com/camptocamp/odoo-addons-analyzer/internal/scan"
	"github.com/camptocamp/odoo-addons-analyzer/internal/server"
	"github.com/camptocamp/odoo-addons-analyzer/internal/shared"
	"github.com/camptocamp/odoo-addons-analyzer/internal/watch"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalysisWithDaemon("analyze")
	case "modules":
		runAnalysisWithDaemon("modules")
	case "models":
		runAnalysisWithDaemon("models")
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "status":
		runStatus()
	case "version":
		fmt.Printf("addons-analyzer v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `addons-analyzer - Odoo addons repository analyzer

Usage:
  addons-analyzer <command> [flags] [path]

Commands:
  analyze       Analyze an addons repository (code counts, manifests, models)
  modules       List addon modules with manifest metadata
  models        List Odoo model declarations per module
  watch         Reanalyze on file changes
  serve         Run the analysis daemon for warm-cache responses
  status        Check daemon status
  version       Print version information
  help          Show this help message

Examples:
  addons-analyzer analyze ~/src/odoo-addons
  addons-analyzer analyze --format json --languages Python,XML .
  addons-analyzer models --format yaml ~/src/odoo-addons
  addons-analyzer watch --format table ~/src/odoo-addons
`)
}

// analysisFlags holds the flags shared by analyze, modules and models.
type analysisFlags struct {
	path      string
	format    string
	languages []string
	recursive bool
	noCache   bool
	noServer  bool
	timeout   int
}

func parseAnalysisFlags(name string, cfg *config.Config, args []string) *analysisFlags {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	format := fs.StringP("format", "f", cfg.Output.Format, "output format: json, yaml or table")
	languages := fs.StringSlice("languages", cfg.Analysis.Languages, "language buckets for code counts")
	recursive := fs.BoolP("recursive", "r", cfg.Analysis.Recursive, "discover modules in nested directories")
	noCache := fs.Bool("no-cache", false, "bypass the report cache")
	noServer := fs.Bool("no-server", false, "analyze in-process without contacting the daemon")
	timeout := fs.Int("timeout", 0, "analysis timeout in seconds")
	fs.Parse(args)

	if _, err := report.ParseFormat(*format); err != nil {
		fatal(err)
	}

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fatal(fmt.Errorf("resolve path %s: %w", path, err))
	}

	return &analysisFlags{
		path:      abs,
		format:    *format,
		languages: *languages,
		recursive: *recursive,
		noCache:   *noCache,
		noServer:  *noServer,
		timeout:   *timeout,
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	return cfg
}

// runnerDeps assembles the analyzer stack from the configuration.
func runnerDeps(cfg *config.Config, flags *analysisFlags) server.RunnerDeps {
	fsys := afero.NewOsFs()

	files, err := analyze.NewFileCache(cfg.Cache.FileEntries)
	if err != nil {
		fatal(err)
	}

	var reports *analyze.ReportCache
	if !flags.noCache {
		reports = analyze.NewReportCache(fsys, cfg.CacheDir(), cfg.Cache.TTL)
	}

	return server.RunnerDeps{
		Fs: fsys,
		Config: analyze.Config{
			Languages: cfg.Analysis.Languages,
			Scan: scan.Options{
				Recursive:   cfg.Analysis.Recursive,
				ExcludeDirs: cfg.Analysis.ExcludeDirs,
			},
		},
		Files:   files,
		Reports: reports,
	}
}

func newRunner(method string, deps server.RunnerDeps) server.Runner {
	switch method {
	case "modules":
		return server.NewModulesRunner(deps)
	case "models":
		return server.NewModelsRunner(deps)
	default:
		return server.NewAnalyzeRunner(deps)
	}
}

// runAnalysisWithDaemon prefers the daemon's warm caches and falls back to
// analyzing in-process.
func runAnalysisWithDaemon(method string) {
	cfg := loadConfig()
	flags := parseAnalysisFlags(method, cfg, os.Args[2:])

	params := server.MethodParams{
		Path:      flags.path,
		Format:    flags.format,
		Languages: flags.languages,
		Recursive: flags.recursive,
		Timeout:   flags.timeout,
	}

	direct := func() (string, error) {
		runner := newRunner(method, runnerDeps(cfg, flags))
		return runner.Run(context.Background(), params)
	}

	var out string
	var err error
	if flags.noServer {
		out, err = direct()
	} else {
		out, err = server.TryCallWithFallback(method, params, direct)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Print(out)
}

func runWatch() {
	cfg := loadConfig()
	flags := parseAnalysisFlags("watch", cfg, os.Args[2:])

	params := server.MethodParams{
		Path:      flags.path,
		Format:    flags.format,
		Languages: flags.languages,
		Recursive: flags.recursive,
	}

	deps := runnerDeps(cfg, flags)
	runner := newRunner("analyze", deps)
	logger := server.NewStandardLogger()

	rerun := func() {
		if deps.Reports != nil {
			deps.Reports.Invalidate(flags.path)
		}
		out, err := runner.Run(context.Background(), params)
		if err != nil {
			fmt.Fprintln(os.Stderr, shared.ErrorStyle.Render("analysis failed: "+err.Error()))
			return
		}
		fmt.Print(out)
	}

	// Initial run before waiting for changes.
	rerun()

	w, err := watch.New(deps.Fs, flags.path, watch.Options{
		Debounce:    cfg.Watch.Debounce,
		ExcludeDirs: cfg.Analysis.ExcludeDirs,
	}, logger, func(paths []string) {
		fmt.Fprintln(os.Stderr, shared.InfoStyle.Render(fmt.Sprintf("%d paths changed, reanalyzing", len(paths))))
		rerun()
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		fatal(err)
	}
}

func runServe() {
	cfg := loadConfig()

	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	socketPath := fs.String("socket", defaultSocket(cfg), "unix socket path")
	verbose := fs.Bool("verbose", false, "verbose logging")
	fs.Parse(os.Args[2:])

	logger := server.NewStandardLogger()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	flags := &analysisFlags{}
	runnerCommon := runnerDeps(cfg, flags)

	deps := &server.Dependencies{
		Analyze:     server.NewAnalyzeRunner(runnerCommon),
		Modules:     server.NewModulesRunner(runnerCommon),
		Models:      server.NewModelsRunner(runnerCommon),
		LockManager: server.NewSimpleLockManager(),
		Logger:      logger,
	}

	srv := server.New(*socketPath, deps)

	logger.Printf("Starting daemon on %s", *socketPath)
	if err := srv.Run(); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}
}

func runStatus() {
	cfg := loadConfig()
	socketPath := defaultSocket(cfg)

	// Check if socket exists
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		fmt.Printf("Daemon: NOT RUNNING\nSocket: %s (not found)\n", socketPath)
		os.Exit(1)
	}

	// Try to connect and get stats
	client := server.NewClient(socketPath)
	stats, meta, err := client.Call("stats", server.MethodParams{})
	if err != nil {
		fmt.Printf("Daemon: ERROR\nSocket: %s\nError: %v\n", socketPath, err)
		os.Exit(1)
	}

	if len(meta) > 0 {
		fmt.Print(report.NewListRenderer().Stats("Daemon Stats", meta))
		return
	}
	fmt.Println(stats)
}

func defaultSocket(cfg *config.Config) string {
	if env := os.Getenv("ADDONS_ANALYZER_SOCKET"); env != "" {
		return env
	}
	if cfg.Server.Socket != "" {
		return cfg.Server.Socket
	}
	return server.DefaultSocketPath()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, shared.ErrorStyle.Render("Error: "+err.Error()))
	os.Exit(1)
}
