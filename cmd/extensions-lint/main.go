package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/extensions/pkg/async"
	"github.com/platinummonkey/extensions/pkg/config"
	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/httputil"
	"github.com/platinummonkey/extensions/pkg/linter"
	"github.com/platinummonkey/extensions/pkg/observability"
	"github.com/platinummonkey/extensions/pkg/plugins"
)

const version = "1.0.0"

// Options holds the command line configuration
type Options struct {
	Dirs        []string
	LogLevel    string
	DevMode     bool
	Watch       bool
	MetricsAddr string
	JSON        bool
	LintConfig  string
}

// extensions-lint checks plugin manifests under one or more plugin directories.
// Each directory holds one subdirectory per plugin containing plugin.yaml.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	opts := parseFlags(cfg)
	if len(opts.Dirs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: extensions-lint [flags] <plugins-dir>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := setupLogger(opts.LogLevel)
	counter := &errorCounter{}
	logger.AddHook(counter)
	log := observability.NewLogrusLogger(logger)

	lintConfig, err := loadLintConfig(opts.LintConfig)
	if err != nil {
		log.Error("Failed to load lint configuration", "error", err)
		os.Exit(2)
	}
	engine := newLintEngine(lintConfig)

	if opts.Watch {
		if err := watch(cfg, opts, engine, log); err != nil {
			log.Error("Watch mode failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	otelMetrics, err := observability.NewOTelMetrics()
	if err != nil {
		log.Warning("Failed to create manifest metrics", "error", err)
	}

	manifests, loadProblems := collectManifests(ctx, opts.Dirs, log)
	source := plugins.NewCachedSource(dirsFetcher(opts.Dirs), cfg.Plugins.CacheSize, cfg.Plugins.CacheTTL,
		plugins.WithCacheMetrics(otelMetrics))

	regs := extensions.NewRegistries(extensions.Options{
		Logger:    log,
		DevMode:   opts.DevMode,
		Manifests: source,
	})
	if err := dryRun(ctx, regs, manifests); err != nil {
		log.Error("Registration dry run failed", "error", err)
		os.Exit(1)
	}

	report := buildReport(engine, manifests, loadProblems)
	if err := printReport(os.Stdout, report, opts.JSON); err != nil {
		log.Error("Failed to write report", "error", err)
		os.Exit(1)
	}

	if report.Summary.Errors > 0 || counter.count > 0 {
		os.Exit(1)
	}
}

func parseFlags(cfg *config.Config) Options {
	opts := Options{}

	flag.StringVar(&opts.LogLevel, "log-level", cfg.Observability.LogLevel.String(), "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.DevMode, "dev", cfg.Registry.DevMode, "Cross-check registrations against plugin manifests")
	flag.BoolVar(&opts.Watch, "watch", cfg.Plugins.WatchManifest, "Keep running and re-lint when manifests change")
	flag.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address in watch mode")
	flag.BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	flag.StringVar(&opts.LintConfig, "config", "", "Lint rule configuration file (default: extensions-lint.yaml in the working directory)")

	flag.Parse()

	opts.Dirs = flag.Args()
	if len(opts.Dirs) == 0 {
		opts.Dirs = cfg.Plugins.Dirs
	}
	return opts
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// collectManifests reads every plugin.yaml without dropping invalid ones, so
// structural errors reach the lint rules. Unreadable manifests are reported
// under their directory name.
func collectManifests(ctx context.Context, dirs []string, log observability.Logger) ([]*plugins.Manifest, []linter.LintResult) {
	var manifests []*plugins.Manifest
	var problems []linter.LintResult
	seen := make(map[string]string)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warning("Failed to read plugin directory", "dir", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				return manifests, problems
			}
			if !entry.IsDir() {
				continue
			}

			pluginDir := filepath.Join(dir, entry.Name())
			m, err := plugins.LoadManifestFromDir(pluginDir)
			if errors.Is(err, os.ErrNotExist) {
				log.Debug("Skipping directory without manifest", "dir", pluginDir)
				continue
			}
			if err != nil {
				problems = append(problems, loadProblem(entry.Name(), plugins.ManifestFileName, err.Error()))
				continue
			}

			if prev, dup := seen[m.ID]; dup && m.ID != "" {
				problems = append(problems, loadProblem(m.ID, "id", fmt.Sprintf("duplicate plugin id, also declared in %s", prev)))
				continue
			}
			seen[m.ID] = pluginDir
			manifests = append(manifests, m)
		}
	}

	return manifests, problems
}

// dirsFetcher looks a plugin up in each directory in turn
func dirsFetcher(dirs []string) plugins.Fetcher {
	fetchers := make([]plugins.Fetcher, 0, len(dirs))
	for _, dir := range dirs {
		fetchers = append(fetchers, plugins.DirFetcher(dir))
	}

	return func(pluginID string) (*plugins.Manifest, error) {
		for _, fetch := range fetchers {
			m, err := fetch(pluginID)
			if errors.Is(err, plugins.ErrManifestNotFound) {
				continue
			}
			return m, err
		}
		return nil, fmt.Errorf("plugin %s: %w", pluginID, plugins.ErrManifestNotFound)
	}
}

func printReport(w io.Writer, report Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if report.Results == nil {
			report.Results = []linter.LintResult{}
		}
		return enc.Encode(report)
	}

	if len(report.Results) == 0 {
		_, err := fmt.Fprintln(w, "No problems found")
		return err
	}
	for _, r := range report.Results {
		for _, v := range r.Violations {
			if _, err := fmt.Fprintf(w, "%s: %s\n", r.PluginID, v); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d errors, %d warnings, %d infos in %d plugins\n",
		report.Summary.Errors, report.Summary.Warnings, report.Summary.Infos, report.Summary.TotalPlugins)
	return err
}

// watch keeps the manifests of opts.Dirs loaded and re-lints them on every change
func watch(cfg *config.Config, opts Options, engine *linter.LintEngine, log observability.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.InitOTel(ctx, cfg.OTel(), log)
	if err != nil {
		log.Warning("Failed to initialize OpenTelemetry, continuing without it", "error", err)
	}
	otelMetrics, err := observability.NewOTelMetrics()
	if err != nil {
		log.Warning("Failed to create manifest metrics", "error", err)
	}

	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(promRegistry)
	}

	src := plugins.NewStaticSource()
	loader := plugins.NewLoader(opts.Dirs, log)

	relint := func(count int) {
		manifests := sourceManifests(src)
		regs := extensions.NewRegistries(extensions.Options{
			Logger:    log,
			Metrics:   metrics,
			DevMode:   opts.DevMode,
			Manifests: src,
		})
		if err := dryRun(ctx, regs, manifests); err != nil {
			log.Error("Registration dry run failed", "error", err)
		}
		if err := printReport(os.Stdout, buildReport(engine, manifests, nil), opts.JSON); err != nil {
			log.Error("Failed to write report", "error", err)
		}
	}

	watcher := plugins.NewWatcher(loader, src, log,
		plugins.WithReloadHook(relint),
		plugins.WithReloadMetrics(otelMetrics),
	)

	var server *http.Server
	if opts.MetricsAddr != "" {
		server = &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           newServerHandler(promRegistry, newHealthChecker(opts.Dirs, src), log),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Serving metrics", "addr", opts.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", "error", err)
				cancel()
			}
		}()
	}

	done := make(chan struct{})
	async.SafeGo(ctx, log, 0, "manifest watch", func(ctx context.Context) error {
		defer close(done)
		return watcher.Run(ctx)
	})

	sm := observability.NewShutdownManager(log, server, 0)
	sm.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	sm.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		return observability.ShutdownOTel(shutdownCtx, providers, log)
	})

	return sm.WaitForShutdown(ctx)
}

func sourceManifests(src *plugins.StaticSource) []*plugins.Manifest {
	ids := src.IDs()
	out := make([]*plugins.Manifest, 0, len(ids))
	for _, id := range ids {
		if m, ok := src.Manifest(id); ok {
			out = append(out, m)
		}
	}
	return out
}

// newServerHandler serves /metrics and the health routes
func newServerHandler(registry *prometheus.Registry, checker *observability.HealthChecker, log observability.Logger) http.Handler {
	mux := http.NewServeMux()
	observability.RegisterMetricsEndpoint(mux, registry)
	observability.RegisterHealthRoutes(mux, checker)

	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(log),
		httputil.RecoveryMiddleware(log),
		httputil.ReadOnlyMiddleware,
	)(mux)
}

func newHealthChecker(dirs []string, src *plugins.StaticSource) *observability.HealthChecker {
	checker := observability.NewHealthChecker(version)

	checker.AddCheck("plugin_dirs", true, func(context.Context) error {
		var missing []string
		for _, dir := range dirs {
			if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
				missing = append(missing, dir)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("plugin directories not readable: %v", missing)
		}
		return nil
	})

	checker.AddCheck("manifests", false, func(context.Context) error {
		if len(src.IDs()) == 0 {
			return errors.New("no plugin manifests loaded")
		}
		return nil
	})

	return checker
}
