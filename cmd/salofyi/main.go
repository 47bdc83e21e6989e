package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"salofyi/internal/cache"
	"salofyi/internal/config"
	appLog "salofyi/internal/log"
	"salofyi/internal/pipeline"
	"salofyi/internal/watch"
	"salofyi/internal/web"
)

type flagConfig struct {
	configPath  string
	listen      string
	outputDir   string
	once        bool
	serve       bool
	ignoreCache bool
	offline     bool
	dump        bool
	debug       bool
}

func main() {
	flags := parseFlags()

	if err := appLog.Configure(flags.debug); err != nil {
		appLog.Error("failed to configure logger", err)
	}
	defer appLog.Sync()

	appLog.Info("salofyi starting", "version", "0.1.0")

	conf, err := loadConfig(flags)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	serve := flags.serve && !flags.once
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"output_dir", conf.OutputDir,
		"refresh", conf.RefreshCron,
		"cache_backend", conf.Cache.Backend,
		"calendar", conf.Calendar,
		"preview", conf.Preview.Enabled,
		"past_days", conf.Swimmi.PastDays,
		"future_days", conf.Swimmi.FutureDays,
		"serve", serve,
		"ignore_cache", flags.ignoreCache,
		"offline", flags.offline,
		"dump", flags.dump,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	store, err := cache.New(conf.Cache)
	if err != nil {
		appLog.Error("failed to open cache", err, "backend", conf.Cache.Backend)
		os.Exit(1)
	}
	defer store.Close()
	if rs, ok := store.(*cache.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			appLog.Warn("redis cache unreachable; runs will fetch upstream", "addr", conf.Cache.Redis.Addr, "error", err.Error())
		}
	}

	runner := pipeline.New(conf, store)
	runOpts := pipeline.RunOptions{
		IgnoreCache: flags.ignoreCache,
		Offline:     flags.offline,
		DumpMocks:   flags.dump,
	}

	if _, err := runner.Run(ctx, runOpts); err != nil {
		appLog.Error("build failed", err)
		if !serve {
			os.Exit(1)
		}
	}
	if !serve {
		appLog.Info("salofyi exiting")
		return
	}

	if err := runServe(ctx, flags, runner, runOpts); err != nil {
		appLog.Error("serve failed", err)
		os.Exit(1)
	}
	appLog.Info("salofyi exiting")
}

// runServe rebuilds on the refresh schedule and on config edits and serves
// the output directory until ctx is cancelled.
func runServe(ctx context.Context, flags flagConfig, runner *pipeline.Runner, runOpts pipeline.RunOptions) error {
	conf := runner.Config()

	// Scheduled runs always refetch; the day's snapshot is otherwise reused.
	scheduled := runOpts
	scheduled.IgnoreCache = !runOpts.Offline
	scheduled.DumpMocks = false

	c := cron.New(cron.WithLocation(pipeline.Location(conf.Timezone)))
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if _, err := runner.Run(ctx, scheduled); err != nil {
			appLog.Error("scheduled build failed", err)
		}
	}); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	go func() {
		err := watch.File(ctx, flags.configPath, watch.DefaultDebounce, func(ctx context.Context) {
			next, err := loadConfig(flags)
			if err != nil {
				appLog.Error("config reload failed; keeping previous config", err)
				return
			}
			if next.Listen != runner.Config().Listen {
				appLog.Warn("listen address changes need a restart", "listen", next.Listen)
			}
			runner.SetConfig(next)
			if _, err := runner.Run(ctx, pipeline.RunOptions{Offline: runOpts.Offline}); err != nil {
				appLog.Error("rebuild after config change failed", err)
			}
		})
		if err != nil {
			appLog.Error("config watcher stopped", err)
		}
	}()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(runner).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen, "dir", pipeline.OutputDir(conf))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig(flags flagConfig) (*config.Config, error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.outputDir != "" {
		conf.OutputDir = flags.outputDir
	}
	return conf, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "_confs/salofyi.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "Dev server listen address (overrides config if set)")
	flag.StringVar(&cfg.outputDir, "out", "", "Output directory (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Build once and exit, even with -serve")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the output, rebuilding on schedule and on config changes")
	flag.BoolVar(&cfg.ignoreCache, "ignore-cache", false, "Refetch even if today's snapshot is cached")
	flag.BoolVar(&cfg.offline, "offline", false, "Render from today's cached snapshot only")
	flag.BoolVar(&cfg.dump, "dump", false, "Also write the transformed days as JSON mocks")
	flag.BoolVar(&cfg.debug, "debug", false, "Development logging")

	flag.Parse()

	return cfg
}
