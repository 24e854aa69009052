package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/scene-lint/internal/cache"
	"github.com/jwebster45206/scene-lint/internal/config"
	"github.com/jwebster45206/scene-lint/internal/logger"
	"github.com/jwebster45206/scene-lint/internal/report"
	"github.com/jwebster45206/scene-lint/internal/validator"
	"github.com/jwebster45206/scene-lint/internal/watch"
	"github.com/spf13/cobra"
)

// Exit statuses
const (
	exitOK      = 0
	exitInvalid = 1 // at least one validation error
	exitUsage   = 2 // bad flags or configuration
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	exitCode := exitOK
	cmd := newRootCmd(cfg, stdout, stderr, &exitCode)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		return exitUsage
	}
	return exitCode
}

func newRootCmd(cfg *config.Config, stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the content graph of an interactive narrative",
		Long: `Loads scene documents, the item and ending catalogs and the audio manifest,
then checks them for dangling references, duplicate identifiers and orphaned flags.

Errors fail the run with exit status 1. Warnings are reported but never fail it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ApplyFile(cmd.Flags().Changed); err != nil {
				return err
			}
			cfg.Resolve()
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.SetupWriter(cfg, stderr)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l := &linter{cfg: cfg, log: log, out: stdout}
			if cfg.RedisURL != "" {
				store, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.CacheTTL, log)
				if err != nil {
					// The cache only saves work; run without it
					logger.WithError(log, err).Warn("Report cache unavailable")
				} else {
					l.store = store
					defer store.Close()
				}
			}

			*exitCode = l.runOnce(ctx)
			if !cfg.Watch {
				return nil
			}

			w, err := watch.New(cfg.WatchPaths(), cfg.Debounce, func() {
				*exitCode = l.runOnce(ctx)
			}, log)
			if err != nil {
				return err
			}
			log.Info("Watching for content changes", "debounce", cfg.Debounce)
			return w.Run(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Root, "root", cfg.Root, "project root that relative content paths resolve against")
	f.StringVar(&cfg.ScenesDir, "scenes", cfg.ScenesDir, "directory of scene documents (.json, .yaml)")
	f.StringVar(&cfg.ItemsPath, "items", cfg.ItemsPath, "item catalog source")
	f.StringVar(&cfg.EndingsPath, "endings", cfg.EndingsPath, "ending catalog source")
	f.StringVar(&cfg.AudioPath, "audio", cfg.AudioPath, "audio manifest source")
	f.StringVar(&cfg.PublicDir, "public", cfg.PublicDir, "managed asset directory for image checks")
	f.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file (default <root>/"+config.DefaultConfigFile+" if present)")
	f.StringSliceVar(&cfg.ExternalFlags, "external-flag", cfg.ExternalFlags, "flag set by game code outside content data (repeatable)")
	f.StringVar(&cfg.ImagePrefix, "image-prefix", cfg.ImagePrefix, "image references under this prefix must exist in the public dir")
	f.StringVar(&cfg.RawAudioPrefix, "raw-audio-prefix", cfg.RawAudioPrefix, "audio references with this prefix are raw file paths")
	f.BoolVar(&cfg.StrictItems, "strict-items", cfg.StrictItems, "report unknown items as errors")
	f.StringVar(&cfg.Format, "format", cfg.Format, "report format: text or json")
	f.BoolVar(&cfg.Color, "color", cfg.Color, "colour section headers when writing to a terminal")
	f.IntVar(&cfg.Width, "width", cfg.Width, "wrap findings at this column (0 disables)")
	f.StringVar(&cfg.RedisURL, "cache", cfg.RedisURL, "Redis URL for the report cache (empty disables)")
	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "re-validate whenever content changes")

	return cmd
}

// linter performs validation runs for one configuration
type linter struct {
	cfg   *config.Config
	log   *slog.Logger
	out   io.Writer
	store cache.Store
}

func (l *linter) sources() validator.Sources {
	return validator.Sources{
		ScenesDir:   l.cfg.ScenesDir,
		ItemsPath:   l.cfg.ItemsPath,
		EndingsPath: l.cfg.EndingsPath,
		AudioPath:   l.cfg.AudioPath,
	}
}

func (l *linter) options() validator.Options {
	return validator.Options{
		ExternalFlags:  l.cfg.ExternalFlags,
		PublicDir:      l.cfg.PublicDir,
		ImagePrefix:    l.cfg.ImagePrefix,
		RawAudioPrefix: l.cfg.RawAudioPrefix,
		StrictItems:    l.cfg.StrictItems,
	}
}

// runOnce validates, renders the report and returns the exit status
func (l *linter) runOnce(ctx context.Context) int {
	log, _ := logger.WithRunID(l.log)
	start := time.Now()
	src, opts := l.sources(), l.options()

	r, cached := l.fromCache(ctx, log, src, opts)
	if r == nil {
		r = validator.Run(src, opts, log)
		l.toCache(ctx, log, src, opts, r)
	}

	if err := r.Render(l.out, report.Options{Format: l.cfg.Format, Color: l.cfg.Color, Width: l.cfg.Width}); err != nil {
		logger.WithError(log, err).Error("Failed to write report")
		return exitUsage
	}

	log.Info("Validation finished",
		"errors", len(r.Errors),
		"warnings", len(r.Warnings),
		"cached", cached,
		"duration", time.Since(start))

	if r.HasErrors() {
		return exitInvalid
	}
	return exitOK
}

func (l *linter) fromCache(ctx context.Context, log *slog.Logger, src validator.Sources, opts validator.Options) (*report.Report, bool) {
	if l.store == nil {
		return nil, false
	}
	key, err := cache.Key(src, opts)
	if err != nil {
		logger.WithError(log, err).Warn("Failed to compute cache key")
		return nil, false
	}
	r, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WithError(log, err).Warn("Report cache read failed")
		}
		return nil, false
	}
	return r, true
}

func (l *linter) toCache(ctx context.Context, log *slog.Logger, src validator.Sources, opts validator.Options, r *report.Report) {
	if l.store == nil {
		return
	}
	key, err := cache.Key(src, opts)
	if err != nil {
		logger.WithError(log, err).Warn("Failed to compute cache key")
		return
	}
	if err := l.store.Put(ctx, key, r); err != nil {
		logger.WithError(log, err).Warn("Report cache write failed")
	}
}
