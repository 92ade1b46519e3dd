package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fondo/internal/config"
	httpserver "fondo/internal/http"
	"fondo/internal/log"
	sentryutil "fondo/internal/sentry"
)

type serveOptions struct {
	port    string
	profile string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Long: `Load the dataset and serve the dashboard over HTTP.

The dataset is read once at startup; a missing or malformed source is fatal.
Configuration comes from the environment (see .env.example).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "dashboard profile (overrides PROFILE)")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *serveOptions, cmd *cobra.Command) error {
	cfg := config.Load()
	if opts.port != "" {
		cfg.Port = opts.port
	}
	if opts.profile != "" {
		cfg.Profile = opts.profile
		cfg.ProfileFile = ""
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := SetupLogger(cfg, cmd.ErrOrStderr(), rootOpts.Verbose)
	if err != nil {
		return err
	}
	log.SetDefault(logger)

	sentryutil.Init(sentryutil.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     cfg.SentryRelease,
	}, logger)
	defer sentryutil.Flush()

	profile, err := LoadProfile(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting fondo",
		log.FieldOperation, log.OpStartup,
		log.FieldSource, describeSource(cfg),
		log.FieldProfile, profile.Name,
		"port", cfg.Port)

	store, cleanup, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		sentryutil.CaptureError(err, map[string]string{"operation": log.OpLoad})
		return err
	}
	defer closeQuietly(logger, cleanup)

	ds, err := loadDataset(ctx, store)
	if err != nil {
		logger.Error("Dataset load failed", log.FieldOperation, log.OpLoad, log.FieldError, err)
		sentryutil.CaptureError(err, map[string]string{"operation": log.OpLoad})
		return err
	}
	if ds.Len() == 0 {
		logger.Warn("Dataset has no records", log.FieldSource, ds.Source())
		sentryutil.CaptureMessage("dataset has no records", sentryutil.LevelWarning(),
			map[string]string{"operation": log.OpLoad, "source": ds.Source()})
	}

	srv, err := httpserver.NewServer(httpserver.Config{
		Addr:            net.JoinHostPort("", cfg.Port),
		Store:           store,
		Profile:         profile,
		Logger:          logger,
		ExportRateLimit: cfg.ExportRateLimit,
		TrustedProxies:  cfg.TrustedProxies,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "create server", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		sentryutil.CaptureError(err, map[string]string{"operation": log.OpShutdown})
		return WrapExitError(ExitFailure, "serve", err)
	}
	logger.Info("Server stopped")
	return nil
}
