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

	captureimpl "github.com/foxseedlab/livejournal/external/capture"
	configloader "github.com/foxseedlab/livejournal/external/config"
	discordimpl "github.com/foxseedlab/livejournal/external/discord"
	documentimpl "github.com/foxseedlab/livejournal/external/document"
	repositoryimpl "github.com/foxseedlab/livejournal/external/repository"
	transcriberimpl "github.com/foxseedlab/livejournal/external/transcriber"
	vadimpl "github.com/foxseedlab/livejournal/external/vad"
	webhookimpl "github.com/foxseedlab/livejournal/external/webhook"
	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/config"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/foxseedlab/livejournal/internal/pipeline"
	"github.com/foxseedlab/livejournal/internal/repository"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	run := &cobra.Command{
		Use:   "run",
		Short: "Capture microphone audio and append transcripts to today's journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), configPath)
		},
	}
	devices := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDevices(cmd)
		},
	}
	root := &cobra.Command{
		Use:           "livejournal",
		Short:         "Live speech-to-document journaling",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.AddCommand(run, devices)
	return root
}

func loadConfig(configPath string) (*config.Config, error) {
	slog.Info("startup: loading configuration")
	cfg, err := configloader.Load(configPath)
	if err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, err
	}
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "transcribe_backend", cfg.TranscribeBackend, "capture_backend", cfg.CaptureBackend, "output_dir", cfg.OutputDir)
	return cfg, nil
}

// initLogger writes to stderr; stdout carries the transcript echo.
func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	metrics.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	captureimpl.RegisterDI(injector)
	vadimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	documentimpl.RegisterDI(injector)
	discordimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	pipeline.RegisterDI(injector)

	return injector
}

func runPipeline(parent context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	runner, err := do.Invoke[*pipeline.Runner](injector)
	if err != nil {
		slog.Error("failed to resolve pipeline", "error", err)
		return err
	}
	engine := do.MustInvoke[transcriber.Engine](injector)
	defer closeQuietly("transcription engine", engine)
	if closer, ok := do.MustInvoke[repository.Repository](injector).(io.Closer); ok {
		defer closeQuietly("transcript archive", closer)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		m := do.MustInvoke[*metrics.Metrics](injector)
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				slog.Error("metrics listener failed", "error", err, "addr", cfg.MetricsAddr)
			}
		}()
	}

	slog.Info("startup: entering capture loop")
	if err := runner.Run(ctx); err != nil {
		slog.Error("pipeline finished with errors", "error", err)
		return err
	}
	slog.Info("shutting down")
	return nil
}

// listDevices needs no configuration; enumeration does not touch the
// transcription backends.
func listDevices(cmd *cobra.Command) error {
	devices, err := captureimpl.NewMalgoSource("", audio.Format{}, nil).ListDevices()
	if err != nil {
		if errors.Is(err, audio.ErrBackendUnavailable) {
			slog.Error("device listing needs the malgo capture backend (build with -tags malgo)")
			return err
		}
		slog.Error("failed to list capture devices", "error", err)
		return err
	}
	out := cmd.OutOrStdout()
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		_, _ = fmt.Fprintf(out, "%s %2d  %s\n", marker, d.Index, d.Name)
	}
	return nil
}

func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("close failed", "error", err, "component", name)
	}
}
