package app

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"abtest-sizer/internal/config"
	"abtest-sizer/internal/metrics"
	"abtest-sizer/internal/samplesize"
	"abtest-sizer/internal/server"
	"abtest-sizer/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newPlanner(mode samplesize.Mode, recorder service.Recorder) *service.Planner {
	if mode == "" {
		mode = a.Config.CalculatorMode()
	}
	return service.New(service.Options{
		Mode:               mode,
		HighConfidenceDays: a.Config.Calculator.HighConfidenceDays,
		Recorder:           recorder,
	}, a.Logger)
}

// DefaultDesign returns the configured input defaults.
func (a *App) DefaultDesign() service.Design {
	d := a.Config.Defaults
	return service.Design{
		ControlCVR:          d.ControlCVR,
		MinDetectableEffect: d.MinDetectableEffect,
		SignificanceLevel:   d.SignificanceLevel,
		Power:               d.Power,
		DailyTraffic:        d.DailyTraffic,
		ControlTrafficSplit: d.ControlTrafficSplit,
		DurationDays:        d.DurationDays,
	}
}

// Serve runs the HTTP API until interrupted.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(prometheus.NewRegistry())
	planner := a.newPlanner("", m)

	srv := server.New(server.Options{
		Addr:            a.Config.Server.Addr,
		Mode:            a.Config.Server.Mode,
		ReadTimeout:     a.Config.Server.ReadTimeout,
		WriteTimeout:    a.Config.Server.WriteTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
		Defaults:        a.DefaultDesign(),
	}, planner, m, a.Logger)

	a.Logger.Info().Str("mode", string(planner.Mode())).Msg("starting sizing api")
	err := srv.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("sizing api terminated with error")
		return err
	}

	a.Logger.Info().Msg("sizing api stopped")
	return nil
}

// CalculateOptions configure the calculate command.
type CalculateOptions struct {
	Design service.Design
	Mode   samplesize.Mode
	Format string
	Out    io.Writer
}

// SweepOptions hold parameters for the effect-size sweep export.
type SweepOptions struct {
	Design  service.Design
	Mode    samplesize.Mode
	From    float64
	To      float64
	Steps   int
	CSVPath string
	PNGPath string
}
