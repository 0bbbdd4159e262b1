package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/stream"
	"github.com/kbukum/streamkit/version"
)

const shutdownTimeout = 5 * time.Second

// app carries the state shared by every subcommand once the configuration
// has been loaded.
type app struct {
	out        io.Writer
	configFile string
	workers    int

	cfg *config.Config
	log *logger.Logger

	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *observability.StreamMetrics
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "streamkit",
		Short:         "Run lazy sequential or parallel pipelines from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown()
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a config file")
	root.PersistentFlags().IntVar(&a.workers, "workers", 0, "worker pool size for parallel runs (0 uses the configured value)")

	root.AddCommand(
		newLinesCmd(a),
		newTokensCmd(a),
		newRandomCmd(a),
		newSumCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	var opts []config.LoaderOption
	if a.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	if a.workers > 0 {
		cfg.Stream.Workers = a.workers
	}
	a.cfg = cfg
	a.log = logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(a.log)

	if !cfg.Telemetry.Enabled {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	info := version.Get()
	tc := observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: info.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	if a.tp, err = observability.InitTracer(ctx, &tc); err != nil {
		return err
	}
	mc := observability.DefaultMeterConfig(cfg.Name)
	mc.ServiceVersion = info.Version
	mc.Environment = cfg.Environment
	mc.Endpoint = cfg.Telemetry.Endpoint
	mc.Insecure = cfg.Telemetry.Insecure
	if a.mp, err = observability.InitMeter(ctx, &mc); err != nil {
		return err
	}
	a.metrics, err = observability.NewStreamMetrics(a.mp.Meter(cfg.Name))
	return err
}

func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.mp != nil {
		if err := a.mp.Shutdown(ctx); err != nil {
			a.log.Warn("meter shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}
	if a.tp != nil {
		return a.tp.Shutdown(ctx)
	}
	return nil
}

// options returns the pipeline options derived from the loaded configuration.
func (a *app) options() []stream.Option {
	opts := []stream.Option{
		stream.WithConfig(a.cfg.Stream),
		stream.WithLogger(a.log),
	}
	if a.metrics != nil {
		opts = append(opts, stream.WithMetrics(a.metrics))
	}
	return opts
}

func (a *app) writeYAML(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
