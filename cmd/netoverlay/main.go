package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/prabalesh/netoverlay/internal/collector"
	"github.com/prabalesh/netoverlay/internal/config"
	"github.com/prabalesh/netoverlay/internal/engine"
	"github.com/prabalesh/netoverlay/internal/latency"
	"github.com/prabalesh/netoverlay/internal/logging"
	"github.com/prabalesh/netoverlay/internal/sampler"
	"github.com/prabalesh/netoverlay/internal/settings"
	"github.com/prabalesh/netoverlay/internal/ui"
)

type flags struct {
	configFile   string
	mode         string
	interval     time.Duration
	window       int
	source       string
	interfaces   string
	pingHost     string
	pingInterval time.Duration
	pingTimeout  time.Duration
	threshold    uint
	method       string
	positionFile string
	details      bool
	logLevel     string
	logFile      string
}

func parseFlags() (*flags, map[string]bool) {
	f := &flags{}
	flag.StringVar(&f.configFile, "config", config.DefaultFile, "path to YAML config file")
	flag.StringVar(&f.mode, "mode", "", "display mode: tui or plain")
	flag.DurationVar(&f.interval, "interval", 0, "bandwidth sampling interval")
	flag.IntVar(&f.window, "window", 0, "moving average window in ticks")
	flag.StringVar(&f.source, "source", "", "counter source: auto, procfs or gopsutil")
	flag.StringVar(&f.interfaces, "interfaces", "", "comma separated interface name patterns")
	flag.StringVar(&f.pingHost, "ping-host", "", "host to ping")
	flag.DurationVar(&f.pingInterval, "ping-interval", 0, "ping interval")
	flag.DurationVar(&f.pingTimeout, "ping-timeout", 0, "ping timeout")
	flag.UintVar(&f.threshold, "threshold", 0, "ping alert threshold in milliseconds")
	flag.StringVar(&f.method, "method", "", "ping method: exec or icmp")
	flag.StringVar(&f.positionFile, "position-file", "", "where the overlay position is saved")
	flag.BoolVar(&f.details, "details", false, "start with the details panel open")
	flag.StringVar(&f.logLevel, "log-level", "", "log level")
	flag.StringVar(&f.logFile, "log-file", "", "log file")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set
}

// apply copies explicitly set flags over cfg. Flags win over file and env.
func (f *flags) apply(cfg *config.Config, set map[string]bool) {
	if set["mode"] {
		cfg.Display.Mode = f.mode
	}
	if set["interval"] {
		cfg.Sampling.Interval = config.Duration(f.interval)
	}
	if set["window"] {
		cfg.Sampling.Window = f.window
	}
	if set["source"] {
		cfg.Sampling.Source = f.source
	}
	if set["interfaces"] {
		cfg.Sampling.Interfaces = config.SplitList(f.interfaces)
	}
	if set["ping-host"] {
		cfg.Latency.Host = f.pingHost
	}
	if set["ping-interval"] {
		cfg.Latency.Interval = config.Duration(f.pingInterval)
	}
	if set["ping-timeout"] {
		cfg.Latency.Timeout = config.Duration(f.pingTimeout)
	}
	if set["threshold"] {
		cfg.Latency.ThresholdMs = uint32(f.threshold)
	}
	if set["method"] {
		cfg.Latency.Method = f.method
	}
	if set["position-file"] {
		cfg.Display.PositionFile = f.positionFile
	}
	if set["details"] {
		cfg.Display.Details = f.details
	}
	if set["log-level"] {
		cfg.Logging.Level = f.logLevel
	}
	if set["log-file"] {
		cfg.Logging.File = f.logFile
	}
}

func main() {
	if err := run(); err != nil {
		log.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}

func run() error {
	f, set := parseFlags()

	cfg, err := config.Load(f.configFile, !set["config"])
	if err != nil {
		return err
	}
	f.apply(cfg, set)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, cfg.Display.Mode)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source, err := collector.NewSource(cfg.Sampling.Source)
	if err != nil {
		logger.Error("counter source unavailable, rates will stay at zero",
			zap.String("source", cfg.Sampling.Source), zap.Error(err))
		source = collector.Unavailable{Err: err}
	}
	filter := collector.NewFilter(cfg.Sampling.Interfaces)
	if patterns := filter.Patterns(); len(patterns) > 0 {
		logger.Info("matching interfaces", zap.Strings("patterns", patterns))
	} else {
		logger.Info("matching all non-loopback interfaces")
	}
	stats := collector.NewStatsCollector(source, filter,
		collector.NewLinkCache(collector.DefaultLinkLookup()))

	prober, err := latency.NewProber(cfg.Latency.Method)
	if err != nil {
		return err
	}
	monitor := latency.NewMonitor(prober, latency.MonitorOptions{
		Host:        cfg.Latency.Host,
		Timeout:     cfg.Latency.Timeout.Std(),
		ThresholdMs: cfg.Latency.ThresholdMs,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := engine.Options{
		Collector:         stats,
		Sampler:           sampler.NewRateSampler(cfg.Sampling.Window),
		Monitor:           monitor,
		BandwidthInterval: cfg.Sampling.Interval.Std(),
		PingInterval:      cfg.Latency.Interval.Std(),
		Log:               logger,
	}

	if cfg.Display.Mode == config.ModePlain {
		return runPlain(ctx, opts)
	}
	return runTUI(ctx, cfg, opts, logger)
}

func runPlain(ctx context.Context, opts engine.Options) error {
	sink := ui.NewPlain(os.Stdout)
	defer sink.Close()
	opts.Sink = sink

	if err := engine.New(opts).Run(ctx); err != nil {
		return err
	}
	return sink.Err()
}

func runTUI(ctx context.Context, cfg *config.Config, opts engine.Options, logger *zap.Logger) error {
	store := settings.NewPositionStore(cfg.Display.PositionFile, logger)
	position := store.Load()
	logger.Debug("overlay position",
		zap.String("file", store.Path()),
		zap.Int("x", position.X),
		zap.Int("y", position.Y),
		zap.Bool("locked", position.Locked))
	app := ui.NewApp(ui.AppOptions{
		Position: position,
		Store:    store,
		Interval: opts.BandwidthInterval,
		Details:  cfg.Display.Details,
		Log:      logger,
	})
	hud := ui.NewHUD(app, tea.WithContext(ctx))
	opts.Sink = hud

	engineCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- engine.New(opts).Run(engineCtx)
	}()

	uiErr := hud.Run()
	cancel()
	engineErr := <-done

	// A signal stops the program through ctx.
	if errors.Is(uiErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		uiErr = nil
	}
	if uiErr != nil {
		return fmt.Errorf("overlay: %w", uiErr)
	}
	return engineErr
}
