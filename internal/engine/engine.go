// Package engine drives the bandwidth and ping ticks and hands each merged
// reading to a display sink.
package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/prabalesh/netoverlay/internal/collector"
	"github.com/prabalesh/netoverlay/internal/latency"
	"github.com/prabalesh/netoverlay/internal/models"
	"github.com/prabalesh/netoverlay/internal/sampler"
	"github.com/prabalesh/netoverlay/internal/scheduler"
)

// Sink receives one reading at a time.
type Sink interface {
	Render(models.Reading)
}

type Options struct {
	Collector         *collector.StatsCollector
	Sampler           *sampler.RateSampler
	Monitor           *latency.Monitor
	Sink              Sink
	BandwidthInterval time.Duration
	PingInterval      time.Duration
	Clock             clock.Clock
	Log               *zap.Logger
}

// Engine owns the sampler state. The bandwidth task alone touches the
// sampler and the ping task alone touches the monitor; mu only guards the
// merged reading they both publish.
type Engine struct {
	collector *collector.StatsCollector
	sampler   *sampler.RateSampler
	monitor   *latency.Monitor
	sink      Sink
	sched     *scheduler.Scheduler
	clock     clock.Clock
	log       *zap.Logger

	bandwidthInterval time.Duration
	pingInterval      time.Duration

	// bandwidth task only
	sourceFailing bool
	matched       []string
	matchedSeen   bool

	mu      sync.Mutex
	reading models.Reading
}

func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Engine{
		collector:         opts.Collector,
		sampler:           opts.Sampler,
		monitor:           opts.Monitor,
		sink:              opts.Sink,
		sched:             scheduler.New(opts.Clock, opts.Log),
		clock:             opts.Clock,
		log:               opts.Log.Named("engine"),
		bandwidthInterval: opts.BandwidthInterval,
		pingInterval:      opts.PingInterval,
	}
}

// Run blocks until ctx is cancelled. Nothing is rendered after that.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("sampling started",
		zap.Duration("bandwidth_interval", e.bandwidthInterval),
		zap.Int("window", e.sampler.Window()),
		zap.Duration("ping_interval", e.pingInterval),
		zap.String("ping_host", e.monitor.Host()))
	defer e.log.Info("sampling stopped")

	return e.sched.Run(ctx,
		scheduler.Task{Name: "bandwidth", Interval: e.bandwidthInterval, Run: e.bandwidthTick},
		scheduler.Task{Name: "ping", Interval: e.pingInterval, Run: e.pingTick},
	)
}

// Reading returns the last merged reading.
func (e *Engine) Reading() models.Reading {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reading
}

func (e *Engine) bandwidthTick(ctx context.Context) {
	snap, err := e.collector.Snapshot(ctx)
	if err != nil {
		if !e.sourceFailing {
			e.log.Warn("counter read failed, keeping last averages", zap.Error(err))
			e.sourceFailing = true
		}
		now := e.clock.Now()
		last := e.sampler.Last()
		e.publish(ctx, func(r *models.Reading) bool {
			r.Rates = last
			r.SourceOK = false
			r.TakenAt = now
			return true
		})
		return
	}
	if e.sourceFailing {
		e.log.Info("counter source recovered")
		e.sourceFailing = false
	}

	e.trackInterfaces(snap)
	rates := e.sampler.Sample(snap)
	if e.sampler.CounterReset() {
		e.log.Debug("counter went backwards, rate clamped to zero",
			zap.Uint64("received", snap.BytesReceived),
			zap.Uint64("sent", snap.BytesSent))
	}
	interfaces := e.collector.Interfaces(snap)

	e.publish(ctx, func(r *models.Reading) bool {
		r.Rates = rates
		r.Interfaces = interfaces
		r.TakenAt = snap.TakenAt
		r.SourceOK = true
		return true
	})
}

// trackInterfaces re-baselines the sampler when the matched interface set
// changes. A newly matched interface would otherwise add its whole lifetime
// counters to one tick's delta.
func (e *Engine) trackInterfaces(snap models.CounterSnapshot) {
	names := make([]string, 0, len(snap.Interfaces))
	for _, iface := range snap.Interfaces {
		names = append(names, iface.Name)
	}
	if e.matchedSeen && !slices.Equal(names, e.matched) {
		e.log.Info("interface set changed, rates re-baselined",
			zap.Strings("previous", e.matched),
			zap.Strings("current", names))
		e.sampler.Reset()
		e.collector.ClearLinkCache()
	}
	e.matched = names
	e.matchedSeen = true
}

func (e *Engine) pingTick(ctx context.Context) {
	alert := e.monitor.Tick(ctx)
	e.publish(ctx, func(r *models.Reading) bool {
		if r.Alert == alert {
			return false
		}
		e.log.Debug("ping alert changed", zap.Bool("active", alert.Active), zap.Uint32("ms", alert.HighPingMs))
		r.Alert = alert
		return true
	})
}

// publish applies update to the merged reading and renders it when update
// reports a visible change. Results that arrive after shutdown are dropped.
func (e *Engine) publish(ctx context.Context, update func(*models.Reading) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if !update(&e.reading) {
		return
	}
	if e.sink != nil {
		e.sink.Render(e.reading)
	}
}
