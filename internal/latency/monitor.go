package latency

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/prabalesh/netoverlay/internal/models"
)

const (
	DefaultHost        = "8.8.8.8"
	DefaultTimeout     = time.Second
	DefaultThresholdMs = 150
)

type MonitorOptions struct {
	Host        string
	Timeout     time.Duration
	ThresholdMs uint32
}

// Monitor probes one host per tick and raises an alert for replies slower
// than the threshold. Latency is not smoothed.
type Monitor struct {
	prober    Prober
	host      string
	timeout   time.Duration
	threshold uint32
	log       *zap.Logger
}

func NewMonitor(prober Prober, opts MonitorOptions, log *zap.Logger) *Monitor {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		prober:    prober,
		host:      opts.Host,
		timeout:   opts.Timeout,
		threshold: opts.ThresholdMs,
		log:       log.Named("latency"),
	}
}

// Probe runs one echo bounded by the monitor's timeout. A prober that ignores
// its context is abandoned when the timeout fires. Every failure becomes a
// sample without a reply.
func (m *Monitor) Probe(ctx context.Context) models.LatencySample {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{Err: fmt.Errorf("prober panic: %v", r)}
			}
		}()
		done <- m.prober.Probe(ctx, m.host)
	}()

	var res Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = noReply("probe %s: %v", m.host, ctx.Err())
	}

	if !res.Replied() {
		m.log.Debug("probe failed", zap.String("host", m.host), zap.Error(res.Err))
		return models.LatencySample{}
	}
	return models.LatencySample{RoundTripMs: toMillis(res.RTT), Replied: true}
}

// Evaluate is pure: the same sample always gives the same alert.
func (m *Monitor) Evaluate(sample models.LatencySample) models.AlertState {
	return Evaluate(sample, m.threshold)
}

func (m *Monitor) Tick(ctx context.Context) models.AlertState {
	return m.Evaluate(m.Probe(ctx))
}

func (m *Monitor) Host() string { return m.host }

// Evaluate raises an alert carrying the raw sample when a reply took longer
// than thresholdMs.
func Evaluate(sample models.LatencySample, thresholdMs uint32) models.AlertState {
	if !sample.Replied || sample.RoundTripMs <= thresholdMs {
		return models.AlertState{}
	}
	return models.AlertState{HighPingMs: sample.RoundTripMs, Active: true}
}

func toMillis(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	ms := math.Round(float64(d) / float64(time.Millisecond))
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}
