package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prabalesh/netoverlay/internal/collector"
	"github.com/prabalesh/netoverlay/internal/latency"
	"github.com/prabalesh/netoverlay/internal/models"
	"github.com/prabalesh/netoverlay/internal/sampler"
)

type scriptedSource struct {
	mu    sync.Mutex
	steps []step
}

type step struct {
	recv, sent uint64
	err        error
	// ifaces replaces the single eth0 entry when set
	ifaces []models.InterfaceCounters
}

func (s *scriptedSource) Read(context.Context) ([]models.InterfaceCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return nil, errors.New("script exhausted")
	}
	st := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	if st.err != nil {
		return nil, st.err
	}
	if st.ifaces != nil {
		return st.ifaces, nil
	}
	return []models.InterfaceCounters{{Name: "eth0", BytesReceived: st.recv, BytesSent: st.sent}}, nil
}

type fixedProber struct {
	mu     sync.Mutex
	result latency.Result
}

func (p *fixedProber) set(r latency.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = r
}

func (p *fixedProber) Probe(context.Context, string) latency.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

type recordingSink struct {
	mu       sync.Mutex
	readings []models.Reading
}

func (s *recordingSink) Render(r models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
}

func (s *recordingSink) all() []models.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Reading(nil), s.readings...)
}

func (s *recordingSink) last() models.Reading {
	all := s.all()
	return all[len(all)-1]
}

type fixture struct {
	engine *Engine
	source *scriptedSource
	prober *fixedProber
	sink   *recordingSink
	logs   *observer.ObservedLogs
	mock   *clock.Mock
}

func newFixture(t *testing.T, window int, steps ...step) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	src := &scriptedSource{steps: steps}
	prober := &fixedProber{result: latency.Result{Err: latency.ErrNoReply}}
	sink := &recordingSink{}
	mock := clock.NewMock()

	links := collector.NewLinkCache(func(string) (collector.LinkInfo, error) {
		return collector.LinkInfo{Status: "up", SpeedMbps: 100}, nil
	})
	e := New(Options{
		Collector:         collector.NewStatsCollector(src, collector.NewFilter(nil), links),
		Sampler:           sampler.NewRateSampler(window),
		Monitor:           latency.NewMonitor(prober, latency.MonitorOptions{Host: "192.0.2.1", Timeout: time.Second, ThresholdMs: 150}, log),
		Sink:              sink,
		BandwidthInterval: time.Second,
		PingInterval:      time.Second,
		Clock:             mock,
		Log:               log,
	})
	return &fixture{engine: e, source: src, prober: prober, sink: sink, logs: logs, mock: mock}
}

func TestBandwidthTickPublishesRates(t *testing.T) {
	f := newFixture(t, 5, step{recv: 0, sent: 0}, step{recv: 125000, sent: 62500})
	ctx := context.Background()

	f.engine.bandwidthTick(ctx)
	f.engine.bandwidthTick(ctx)

	readings := f.sink.all()
	require.Len(t, readings, 2)
	assert.Equal(t, models.Rates{}, readings[0].Rates)

	r := readings[1]
	assert.True(t, r.SourceOK)
	assert.Equal(t, 1.0, r.Rates.AvgDownloadMbps)
	assert.Equal(t, 0.5, r.Rates.AvgUploadMbps)
	require.Len(t, r.Interfaces, 1)
	assert.Equal(t, "eth0", r.Interfaces[0].Name)
	assert.Equal(t, "100 Mb/s", r.Interfaces[0].Speed)
}

func TestBandwidthTickKeepsAveragesOnSourceFailure(t *testing.T) {
	boom := errors.New("permission denied")
	f := newFixture(t, 5,
		step{recv: 0, sent: 0},
		step{recv: 250000, sent: 125000},
		step{err: boom},
		step{err: boom},
		step{err: boom},
		step{recv: 375000, sent: 187500},
	)
	ctx := context.Background()

	f.engine.bandwidthTick(ctx)
	f.engine.bandwidthTick(ctx)
	good := f.sink.last().Rates

	for i := 0; i < 3; i++ {
		f.engine.bandwidthTick(ctx)
		r := f.sink.last()
		assert.False(t, r.SourceOK)
		assert.Equal(t, good, r.Rates)
	}
	assert.Equal(t, 1, f.logs.FilterMessage("counter read failed, keeping last averages").Len())

	f.engine.bandwidthTick(ctx)
	r := f.sink.last()
	assert.True(t, r.SourceOK)
	assert.Equal(t, 1.0, r.Rates.DownloadMbps)
	assert.Equal(t, 1.5, r.Rates.AvgDownloadMbps)
	assert.Equal(t, 1, f.logs.FilterMessage("counter source recovered").Len())
}

func TestBandwidthTickWithUnavailableSourceEmitsZeros(t *testing.T) {
	f := newFixture(t, 5)
	f.engine.collector = collector.NewStatsCollector(collector.Unavailable{Err: errors.New("no procfs")}, collector.NewFilter(nil), nil)

	for i := 0; i < 3; i++ {
		f.engine.bandwidthTick(context.Background())
	}
	readings := f.sink.all()
	require.Len(t, readings, 3)
	for _, r := range readings {
		assert.Equal(t, models.Rates{}, r.Rates)
		assert.False(t, r.SourceOK)
	}
}

func TestBandwidthTickLogsCounterReset(t *testing.T) {
	f := newFixture(t, 5, step{recv: 500, sent: 500}, step{recv: 10, sent: 900})
	f.engine.bandwidthTick(context.Background())
	f.engine.bandwidthTick(context.Background())

	assert.Equal(t, 0.0, f.sink.last().Rates.DownloadMbps)
	assert.Equal(t, 1, f.logs.FilterMessage("counter went backwards, rate clamped to zero").Len())
}

func TestBandwidthTickRebaselinesWhenInterfaceSetChanges(t *testing.T) {
	eth := func(recv uint64) models.InterfaceCounters {
		return models.InterfaceCounters{Name: "eth0", BytesReceived: recv}
	}
	wlan := func(recv uint64) models.InterfaceCounters {
		return models.InterfaceCounters{Name: "wlan0", BytesReceived: recv}
	}
	f := newFixture(t, 5,
		step{ifaces: []models.InterfaceCounters{eth(0)}},
		step{ifaces: []models.InterfaceCounters{eth(125000)}},
		step{ifaces: []models.InterfaceCounters{eth(250000), wlan(900_000_000)}},
		step{ifaces: []models.InterfaceCounters{eth(375000), wlan(900_125000)}},
	)

	lookups := 0
	f.engine.collector = collector.NewStatsCollector(f.source, collector.NewFilter(nil),
		collector.NewLinkCache(func(string) (collector.LinkInfo, error) {
			lookups++
			return collector.LinkInfo{Status: "up"}, nil
		}))

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		f.engine.bandwidthTick(ctx)
	}

	readings := f.sink.all()
	require.Len(t, readings, 4)
	assert.Equal(t, 1.0, readings[1].Rates.AvgDownloadMbps)
	assert.Equal(t, models.Rates{}, readings[2].Rates, "the changed tick only sets a new baseline")
	assert.Equal(t, 2.0, readings[3].Rates.DownloadMbps)
	assert.Equal(t, 2.0, readings[3].Rates.AvgDownloadMbps)
	for _, r := range readings {
		assert.LessOrEqual(t, r.Rates.AvgDownloadMbps, 2.0)
	}

	assert.Equal(t, 1, f.logs.FilterMessage("interface set changed, rates re-baselined").Len())
	// eth0 once, then eth0 and wlan0 again after the cache was cleared
	assert.Equal(t, 3, lookups)
}

func TestBandwidthTickKeepsBaselineForSameInterfaceSet(t *testing.T) {
	f := newFixture(t, 5, step{recv: 0, sent: 0}, step{recv: 125000, sent: 0}, step{recv: 250000, sent: 0})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.engine.bandwidthTick(ctx)
	}

	assert.Equal(t, 1.0, f.sink.last().Rates.AvgDownloadMbps)
	assert.Zero(t, f.logs.FilterMessage("interface set changed, rates re-baselined").Len())
}

func TestPingTickRendersOnlyOnChange(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	// no reply matches the zero alert, nothing to show
	f.engine.pingTick(ctx)
	assert.Empty(t, f.sink.all())

	f.prober.set(latency.Result{RTT: 200 * time.Millisecond})
	f.engine.pingTick(ctx)
	f.engine.pingTick(ctx)
	require.Len(t, f.sink.all(), 1)
	assert.Equal(t, models.AlertState{HighPingMs: 200, Active: true}, f.sink.last().Alert)

	f.prober.set(latency.Result{RTT: 100 * time.Millisecond})
	f.engine.pingTick(ctx)
	require.Len(t, f.sink.all(), 2)
	assert.Equal(t, models.AlertState{}, f.sink.last().Alert)
}

func TestReadingMergesBothTasks(t *testing.T) {
	f := newFixture(t, 5, step{recv: 0, sent: 0}, step{recv: 125000, sent: 0})
	ctx := context.Background()
	f.prober.set(latency.Result{RTT: 300 * time.Millisecond})

	f.engine.pingTick(ctx)
	f.engine.bandwidthTick(ctx)
	f.engine.bandwidthTick(ctx)

	r := f.engine.Reading()
	assert.Equal(t, uint32(300), r.Alert.HighPingMs)
	assert.Equal(t, 1.0, r.Rates.AvgDownloadMbps)
	assert.Equal(t, r, f.sink.last())
}

func TestNoRenderAfterCancel(t *testing.T) {
	f := newFixture(t, 5, step{recv: 0, sent: 0}, step{recv: 125000, sent: 0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.engine.bandwidthTick(ctx)
	f.prober.set(latency.Result{RTT: 999 * time.Millisecond})
	f.engine.pingTick(ctx)
	assert.Empty(t, f.sink.all())
}

func TestRunStopsCleanly(t *testing.T) {
	f := newFixture(t, 5, step{recv: 0, sent: 0}, step{recv: 125000, sent: 62500})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.engine.Run(ctx) }()

	require.Eventually(t, func() bool { return len(f.sink.all()) >= 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		f.mock.Add(time.Second)
		for _, r := range f.sink.all() {
			if r.Rates.AvgDownloadMbps == 1.0 && r.Rates.AvgUploadMbps == 0.5 {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}

	count := len(f.sink.all())
	f.mock.Add(10 * time.Second)
	assert.Never(t, func() bool { return len(f.sink.all()) != count }, 50*time.Millisecond, 5*time.Millisecond)
}
