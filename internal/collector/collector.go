package collector

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/prabalesh/netoverlay/internal/models"
)

// Source kinds accepted by NewSource.
const (
	SourceAuto     = "auto"
	SourceProcfs   = "procfs"
	SourceGopsutil = "gopsutil"
)

// ErrUnavailable is returned by a source that could not be initialised.
var ErrUnavailable = errors.New("network counters unavailable")

// Source reports cumulative per-interface byte counters. Read must be cheap
// enough to call a few times a second.
type Source interface {
	Read(ctx context.Context) ([]models.InterfaceCounters, error)
}

// NewSource builds the counter source for kind. procfs is only available on
// Linux; auto prefers it there and falls back to gopsutil elsewhere.
func NewSource(kind string) (Source, error) {
	switch kind {
	case SourceAuto, "":
		if runtime.GOOS != "linux" {
			return NewGopsutilSource(), nil
		}
		return newProcfs()
	case SourceProcfs:
		return newProcfs()
	case SourceGopsutil:
		return NewGopsutilSource(), nil
	default:
		return nil, fmt.Errorf("unknown counter source %q", kind)
	}
}

func newProcfs() (Source, error) {
	src, err := NewProcfsSource(DefaultProcMount)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Unavailable stands in for a source that failed to initialise.
type Unavailable struct {
	Err error
}

func (u Unavailable) Read(context.Context) ([]models.InterfaceCounters, error) {
	if u.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, u.Err)
	}
	return nil, ErrUnavailable
}

// StatsCollector aggregates the interfaces selected by its filter into one
// snapshot per call. Nothing is carried over between calls, so an interface
// that stops matching drops out of the totals immediately.
type StatsCollector struct {
	source Source
	filter Filter
	links  *LinkCache
	now    func() time.Time
}

func NewStatsCollector(source Source, filter Filter, links *LinkCache) *StatsCollector {
	return &StatsCollector{
		source: source,
		filter: filter,
		links:  links,
		now:    time.Now,
	}
}

// Snapshot reads the source and sums the matching interfaces.
func (s *StatsCollector) Snapshot(ctx context.Context) (models.CounterSnapshot, error) {
	counters, err := s.source.Read(ctx)
	if err != nil {
		return models.CounterSnapshot{}, fmt.Errorf("read counters: %w", err)
	}
	return Aggregate(counters, s.filter, s.now()), nil
}

// Interfaces describes the interfaces of snap for display.
func (s *StatsCollector) Interfaces(snap models.CounterSnapshot) []models.NetworkInterface {
	return describeInterfaces(snap.Interfaces, s.links)
}

func (s *StatsCollector) ClearLinkCache() {
	if s.links != nil {
		s.links.Clear()
	}
}

// Aggregate sums the counters whose interface matches f.
func Aggregate(counters []models.InterfaceCounters, f Filter, at time.Time) models.CounterSnapshot {
	snap := models.CounterSnapshot{TakenAt: at}
	for _, c := range counters {
		if !f.Match(c.Name) {
			continue
		}
		snap.BytesReceived += c.BytesReceived
		snap.BytesSent += c.BytesSent
		snap.Interfaces = append(snap.Interfaces, c)
	}
	sort.Slice(snap.Interfaces, func(i, j int) bool {
		return snap.Interfaces[i].Name < snap.Interfaces[j].Name
	})
	return snap
}

// Filter selects interfaces by substring. With no patterns every
// non-loopback interface matches.
type Filter struct {
	patterns []string
}

func NewFilter(patterns []string) Filter {
	var cleaned []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return Filter{patterns: cleaned}
}

func (f Filter) Match(name string) bool {
	if len(f.patterns) == 0 {
		return !isLoopback(name)
	}
	for _, p := range f.patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func (f Filter) Patterns() []string {
	return append([]string(nil), f.patterns...)
}

func isLoopback(name string) bool {
	return name == "lo" || name == "lo0" || strings.HasPrefix(name, "Loopback")
}
