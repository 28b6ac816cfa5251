// Package sampler turns cumulative byte counters into smoothed throughput.
package sampler

import (
	"github.com/prabalesh/netoverlay/internal/models"
)

const bitsPerByte = 8

// megabit is the decimal unit the overlay reports in.
const megabit = 1_000_000

// RateSampler keeps the previous snapshot and one window per direction. Rates
// are megabits per tick: the caller samples at a fixed cadence and no
// elapsed-time division happens here.
type RateSampler struct {
	previous models.CounterSnapshot
	primed   bool
	download *RateWindow
	upload   *RateWindow
	last     models.Rates
	reset    bool
}

func NewRateSampler(window int) *RateSampler {
	return &RateSampler{
		download: NewRateWindow(window),
		upload:   NewRateWindow(window),
	}
}

// Sample feeds a fresh snapshot. The first call only records the baseline.
// A direction whose counter went backwards reports 0 for this tick.
func (s *RateSampler) Sample(current models.CounterSnapshot) models.Rates {
	if !s.primed {
		s.previous = current
		s.primed = true
		return s.last
	}

	s.reset = current.BytesReceived < s.previous.BytesReceived || current.BytesSent < s.previous.BytesSent
	down := Delta(s.previous.BytesReceived, current.BytesReceived)
	up := Delta(s.previous.BytesSent, current.BytesSent)
	s.previous = current

	downMbps := ToMegabits(down)
	upMbps := ToMegabits(up)
	s.download.Push(downMbps)
	s.upload.Push(upMbps)

	s.last = models.Rates{
		AvgDownloadMbps: s.download.Average(),
		AvgUploadMbps:   s.upload.Average(),
		DownloadMbps:    downMbps,
		UploadMbps:      upMbps,
	}
	return s.last
}

// Window is the number of ticks each average spans.
func (s *RateSampler) Window() int {
	return s.download.Cap()
}

// Last returns the rates computed by the most recent Sample.
func (s *RateSampler) Last() models.Rates {
	return s.last
}

// CounterReset reports whether the last Sample saw a counter go backwards.
func (s *RateSampler) CounterReset() bool {
	return s.reset
}

// Reset forgets the baseline and both windows.
func (s *RateSampler) Reset() {
	s.previous = models.CounterSnapshot{}
	s.primed = false
	s.reset = false
	s.download.Reset()
	s.upload.Reset()
	s.last = models.Rates{}
}

// Delta is current-previous, or 0 when the counter was reset.
func Delta(previous, current uint64) uint64 {
	if current < previous {
		return 0
	}
	return current - previous
}

func ToMegabits(bytes uint64) float64 {
	return float64(bytes) * bitsPerByte / megabit
}
