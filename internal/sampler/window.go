package sampler

// RateWindow is a fixed-capacity FIFO of recent samples. Once full, each push
// evicts the oldest sample.
type RateWindow struct {
	samples  []float64
	capacity int
	next     int
	count    int
}

// NewRateWindow creates a window holding at most capacity samples. A
// capacity of zero or less yields a window that keeps nothing.
func NewRateWindow(capacity int) *RateWindow {
	if capacity < 0 {
		capacity = 0
	}
	return &RateWindow{
		samples:  make([]float64, capacity),
		capacity: capacity,
	}
}

func (w *RateWindow) Push(v float64) {
	if w.capacity == 0 {
		return
	}
	w.samples[w.next] = v
	w.next = (w.next + 1) % w.capacity
	if w.count < w.capacity {
		w.count++
	}
}

// Average is the arithmetic mean of the samples currently held, 0 when empty.
func (w *RateWindow) Average() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.samples[i]
	}
	return sum / float64(w.count)
}

func (w *RateWindow) Len() int { return w.count }

func (w *RateWindow) Cap() int { return w.capacity }

func (w *RateWindow) Reset() {
	w.next = 0
	w.count = 0
}
