// Package latency probes round-trip time to one host and decides when the
// overlay should warn about it.
package latency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Probe methods accepted by NewProber.
const (
	MethodExec = "exec"
	MethodICMP = "icmp"
)

// ErrNoReply means the host did not answer within the deadline.
var ErrNoReply = errors.New("no reply")

// Result is the structured outcome of one echo. Err is nil only when a reply
// arrived and RTT is meaningful.
type Result struct {
	RTT time.Duration
	Err error
}

func (r Result) Replied() bool { return r.Err == nil }

// Prober sends a single echo to host. The deadline travels in ctx.
type Prober interface {
	Probe(ctx context.Context, host string) Result
}

func NewProber(method string) (Prober, error) {
	switch method {
	case MethodExec, "":
		return NewExecProber(), nil
	case MethodICMP:
		return NewICMPProber(), nil
	default:
		return nil, fmt.Errorf("unknown probe method %q", method)
	}
}

func noReply(format string, args ...any) Result {
	return Result{Err: fmt.Errorf("%w: %s", ErrNoReply, fmt.Sprintf(format, args...))}
}
