package latency

import (
	"context"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// defaultWait is passed to ping when ctx carries no deadline.
const defaultWait = 2 * time.Second

// rttPattern knows the round-trip label of English, German, French, Spanish,
// Portuguese, Italian, Dutch, Polish and Scandinavian ping builds.
var rttPattern = regexp.MustCompile(`(?i)\b(?:time|zeit|temps|tiempo|tempo|tijd|czas|tid)\s*[=<]\s*([0-9]+(?:[.,][0-9]+)?)\s*ms`)

// ExecProber shells out to the system ping command. Output in a language
// whose label rttPattern does not know never yields a reply, so the alert
// stays off; use the icmp method on such systems.
type ExecProber struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewExecProber() *ExecProber {
	return &ExecProber{goos: runtime.GOOS, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.Output()
}

func (p *ExecProber) Probe(ctx context.Context, host string) Result {
	out, runErr := p.run(ctx, "ping", pingArgs(p.goos, host, waitFor(ctx))...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return noReply("ping %s: %v", host, ctxErr)
	}

	rtt, ok := ParsePingOutput(string(out))
	if !ok {
		if runErr != nil {
			return noReply("ping %s: %v", host, runErr)
		}
		return noReply("ping %s: no round-trip time in output", host)
	}
	return Result{RTT: rtt}
}

func waitFor(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			return remaining
		}
	}
	return defaultWait
}

// pingArgs builds a single-echo invocation. Windows and macOS take the reply
// wait in milliseconds, Linux and the BSDs in whole seconds.
func pingArgs(goos, host string, wait time.Duration) []string {
	ms := wait.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.FormatInt(ms, 10), host}
	case "darwin":
		return []string{"-c", "1", "-W", strconv.FormatInt(ms, 10), host}
	default:
		secs := int64(math.Ceil(wait.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return []string{"-c", "1", "-W", strconv.FormatInt(secs, 10), host}
	}
}

// ParsePingOutput extracts the first round-trip time from ping's output.
// "time<1ms" is reported as 1ms.
func ParsePingOutput(out string) (time.Duration, bool) {
	m := rttPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return time.Duration(math.Round(v * float64(time.Millisecond))), true
}
