package latency

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const maxReplySize = 1500

var echoPayload = []byte("netoverlay")

// ICMPProber sends one ICMP echo over an unprivileged datagram socket. On
// Linux this needs net.ipv4.ping_group_range to include the user's group.
type ICMPProber struct {
	network  string
	listen   string
	id       int
	seq      atomic.Uint32
	resolver *net.Resolver
}

func NewICMPProber() *ICMPProber {
	return &ICMPProber{
		network:  "udp4",
		listen:   "0.0.0.0",
		id:       os.Getpid() & 0xffff,
		resolver: net.DefaultResolver,
	}
}

func (p *ICMPProber) Probe(ctx context.Context, host string) Result {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultWait)
		defer cancel()
	}

	ip, err := p.resolve(ctx, host)
	if err != nil {
		return noReply("resolve %s: %v", host, err)
	}

	conn, err := icmp.ListenPacket(p.network, p.listen)
	if err != nil {
		return noReply("open icmp socket: %v", err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return noReply("set deadline: %v", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	seq := int(p.seq.Add(1) & 0xffff)
	request, err := echoRequest(p.id, seq)
	if err != nil {
		return noReply("marshal echo: %v", err)
	}

	start := time.Now()
	if _, err := conn.WriteTo(request, &net.UDPAddr{IP: ip}); err != nil {
		return noReply("send echo to %s: %v", ip, err)
	}

	buf := make([]byte, maxReplySize)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return noReply("wait for %s: %v", ip, err)
		}
		if isEchoReply(buf[:n], seq) {
			return Result{RTT: time.Since(start)}
		}
	}
}

func (p *ICMPProber) resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s is not an IPv4 address", host)
	}
	ips, err := p.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no IPv4 address for %s", host)
	}
	return ips[0], nil
}

func echoRequest(id, seq int) ([]byte, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: echoPayload},
	}
	return msg.Marshal(nil)
}

// isEchoReply reports whether b is the reply to our echo. The kernel rewrites
// the identifier on datagram sockets, so only the sequence is compared.
func isEchoReply(b []byte, seq int) bool {
	msg, err := icmp.ParseMessage(ipv4.ICMPTypeEcho.Protocol(), b)
	if err != nil || msg.Type != ipv4.ICMPTypeEchoReply {
		return false
	}
	echo, ok := msg.Body.(*icmp.Echo)
	return ok && echo.Seq == seq
}
