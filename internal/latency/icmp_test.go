package latency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

func marshal(t *testing.T, typ ipv4.ICMPType, seq int) []byte {
	t.Helper()
	msg := icmp.Message{Type: typ, Body: &icmp.Echo{ID: 99, Seq: seq, Data: echoPayload}}
	b, err := msg.Marshal(nil)
	require.NoError(t, err)
	return b
}

func TestIsEchoReply(t *testing.T) {
	assert.True(t, isEchoReply(marshal(t, ipv4.ICMPTypeEchoReply, 7), 7))
	assert.False(t, isEchoReply(marshal(t, ipv4.ICMPTypeEchoReply, 8), 7))
	assert.False(t, isEchoReply(marshal(t, ipv4.ICMPTypeEcho, 7), 7))
	assert.False(t, isEchoReply([]byte{0x01}, 7))
}

func TestEchoRequestRoundTrip(t *testing.T) {
	b, err := echoRequest(1234, 42)
	require.NoError(t, err)

	msg, err := icmp.ParseMessage(ipv4.ICMPTypeEcho.Protocol(), b)
	require.NoError(t, err)
	assert.Equal(t, ipv4.ICMPTypeEcho, msg.Type)
	echo, ok := msg.Body.(*icmp.Echo)
	require.True(t, ok)
	assert.Equal(t, 42, echo.Seq)
}

func TestICMPProberRejectsIPv6Literal(t *testing.T) {
	p := NewICMPProber()
	res := p.Probe(context.Background(), "2001:db8::1")
	assert.False(t, res.Replied())
	assert.ErrorIs(t, res.Err, ErrNoReply)
}
