//go:build linux

package collector

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabalesh/netoverlay/internal/models"
)

const fakeNetDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:    1000      10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0:  125000     100    0    0    0     0          0         0    62500      50    0    0    0     0       0          0
 wlan0:      42       1    0    0    0     0          0         0        7       1    0    0    0     0       0          0
`

func TestProcfsSourceReadsNetDev(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "net"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "net", "dev"), []byte(fakeNetDev), 0o644))

	src, err := NewProcfsSource(root)
	require.NoError(t, err)

	counters, err := src.Read(context.Background())
	require.NoError(t, err)
	sort.Slice(counters, func(i, j int) bool { return counters[i].Name < counters[j].Name })

	assert.Equal(t, []models.InterfaceCounters{
		{Name: "eth0", BytesReceived: 125000, BytesSent: 62500},
		{Name: "lo", BytesReceived: 1000, BytesSent: 1000},
		{Name: "wlan0", BytesReceived: 42, BytesSent: 7},
	}, counters)
}

func TestProcfsSourceMissingMount(t *testing.T) {
	_, err := NewProcfsSource(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestProcfsSourceMissingNetDev(t *testing.T) {
	src, err := NewProcfsSource(t.TempDir())
	require.NoError(t, err)

	_, err = src.Read(context.Background())
	assert.Error(t, err)
}
