package collector

import (
	"context"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/prabalesh/netoverlay/internal/models"
)

// GopsutilSource reads per-NIC counters through gopsutil and works on every
// platform gopsutil supports.
type GopsutilSource struct {
	ioCounters func(ctx context.Context, pernic bool) ([]psnet.IOCountersStat, error)
}

func NewGopsutilSource() *GopsutilSource {
	return &GopsutilSource{ioCounters: psnet.IOCountersWithContext}
}

func (g *GopsutilSource) Read(ctx context.Context) ([]models.InterfaceCounters, error) {
	stats, err := g.ioCounters(ctx, true)
	if err != nil {
		return nil, err
	}

	counters := make([]models.InterfaceCounters, 0, len(stats))
	for _, st := range stats {
		counters = append(counters, models.InterfaceCounters{
			Name:          st.Name,
			BytesReceived: st.BytesRecv,
			BytesSent:     st.BytesSent,
		})
	}
	return counters, nil
}
