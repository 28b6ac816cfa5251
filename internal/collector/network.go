package collector

import (
	"fmt"

	"github.com/prabalesh/netoverlay/internal/models"
)

func describeInterfaces(counters []models.InterfaceCounters, links *LinkCache) []models.NetworkInterface {
	if len(counters) == 0 {
		return nil
	}

	interfaces := make([]models.NetworkInterface, 0, len(counters))
	for _, c := range counters {
		info := LinkInfo{Status: "unknown"}
		if links != nil {
			info = links.Get(c.Name)
		}

		interfaces = append(interfaces, models.NetworkInterface{
			Name:      c.Name,
			RxBytes:   c.BytesReceived,
			TxBytes:   c.BytesSent,
			Status:    info.Status,
			Speed:     formatSpeed(info.SpeedMbps),
			SpeedMbps: info.SpeedMbps,
		})
	}
	return interfaces
}

func formatSpeed(mbps int64) string {
	if mbps <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d Mb/s", mbps)
}
