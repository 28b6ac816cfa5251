package ui

import (
	"fmt"

	"github.com/prabalesh/netoverlay/internal/models"
)

// FormatText renders a reading as the overlay line. Rates get one decimal
// place; the ping segment only appears while the alert is active.
func FormatText(r models.Reading) string {
	text := fmt.Sprintf("DL %.1f  |  UL %.1f", r.Rates.AvgDownloadMbps, r.Rates.AvgUploadMbps)
	if r.Alert.Active {
		text += fmt.Sprintf(" | PING %dms", r.Alert.HighPingMs)
	}
	return text
}
