package models

import "time"

// InterfaceCounters is one interface's cumulative byte counters as reported
// by a counter source.
type InterfaceCounters struct {
	Name          string `json:"name"`
	BytesReceived uint64 `json:"bytes_received"`
	BytesSent     uint64 `json:"bytes_sent"`
}

// CounterSnapshot aggregates the matching interfaces at one instant. Totals
// only grow while interfaces stay up and drop back when one is reset.
type CounterSnapshot struct {
	BytesReceived uint64              `json:"bytes_received"`
	BytesSent     uint64              `json:"bytes_sent"`
	TakenAt       time.Time           `json:"taken_at"`
	Interfaces    []InterfaceCounters `json:"interfaces"`
}

// NetworkInterface is the display record of one interface.
type NetworkInterface struct {
	Name    string `json:"name"`
	RxBytes uint64 `json:"rx_bytes"`
	TxBytes uint64 `json:"tx_bytes"`
	Status  string `json:"status"`
	Speed   string `json:"speed"`
	// SpeedMbps is 0 when the link speed is unknown.
	SpeedMbps int64 `json:"speed_mbps"`
}

// Rates holds the smoothed and instantaneous throughput of the last tick in
// megabits per tick.
type Rates struct {
	AvgDownloadMbps float64 `json:"avg_download_mbps"`
	AvgUploadMbps   float64 `json:"avg_upload_mbps"`
	DownloadMbps    float64 `json:"download_mbps"`
	UploadMbps      float64 `json:"upload_mbps"`
}
