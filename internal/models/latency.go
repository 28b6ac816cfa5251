package models

// LatencySample is the outcome of one probe. Replied is false when the host
// did not answer, which is not the same as zero latency.
type LatencySample struct {
	RoundTripMs uint32 `json:"round_trip_ms"`
	Replied     bool   `json:"replied"`
}

// AlertState is populated only while the latest reply exceeded the threshold.
type AlertState struct {
	HighPingMs uint32 `json:"high_ping_ms"`
	Active     bool   `json:"active"`
}
