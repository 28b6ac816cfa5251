package models

import "time"

// OverlayPosition is where the overlay sits and whether it may be dragged.
type OverlayPosition struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Locked bool `json:"locked"`
}

// Reading is everything a display sink needs for one update.
type Reading struct {
	Rates      Rates              `json:"rates"`
	Alert      AlertState         `json:"alert"`
	Interfaces []NetworkInterface `json:"interfaces"`
	TakenAt    time.Time          `json:"taken_at"`
	// SourceOK is false when the last counter read failed and Rates are the
	// last known averages.
	SourceOK bool `json:"source_ok"`
}
