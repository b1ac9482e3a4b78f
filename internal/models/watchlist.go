package models

import "time"

// WatchlistEntry represents a symbol the user is tracking, with optional
// target and stop prices kept as reference levels.
type WatchlistEntry struct {
	Symbol      string    `json:"symbol"`
	Enabled     bool      `json:"enabled"`
	Priority    int       `json:"priority"` // 1=high, 2=medium, 3=low
	TargetPrice *float64  `json:"target_price,omitempty"`
	StopPrice   *float64  `json:"stop_price,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	AddedAt     time.Time `json:"added_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
