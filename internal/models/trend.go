package models

import "time"

// Direction classifies a metric's movement between two adjacent windows.
type Direction string

const (
	DirectionRising  Direction = "rising"
	DirectionFalling Direction = "falling"
	DirectionFlat    Direction = "flat"
)

// MetricDelta compares one metric across the previous and current
// sub-windows. A metric with no previous value and a non-zero current value
// is New; its percent change is undefined and left at zero.
type MetricDelta struct {
	Metric        string    `json:"metric"`
	Previous      float64   `json:"previous"`
	Current       float64   `json:"current"`
	Delta         float64   `json:"delta"`
	PercentChange float64   `json:"percent_change"`
	New           bool      `json:"new"`
	Direction     Direction `json:"direction"`
}

// TrendReport is the two-window comparison for a target.
type TrendReport struct {
	Target         Target        `json:"target"`
	Window         Window        `json:"window"`
	PreviousWindow Window        `json:"previous_window"`
	CurrentWindow  Window        `json:"current_window"`
	Metrics        []MetricDelta `json:"metrics"`
	Partial        bool          `json:"partial"`
	BuiltAt        time.Time     `json:"built_at"`
}
