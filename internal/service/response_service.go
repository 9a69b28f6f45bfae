package service

import "time"

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// LogFilter supports history filtering by time range, type and count.
type LogFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Type  string    // "", "TRANSITION", "SETTINGS", "SETTINGS_REJECTED", "SENSOR_FAULT", "STARTUP"
	Limit int       // 0 means defaultLogLimit
}
