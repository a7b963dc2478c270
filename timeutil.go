package main

import (
	"fmt"
	"time"

	"github.com/hako/durafmt"
)

// formatUptime renders a duration as "1d 2h 3m 4s", dropping the day
// component when it is zero. Negative durations clamp to zero.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// humanDuration produces the long form used in alert and log text,
// e.g. "5 minutes 12 seconds".
func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).String()
}
