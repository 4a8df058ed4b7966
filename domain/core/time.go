package core

import (
	"time"
)

// StampLayout is the timestamp layout embedded in output file names
const StampLayout = "20060102_150405"

// Stamp formats t for use in output file names
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// Elapsed returns the duration since start rounded to milliseconds
func Elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
