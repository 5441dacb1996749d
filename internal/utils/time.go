package utils

import (
	"time"
)

// NowUnix returns the current time as unix seconds, the timestamp format
// used throughout the stored schema and the wire shape.
func NowUnix() int64 {
	return time.Now().Unix()
}

// UnixTimeToTime converts a Unix timestamp to a time.Time object
func UnixTimeToTime(unixTime int64) time.Time {
	return time.Unix(unixTime, 0)
}
