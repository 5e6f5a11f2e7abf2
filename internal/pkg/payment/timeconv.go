package payment

import "time"

// unixTime converts provider epoch seconds to calendar time.
func unixTime(secs int64) time.Time {
	return time.Unix(secs, 0)
}

// unixTimePtr converts an optional epoch-seconds value; zero means the
// field is absent upstream and maps to nil.
func unixTimePtr(secs int64) *time.Time {
	if secs == 0 {
		return nil
	}
	t := time.Unix(secs, 0)
	return &t
}
