package coordinator

import (
	"fmt"
	"time"

	iso8601 "github.com/senseyeio/duration"
)

var intervalReference = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseInterval reads an ISO8601 duration such as "PT2M". An empty value
// gives DefaultInterval.
func ParseInterval(value string) (time.Duration, error) {
	if value == "" {
		return DefaultInterval, nil
	}

	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, err
	}

	interval := duration.Shift(intervalReference).Sub(intervalReference)
	if interval <= 0 {
		return 0, fmt.Errorf("interval %q must be positive", value)
	}

	return interval, nil
}
