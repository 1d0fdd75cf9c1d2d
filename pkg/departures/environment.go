package departures

import (
	"time"

	"github.com/travigo/vvs/pkg/util"
)

const defaultTimezone = "Europe/Berlin"

// LocationFromEnvironment is the timezone trip times are displayed in and
// check times are sent in
func LocationFromEnvironment() (*time.Location, error) {
	return time.LoadLocation(util.GetEnvironmentVariable("VVS_TIMEZONE", defaultTimezone))
}
