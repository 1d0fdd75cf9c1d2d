package departures

import (
	"context"
	"fmt"
	"time"

	"github.com/travigo/vvs/pkg/coordinator"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/travigo/vvs/pkg/stations"
)

type Params struct {
	Start       string
	Destination string
	Limit       int
	RouteType   efa.RouteType
	Offset      int
}

type Coordinator struct {
	*coordinator.Coordinator[Snapshot]

	Params Params

	StartName       string
	DestinationName string

	fetcher  TripFetcher
	location *time.Location
	now      func() time.Time
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

func NewCoordinator(params Params, fetcher TripFetcher, table *stations.Table, location *time.Location, interval time.Duration, options ...Option) *Coordinator {
	c := &Coordinator{
		Params:          params,
		StartName:       table.FriendlyName(params.Start),
		DestinationName: table.FriendlyName(params.Destination),
		fetcher:         fetcher,
		location:        location,
		now:             time.Now,
	}

	for _, option := range options {
		option(c)
	}

	c.Coordinator = coordinator.New(
		fmt.Sprintf("VVS %s to %s", c.StartName, c.DestinationName),
		interval,
		c.update,
	)

	return c
}

// CheckTime is the moment trips are searched from: now plus the offset, in
// the display location.
func (c *Coordinator) CheckTime() time.Time {
	return c.now().In(c.location).Add(time.Duration(c.Params.Offset) * time.Minute)
}

func (c *Coordinator) update(ctx context.Context) (Snapshot, error) {
	// The configured route type is deliberately not sent here, trips are
	// ranked by the server default.
	rawTrips, err := c.fetcher.GetTrips(ctx, efa.TripRequest{
		Origin:      c.Params.Start,
		Destination: c.Params.Destination,
		CheckTime:   c.CheckTime(),
		Limit:       c.Params.Limit,
	})
	if err != nil {
		return Snapshot{}, err
	}

	if len(rawTrips) == 0 {
		return Snapshot{Trips: []Trip{}}, nil
	}

	return Snapshot{Trips: NormaliseTrips(rawTrips, c.location)}, nil
}
