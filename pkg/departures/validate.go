package departures

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/efa"
)

var (
	ErrNoTrips       = errors.New("no trips found between these stations")
	ErrCannotConnect = errors.New("connection error")
)

type TripFetcher interface {
	GetTrips(ctx context.Context, tripRequest efa.TripRequest) ([]efa.Trip, error)
}

// ValidateConnection asks for a single trip between the two stations
func ValidateConnection(ctx context.Context, fetcher TripFetcher, start string, destination string, routeType efa.RouteType) error {
	trips, err := fetcher.GetTrips(ctx, efa.TripRequest{
		Origin:      start,
		Destination: destination,
		Limit:       1,
		RouteType:   routeType,
	})
	if err != nil {
		log.Error().Err(err).Str("start", start).Str("destination", destination).Msg("VVS connection test failed")
		return fmt.Errorf("%w: %w", ErrCannotConnect, err)
	}

	if len(trips) == 0 {
		return ErrNoTrips
	}

	return nil
}
