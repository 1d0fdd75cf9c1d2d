package departures

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/efa"
)

const DisplayTimeFormat = "15:04"

type Trip struct {
	Departure      string   `json:"departure" groups:"basic,detailed"`
	DepartureDelay int      `json:"departure_delay" groups:"basic,detailed"`
	Arrival        string   `json:"arrival" groups:"basic,detailed"`
	ArrivalDelay   int      `json:"arrival_delay" groups:"basic,detailed"`
	Duration       int      `json:"duration" groups:"basic,detailed"`
	Transports     []string `json:"transports" groups:"detailed"`
	Via            []string `json:"via" groups:"detailed"`
}

// Snapshot is the complete result of one refresh cycle
type Snapshot struct {
	Trips []Trip `json:"trips" groups:"basic,detailed"`
}

// NormaliseTrips flattens EFA itineraries into trip records, keeping the
// order of the response. Itineraries without legs or without planned
// departure/arrival times are dropped.
func NormaliseTrips(rawTrips []efa.Trip, location *time.Location) []Trip {
	trips := []Trip{}

	for _, rawTrip := range rawTrips {
		if len(rawTrip.Connections) == 0 {
			log.Debug().Msg("Skipping trip without connections")
			continue
		}

		firstLeg := rawTrip.Connections[0]
		lastLeg := rawTrip.Connections[len(rawTrip.Connections)-1]

		if firstLeg.Origin == nil || lastLeg.Destination == nil ||
			firstLeg.Origin.DepartureTimePlanned == nil || lastLeg.Destination.ArrivalTimePlanned == nil {
			log.Debug().Msg("Skipping trip without planned times")
			continue
		}

		departurePlanned := *firstLeg.Origin.DepartureTimePlanned
		arrivalPlanned := *lastLeg.Destination.ArrivalTimePlanned

		trip := Trip{
			Departure:      formatLocal(departurePlanned, location),
			DepartureDelay: firstLeg.Origin.DepartureDelay(),
			Arrival:        formatLocal(arrivalPlanned, location),
			ArrivalDelay:   lastLeg.Destination.ArrivalDelay(),
			Duration:       int(arrivalPlanned.Sub(departurePlanned).Minutes()),
			Transports:     []string{},
			Via:            []string{},
		}

		for _, connection := range rawTrip.Connections {
			if number, transit := connection.LineNumber(); transit {
				trip.Transports = append(trip.Transports, number)
			}

			// Includes the final destination as the last element
			if connection.Destination != nil {
				trip.Via = append(trip.Via, connection.Destination.Name)
			}
		}

		trips = append(trips, trip)
	}

	return trips
}

// formatLocal renders an instant as wall clock time in location. EFA times
// are UTC instants and must never be formatted without conversion.
func formatLocal(instant time.Time, location *time.Location) string {
	return instant.In(location).Format(DisplayTimeFormat)
}
