package sensor

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/util"
)

const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"

	Icon = "mdi:train"
)

// Source is the read side of a departures coordinator
type Source interface {
	Data() (departures.Snapshot, bool)
	LastUpdateSuccess() bool
	LastUpdate() time.Time
}

// Sensor is the next departure projection of a coordinator snapshot. It
// never writes to the coordinator.
type Sensor struct {
	EntryID string
	Name    string

	source Source
}

type State struct {
	EntityID    string         `json:"entity_id" groups:"basic,detailed"`
	UniqueID    string         `json:"unique_id" groups:"detailed"`
	State       string         `json:"state" groups:"basic,detailed"`
	Attributes  map[string]any `json:"attributes" groups:"detailed"`
	LastUpdated time.Time      `json:"last_updated" groups:"basic,detailed"`
}

func New(entryID string, startName string, destinationName string, source Source) *Sensor {
	return &Sensor{
		EntryID: entryID,
		Name:    fmt.Sprintf("%s to %s", startName, destinationName),
		source:  source,
	}
}

func (s *Sensor) UniqueID() string {
	return fmt.Sprintf("%s_next_departure", s.EntryID)
}

func (s *Sensor) EntityID() string {
	return fmt.Sprintf("sensor.vvs_%s", util.Slugify(s.Name))
}

func (s *Sensor) Available() bool {
	return s.source.LastUpdateSuccess()
}

// NativeValue is the departure time of the first trip, false when there is none
func (s *Sensor) NativeValue() (string, bool) {
	snapshot, hasData := s.source.Data()
	if !hasData || len(snapshot.Trips) == 0 {
		return "", false
	}

	return snapshot.Trips[0].Departure, true
}

// Attributes exposes every trip of the snapshot. The returned value is a copy.
func (s *Sensor) Attributes() map[string]any {
	snapshot, hasData := s.source.Data()
	if !hasData {
		return map[string]any{}
	}

	trips := make([]departures.Trip, 0, len(snapshot.Trips))
	if len(snapshot.Trips) > 0 {
		if err := copier.CopyWithOption(&trips, snapshot.Trips, copier.Option{DeepCopy: true}); err != nil {
			log.Error().Err(err).Str("entry", s.EntryID).Msg("Failed to copy trips")
		}
	}

	return map[string]any{
		"trips": trips,
	}
}

func (s *Sensor) StateValue() string {
	if !s.Available() {
		return StateUnavailable
	}

	value, hasValue := s.NativeValue()
	if !hasValue {
		return StateUnknown
	}

	return value
}

func (s *Sensor) State() State {
	attributes := s.Attributes()
	attributes["friendly_name"] = s.Name
	attributes["icon"] = Icon

	return State{
		EntityID:    s.EntityID(),
		UniqueID:    s.UniqueID(),
		State:       s.StateValue(),
		Attributes:  attributes,
		LastUpdated: s.source.LastUpdate(),
	}
}
