package configflow

import (
	"context"
	"errors"

	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/stations"
)

type ResultType string

const (
	ResultTypeForm        ResultType = "form"
	ResultTypeCreateEntry ResultType = "create_entry"
	ResultTypeAbort       ResultType = "abort"
)

const (
	StepUser           = "user"
	StepSelectStations = "select_stations"
)

// Error codes shown next to form fields. Errors not tied to a field use BaseErrorKey.
const (
	BaseErrorKey = "base"

	ErrorSearchTooShort = "search_too_short"
	ErrorNoStartMatches = "no_start_matches"
	ErrorNoDestMatches  = "no_dest_matches"
	ErrorInvalidStation = "invalid_station"
	ErrorInvalidValue   = "invalid_value"
	ErrorNoTrips        = "no_trips"
	ErrorCannotConnect  = "cannot_connect"
)

type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeSelect  FieldType = "select"
)

type Field struct {
	Name     string            `json:"name"`
	Type     FieldType         `json:"type"`
	Required bool              `json:"required"`
	Default  any               `json:"default,omitempty"`
	Options  []stations.Option `json:"options,omitempty"`
}

type Result struct {
	FlowID  string            `json:"flow_id"`
	Handler string            `json:"handler"`
	Type    ResultType        `json:"type"`
	StepID  string            `json:"step_id,omitempty"`
	Schema  []Field           `json:"data_schema,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Title   string            `json:"title,omitempty"`
	Entry   *entries.Entry    `json:"result,omitempty"`
}

// EntryCreator persists and loads a finished entry
type EntryCreator interface {
	CreateEntry(ctx context.Context, title string, data entries.Data) (*entries.Entry, error)
}

// optionsInput is the part of the route form shared by both flows
type optionsInput struct {
	Start          string         `json:"start"`
	Destination    string         `json:"destination"`
	Offset         *int           `json:"offset"`
	MaxConnections *int           `json:"max_connections"`
	RouteType      *efa.RouteType `json:"route_type"`
}

func (i optionsInput) data() entries.Data {
	data := entries.NewData(i.Start, i.Destination)
	if i.Offset != nil {
		data.Offset = *i.Offset
	}
	if i.MaxConnections != nil {
		data.MaxConnections = *i.MaxConnections
	}
	if i.RouteType != nil {
		data.RouteType = *i.RouteType
	}

	return data
}

func routeTypeOptions() []stations.Option {
	options := make([]stations.Option, 0, len(efa.RouteTypes))
	for _, routeType := range efa.RouteTypes {
		options = append(options, stations.Option{
			Label: efa.RouteTypeDescriptions[routeType],
			Value: string(routeType),
		})
	}

	return options
}

// optionFields are the offset, connection count and route type fields
func optionFields(defaults entries.Data) []Field {
	return []Field{
		{Name: entries.KeyOffset, Type: FieldTypeInteger, Default: defaults.Offset},
		{Name: entries.KeyMaxConnections, Type: FieldTypeInteger, Default: defaults.MaxConnections},
		{Name: entries.KeyRouteType, Type: FieldTypeSelect, Default: string(defaults.RouteType), Options: routeTypeOptions()},
	}
}

// validateOptions adds invalid_value for every non station field failing
// entry validation
func validateOptions(data entries.Data, formErrors map[string]string) {
	for _, field := range data.InvalidFields() {
		if field == entries.KeyStart || field == entries.KeyDestination {
			continue
		}

		formErrors[field] = ErrorInvalidValue
	}
}

// checkConnection runs the connectivity check and maps its failure onto a base error
func checkConnection(ctx context.Context, fetcher departures.TripFetcher, data entries.Data, formErrors map[string]string) {
	err := departures.ValidateConnection(ctx, fetcher, data.Start, data.Destination, data.RouteType)

	switch {
	case err == nil:
	case errors.Is(err, departures.ErrNoTrips):
		formErrors[BaseErrorKey] = ErrorNoTrips
	default:
		formErrors[BaseErrorKey] = ErrorCannotConnect
	}
}
