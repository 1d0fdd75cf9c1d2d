package entries

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/vvs/pkg/efa"
)

const (
	KeyStart          = "start"
	KeyDestination    = "destination"
	KeyOffset         = "offset"
	KeyMaxConnections = "max_connections"
	KeyRouteType      = "route_type"
)

const (
	DefaultOffset         = 0
	DefaultMaxConnections = 3
	DefaultRouteType      = efa.RouteTypeLeastTime
)

type Entry struct {
	EntryID   string    `json:"entry_id" bson:"entryid"`
	Title     string    `json:"title" bson:"title"`
	Data      Data      `json:"data" bson:"data"`
	CreatedAt time.Time `json:"created_at" bson:"createdat"`
}

// Data is the configuration of one monitored route. It is never changed
// after the entry has been created.
type Data struct {
	Start          string        `json:"start" bson:"start" yaml:"start" validate:"required"`
	Destination    string        `json:"destination" bson:"destination" yaml:"destination" validate:"required"`
	Offset         int           `json:"offset" bson:"offset" yaml:"offset" validate:"gte=0"`
	MaxConnections int           `json:"max_connections" bson:"max_connections" yaml:"max_connections" validate:"gt=0"`
	RouteType      efa.RouteType `json:"route_type" bson:"route_type" yaml:"route_type" validate:"oneof=leasttime leastinterchange leastwalking"`
}

var dataValidator = validator.New(validator.WithRequiredStructEnabled())

func init() {
	dataValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
}

func NewData(start string, destination string) Data {
	return Data{
		Start:          start,
		Destination:    destination,
		Offset:         DefaultOffset,
		MaxConnections: DefaultMaxConnections,
		RouteType:      DefaultRouteType,
	}
}

func (d Data) Validate() error {
	return dataValidator.Struct(d)
}

// InvalidFields returns the keys of every field failing validation
func (d Data) InvalidFields() []string {
	err := d.Validate()
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	var fields []string
	for _, fieldError := range validationErrors {
		fields = append(fields, fieldError.Field())
	}

	return fields
}
