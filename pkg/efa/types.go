package efa

import (
	"time"
)

type RouteType string

const (
	RouteTypeLeastTime        RouteType = "leasttime"
	RouteTypeLeastInterchange RouteType = "leastinterchange"
	RouteTypeLeastWalking     RouteType = "leastwalking"
)

var RouteTypes = []RouteType{RouteTypeLeastTime, RouteTypeLeastInterchange, RouteTypeLeastWalking}

var RouteTypeDescriptions = map[RouteType]string{
	RouteTypeLeastTime:        "Fastest (Least Time)",
	RouteTypeLeastInterchange: "Least Interchanges",
	RouteTypeLeastWalking:     "Least Walking",
}

type TripResponse struct {
	Journeys []Trip `json:"journeys"`
}

// Trip is one itinerary made of ordered connections (legs)
type Trip struct {
	Interchanges int          `json:"interchanges"`
	Connections  []Connection `json:"legs"`
}

type Connection struct {
	Duration       int             `json:"duration"`
	Origin         *Stop           `json:"origin"`
	Destination    *Stop           `json:"destination"`
	Transportation *Transportation `json:"transportation"`
}

type Stop struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DisassembledName string `json:"disassembledName"`

	DepartureTimePlanned   *time.Time `json:"departureTimePlanned"`
	DepartureTimeEstimated *time.Time `json:"departureTimeEstimated"`
	ArrivalTimePlanned     *time.Time `json:"arrivalTimePlanned"`
	ArrivalTimeEstimated   *time.Time `json:"arrivalTimeEstimated"`
}

// DepartureDelay is the difference between estimated and planned departure in whole minutes
func (s *Stop) DepartureDelay() int {
	return delayMinutes(s.DepartureTimePlanned, s.DepartureTimeEstimated)
}

func (s *Stop) ArrivalDelay() int {
	return delayMinutes(s.ArrivalTimePlanned, s.ArrivalTimeEstimated)
}

func delayMinutes(planned *time.Time, estimated *time.Time) int {
	if planned == nil || estimated == nil {
		return 0
	}

	return int(estimated.Sub(*planned).Minutes())
}

type Transportation struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Number           string  `json:"number"`
	DisassembledName string  `json:"disassembledName"`
	Product          Product `json:"product"`
	Destination      struct {
		Name string `json:"name"`
	} `json:"destination"`
}

type Product struct {
	ID    int    `json:"id"`
	Class int    `json:"class"`
	Name  string `json:"name"`
}

// EFA product classes that are not transit rides
var nonTransitProductClasses = []int{97, 98, 99, 100, 105, 106, 107}

// LineNumber returns the line number for transit legs, or false for walking legs
func (c *Connection) LineNumber() (string, bool) {
	if c.Transportation == nil {
		return "", false
	}

	for _, class := range nonTransitProductClasses {
		if c.Transportation.Product.Class == class {
			return "", false
		}
	}

	if c.Transportation.Number != "" {
		return c.Transportation.Number, true
	}

	return c.Transportation.DisassembledName, true
}
