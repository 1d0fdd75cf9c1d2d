package efa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/util"
)

const defaultBaseURL = "https://www3.vvs.de/mngvvs"
const defaultTimeout = 30 * time.Second

var ErrUnexpectedStatus = errors.New("unexpected response status from EFA")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Location is the timezone the EFA server interprets itdDate/itdTime in
	Location *time.Location
}

// TripRequest mirrors the optional arguments of a trip query. A zero
// CheckTime means now, a zero Limit leaves the server default and an empty
// RouteType leaves the server default ranking.
type TripRequest struct {
	Origin      string
	Destination string
	CheckTime   time.Time
	Limit       int
	RouteType   RouteType
}

func NewClient(location *time.Location) *Client {
	return &Client{
		BaseURL:    util.GetEnvironmentVariable("VVS_EFA_URL", defaultBaseURL),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Location:   location,
	}
}

func (c *Client) GetTrips(ctx context.Context, tripRequest TripRequest) ([]Trip, error) {
	requestURL := fmt.Sprintf("%s/XML_TRIP_REQUEST2?%s", c.BaseURL, c.tripQuery(tripRequest).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "travigo-vvs")
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	startTime := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	jsonBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tripResponse TripResponse
	if err := json.Unmarshal(jsonBytes, &tripResponse); err != nil {
		return nil, fmt.Errorf("decode trip response: %w", err)
	}

	trips := tripResponse.Journeys
	if tripRequest.Limit > 0 && len(trips) > tripRequest.Limit {
		trips = trips[:tripRequest.Limit]
	}

	log.Debug().
		Str("origin", tripRequest.Origin).
		Str("destination", tripRequest.Destination).
		Int("trips", len(trips)).
		Str("latency", time.Since(startTime).String()).
		Msg("EFA trip request")

	return trips, nil
}

func (c *Client) tripQuery(tripRequest TripRequest) url.Values {
	location := c.Location
	if location == nil {
		location = time.Local
	}

	checkTime := tripRequest.CheckTime
	if checkTime.IsZero() {
		checkTime = time.Now()
	}
	// The server expects wall clock time at the origin, never UTC
	checkTime = checkTime.In(location)

	query := url.Values{}
	query.Set("outputFormat", "rapidJSON")
	query.Set("coordOutputFormat", "EPSG:4326")
	query.Set("language", "de")
	query.Set("locationServerActive", "1")
	query.Set("useRealtime", "1")
	query.Set("useUT", "1")
	query.Set("calcOneDirection", "1")
	query.Set("itdTripDateTimeDepArr", "dep")
	query.Set("type_origin", "any")
	query.Set("name_origin", tripRequest.Origin)
	query.Set("type_destination", "any")
	query.Set("name_destination", tripRequest.Destination)
	query.Set("itdDate", checkTime.Format("20060102"))
	query.Set("itdTime", checkTime.Format("1504"))

	if tripRequest.Limit > 0 {
		query.Set("calcNumberOfTrips", strconv.Itoa(tripRequest.Limit))
	}

	if tripRequest.RouteType != "" {
		query.Set("routeType", string(tripRequest.RouteType))
	}

	return query
}
