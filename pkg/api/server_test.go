package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/vvs/pkg/configflow"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/setup"
	"github.com/travigo/vvs/pkg/stations"
)

type fakeFetcher struct {
	mutex sync.Mutex
	trips []efa.Trip
	err   error
}

func (f *fakeFetcher) GetTrips(ctx context.Context, tripRequest efa.TripRequest) ([]efa.Trip, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.trips, f.err
}

func (f *fakeFetcher) set(trips []efa.Trip, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.trips = trips
	f.err = err
}

func oneTrip() []efa.Trip {
	departure := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	arrival := departure.Add(27 * time.Minute)

	return []efa.Trip{{Connections: []efa.Connection{{
		Origin:         &efa.Stop{Name: "Hauptbf", DepartureTimePlanned: &departure},
		Destination:    &efa.Stop{Name: "Vaihingen", ArrivalTimePlanned: &arrival},
		Transportation: &efa.Transportation{Number: "S1", Product: efa.Product{Class: 1}},
	}}}}
}

func newTestApp(t *testing.T, fetcher *fakeFetcher) (*fiber.App, *setup.Manager) {
	table := stations.NewTable([]stations.Station{
		{Name: "HAUPTBAHNHOF_TIEF", ID: "hbf"},
		{Name: "VAIHINGEN", ID: "vai"},
	})

	manager := setup.NewManager(entries.NewMemoryStore(), fetcher, table, time.UTC, time.Hour)
	t.Cleanup(manager.Stop)

	return NewApp(Server{
		Table:   table,
		Flows:   configflow.NewManager(table, fetcher, manager),
		Entries: manager,
	}), manager
}

func doRequest(t *testing.T, app *fiber.App, method string, target string, body string) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func TestVersion(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})

	status, body := doRequest(t, app, http.MethodGet, "/core/version", "")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"version": "v1.0"}`, string(body))
}

func TestStationSearch(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})

	status, body := doRequest(t, app, http.MethodGet, "/core/stations?q=vaih", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"label": "Vaihingen", "value": "vai"}]`, string(body))

	status, body = doRequest(t, app, http.MethodGet, "/core/stations?q=zzzz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = doRequest(t, app, http.MethodGet, "/core/stations?q=va", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodGet, "/core/stations?q=%C3%96l", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFlowCreatesEntryAndSensor(t *testing.T) {
	app, manager := newTestApp(t, &fakeFetcher{trips: oneTrip()})

	status, body := doRequest(t, app, http.MethodPost, "/core/flows", `{"handler": "search"}`)
	require.Equal(t, http.StatusOK, status)

	var result configflow.Result
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotEmpty(t, result.FlowID)

	status, body = doRequest(t, app, http.MethodPost, "/core/flows/"+result.FlowID, `{"start_search": "haupt", "dest_search": "vaihingen"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, configflow.StepSelectStations, result.StepID)

	status, body = doRequest(t, app, http.MethodPost, "/core/flows/"+result.FlowID, `{"start": "hbf", "destination": "vai"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, configflow.ResultTypeCreateEntry, result.Type)
	assert.Equal(t, "Hauptbahnhof Tief - Vaihingen", result.Title)
	require.NotNil(t, result.Entry)

	entryID := result.Entry.EntryID
	_, err := manager.Runtime(entryID)
	require.NoError(t, err)

	status, body = doRequest(t, app, http.MethodGet, "/core/entries", "")
	require.Equal(t, http.StatusOK, status)

	var entryViews []map[string]any
	require.NoError(t, json.Unmarshal(body, &entryViews))
	require.Len(t, entryViews, 1)
	assert.Equal(t, entryID, entryViews[0]["entry_id"])
	assert.Equal(t, "loaded", entryViews[0]["state"])

	status, body = doRequest(t, app, http.MethodGet, "/core/sensors", "")
	require.Equal(t, http.StatusOK, status)

	var sensorStates []map[string]any
	require.NoError(t, json.Unmarshal(body, &sensorStates))
	require.Len(t, sensorStates, 1)
	assert.Equal(t, "09:00", sensorStates[0]["state"])
	assert.Equal(t, "sensor.vvs_hauptbahnhof_tief_to_vaihingen", sensorStates[0]["entity_id"])
	assert.NotContains(t, sensorStates[0], "attributes")

	status, body = doRequest(t, app, http.MethodGet, "/core/sensors/"+entryID, "")
	require.Equal(t, http.StatusOK, status)

	var sensorState map[string]any
	require.NoError(t, json.Unmarshal(body, &sensorState))
	assert.Equal(t, entryID+"_next_departure", sensorState["unique_id"])
	attributes := sensorState["attributes"].(map[string]any)
	assert.Equal(t, "mdi:train", attributes["icon"])
	assert.Len(t, attributes["trips"], 1)
}

func TestFlowErrors(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})

	status, _ := doRequest(t, app, http.MethodPost, "/core/flows", `{"handler": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodGet, "/core/flows/missing", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := doRequest(t, app, http.MethodPost, "/core/flows", "")
	require.Equal(t, http.StatusOK, status)

	var result configflow.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, configflow.HandlerSearch, result.Handler)

	status, _ = doRequest(t, app, http.MethodPost, "/core/flows/"+result.FlowID, `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(t, app, http.MethodDelete, "/core/flows/"+result.FlowID, "")
	assert.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, configflow.ResultTypeAbort, result.Type)
}

func TestSensorRefreshAndRemove(t *testing.T) {
	fetcher := &fakeFetcher{trips: oneTrip()}
	app, manager := newTestApp(t, fetcher)

	entry, err := manager.CreateEntry(context.Background(), "route", entries.NewData("hbf", "vai"))
	require.NoError(t, err)

	fetcher.set(nil, errors.New("timeout"))

	status, body := doRequest(t, app, http.MethodPost, "/core/sensors/"+entry.EntryID+"/refresh", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, string(body), "unavailable")

	fetcher.set(oneTrip(), nil)

	status, body = doRequest(t, app, http.MethodPost, "/core/sensors/"+entry.EntryID+"/refresh", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"state":"09:00"`)

	status, _ = doRequest(t, app, http.MethodDelete, "/core/entries/"+entry.EntryID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/core/entries/"+entry.EntryID, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodGet, "/core/sensors/"+entry.EntryID, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/core/entries/"+entry.EntryID, "")
	assert.Equal(t, http.StatusNotFound, status)
}
