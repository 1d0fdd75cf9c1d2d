package stations

import (
	_ "embed"
	"errors"
	"os"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/util"
)

//go:embed stations.csv
var bundledStations []byte

var ErrEmptyTable = errors.New("station table is empty")

type Station struct {
	Name string `csv:"name"`
	ID   string `csv:"id"`
}

// Table is an immutable, ordered list of stations. The order is the order of
// the source file and decides which duplicate wins during a search.
type Table struct {
	stations []Station
	byID     map[string]int
}

func NewTable(stations []Station) *Table {
	table := &Table{
		stations: make([]Station, len(stations)),
		byID:     map[string]int{},
	}
	copy(table.stations, stations)

	for i, station := range table.stations {
		if _, exists := table.byID[station.ID]; !exists {
			table.byID[station.ID] = i
		}
	}

	return table
}

func ParseTable(data []byte) (*Table, error) {
	var rows []Station
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	return NewTable(rows), nil
}

func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseTable(data)
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the table from VVS_STATIONS_FILE when set, otherwise the
// partial table bundled into the binary
func Default() *Table {
	defaultTableOnce.Do(func() {
		if path := util.GetEnvironmentVariables()["VVS_STATIONS_FILE"]; path != "" {
			table, err := LoadFile(path)
			if err == nil {
				log.Info().Str("file", path).Int("stations", table.Len()).Msg("Loaded station table")
				defaultTable = table
				return
			}

			log.Error().Err(err).Str("file", path).Msg("Failed to load station table, using bundled table")
		}

		table, err := ParseTable(bundledStations)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse bundled station table")
		}

		log.Debug().Int("stations", table.Len()).Msg("Loaded station table")
		defaultTable = table
	})

	return defaultTable
}

func (t *Table) Len() int {
	return len(t.stations)
}

func (t *Table) Stations() []Station {
	stations := make([]Station, len(t.stations))
	copy(stations, t.stations)

	return stations
}

func (t *Table) Lookup(id string) (Station, bool) {
	i, exists := t.byID[id]
	if !exists {
		return Station{}, false
	}

	return t.stations[i], true
}

// FriendlyName turns a station ID back into a human readable name. The
// numeric suffix is kept here, unlike search labels.
func (t *Table) FriendlyName(id string) string {
	station, exists := t.Lookup(id)
	if !exists {
		return id
	}

	return humanise(station.Name)
}
