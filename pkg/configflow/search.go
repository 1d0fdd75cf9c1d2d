package configflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/stations"
)

const HandlerSearch = "search"

// Search term keys of the user step
const (
	KeyStartSearch = "start_search"
	KeyDestSearch  = "dest_search"
)

type searchInput struct {
	StartSearch string `json:"start_search"`
	DestSearch  string `json:"dest_search"`
}

// SearchFlow asks for two search terms first and lets the user pick the
// matching stations in a second step.
type SearchFlow struct {
	Table   *stations.Table
	Fetcher departures.TripFetcher
	Creator EntryCreator

	step        string
	startTerm   string
	destTerm    string
	errors      map[string]string
	lastOptions *entries.Data
}

func NewSearchFlow(table *stations.Table, fetcher departures.TripFetcher, creator EntryCreator) *SearchFlow {
	return &SearchFlow{
		Table:   table,
		Fetcher: fetcher,
		Creator: creator,
		step:    StepUser,
	}
}

func (f *SearchFlow) Handler() string {
	return HandlerSearch
}

// Show renders the current step. Options are searched again on every call.
func (f *SearchFlow) Show() Result {
	if f.step == StepSelectStations {
		return f.selectForm()
	}

	return Result{
		Type:   ResultTypeForm,
		StepID: StepUser,
		Schema: []Field{
			{Name: KeyStartSearch, Type: FieldTypeString, Required: true, Default: f.startTerm},
			{Name: KeyDestSearch, Type: FieldTypeString, Required: true, Default: f.destTerm},
		},
		Errors: f.errors,
	}
}

func (f *SearchFlow) selectForm() Result {
	defaults := entries.NewData("", "")
	if f.lastOptions != nil {
		defaults = *f.lastOptions
	}

	startField := Field{Name: entries.KeyStart, Type: FieldTypeSelect, Required: true, Options: stations.Search(f.Table, f.startTerm)}
	destField := Field{Name: entries.KeyDestination, Type: FieldTypeSelect, Required: true, Options: stations.Search(f.Table, f.destTerm)}
	if defaults.Start != "" {
		startField.Default = defaults.Start
	}
	if defaults.Destination != "" {
		destField.Default = defaults.Destination
	}

	return Result{
		Type:   ResultTypeForm,
		StepID: StepSelectStations,
		Schema: append([]Field{startField, destField}, optionFields(defaults)...),
		Errors: f.errors,
	}
}

func (f *SearchFlow) Submit(ctx context.Context, body []byte) (Result, error) {
	if f.step == StepSelectStations {
		return f.submitSelect(ctx, body)
	}

	return f.submitUser(body)
}

func (f *SearchFlow) submitUser(body []byte) (Result, error) {
	var input searchInput
	if err := json.Unmarshal(body, &input); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	startTerm := strings.TrimSpace(input.StartSearch)
	destTerm := strings.TrimSpace(input.DestSearch)

	f.startTerm = startTerm
	f.destTerm = destTerm
	formErrors := map[string]string{}

	if !stations.LongEnough(startTerm) {
		formErrors[KeyStartSearch] = ErrorSearchTooShort
	}
	if !stations.LongEnough(destTerm) {
		formErrors[KeyDestSearch] = ErrorSearchTooShort
	}

	if len(formErrors) == 0 {
		if len(stations.Search(f.Table, startTerm)) == 0 {
			formErrors[KeyStartSearch] = ErrorNoStartMatches
		}
		if len(stations.Search(f.Table, destTerm)) == 0 {
			formErrors[KeyDestSearch] = ErrorNoDestMatches
		}
	}

	if len(formErrors) > 0 {
		f.errors = formErrors
		return f.Show(), nil
	}

	f.errors = nil
	f.step = StepSelectStations

	return f.Show(), nil
}

func (f *SearchFlow) submitSelect(ctx context.Context, body []byte) (Result, error) {
	var input optionsInput
	if err := json.Unmarshal(body, &input); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	data := input.data()
	f.lastOptions = &data
	formErrors := map[string]string{}

	startOption, startFound := stations.FindOption(stations.Search(f.Table, f.startTerm), data.Start)
	if !startFound {
		formErrors[entries.KeyStart] = ErrorInvalidStation
	}
	destOption, destFound := stations.FindOption(stations.Search(f.Table, f.destTerm), data.Destination)
	if !destFound {
		formErrors[entries.KeyDestination] = ErrorInvalidStation
	}

	validateOptions(data, formErrors)

	if len(formErrors) == 0 {
		checkConnection(ctx, f.Fetcher, data, formErrors)
	}

	if len(formErrors) > 0 {
		f.errors = formErrors
		return f.Show(), nil
	}

	title := fmt.Sprintf("%s - %s", optionLabel(startOption, data.Start), optionLabel(destOption, data.Destination))

	entry, err := f.Creator.CreateEntry(ctx, title, data)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Type:  ResultTypeCreateEntry,
		Title: title,
		Entry: entry,
	}, nil
}

func optionLabel(option stations.Option, fallback string) string {
	if option.Label == "" {
		return fallback
	}

	return option.Label
}
