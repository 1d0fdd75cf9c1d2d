package configflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/stations"
)

const HandlerDirect = "direct"

// DirectFlow takes station ids straight away in a single step
type DirectFlow struct {
	Table   *stations.Table
	Fetcher departures.TripFetcher
	Creator EntryCreator

	errors      map[string]string
	lastOptions *entries.Data
}

func NewDirectFlow(table *stations.Table, fetcher departures.TripFetcher, creator EntryCreator) *DirectFlow {
	return &DirectFlow{
		Table:   table,
		Fetcher: fetcher,
		Creator: creator,
	}
}

func (f *DirectFlow) Handler() string {
	return HandlerDirect
}

func (f *DirectFlow) Show() Result {
	defaults := entries.NewData("", "")
	if f.lastOptions != nil {
		defaults = *f.lastOptions
	}

	return Result{
		Type:   ResultTypeForm,
		StepID: StepUser,
		Schema: append([]Field{
			{Name: entries.KeyStart, Type: FieldTypeString, Required: true, Default: defaults.Start},
			{Name: entries.KeyDestination, Type: FieldTypeString, Required: true, Default: defaults.Destination},
		}, optionFields(defaults)...),
		Errors: f.errors,
	}
}

func (f *DirectFlow) Submit(ctx context.Context, body []byte) (Result, error) {
	var input optionsInput
	if err := json.Unmarshal(body, &input); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	data := input.data()
	f.lastOptions = &data
	formErrors := map[string]string{}

	if _, exists := f.Table.Lookup(data.Start); !exists {
		formErrors[entries.KeyStart] = ErrorInvalidStation
	}
	if _, exists := f.Table.Lookup(data.Destination); !exists {
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

	title := fmt.Sprintf("%s - %s", f.Table.FriendlyName(data.Start), f.Table.FriendlyName(data.Destination))

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
