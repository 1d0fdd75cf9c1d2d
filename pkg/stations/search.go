package stations

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const MaxSearchResults = 50

// MinSearchLength is enforced by callers, Search itself accepts any term
const MinSearchLength = 3

// LongEnough reports whether term has at least MinSearchLength characters
func LongEnough(term string) bool {
	return utf8.RuneCountInString(term) >= MinSearchLength
}

var duplicateSuffixRegex = regexp.MustCompile(`_\d+$`)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BaseName strips the trailing "_<digits>" used to tell apart stations sharing a name
func BaseName(name string) string {
	return duplicateSuffixRegex.ReplaceAllString(name, "")
}

// Label converts a station name into the label shown to users
func Label(name string) string {
	return humanise(BaseName(name))
}

var titleCaser = cases.Title(language.German)

// humanise title cases every run of letters on its own, so a letter after a
// digit or apostrophe starts a new word ("3RD" is "3Rd", "O'BRIEN" is "O'Brien").
func humanise(name string) string {
	spaced := strings.ReplaceAll(name, "_", " ")

	var builder strings.Builder
	runStart := -1
	for i, r := range spaced {
		if unicode.IsLetter(r) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}

		if runStart >= 0 {
			builder.WriteString(titleCaser.String(spaced[runStart:i]))
			runStart = -1
		}
		builder.WriteRune(r)
	}
	if runStart >= 0 {
		builder.WriteString(titleCaser.String(spaced[runStart:]))
	}

	return builder.String()
}

// Search returns up to MaxSearchResults options whose station name contains
// term, one per label, sorted by label.
func Search(table *Table, term string) []Option {
	cleanTerm := strings.ReplaceAll(strings.ToLower(term), " ", "_")

	var matches []Option
	seenLabels := map[string]bool{}

	for _, station := range table.stations {
		if !strings.Contains(strings.ToLower(station.Name), cleanTerm) {
			continue
		}

		label := Label(station.Name)
		if !seenLabels[label] {
			matches = append(matches, Option{Label: label, Value: station.ID})
			seenLabels[label] = true
		}

		if len(matches) >= MaxSearchResults {
			break
		}
	}

	slices.SortStableFunc(matches, func(a, b Option) int {
		return strings.Compare(a.Label, b.Label)
	})

	return matches
}

// FindOption returns the option with the given value, if present
func FindOption(options []Option, value string) (Option, bool) {
	i := slices.IndexFunc(options, func(o Option) bool {
		return o.Value == value
	})
	if i < 0 {
		return Option{}, false
	}

	return options[i], true
}
