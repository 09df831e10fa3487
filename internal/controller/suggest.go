package controller

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MinSuggestionInput = 2
	MaxSuggestions     = 10
)

// FilterSuggestions returns up to MaxSuggestions titles containing partial, ignoring case, in
// their original order. partial is matched as typed, surrounding spaces included. Inputs
// shorter than MinSuggestionInput characters match nothing.
func FilterSuggestions(titles []string, partial string) []string {
	if utf8.RuneCountInString(partial) < MinSuggestionInput {
		return nil
	}

	fold := cases.Fold()
	needle := fold.String(partial)

	var matches []string
	for _, title := range titles {
		if strings.Contains(fold.String(title), needle) {
			matches = append(matches, title)
			if len(matches) == MaxSuggestions {
				break
			}
		}
	}
	return matches
}

// ParseList splits comma-separated input into trimmed, non-empty entries.
func ParseList(input string) []string {
	items := []string{}
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// CategoryGenres maps a category control to the genre filter it requests. AllCategory clears
// the filter.
func CategoryGenres(category string) []string {
	if category == AllCategory {
		return []string{}
	}
	return []string{cases.Lower(language.Und).String(category)}
}
