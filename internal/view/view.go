package view

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/temcen/animerec/internal/backend"
	"github.com/temcen/animerec/pkg/models"
)

type Kind string

const (
	KindIdle       Kind = "idle"
	KindLoading    Kind = "loading"
	KindResults    Kind = "results"
	KindEmpty      Kind = "empty"
	KindError      Kind = "error"
	KindValidation Kind = "validation"
)

const placeholderImage = "https://placehold.co/300x400/283039/9cabba?text="

// State is everything the results region shows. It is computed, never mutated in place.
type State struct {
	Kind    Kind
	Query   string
	Heading string
	Message string
	Hint    string
	Cards   []Card
}

// Card is one rendered AnimeResult.
type Card struct {
	Rank         int
	Title        string
	Genres       string
	Themes       string
	Demographics string
	Score        string
	ImageURL     string
}

func (s State) Loading() bool {
	return s.Kind == KindLoading
}

func (s State) Failed() bool {
	return s.Kind == KindError || s.Kind == KindValidation
}

func Idle() State {
	return State{Kind: KindIdle}
}

func Loading(query, message string) State {
	return State{Kind: KindLoading, Query: query, Message: message}
}

// Error shows message as an error display with no query attached.
func Error(message string) State {
	return State{Kind: KindError, Message: message}
}

func Validation(message string) State {
	return State{Kind: KindValidation, Message: message}
}

// Build maps the outcome of one recommendation request to a display state. A non-nil err
// wins over recs.
func Build(query string, recs []models.AnimeResult, err error) State {
	if err != nil {
		return Failure(query, err)
	}

	if len(recs) == 0 {
		return State{
			Kind:    KindEmpty,
			Query:   query,
			Message: fmt.Sprintf("No recommendations found for \"%s\".", query),
			Hint:    "Try searching for a different anime or browse by category.",
		}
	}

	cards := make([]Card, 0, len(recs))
	for i, rec := range recs {
		cards = append(cards, NewCard(i+1, rec))
	}

	return State{
		Kind:    KindResults,
		Query:   query,
		Heading: fmt.Sprintf("Recommendations for \"%s\"", query),
		Message: "Based on your preferences",
		Cards:   cards,
	}
}

// Failure renders err: backend messages verbatim after "Error: ", transport failures after
// "Network error: ".
func Failure(query string, err error) State {
	var appErr *backend.ApplicationError
	var transportErr *backend.TransportError

	message := "Error: " + err.Error()
	switch {
	case errors.As(err, &appErr):
		message = "Error: " + appErr.Message
	case errors.As(err, &transportErr):
		message = "Network error: " + transportErr.Err.Error()
	}

	return State{Kind: KindError, Query: query, Message: message}
}

func NewCard(rank int, rec models.AnimeResult) Card {
	card := Card{
		Rank:         rank,
		Title:        rec.Title,
		Genres:       rec.Genres,
		Themes:       rec.Themes,
		Demographics: rec.Demographics,
		ImageURL:     placeholderImage + strings.ReplaceAll(url.QueryEscape(rec.Title), "+", "%20"),
	}
	if card.Genres == "" {
		card.Genres = "N/A"
	}
	if rec.SimilarityScore != nil {
		card.Score = fmt.Sprintf("%.4f", *rec.SimilarityScore)
	}
	return card
}
