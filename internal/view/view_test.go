package view

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/animerec/internal/backend"
	"github.com/temcen/animerec/pkg/models"
)

func score(v float64) *float64 {
	return &v
}

func TestBuild(t *testing.T) {
	t.Run("empty results show the empty state", func(t *testing.T) {
		for _, recs := range [][]models.AnimeResult{nil, {}} {
			state := Build("Naruto", recs, nil)
			assert.Equal(t, KindEmpty, state.Kind)
			assert.Equal(t, `No recommendations found for "Naruto".`, state.Message)
			assert.False(t, state.Failed())
			assert.Empty(t, state.Cards)
		}
	})

	t.Run("results become ordered cards", func(t *testing.T) {
		state := Build("Cowboy Bebop", []models.AnimeResult{
			{Title: "Samurai Champloo", Genres: "Action, Adventure", SimilarityScore: score(0.81234567)},
			{Title: "Trigun", Themes: "Space"},
		}, nil)

		require.Equal(t, KindResults, state.Kind)
		assert.Equal(t, `Recommendations for "Cowboy Bebop"`, state.Heading)
		require.Len(t, state.Cards, 2)

		assert.Equal(t, 1, state.Cards[0].Rank)
		assert.Equal(t, "Samurai Champloo", state.Cards[0].Title)
		assert.Equal(t, "0.8123", state.Cards[0].Score)

		assert.Equal(t, 2, state.Cards[1].Rank)
		assert.Equal(t, "N/A", state.Cards[1].Genres)
		assert.Equal(t, "", state.Cards[1].Score)
		assert.Equal(t, "Space", state.Cards[1].Themes)
	})

	t.Run("application error is shown verbatim", func(t *testing.T) {
		state := Build("Naruto", []models.AnimeResult{{Title: "ignored"}}, &backend.ApplicationError{StatusCode: 400, Message: "X"})
		assert.Equal(t, KindError, state.Kind)
		assert.Equal(t, "Error: X", state.Message)
		assert.Empty(t, state.Cards)
	})

	t.Run("transport error is labelled as network error", func(t *testing.T) {
		err := fmt.Errorf("request failed: %w", &backend.TransportError{Op: "POST /recommend", Err: errors.New("connection refused")})
		state := Build("Naruto", nil, err)
		assert.Equal(t, "Network error: connection refused", state.Message)
	})

	t.Run("other errors", func(t *testing.T) {
		state := Failure("", errors.New("boom"))
		assert.Equal(t, "Error: boom", state.Message)
		assert.True(t, state.Failed())
	})

	t.Run("plain error message", func(t *testing.T) {
		state := Error("Error: slow down.")
		assert.Equal(t, KindError, state.Kind)
		assert.Equal(t, "Error: slow down.", state.Message)
		assert.Empty(t, state.Query)
		assert.True(t, state.Failed())
	})
}

func TestNewCard_ImageURL(t *testing.T) {
	card := NewCard(1, models.AnimeResult{Title: "Fullmetal Alchemist: Brotherhood & Co"})
	assert.Equal(t, "https://placehold.co/300x400/283039/9cabba?text=Fullmetal%20Alchemist%3A%20Brotherhood%20%26%20Co", card.ImageURL)
}

func TestTemplates(t *testing.T) {
	tmpl, err := Templates(time.Second)
	require.NoError(t, err)

	render := func(name string, data interface{}) string {
		var buf bytes.Buffer
		require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
		return buf.String()
	}

	t.Run("loading display polls", func(t *testing.T) {
		out := render(TemplateDisplay, Loading("Naruto", `Finding recommendations for "Naruto"...`))
		assert.Contains(t, out, `hx-get="/ui/display"`)
		assert.Contains(t, out, "every 1000ms")
		assert.Contains(t, out, "Finding recommendations for &#34;Naruto&#34;...")
	})

	t.Run("settled display does not poll", func(t *testing.T) {
		out := render(TemplateDisplay, Build("Naruto", []models.AnimeResult{{Title: "<b>Bleach</b>"}}, nil))
		assert.NotContains(t, out, `hx-get="/ui/display"`)
		assert.Contains(t, out, "&lt;b&gt;Bleach&lt;/b&gt;")
		assert.NotContains(t, out, "<b>Bleach</b>")
	})

	t.Run("error display", func(t *testing.T) {
		out := render(TemplateDisplay, Build("Naruto", nil, &backend.ApplicationError{Message: "X"}))
		assert.Contains(t, out, "Error: X")
		assert.Contains(t, out, "text-red-500")
	})

	t.Run("suggestions hidden when empty", func(t *testing.T) {
		assert.Contains(t, render(TemplateSuggestions, []string(nil)), `class="hidden `)
		out := render(TemplateSuggestions, []string{"Naruto"})
		assert.NotContains(t, out, `class="hidden`)
		assert.Contains(t, out, `value="Naruto"`)
	})

	t.Run("category response swaps the bar out of band", func(t *testing.T) {
		out := render(TemplateCategory, CategoryResponse{
			Display: Loading("Comedy", "Finding Comedy anime..."),
			Categories: CategoryBar{
				Buttons:   []CategoryButton{{Name: "All"}, {Name: "Comedy", Active: true}},
				OutOfBand: true,
			},
		})
		assert.Contains(t, out, `hx-swap-oob="true"`)
		assert.Contains(t, out, "bg-[#007bff]")
	})

	t.Run("full page", func(t *testing.T) {
		out := render(TemplatePage, Page{
			Search:       SearchBox{Value: "Nar"},
			Categories:   CategoryBar{Buttons: []CategoryButton{{Name: "All", Active: true}}},
			Display:      Idle(),
			DefaultCount: 12,
		})
		assert.Contains(t, out, `id="anime-search-input"`)
		assert.Equal(t, 1, strings.Count(out, `name="title" value=`))
		assert.Equal(t, 1, strings.Count(out, `hx-post="/ui/search"`))
		assert.Contains(t, out, `value="Nar"`)
		assert.Contains(t, out, `hx-post="/ui/category/All"`)
	})
}

func TestWriteTerminal(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	WriteTerminal(&buf, Build("Naruto", []models.AnimeResult{
		{Title: "Bleach", Genres: "Action", SimilarityScore: score(0.5)},
		{Title: "Hunter x Hunter"},
	}, nil))

	out := buf.String()
	assert.Contains(t, out, `Recommendations for "Naruto"`)
	assert.Contains(t, out, "Top 2 recommendations:")
	assert.Contains(t, out, "Bleach")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "Hunter x Hunter")

	buf.Reset()
	WriteTerminal(&buf, Build("Naruto", nil, &backend.ApplicationError{Message: "X"}))
	assert.Equal(t, "Error: X\n", buf.String())

	buf.Reset()
	WriteTerminal(&buf, Idle())
	assert.Empty(t, buf.String())
}
