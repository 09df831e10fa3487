package view

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page is the data behind the full page.
type Page struct {
	Search       SearchBox
	Categories   CategoryBar
	Display      State
	DefaultCount int
}

type SearchBox struct {
	Value       string
	Suggestions []string
}

type CategoryBar struct {
	Buttons   []CategoryButton
	OutOfBand bool
}

type CategoryButton struct {
	Name   string
	Active bool
}

// CategoryResponse swaps the display and, out of band, the category bar.
type CategoryResponse struct {
	Display    State
	Categories CategoryBar
}

// Template names understood by Templates.
const (
	TemplatePage        = "page"
	TemplateDisplay     = "display"
	TemplateSearch      = "search"
	TemplateSuggestions = "suggestions"
	TemplateCategory    = "category_response"
)

// Templates parses the page templates. While a request is loading the display polls the
// server every poll.
func Templates(poll time.Duration) (*template.Template, error) {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	interval := fmt.Sprintf("%dms", poll.Milliseconds())

	return template.New("animerec").Funcs(template.FuncMap{
		"pollInterval": func() string { return interval },
		"pathEscape":   url.PathEscape,
	}).ParseFS(templateFS, "templates/*.tmpl")
}
