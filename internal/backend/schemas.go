package backend

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const recommendResponseSchema = `{
  "type": "object",
  "properties": {
    "error": {"type": "string"},
    "recommendations": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string"},
          "genres": {"type": ["string", "null"]},
          "themes": {"type": ["string", "null"]},
          "demographics": {"type": ["string", "null"]},
          "similarity_score": {"type": ["number", "null"]}
        }
      }
    }
  }
}`

const animeListResponseSchema = `{
  "type": "object",
  "properties": {
    "error": {"type": "string"},
    "anime_titles": {"type": "array", "items": {"type": "string"}}
  }
}`

type responseSchemas struct {
	recommend *gojsonschema.Schema
	animeList *gojsonschema.Schema
}

func loadSchemas() (*responseSchemas, error) {
	recommend, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recommendResponseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load recommend schema: %w", err)
	}
	animeList, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(animeListResponseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load anime list schema: %w", err)
	}
	return &responseSchemas{recommend: recommend, animeList: animeList}, nil
}

// validate reports the first few schema violations of body as one error.
func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for i, e := range result.Errors() {
		if i == 3 {
			break
		}
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("unexpected response shape: %s", strings.Join(msgs, "; "))
}
