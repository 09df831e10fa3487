package models

import "github.com/goccy/go-json"

const (
	RequestTypeAnime    = "anime"
	RequestTypeFeatures = "features"
)

// RecommendationRequest is the body of POST /recommend.
type RecommendationRequest struct {
	Type               string   `json:"type" validate:"required,oneof=anime features"`
	AnimeTitle         string   `json:"anime_title,omitempty" validate:"required_if=Type anime"`
	Genres             []string `json:"genres"`
	Themes             []string `json:"themes"`
	Demographics       []string `json:"demographics"`
	NumRecommendations int      `json:"num_recommendations" validate:"min=1"`
}

type titleRequestWire struct {
	Type               string `json:"type"`
	AnimeTitle         string `json:"anime_title"`
	NumRecommendations int    `json:"num_recommendations"`
}

// MarshalJSON drops the feature lists from title requests and always sends them, possibly
// empty, for feature requests.
func (r RecommendationRequest) MarshalJSON() ([]byte, error) {
	if r.Type == RequestTypeAnime {
		return json.Marshal(titleRequestWire{
			Type:               r.Type,
			AnimeTitle:         r.AnimeTitle,
			NumRecommendations: r.NumRecommendations,
		})
	}
	type plain RecommendationRequest
	p := plain(r)
	p.Genres = nonNil(p.Genres)
	p.Themes = nonNil(p.Themes)
	p.Demographics = nonNil(p.Demographics)
	return json.Marshal(p)
}

// AnimeResult is one recommended title. Every field except Title may be absent.
type AnimeResult struct {
	Title           string   `json:"title"`
	Genres          string   `json:"genres,omitempty"`
	Themes          string   `json:"themes,omitempty"`
	Demographics    string   `json:"demographics,omitempty"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// RecommendationResponse carries either Recommendations or Error, never both.
type RecommendationResponse struct {
	Recommendations []AnimeResult `json:"recommendations,omitempty"`
	Error           string        `json:"error,omitempty"`
}

type AnimeListResponse struct {
	AnimeTitles []string `json:"anime_titles"`
	Error       string   `json:"error,omitempty"`
}

func NewTitleRequest(title string, count int) *RecommendationRequest {
	return &RecommendationRequest{
		Type:               RequestTypeAnime,
		AnimeTitle:         title,
		NumRecommendations: count,
	}
}

func NewFeatureRequest(genres, themes, demographics []string, count int) *RecommendationRequest {
	return &RecommendationRequest{
		Type:               RequestTypeFeatures,
		Genres:             nonNil(genres),
		Themes:             nonNil(themes),
		Demographics:       nonNil(demographics),
		NumRecommendations: count,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
