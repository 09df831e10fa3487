package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/temcen/animerec/pkg/models"
)

const (
	recommendPath = "/recommend"
	animeListPath = "/anime_list"

	maxBodyBytes = 10 << 20
)

// Recommender is the backend surface the page controller depends on.
type Recommender interface {
	Recommend(ctx context.Context, req *models.RecommendationRequest) ([]models.AnimeResult, error)
	AnimeTitles(ctx context.Context) ([]string, error)
}

type Options struct {
	BaseURL string
	// Timeout bounds each call. Zero means no limit beyond the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
	Registerer prometheus.Registerer
	Logger     *logrus.Logger
}

// Client talks to the recommendation backend. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	schemas *responseSchemas
	metrics *clientMetrics
	logger  *logrus.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}

	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		schemas: schemas,
		metrics: newClientMetrics(opts.Registerer),
		logger:  logger,
	}, nil
}

// Recommend posts req to /recommend. A JSON error field yields *ApplicationError; every other
// failure yields *TransportError. A successful call may return an empty slice.
func (c *Client) Recommend(ctx context.Context, req *models.RecommendationRequest) (recs []models.AnimeResult, err error) {
	start := time.Now()
	defer func() { c.metrics.observe("recommend", time.Since(start).Seconds(), err) }()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	status, body, err := c.do(ctx, http.MethodPost, recommendPath, payload)
	if err != nil {
		return nil, err
	}

	if msg := errorField(body); msg != "" {
		return nil, &ApplicationError{StatusCode: status, Message: msg}
	}

	var resp models.RecommendationResponse
	if err := c.decode(status, body, c.schemas.recommend, &resp); err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status)
	}

	c.logger.WithFields(logrus.Fields{
		"type":    req.Type,
		"title":   req.AnimeTitle,
		"results": len(resp.Recommendations),
	}).Debug("Received recommendations")

	return resp.Recommendations, nil
}

// AnimeTitles fetches every title known to the backend.
func (c *Client) AnimeTitles(ctx context.Context) (titles []string, err error) {
	start := time.Now()
	defer func() { c.metrics.observe("anime_list", time.Since(start).Seconds(), err) }()

	status, body, err := c.do(ctx, http.MethodGet, animeListPath, nil)
	if err != nil {
		return nil, err
	}

	if msg := errorField(body); msg != "" {
		return nil, &ApplicationError{StatusCode: status, Message: msg}
	}

	var resp models.AnimeListResponse
	if err := c.decode(status, body, c.schemas.animeList, &resp); err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status)
	}

	return resp.AnimeTitles, nil
}

// Ping checks that the backend answers at all; any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, animeListPath, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, &TransportError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Backend request failed")
		return 0, nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Op: "read response", Err: err}
	}

	return resp.StatusCode, body, nil
}

// decode checks body against schema and unmarshals it. Bodies that are not usable JSON are
// reported by status when the status already signals failure.
func (c *Client) decode(status int, body []byte, schema *gojsonschema.Schema, out interface{}) error {
	if err := validate(schema, body); err != nil {
		if !isSuccess(status) {
			return statusError(status)
		}
		return &TransportError{Op: "decode response", Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "decode response", Err: err}
	}
	return nil
}

// errorField extracts a backend error message without looking at the rest of the body.
func errorField(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func statusError(status int) error {
	return &TransportError{
		Op:  "backend response",
		Err: fmt.Errorf("unexpected status %d %s", status, http.StatusText(status)),
	}
}
