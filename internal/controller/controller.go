package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/backend"
	"github.com/temcen/animerec/internal/messaging"
	"github.com/temcen/animerec/internal/titlecache"
	"github.com/temcen/animerec/internal/view"
	"github.com/temcen/animerec/pkg/models"
)

// AllCategory is the category control that browses without a genre filter.
const AllCategory = "All"

const (
	ActionInitial  = "initial"
	ActionTitle    = "title"
	ActionFeatures = "features"
	ActionCategory = "category"
)

const (
	DefaultCount           = 12
	DefaultInitialCategory = "Action"
)

var DefaultCategories = []string{AllCategory, "Action", "Comedy", "Drama", "Fantasy", "Romance", "Sci-Fi"}

type Options struct {
	Backend   backend.Recommender
	Titles    titlecache.Store
	Publisher messaging.Publisher

	SessionID       string
	DefaultCount    int
	Categories      []string
	InitialCategory string

	Registerer prometheus.Registerer
	Logger     *logrus.Logger
}

// Controller mediates between one page's inputs and the backend. Each page (browser session
// or terminal) owns its own Controller; nothing is shared between instances except what the
// optional title Store shares on purpose.
type Controller struct {
	backend   backend.Recommender
	titles    *titlecache.Cache
	publisher messaging.Publisher
	validate  *validator.Validate
	metrics   *controllerMetrics
	logger    *logrus.Logger
	seq       sequencer

	sessionID       string
	defaultCount    int
	categories      []string
	initialCategory string

	mu             sync.Mutex
	display        view.State
	activeCategory string
	titleInput     string
	suggestions    []string
}

// Snapshot is a consistent copy of everything the page shows.
type Snapshot struct {
	Display        view.State
	ActiveCategory string
	Categories     []string
	TitleInput     string
	Suggestions    []string
}

func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("controller requires a backend")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	count := opts.DefaultCount
	if count <= 0 {
		count = DefaultCount
	}
	categories := opts.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	initial := opts.InitialCategory
	if initial == "" {
		initial = DefaultInitialCategory
	}

	return &Controller{
		backend:         opts.Backend,
		titles:          titlecache.New(opts.Backend.AnimeTitles, opts.Titles, logger),
		publisher:       publisher,
		validate:        validator.New(),
		metrics:         newControllerMetrics(opts.Registerer),
		logger:          logger,
		sessionID:       opts.SessionID,
		defaultCount:    count,
		categories:      append([]string(nil), categories...),
		initialCategory: initial,
		display:         view.Idle(),
	}, nil
}

// Initialize shows the initial category's recommendations. Waiting on the returned Call also
// loads the title cache first; a failed title load is logged and leaves suggestions empty.
func (c *Controller) Initialize() *Call {
	call := c.issue(ActionInitial, c.initialCategory, "Loading recommendations...",
		models.NewFeatureRequest(CategoryGenres(c.initialCategory), nil, nil, c.defaultCount))

	c.mu.Lock()
	c.activeCategory = c.initialCategory
	c.mu.Unlock()

	if call.run == nil {
		return call
	}
	run := call.run
	call.run = func(ctx context.Context) (view.State, bool) {
		if err := c.LoadTitles(ctx); err != nil {
			c.logger.WithError(err).Warn("Suggestions unavailable")
		}
		return run(ctx)
	}
	return call
}

// LoadTitles fills the controller's title cache once.
func (c *Controller) LoadTitles(ctx context.Context) error {
	if c.titles.Loaded() {
		return nil
	}
	if err := c.titles.Load(ctx); err != nil {
		c.metrics.titleLoad.WithLabelValues("error").Inc()
		return err
	}
	c.metrics.titleLoad.WithLabelValues("ok").Inc()
	return nil
}

// RequestByTitle asks for titles similar to title. A blank title only shows a validation
// message.
func (c *Controller) RequestByTitle(title string, count int) *Call {
	if strings.TrimSpace(title) == "" {
		return c.reject(ActionTitle, "Please enter an anime title.")
	}

	c.mu.Lock()
	c.titleInput = title
	c.suggestions = nil
	c.mu.Unlock()

	return c.issue(ActionTitle, title, fmt.Sprintf("Finding recommendations for \"%s\"...", title),
		models.NewTitleRequest(title, c.count(count)))
}

// RequestByFeatures takes raw comma-separated genre, theme and demographic inputs.
func (c *Controller) RequestByFeatures(genres, themes, demographics string, count int) *Call {
	g, t, d := ParseList(genres), ParseList(themes), ParseList(demographics)

	query := strings.Join(append(append(append([]string{}, g...), t...), d...), ", ")
	if query == "" {
		query = "all anime"
	}

	return c.issue(ActionFeatures, query, "Finding recommendations...",
		models.NewFeatureRequest(g, t, d, c.count(count)))
}

// RequestByCategory browses one genre, or everything for AllCategory, and makes category
// the only active control.
func (c *Controller) RequestByCategory(category string, count int) *Call {
	if strings.TrimSpace(category) == "" {
		return c.reject(ActionCategory, "Please choose a category.")
	}

	c.mu.Lock()
	c.activeCategory = category
	c.mu.Unlock()

	return c.issue(ActionCategory, category, fmt.Sprintf("Finding %s anime...", category),
		models.NewFeatureRequest(CategoryGenres(category), nil, nil, c.count(count)))
}

// ShowSuggestions records partial as the title input and lists matching cached titles.
func (c *Controller) ShowSuggestions(partial string) []string {
	matches := FilterSuggestions(c.titles.Titles(), partial)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.titleInput = partial
	c.suggestions = matches
	return matches
}

// SelectSuggestion fills the title input with title and hides the suggestion list.
func (c *Controller) SelectSuggestion(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titleInput = title
	c.suggestions = nil
}

func (c *Controller) Display() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Display:        c.display,
		ActiveCategory: c.activeCategory,
		Categories:     append([]string(nil), c.categories...),
		TitleInput:     c.titleInput,
		Suggestions:    append([]string(nil), c.suggestions...),
	}
}

func (c *Controller) count(n int) int {
	if n <= 0 {
		return c.defaultCount
	}
	return n
}

// reject shows a validation message. It takes a sequence number so that an older response
// still in flight cannot overwrite the message.
func (c *Controller) reject(action, message string) *Call {
	seq := c.seq.next()
	state := view.Validation(message)
	c.apply(seq, state)
	c.metrics.rejected.WithLabelValues(action).Inc()

	return &Call{Seq: seq, Initial: state}
}

func (c *Controller) issue(action, query, loading string, req *models.RecommendationRequest) *Call {
	if err := c.validate.Struct(req); err != nil {
		c.logger.WithError(err).WithField("action", action).Warn("Recommendation request failed validation")
		return c.reject(action, "Invalid request: "+err.Error())
	}

	seq := c.seq.next()
	state := view.Loading(query, loading)
	c.apply(seq, state)
	c.metrics.issued.WithLabelValues(action).Inc()

	c.logger.WithFields(logrus.Fields{
		"session": c.sessionID,
		"action":  action,
		"query":   query,
		"seq":     seq,
	}).Debug("Issuing recommendation request")

	return &Call{
		Seq:     seq,
		Initial: state,
		run: func(ctx context.Context) (view.State, bool) {
			recs, err := c.backend.Recommend(ctx, req)
			result := view.Build(query, recs, err)
			applied := c.apply(seq, result)
			if !applied {
				c.metrics.stale.Inc()
				c.logger.WithField("seq", seq).Debug("Discarding stale recommendation response")
			}
			c.publish(ctx, action, query, req, result, applied)
			return result, applied
		},
	}
}

// apply puts state on the display if seq is still the latest issued request.
func (c *Controller) apply(seq uint64, state view.State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seq.isLatest(seq) {
		return false
	}
	c.display = state
	return true
}

func (c *Controller) publish(ctx context.Context, action, query string, req *models.RecommendationRequest, result view.State, applied bool) {
	event := messaging.InteractionEvent{
		SessionID: c.sessionID,
		Action:    action,
		Query:     query,
		Request:   req,
		Outcome:   string(result.Kind),
		Results:   len(result.Cards),
		Applied:   applied,
	}
	if err := c.publisher.PublishInteraction(context.WithoutCancel(ctx), event); err != nil {
		c.logger.WithError(err).Warn("Failed to publish page interaction")
	}
}

// Call is one issued page action. Initial is what the display showed right after issuing it:
// the loading state, or the validation message when nothing was sent.
type Call struct {
	Seq     uint64
	Initial view.State
	run     func(ctx context.Context) (view.State, bool)

	once    sync.Once
	result  view.State
	applied bool
}

// Sent reports whether the call goes to the backend.
func (c *Call) Sent() bool {
	return c.run != nil
}

// Wait performs the backend request and returns the resulting state, and whether it reached
// the display (false when a newer request was issued meanwhile). Later calls return the first
// result without contacting the backend again.
func (c *Call) Wait(ctx context.Context) (view.State, bool) {
	c.once.Do(func() {
		if c.run == nil {
			c.result, c.applied = c.Initial, true
			return
		}
		c.result, c.applied = c.run(ctx)
	})
	return c.result, c.applied
}
