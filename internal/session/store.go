package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/controller"
	"github.com/temcen/animerec/internal/metrics"
)

const (
	DefaultCookieName    = "animerec_session"
	DefaultIdleTTL       = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Factory builds the controller for a new session.
type Factory func(sessionID string) (*controller.Controller, error)

type Options struct {
	CookieName    string
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Registerer    prometheus.Registerer
	Logger        *logrus.Logger
}

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Store keeps one page controller per browser session, keyed by a cookie.
type Store struct {
	factory Factory
	opts    Options
	logger  *logrus.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry

	active  prometheus.Gauge
	evicted prometheus.Counter
}

func NewStore(factory Factory, opts Options) *Store {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Store{
		factory:  factory,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
		active: metrics.RegisterOrExisting(opts.Registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animerec_active_sessions",
			Help: "Page sessions currently holding a controller",
		})),
		evicted: metrics.RegisterOrExisting(opts.Registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animerec_sessions_evicted_total",
			Help: "Page sessions dropped after being idle",
		})),
	}
}

// Controller returns the controller for the request's session, creating the session when the
// request carries no cookie or an unknown one. The cookie is re-issued on every call so it
// expires only after IdleTTL without requests. created reports whether the controller is new
// and still needs Initialize.
func (s *Store) Controller(c *gin.Context) (ctrl *controller.Controller, created bool, err error) {
	if id, err := c.Cookie(s.opts.CookieName); err == nil {
		if ctrl := s.Get(id); ctrl != nil {
			s.setCookie(c, id)
			return ctrl, false, nil
		}
	}

	id, ctrl, err := s.Create()
	if err != nil {
		return nil, false, err
	}

	s.setCookie(c, id)
	return ctrl, true, nil
}

func (s *Store) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, id, int(s.opts.IdleTTL.Seconds()), "/", "", false, true)
}

// Get returns the controller for id and marks the session as used, or nil if it is unknown.
func (s *Store) Get(id string) *controller.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil
	}
	e.lastSeen = s.now()
	return e.ctrl
}

// Create starts a new session with a fresh controller.
func (s *Store) Create() (string, *controller.Controller, error) {
	id := uuid.NewString()
	ctrl, err := s.factory(id)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.sessions[id] = &entry{ctrl: ctrl, lastSeen: s.now()}
	count := len(s.sessions)
	s.mu.Unlock()

	s.active.Set(float64(count))
	s.logger.WithField("session", id).Debug("Page session created")
	return id, ctrl, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many it dropped.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.opts.IdleTTL)

	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	s.active.Set(float64(count))
	if removed > 0 {
		s.evicted.Add(float64(removed))
		s.logger.WithFields(logrus.Fields{
			"evicted": removed,
			"active":  count,
		}).Debug("Swept idle page sessions")
	}
	return removed
}

// Run sweeps idle sessions until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
