package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/controller"
	"github.com/temcen/animerec/internal/session"
	"github.com/temcen/animerec/internal/view"
)

// PageHandler serves the page and the htmx fragments that drive it. Actions answer with the
// loading display at once; the backend request finishes in the background and the display
// polls /ui/display until it settles.
type PageHandler struct {
	logger       *logrus.Logger
	sessions     *session.Store
	defaultCount int

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

func NewPageHandler(logger *logrus.Logger, sessions *session.Store, defaultCount int) *PageHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &PageHandler{
		logger:       logger,
		sessions:     sessions,
		defaultCount: defaultCount,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Index renders the whole page and starts the initial category request.
func (h *PageHandler) Index(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	call := ctrl.Initialize()
	snap := ctrl.Snapshot()
	h.dispatch(call)

	c.HTML(http.StatusOK, view.TemplatePage, view.Page{
		Search:       view.SearchBox{Value: snap.TitleInput, Suggestions: snap.Suggestions},
		Categories:   categoryBar(snap, false),
		Display:      snap.Display,
		DefaultCount: h.defaultCount,
	})
}

func (h *PageHandler) Search(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	call := ctrl.RequestByTitle(c.PostForm("title"), parseCount(c.PostForm("count")))
	h.dispatch(call)
	c.HTML(http.StatusOK, view.TemplateDisplay, call.Initial)
}

func (h *PageHandler) Features(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	call := ctrl.RequestByFeatures(
		c.PostForm("genres"),
		c.PostForm("themes"),
		c.PostForm("demographics"),
		parseCount(c.PostForm("count")),
	)
	h.dispatch(call)
	c.HTML(http.StatusOK, view.TemplateDisplay, call.Initial)
}

// Category answers with the display and, out of band, the category bar so only the chosen
// category shows as active.
func (h *PageHandler) Category(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	call := ctrl.RequestByCategory(c.Param("name"), parseCount(c.Query("count")))
	h.dispatch(call)
	c.HTML(http.StatusOK, view.TemplateCategory, view.CategoryResponse{
		Display:    call.Initial,
		Categories: categoryBar(ctrl.Snapshot(), true),
	})
}

func (h *PageHandler) Suggest(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, view.TemplateSuggestions, ctrl.ShowSuggestions(c.Query("title")))
}

func (h *PageHandler) SelectSuggestion(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	ctrl.SelectSuggestion(c.PostForm("title"))
	snap := ctrl.Snapshot()
	c.HTML(http.StatusOK, view.TemplateSearch, view.SearchBox{Value: snap.TitleInput, Suggestions: snap.Suggestions})
}

// Display renders whatever the display currently shows.
func (h *PageHandler) Display(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, view.TemplateDisplay, ctrl.Display())
}

// Shutdown cancels background requests and waits for them to finish or for ctx to end.
func (h *PageHandler) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *PageHandler) controller(c *gin.Context) (*controller.Controller, bool) {
	ctrl, created, err := h.sessions.Controller(c)
	if err != nil {
		h.logger.WithError(err).Error("Failed to start page session")
		c.String(http.StatusInternalServerError, "Error: Internal server error")
		return nil, false
	}
	if created {
		h.logger.WithField("path", c.Request.URL.Path).Debug("Started page session")
	}
	return ctrl, true
}

func (h *PageHandler) dispatch(call *controller.Call) {
	if !call.Sent() {
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		call.Wait(h.ctx)
	}()
}

func categoryBar(snap controller.Snapshot, outOfBand bool) view.CategoryBar {
	bar := view.CategoryBar{OutOfBand: outOfBand}
	for _, name := range snap.Categories {
		bar.Buttons = append(bar.Buttons, view.CategoryButton{Name: name, Active: name == snap.ActiveCategory})
	}
	return bar
}

// parseCount reads an optional result count; anything unusable selects the default.
func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
