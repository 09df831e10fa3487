package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/services"
	"github.com/temcen/animerec/internal/session"
)

type Handlers struct {
	Health *HealthHandler
	Page   *PageHandler
}

func New(logger *logrus.Logger, health *services.HealthService, sessions *session.Store, defaultCount int) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(logger, health),
		Page:   NewPageHandler(logger, sessions, defaultCount),
	}
}

// Register mounts the page and its fragment routes. actions run before every route that
// issues a backend request.
func (h *Handlers) Register(router gin.IRouter, actions ...gin.HandlerFunc) {
	router.GET("/health", h.Health.Check)

	router.GET("/", h.Page.Index)

	ui := router.Group("/ui")
	{
		ui.GET("/display", h.Page.Display)
		ui.GET("/suggest", h.Page.Suggest)
		ui.POST("/suggest/select", h.Page.SelectSuggestion)

		issue := ui.Group("", actions...)
		issue.POST("/search", h.Page.Search)
		issue.POST("/features", h.Page.Features)
		issue.POST("/category/:name", h.Page.Category)
	}
}
