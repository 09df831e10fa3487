package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/temcen/animerec/internal/config"
)

// CORS allows the configured origins to call the page and its fragments. htmx sends its
// own request headers, so those are exposed alongside the configured ones.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: []string{"HX-Trigger", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	}
	if len(config.AllowOrigins) == 0 {
		config.AllowAllOrigins = true
	}
	for _, origin := range config.AllowOrigins {
		if origin == "*" {
			config.AllowAllOrigins = true
			config.AllowOrigins = nil
			break
		}
	}

	return cors.New(config)
}
