package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Handlers groups every route handler
type Handlers struct {
	Session   *SessionHandler
	Search    *SearchHandler
	Selection *SelectionHandler
	Compare   *CompareHandler
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(h Handlers, limiter *RateLimiter, allowedOrigins []string, build BuildInfo) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "propertychat",
			"version":    build.Version,
			"build_time": build.BuildTime,
			"git_commit": build.GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    build.Version,
			"build_time": build.BuildTime,
			"git_commit": build.GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	if limiter != nil {
		apiV1.Use(limiter.Middleware())
	}
	{
		apiV1.POST("/sessions", h.Session.Create)

		sessions := apiV1.Group("/sessions/:id")
		sessions.GET("", h.Session.Get)
		sessions.DELETE("", h.Session.Delete)
		sessions.PUT("/filters", h.Session.SetFilters)
		sessions.GET("/transcript", h.Session.Transcript)
		sessions.GET("/notifications", h.Session.Notifications)
		sessions.GET("/history", h.Session.History)

		// Submission endpoints
		sessions.POST("/messages", h.Search.SendMessage)
		sessions.POST("/messages/stream", h.Search.SendMessageStream) // Streaming turns
		sessions.POST("/search", h.Search.Search)
		sessions.GET("/results", h.Search.Results)
		sessions.DELETE("/results", h.Search.ClearResults)

		// Selection and saved endpoints
		sessions.GET("/selection/compare", h.Selection.CompareSelection)
		sessions.POST("/selection/:propertyId", h.Selection.Toggle)
		sessions.GET("/saved", h.Selection.Saved)
		sessions.PUT("/saved", h.Selection.Refresh)
		sessions.POST("/saved/:propertyId", h.Selection.Save)
		sessions.DELETE("/saved/:propertyId", h.Selection.Unsave)

		// Address comparison
		sessions.POST("/compare", h.Compare.Compare)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
