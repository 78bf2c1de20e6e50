package routes

import (
	"net/http"
	"time"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Controllers struct {
	Health    *controllers.HealthController
	Bookmarks *controllers.BookmarksController
	Chats     *controllers.ChatController
	Memory    *controllers.MemoryController
	Queries   *controllers.QueriesController
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(c Controllers, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", HealthRoutes(c.Health))
	if c.Metrics != nil {
		r.Mount("/metrics", MetricsRoutes(c.Metrics))
	}
	// websocket connections outlive any request timeout
	r.Mount("/chats", ChatRoutes(c.Chats, cfg))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(60 * time.Second))
		gr.Mount("/bookmarks", BookmarkRoutes(c.Bookmarks, cfg))
		gr.Mount("/memory", MemoryRoutes(c.Memory, cfg))
		gr.Mount("/queries", QueryRoutes(c.Queries, cfg))
	})
	return r
}
