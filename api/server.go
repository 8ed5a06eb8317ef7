// Package api exposes the catalog, auth, and scrape trigger over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bookscatalog/go-books-api/auth"
	"github.com/bookscatalog/go-books-api/catalog"
	"github.com/bookscatalog/go-books-api/config"
	"github.com/bookscatalog/go-books-api/scrape"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the gin router around the catalog, token manager, and scrape
// runner.
type Server struct {
	cfg     *config.Config
	catalog *catalog.Service
	tokens  *auth.TokenManager
	runner  *scrape.Runner
	router  *gin.Engine
	server  *http.Server
}

// NewServer builds the HTTP server with all routes registered. The metrics
// registry is optional; when present the collector metrics are exposed on
// /metrics.
func NewServer(cfg *config.Config, cat *catalog.Service, tokens *auth.TokenManager, runner *scrape.Runner, registry *prometheus.Registry) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	s := &Server{
		cfg:     cfg,
		catalog: cat,
		tokens:  tokens,
		runner:  runner,
		router:  router,
	}
	s.registerRoutes(registry)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.router.GET("/", s.root)
	if registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", s.health)

	books := v1.Group("/books")
	books.GET("", s.listBooks)
	books.GET("/search", s.searchBooks)
	books.GET("/top-rated", s.topRated)
	books.GET("/price-range", s.priceRange)
	books.GET("/:id", s.getBook)

	v1.GET("/categories", s.listCategories)

	stats := v1.Group("/stats")
	stats.GET("/overview", s.overviewStats)
	stats.GET("/categories", s.categoryStats)

	authGroup := v1.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)

	v1.POST("/scrap", s.requireAccessToken(), s.triggerScrape)
	v1.GET("/scrap_status", s.scrapeStatus)
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Bem-vindo à Books to Scrape RESTful API. Os endpoints estão em /api/v1.",
	})
}

func (s *Server) health(c *gin.Context) {
	dataSource := "ok"
	if !s.catalog.Loaded() {
		dataSource = "erro (dados não carregados)"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "online",
		"data_source": dataSource,
	})
}
