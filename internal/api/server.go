package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"statcalc/app"
	"statcalc/internal"
	apperrors "statcalc/internal/errors"
	"statcalc/internal/report"
)

// Server exposes one data session and the store over HTTP. Handlers run one
// at a time so the session keeps a single logical writer.
type Server struct {
	router   *gin.Engine
	service  *app.AnalysisService
	exporter *report.Exporter
	logger   *internal.Logger
	mu       sync.Mutex
}

// Option customises a Server
type Option func(*Server)

// WithExporter enables saving rendered reports with ?save=true
func WithExporter(e *report.Exporter) Option {
	return func(s *Server) { s.exporter = e }
}

// WithLogger sets the server logger
func WithLogger(l *internal.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router. ginMode is passed to gin.SetMode when non-empty.
func NewServer(service *app.AnalysisService, ginMode string, opts ...Option) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	s := &Server{
		router:  gin.New(),
		service: service,
		logger:  internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("API")
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr until the server fails
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger)
	s.router.Use(s.serialize)
}

func (s *Server) setupRoutes() {
	sess := s.router.Group("/session")
	sess.POST("/load", s.handleLoad)
	sess.POST("/clean", s.handleClean)
	sess.POST("/reset", s.handleReset)
	sess.POST("/clear", s.handleClear)
	sess.GET("/columns", s.handleColumns)
	sess.GET("/summary", s.handleSummary)
	sess.GET("/rows", s.handleRows)
	sess.GET("/search", s.handleSearch)
	sess.POST("/validate", s.handleValidate)
	sess.GET("/columns/:name/values", s.handleColumnValues)

	analyses := s.router.Group("/analyses")
	analyses.POST("/statistics", s.handleStatistics)
	analyses.POST("/tests", s.handleTest)
	analyses.GET("", s.handleHistory)
	analyses.GET("/:id", s.handleAnalysis)
	analyses.DELETE("/:id", s.handleDeleteAnalysis)
	analyses.GET("/:id/report", s.handleReport)

	s.router.GET("/datasets", s.handleDatasets)
	s.router.GET("/datasets/:id", s.handleDataset)

	s.router.GET("/preferences/:key", s.handleGetPreference)
	s.router.PUT("/preferences/:key", s.handlePutPreference)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// serialize holds the server mutex for the whole request
func (s *Server) serialize(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Next()
}

func (s *Server) requestLogger(c *gin.Context) {
	c.Next()
	s.logger.Debug("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
}

// fail maps err through the application error codes to a JSON response
func (s *Server) fail(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

// badRequest reports a malformed request body or query parameter
func (s *Server) badRequest(c *gin.Context, err error) {
	appErr := apperrors.InvalidInput(err.Error())
	c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message, "code": appErr.Code})
}
