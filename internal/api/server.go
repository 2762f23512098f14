// internal/api/server.go

// Package api exposes the assistant over HTTP: one query endpoint, health,
// and metrics. Transport concerns only; the pipeline lives in orchestrator.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"

	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/models"
)

// Answerer is the pipeline entry point the server dispatches to.
type Answerer interface {
	Answer(ctx context.Context, rawText, sessionID string) *models.ResponsePayload
}

// querySchema bounds the inbound body before it reaches the pipeline.
var querySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"query"},
	"properties": map[string]interface{}{
		"query": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": 2000,
		},
		"session": map[string]interface{}{
			"type":      "string",
			"maxLength": 128,
		},
	},
	"additionalProperties": false,
}

type queryRequest struct {
	Query   string `json:"query"`
	Session string `json:"session"`
}

// Server wires the gin router.
type Server struct {
	answerer Answerer
	logger   logger.Logger
	engine   *gin.Engine
}

func NewServer(answerer Answerer, log logger.Logger) *Server {
	s := &Server{
		answerer: answerer,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.POST("/api/assistant/query", s.handleQuery)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = router
	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "request body must be JSON with a query field",
		})
		return
	}

	if err := validateQueryRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	payload := s.answerer.Answer(c.Request.Context(), req.Query, req.Session)
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func validateQueryRequest(req queryRequest) error {
	document := map[string]interface{}{"query": req.Query}
	if req.Session != "" {
		document["session"] = req.Session
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(querySchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("invalid request: %v", errs)
	}
	return nil
}
