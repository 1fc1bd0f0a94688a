// Package server exposes the harvester and the generative-API relay behind
// a single POST entry point, mirroring the shape consumed by the front end:
// a request carrying a scrapeTask is harvested, anything else is relayed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookharvest/harvest"
	"bookharvest/models"
	"bookharvest/proxy"
	"bookharvest/sites"
)

// ScrapeTask is the wire form of a harvest request.
type ScrapeTask struct {
	Target string `json:"target"`
	Query  string `json:"query"`
	ISBN   string `json:"isbn"`
	Author string `json:"author"`
}

type proxyRequest struct {
	APIKey     string          `json:"apiKey"`
	Body       json.RawMessage `json:"body"`
	ScrapeTask *ScrapeTask     `json:"scrapeTask"`
}

// Harvester is the part of the harvest orchestrator the server needs.
type Harvester interface {
	Harvest(ctx context.Context, task models.SearchTask) ([]models.Candidate, error)
}

// Relay forwards a request to the upstream generative API.
type Relay interface {
	Relay(ctx context.Context, apiKey string, body json.RawMessage) (*proxy.Result, error)
}

// New builds the gin engine with all routes registered.
func New(h Harvester, relay Relay) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.HandleMethodNotAllowed = true

	s := &server{harvester: h, relay: relay}
	router.POST("/api/proxy", s.handleProxy)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

type server struct {
	harvester Harvester
	relay     Relay
}

func (s *server) handleProxy(c *gin.Context) {
	var req proxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.ScrapeTask != nil && req.ScrapeTask.Target != "" {
		s.handleScrape(c, req.ScrapeTask)
		return
	}

	if req.APIKey == "" || len(req.Body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing apiKey or body"})
		return
	}

	result, err := s.relay.Relay(c.Request.Context(), req.APIKey, req.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unreachable"})
		return
	}
	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(result.Status, contentType, result.Body)
}

func (s *server) handleScrape(c *gin.Context, t *ScrapeTask) {
	task := models.SearchTask{
		Site:   t.Target,
		Query:  t.Query,
		ISBN:   t.ISBN,
		Author: t.Author,
	}

	candidates, err := s.harvester.Harvest(c.Request.Context(), task)
	if err != nil {
		// Unknown site and empty query are caller defects; everything
		// upstream already collapsed into an empty list.
		if errors.Is(err, sites.ErrUnknownSite) || errors.Is(err, harvest.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "harvest failed"})
		return
	}

	if candidates == nil {
		candidates = []models.Candidate{}
	}
	c.JSON(http.StatusOK, candidates)
}
