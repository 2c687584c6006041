// Package api contains the HTTP handlers for the seeding service
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"seedling/internal/seed"
	"seedling/internal/services"

	"github.com/labstack/echo/v4"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Seeding is the part of the seed service the handlers use.
type Seeding interface {
	Environment() string
	Run(ctx context.Context) (*seed.Result, error)
	Last() (services.Status, error)
	List(ctx context.Context) ([]services.SeedInfo, error)
}

// Server holds the dependencies for the API server.
type Server struct {
	Seeds Seeding
}

// NewServer creates a new Server.
func NewServer(seeds Seeding) *Server {
	return &Server{Seeds: seeds}
}

// RegisterHandlers mounts the seeding routes on g.
func RegisterHandlers(g *echo.Group, s *Server) {
	g.GET("/seed", s.GetSeed)
	g.POST("/seed", s.RunSeed)
	g.GET("/seeds", s.ListSeeds)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
}

// HandleHealth returns basic health status (always returns 200 OK)
// (GET /health)
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:      "ok",
		Timestamp:   time.Now(),
		Service:     "seedling",
		Version:     Version,
		Environment: s.Seeds.Environment(),
	})
}

// GetSeed returns the outcome of the last seeding run
// (GET /api/v1/seed)
func (s *Server) GetSeed(c echo.Context) error {
	status, err := s.Seeds.Last()
	if errors.Is(err, services.ErrNotRun) {
		return problem(c, http.StatusNotFound, "Not Found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

// RunSeed seeds the environment again. Existing records are matched, not duplicated.
// (POST /api/v1/seed)
func (s *Server) RunSeed(c echo.Context) error {
	result, err := s.Seeds.Run(c.Request().Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, seed.ErrModelNotFound) {
			status = http.StatusUnprocessableEntity
		}
		return problem(c, status, "Seeding Failed", err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// ListSeeds returns the seeds of the environment without running them
// (GET /api/v1/seeds)
func (s *Server) ListSeeds(c echo.Context) error {
	infos, err := s.Seeds.List(c.Request().Context())
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
	return c.JSON(http.StatusOK, infos)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problem writes an RFC 7807 Problem Details JSON error response
func problem(c echo.Context, status int, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
