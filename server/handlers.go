package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"listing-parser/fetcher"
	"listing-parser/models"
	"listing-parser/parser"
	"listing-parser/services"
	"listing-parser/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ParseRequest is the request body for POST /parse. A missing text is the empty string.
type ParseRequest struct {
	Text string `json:"text"`
}

// ParseURLRequest is the request body for POST /parse/url.
type ParseURLRequest struct {
	URL string `json:"url"`
}

// ParseResponse is returned by both parse endpoints.
type ParseResponse struct {
	Parsed    parser.Fields `json:"parsed"`
	ID        int64         `json:"id"`
	SourceURL string        `json:"source_url,omitempty"`
}

// HealthResponse is the response body for GET /ping and GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ListResponse is the response body for GET /listings.
type ListResponse struct {
	Listings []*models.ListingRecord `json:"listings"`
	Count    int                     `json:"count"`
}

func (s *Server) handlePing(c echo.Context) error {
	s.logger.Info("[server] Health check /ping hit")
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.deps.Store.Ping(c.Request().Context()); err != nil {
		s.logger.Warn("[server] Storage ping failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleParse decodes the body as JSON whatever the Content-Type says.
func (s *Server) handleParse(c echo.Context) error {
	var req ParseRequest
	if err := decodeJSON(c, &req); err != nil {
		s.deps.Metrics.ObserveError("bad_request")
		return err
	}
	s.logger.Debug("[server] /parse called with %d bytes of text", len(req.Text))

	return s.ingest(c, req.Text, "")
}

func (s *Server) handleParseURL(c echo.Context) error {
	if s.deps.Fetcher == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "url ingestion is disabled")
	}

	var req ParseURLRequest
	if err := decodeJSON(c, &req); err != nil {
		s.deps.Metrics.ObserveError("bad_request")
		return err
	}
	target, err := fetcher.ValidateURL(req.URL)
	if err != nil {
		s.deps.Metrics.ObserveError("bad_request")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := s.deps.Fetcher.Fetch(c.Request().Context(), target)
	if err != nil {
		s.logger.Error("[server] Fetch %s failed: %v", target, err)
		s.deps.Metrics.ObserveError("fetch")
		return echo.NewHTTPError(http.StatusBadGateway, "could not fetch listing page")
	}

	return s.ingest(c, page.Text, page.URL)
}

func (s *Server) ingest(c echo.Context, text, sourceURL string) error {
	start := time.Now()
	res, err := s.deps.Ingestor.Ingest(c.Request().Context(), text, sourceURL)
	switch {
	case errors.Is(err, services.ErrTextTooLarge):
		s.deps.Metrics.ObserveError("too_large")
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case err != nil:
		s.logger.Zap().Error("ingest failed", zap.Error(err),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		s.deps.Metrics.ObserveError("storage")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store listing")
	}
	s.deps.Metrics.ObserveIngest(res, time.Since(start))

	return c.JSON(http.StatusOK, ParseResponse{
		Parsed:    res.Record.Fields,
		ID:        res.Record.ID,
		SourceURL: res.Record.SourceURL,
	})
}

func (s *Server) handleList(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxListLimit)
	}

	records, err := s.deps.Ingestor.Recent(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error("[server] List listings failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list listings")
	}
	if records == nil {
		records = []*models.ListingRecord{}
	}
	return c.JSON(http.StatusOK, ListResponse{Listings: records, Count: len(records)})
}

func (s *Server) handleGet(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	rec, err := s.deps.Ingestor.Get(c.Request().Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "listing not found")
	case err != nil:
		s.logger.Error("[server] Get listing %d failed: %v", id, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load listing")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleSummary(c echo.Context) error {
	records, err := s.deps.Store.All(c.Request().Context())
	if err != nil {
		s.logger.Error("[server] Load listings for summary failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load listings")
	}
	return c.JSON(http.StatusOK, s.deps.Insights.Generate(records))
}

// decodeJSON reads the request body as a single JSON value into v.
func decodeJSON(c echo.Context, v any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object with string fields")
	}
	return nil
}
