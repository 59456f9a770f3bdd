// Package server exposes lookalike queries over HTTP with echo.
//
//	GET /healthz              liveness probe
//	GET /v1/rank/:id?k=3      ranking as JSON
//	GET /v1/rank/:id/sheet    contact sheet image (?format=png|jpg|gif, ?cell=160, k capped)
//	GET /metrics              Prometheus exposition, when configured
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/render"
	"github.com/viant/lookalike/session"
)

const (
	// DefaultMaxSheetNeighbors caps the columns of a contact sheet.
	DefaultMaxSheetNeighbors = 32
	// MaxSheetCell caps the thumbnail edge length of a contact sheet.
	MaxSheetCell = 512
)

// Option configures a Server.
type Option func(*Server)

// WithCrops sets the crop source used by the sheet endpoint.
func WithCrops(crops session.CropSource) Option {
	return func(s *Server) { s.crops = crops }
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithDefaultK sets k for requests that do not pass one.
func WithDefaultK(k int) Option {
	return func(s *Server) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithMaxSheetNeighbors caps k on the sheet endpoint; larger requests get 400.
func WithMaxSheetNeighbors(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSheet = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server serves ranking queries.
type Server struct {
	echo    *echo.Echo
	ranker  session.Ranker
	crops   session.CropSource
	metrics  http.Handler
	k        int
	maxSheet int
	logger   *slog.Logger
}

// New creates a Server and registers its routes.
func New(ranker session.Ranker, opts ...Option) (*Server, error) {
	if ranker == nil {
		return nil, errors.New("server: ranker is nil")
	}
	s := &Server{ranker: ranker, k: session.DefaultK, maxSheet: DefaultMaxSheetNeighbors, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			s.logger.Debug("request", attrs...)
			return nil
		},
	}))
	e.GET("/healthz", s.health)
	v1 := e.Group("/v1")
	v1.GET("/rank/:id", s.rankJSON)
	v1.GET("/rank/:id/sheet", s.rankSheet)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}
	s.echo = e
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown; it returns http.ErrServerClosed after
// a graceful shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) rankJSON(c echo.Context) error {
	k, err := s.parseK(c)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if err := s.query(c, k, &render.JSON{W: &body}); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body.Bytes())
}

func (s *Server) rankSheet(c echo.Context) error {
	k, err := s.parseK(c)
	if err != nil {
		return err
	}
	if k > s.maxSheet {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("k must not exceed %d for a sheet", s.maxSheet))
	}
	ext := c.QueryParam("format")
	if ext == "" {
		ext = "png"
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported image format").SetInternal(err)
	}
	cell := render.DefaultCell
	if raw := c.QueryParam("cell"); raw != "" {
		if cell, err = strconv.Atoi(raw); err != nil || cell <= 0 || cell > MaxSheetCell {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cell must be between 1 and %d", MaxSheetCell))
		}
	}
	var body bytes.Buffer
	if err := s.query(c, k, &render.Sheet{W: &body, Cell: cell, Format: ext}); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mimeTypes[format], body.Bytes())
}

func (s *Server) query(c echo.Context, k int, renderer session.Renderer) error {
	sess, err := session.New(s.ranker, s.crops, renderer, session.WithLogger(s.logger))
	if err != nil {
		return err
	}
	id := c.Param("id")
	started := time.Now()
	if _, err := sess.Query(c.Request().Context(), id, k); err != nil {
		return echo.NewHTTPError(status(err), err.Error()).SetInternal(err)
	}
	s.logger.Debug("query served", "id", id, "k", k, "elapsed", time.Since(started))
	return nil
}

func (s *Server) parseK(c echo.Context) (int, error) {
	raw := c.QueryParam("k")
	if raw == "" {
		return s.k, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, rank.ErrInvalidK.Error())
	}
	return k, nil
}

func status(err error) int {
	var insufficient *rank.InsufficientDataError
	switch {
	case errors.Is(err, rank.ErrInvalidK):
		return http.StatusBadRequest
	case errors.Is(err, embedding.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

var mimeTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.TIFF: "image/tiff",
	imaging.BMP:  "image/bmp",
}
