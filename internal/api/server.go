// Package api exposes the fleet over REST and WebSocket using echo.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"dronedispatch/internal/bridge"
	"dronedispatch/internal/dispatch"
	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
	"dronedispatch/internal/telemetry"
)

// Config holds the HTTP server settings.
type Config struct {
	ListenAddr  string
	DefaultBase geo.Point
}

// Server wires the registry, assigner, publisher, and bridge behind HTTP.
type Server struct {
	e      *echo.Echo
	cfg    Config
	reg    *fleet.Registry
	asn    *dispatch.Assigner
	pub    *telemetry.Publisher
	events *bridge.Service
	log    *slog.Logger
}

// requestValidator adapts go-playground/validator to echo's Validator.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// NewServer builds the echo app with middleware, validation, and all routes.
func NewServer(cfg Config, reg *fleet.Registry, asn *dispatch.Assigner, pub *telemetry.Publisher, events *bridge.Service, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{e: e, cfg: cfg, reg: reg, asn: asn, pub: pub, events: events, log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.e

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	drones := e.Group("/drones")
	{
		drones.POST("", s.createDrone)
		drones.GET("", s.listDrones)
		drones.GET("/:id", s.getDrone)
		drones.POST("/:id/assign", s.assignDrone)
		drones.POST("/:id/return", s.returnDrone)
		drones.POST("/:id/charge", s.chargeDrone)
		drones.POST("/:id/charge/complete", s.completeCharging)
		drones.POST("/:id/maintenance", s.setMaintenance)
		drones.DELETE("/:id/maintenance", s.clearMaintenance)
		drones.GET("/:id/position", s.currentPosition)
		drones.GET("/:id/tracking", s.trackingHistory)
		drones.GET("/:id/stats", s.droneStats)
	}

	e.POST("/dispatch", s.dispatchOrder)
	e.POST("/orders/events", s.orderEvent)
	e.GET("/ws/drones/:id", s.streamDrone)
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	if err := s.e.Start(s.cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.e
}
