package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"abtest-sizer/internal/metrics"
	"abtest-sizer/internal/samplesize"
	"abtest-sizer/internal/service"
	"abtest-sizer/internal/version"
)

const sampleSizeRoute = "/api/v1/sample-size"

// Planner is the sizing capability the handlers depend on.
type Planner interface {
	Plan(ctx context.Context, d service.Design) (service.Report, error)
}

// Options parameterise the HTTP server.
type Options struct {
	Addr            string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Defaults        service.Design
}

// Server exposes the planner over HTTP.
type Server struct {
	opts    Options
	planner Planner
	metrics *metrics.Metrics
	logger  zerolog.Logger
	engine  *gin.Engine
}

// New wires routes and middleware.
func New(opts Options, planner Planner, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if m == nil {
		m = metrics.New(nil)
	}

	s := &Server{
		opts:    opts,
		planner: planner,
		metrics: m,
		logger:  logger.With().Str("component", "http").Logger(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe())
	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	engine.POST(sampleSizeRoute, s.handlePostSampleSize)
	engine.GET(sampleSizeRoute, s.handleGetSampleSize)
	s.engine = engine

	return s
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return ctx.Err()
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		s.metrics.ObserveRequest(route, c.Request.Method, strconv.Itoa(status), elapsed)

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request handled")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}

func (s *Server) handlePostSampleSize(c *gin.Context) {
	design := s.opts.Defaults
	if err := c.ShouldBindJSON(&design); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	s.respond(c, design)
}

func (s *Server) handleGetSampleSize(c *gin.Context) {
	design := s.opts.Defaults
	if err := c.ShouldBindQuery(&design); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid query: " + err.Error()})
		return
	}
	s.respond(c, design)
}

func (s *Server) respond(c *gin.Context, design service.Design) {
	report, err := s.planner.Plan(c.Request.Context(), design)
	if err != nil {
		status, body := mapError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Msg("sizing request failed")
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, newReportResponse(report))
}

func mapError(err error) (int, errorResponse) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, errorResponse{Error: "invalid design", Fields: verr.Fields}
	}

	var perr *samplesize.ParamError
	if errors.As(err, &perr) {
		return http.StatusUnprocessableEntity, errorResponse{Error: "invalid design", Fields: map[string]string{perr.Param: perr.Reason}}
	}

	if errors.Is(err, samplesize.ErrNumericOverflow) {
		return http.StatusUnprocessableEntity, errorResponse{Error: "sample size exceeds the representable range"}
	}

	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}
