// Package httpapi serves the read-only trend views over HTTP. Writes stay
// on the CLI; the API only reads the aggregate tables.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/juliananz/monitoreo-medios/internal/db"
	"github.com/juliananz/monitoreo-medios/internal/trends"
)

const (
	maxWindowDays   = 365
	maxTopEntities  = 50
	maxSigmaFactor  = 10.0
	defaultTopCount = 10
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	trends *trends.Service
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8094
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		trends: trends.NewService(pool, logger),
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/trends/daily", s.handleDaily)
	api.GET("/trends/weekly", s.handleWeekly)
	api.GET("/trends/monthly", s.handleMonthly)
	api.GET("/trends/topics", s.handleTopicTrends)
	api.GET("/trends/topics/weekly", s.handleTopicWeekly)
	api.GET("/trends/regions", s.handleRegionTrends)
	api.GET("/trends/sources", s.handleSourceTrends)
	api.GET("/trends/entities", s.handleTopEntities)
	api.GET("/compare", s.handleCompare)
	api.GET("/anomalies", s.handleAnomalies)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("trend API server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("trend API server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	var one int
	if err := s.pool.QueryRow(c.Request().Context(), "SELECT 1").Scan(&one); err != nil {
		s.logger.Error().Err(err).Msg("health probe failed")
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "monitoreo",
		"time":    time.Now().UTC(),
	})
}

func (s *Server) handleDaily(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 30, 1, maxWindowDays)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}

	points, err := s.trends.Daily(c.Request().Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("daily trend query failed")
		return internalError(c, "Failed to load daily trend")
	}
	return success(c, map[string]any{
		"items": points,
		"days":  days,
	})
}

func (s *Server) handleWeekly(c echo.Context) error {
	weeks, err := parsePositiveInt(c.QueryParam("weeks"), 12, 1, 52)
	if err != nil {
		return failValidation(c, map[string]string{"weeks": err.Error()})
	}

	summaries, err := s.trends.Weekly(c.Request().Context(), weeks)
	if err != nil {
		s.logger.Error().Err(err).Int("weeks", weeks).Msg("weekly rollup failed")
		return internalError(c, "Failed to load weekly rollup")
	}
	return success(c, map[string]any{
		"items": summaries,
		"weeks": weeks,
	})
}

func (s *Server) handleMonthly(c echo.Context) error {
	months, err := parsePositiveInt(c.QueryParam("months"), 12, 1, 36)
	if err != nil {
		return failValidation(c, map[string]string{"months": err.Error()})
	}

	summaries, err := s.trends.Monthly(c.Request().Context(), months)
	if err != nil {
		s.logger.Error().Err(err).Int("months", months).Msg("monthly rollup failed")
		return internalError(c, "Failed to load monthly rollup")
	}
	return success(c, map[string]any{
		"items":  summaries,
		"months": months,
	})
}

func (s *Server) handleTopicTrends(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 30, 1, maxWindowDays)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}

	points, err := s.trends.Topics(c.Request().Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("topic trend query failed")
		return internalError(c, "Failed to load topic trend")
	}
	return success(c, map[string]any{
		"items": points,
		"days":  days,
	})
}

func (s *Server) handleTopicWeekly(c echo.Context) error {
	weeks, err := parsePositiveInt(c.QueryParam("weeks"), 12, 1, 52)
	if err != nil {
		return failValidation(c, map[string]string{"weeks": err.Error()})
	}

	summaries, err := s.trends.TopicWeekly(c.Request().Context(), weeks)
	if err != nil {
		s.logger.Error().Err(err).Int("weeks", weeks).Msg("weekly topic rollup failed")
		return internalError(c, "Failed to load weekly topic rollup")
	}
	return success(c, map[string]any{
		"items": summaries,
		"weeks": weeks,
	})
}

func (s *Server) handleRegionTrends(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 30, 1, maxWindowDays)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}

	points, err := s.trends.Regions(c.Request().Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("region trend query failed")
		return internalError(c, "Failed to load region trend")
	}
	return success(c, map[string]any{
		"items": points,
		"days":  days,
	})
}

func (s *Server) handleSourceTrends(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 30, 1, maxWindowDays)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}

	points, err := s.trends.Sources(c.Request().Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("source trend query failed")
		return internalError(c, "Failed to load source trend")
	}
	return success(c, map[string]any{
		"items": points,
		"days":  days,
	})
}

func (s *Server) handleTopEntities(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 30, 1, maxWindowDays)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}
	top, err := parsePositiveInt(c.QueryParam("top"), defaultTopCount, 1, maxTopEntities)
	if err != nil {
		return failValidation(c, map[string]string{"top": err.Error()})
	}

	points, err := s.trends.TopEntities(c.Request().Context(), days, top)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Int("top", top).Msg("entity trend query failed")
		return internalError(c, "Failed to load entity trend")
	}
	return success(c, map[string]any{
		"items": points,
		"days":  days,
		"top":   top,
	})
}

func (s *Server) handleCompare(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 7, 1, maxWindowDays/2)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}

	comparison, err := s.trends.CompareWithPrevious(c.Request().Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("period comparison failed")
		return internalError(c, "Failed to compare periods")
	}
	return success(c, comparison)
}

func (s *Server) handleAnomalies(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 30, 1, maxWindowDays)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}
	sigma, err := parseSigma(c.QueryParam("sigma"), 2.0)
	if err != nil {
		return failValidation(c, map[string]string{"sigma": err.Error()})
	}

	anomalies, err := s.trends.Anomalies(c.Request().Context(), days, sigma)
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Float64("sigma", sigma).Msg("anomaly scan failed")
		return internalError(c, "Failed to detect anomalies")
	}
	return success(c, map[string]any{
		"items": anomalies,
		"days":  days,
		"sigma": sigma,
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseSigma(raw string, defaultValue float64) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	if value <= 0 || value > maxSigmaFactor {
		return 0, fmt.Errorf("must be between 0 and %.0f", maxSigmaFactor)
	}
	return value, nil
}
