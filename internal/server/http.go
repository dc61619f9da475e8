package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/smartweb"
	"github.com/muurk/smartweb/internal/version"
)

// APIError is the JSON body of every failed API call
type APIError struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// Health is the body of GET /healthz
type Health struct {
	Status      string       `json:"status"`
	Devices     int          `json:"devices"`
	Available   int          `json:"available"`
	Subscribers int          `json:"subscribers"`
	Polls       int          `json:"polls"`
	LastPoll    *time.Time   `json:"last_poll,omitempty"`
	Version     version.Info `json:"version"`
}

// newRouter builds the bridge API
func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(requestLogger)

	e.GET("/healthz", s.healthz)
	e.GET("/ws", s.feed.Handle)

	api := e.Group("/api")
	api.GET("/devices", s.listDevices)
	api.GET("/devices/:name", s.getDevice)
	api.POST("/devices/:name/command", s.postCommand)

	return e
}

func (s *Server) healthz(c echo.Context) error {
	states := s.poller.States()
	available := 0
	for _, st := range states {
		if st.Available {
			available++
		}
	}

	h := Health{
		Status:      "ok",
		Devices:     len(states),
		Available:   available,
		Subscribers: s.feed.Count(),
		Version:     version.Get(),
	}
	if last, n := s.poller.LastPoll(); n > 0 {
		h.Polls = n
		h.LastPoll = &last
	}
	if len(states) > 0 && available == 0 {
		h.Status = "degraded"
	}

	return c.JSON(http.StatusOK, h)
}

func (s *Server) listDevices(c echo.Context) error {
	return c.JSON(http.StatusOK, s.poller.States())
}

func (s *Server) getDevice(c echo.Context) error {
	state, ok := s.poller.State(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown device "+c.Param("name"))
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) postCommand(c echo.Context) error {
	d, ok := s.devices.Lookup(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown device "+c.Param("name"))
	}

	var cmd device.Command
	if err := (&echo.DefaultBinder{}).BindBody(c, &cmd); err != nil || cmd.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, `body must be {"action": "...", "value": n}`)
	}

	logging.Info("Device command",
		zap.String("device", d.Name()),
		zap.String("action", string(cmd.Action)),
		zap.String("remote_addr", c.RealIP()),
	)

	if err := d.Execute(c.Request().Context(), cmd); err != nil {
		s.poller.Record(d.Snapshot())
		return commandError(err)
	}

	state := d.Snapshot()
	s.poller.Record(state)
	return c.JSON(http.StatusOK, state)
}

// commandError maps device failures to HTTP statuses
func commandError(err error) error {
	switch {
	case errors.Is(err, device.ErrUnsupportedAction), errors.Is(err, device.ErrOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	}
}

// errorHandler renders every error as APIError JSON
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := APIError{Error: http.StatusText(code)}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		} else {
			body.Error = http.StatusText(code)
		}
		if he.Internal != nil {
			var hubErr *smartweb.Error
			if errors.As(he.Internal, &hubErr) {
				body.Hint = smartweb.Hint(hubErr)
			}
		}
	}

	if code >= http.StatusInternalServerError {
		logging.Error("API request failed",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

// requestLogger logs every API request at debug level
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		logging.Debug("API request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("elapsed", time.Since(start)),
		)
		return err
	}
}
