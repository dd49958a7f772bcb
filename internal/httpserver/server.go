// internal/httpserver/server.go
package httpserver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	api "github.com/MC-Knight/django-bims/internal/api/v2"
	"github.com/MC-Knight/django-bims/internal/conf"
	"github.com/MC-Knight/django-bims/internal/datastore"
	"github.com/MC-Knight/django-bims/internal/observability"
)

// shutdownTimeout bounds how long in-flight requests may run during shutdown
const shutdownTimeout = 10 * time.Second

// Server encapsulates the Echo server and the reporting API mounted on it.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	APIV2    *api.Controller
	Metrics  *observability.Metrics
}

// New initializes a new HTTP server with the given settings and datastore.
func New(settings *conf.Settings, dataStore datastore.Interface, metrics *observability.Metrics) (*Server, error) {
	s := &Server{
		Echo:     echo.New(),
		DS:       dataStore,
		Settings: settings,
		Metrics:  metrics,
	}

	s.Echo.HideBanner = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	apiController, err := api.New(s.Echo, s.DS, s.Settings, log.Default(), metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API: %w", err)
	}
	s.APIV2 = apiController

	if metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. Server errors other than
// a clean shutdown are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Echo.Start(":" + s.Settings.WebServer.Port); err != nil {
			errChan <- err
		}
	}()

	return errChan
}

// Shutdown stops accepting new requests, waits for in-flight requests to
// finish and releases the API resources.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.Echo.Shutdown(ctx)

	if s.APIV2 != nil {
		s.APIV2.Shutdown()
	}

	return err
}
