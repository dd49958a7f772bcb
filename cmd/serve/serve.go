package serve

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MC-Knight/django-bims/internal/conf"
	"github.com/MC-Knight/django-bims/internal/datastore"
	"github.com/MC-Knight/django-bims/internal/httpserver"
	"github.com/MC-Knight/django-bims/internal/observability"
	"github.com/MC-Knight/django-bims/internal/observability/metrics"
)

// Command creates the serve command which runs the reporting API server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reporting API server",
		Long:  "Start serving the dashboard summary and taxa listing endpoints over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the HTTP server")
	cmd.Flags().BoolVar(&settings.WebServer.Debug, "webdebug", viper.GetBool("webserver.debug"), "Enable web server debug logging")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

// RunServer opens the datastore, mounts the API and blocks until the process
// receives an interrupt or the server fails.
func RunServer(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ds := datastore.New(settings)
	if ds == nil {
		return errors.New("no database output enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Printf("Error closing datastore: %v", err)
		}
	}()

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if store, ok := ds.(interface {
		SetMetrics(*metrics.DatastoreMetrics)
	}); ok {
		store.SetMetrics(m.Datastore)
	}

	server, err := httpserver.New(settings, ds, m)
	if err != nil {
		return err
	}

	errChan := server.Start()
	log.Printf("Reporting API listening on port %s", settings.WebServer.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down", sig)
	}

	return server.Shutdown()
}
