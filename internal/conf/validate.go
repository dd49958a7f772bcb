// validate.go: validation of loaded settings
package conf

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidateSettings checks the loaded settings for configuration errors that
// would prevent the service from starting.
func ValidateSettings(settings *Settings) error {
	if settings == nil {
		return errors.New("settings is nil")
	}

	var validationErrors []string

	if err := validateWebServerSettings(settings); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}

	if err := validateOutputSettings(settings); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("validation errors: %v", validationErrors)
	}

	return nil
}

func validateWebServerSettings(settings *Settings) error {
	if !settings.WebServer.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid webserver port: %s", settings.WebServer.Port)
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	enabled := 0
	if settings.Output.SQLite.Enabled {
		enabled++
		if settings.Output.SQLite.Path == "" {
			return errors.New("sqlite output enabled but path is empty")
		}
	}
	if settings.Output.MySQL.Enabled {
		enabled++
	}
	if settings.Output.Postgres.Enabled {
		enabled++
	}

	if enabled == 0 {
		return errors.New("no database output enabled")
	}
	if enabled > 1 {
		return errors.New("multiple database outputs enabled, only one is supported")
	}
	return nil
}
