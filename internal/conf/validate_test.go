// validate_test.go
package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSettings() *Settings {
	s := &Settings{}
	s.WebServer.Enabled = true
	s.WebServer.Port = "8080"
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "bims.db"
	return s
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{
			name:   "valid settings",
			mutate: func(s *Settings) {},
		},
		{
			name:    "invalid port",
			mutate:  func(s *Settings) { s.WebServer.Port = "not-a-port" },
			wantErr: "invalid webserver port",
		},
		{
			name:    "port out of range",
			mutate:  func(s *Settings) { s.WebServer.Port = "70000" },
			wantErr: "invalid webserver port",
		},
		{
			name:   "port ignored when webserver disabled",
			mutate: func(s *Settings) { s.WebServer.Enabled = false; s.WebServer.Port = "bogus" },
		},
		{
			name:    "no output enabled",
			mutate:  func(s *Settings) { s.Output.SQLite.Enabled = false },
			wantErr: "no database output enabled",
		},
		{
			name: "multiple outputs enabled",
			mutate: func(s *Settings) {
				s.Output.MySQL.Enabled = true
			},
			wantErr: "multiple database outputs",
		},
		{
			name:    "sqlite path missing",
			mutate:  func(s *Settings) { s.Output.SQLite.Path = "" },
			wantErr: "path is empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validSettings()
			tc.mutate(s)

			err := ValidateSettings(s)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateSettingsNil(t *testing.T) {
	assert.Error(t, ValidateSettings(nil))
}
