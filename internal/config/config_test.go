package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adsarch/greylit/internal/author"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "greylit.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Database.Driver != DriverOracle {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, DriverOracle)
	}
	if cfg.Database.Port != 1521 {
		t.Errorf("Port = %d, want 1521", cfg.Database.Port)
	}
	if cfg.Series.Name != "Welsh Archaeological Trusts reports" {
		t.Errorf("Series.Name = %q", cfg.Series.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
api:
  url: https://oasis.example.org/api/projects
  use_local: true
  local_path: sample.json
  timeout: 30s
database:
  driver: oracle
  username: ingest
  password: secret
  host: db.example.org
  port: 1522
  sid: ORCL
authors:
  mode: strict
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.URL != "https://oasis.example.org/api/projects" {
		t.Errorf("API.URL = %q", cfg.API.URL)
	}
	if !cfg.API.UseLocal {
		t.Error("API.UseLocal = false, want true")
	}
	if want := filepath.Join(filepath.Dir(path), "sample.json"); cfg.API.LocalPath != want {
		t.Errorf("API.LocalPath = %q, want %q", cfg.API.LocalPath, want)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Database.Port != 1522 || cfg.Database.SID != "ORCL" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	// Values absent from the file keep their defaults.
	if cfg.API.MaxRetries != 3 {
		t.Errorf("API.MaxRetries = %d, want default 3", cfg.API.MaxRetries)
	}
	if cfg.AuthorMode() != author.Strict {
		t.Errorf("AuthorMode() = %q, want strict", cfg.AuthorMode())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "api: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLocate_Explicit(t *testing.T) {
	if got := Locate("/etc/greylit.yml"); got != "/etc/greylit.yml" {
		t.Errorf("Locate() = %q", got)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GREYLIT_DB_PASSWORD":   "from-env",
		"GREYLIT_DB_PORT":       "1600",
		"GREYLIT_API_USE_LOCAL": "true",
		"GREYLIT_LOG_LEVEL":     "debug",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Database.Password != "from-env" {
		t.Errorf("Password = %q", cfg.Database.Password)
	}
	if cfg.Database.Port != 1600 {
		t.Errorf("Port = %d", cfg.Database.Port)
	}
	if !cfg.API.UseLocal {
		t.Error("UseLocal = false")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestApplyEnv_BadPort(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == "GREYLIT_DB_PORT" {
			return "not-a-port"
		}
		return ""
	})
	if err == nil {
		t.Error("ApplyEnv() expected error for bad port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "valid oracle",
			mutate: func(c *Config) {
				c.API.URL = "https://oasis.example.org/feed"
				c.Database.Username = "u"
				c.Database.Host = "h"
				c.Database.SID = "ORCL"
			},
		},
		{
			name: "valid sqlite with local feed",
			mutate: func(c *Config) {
				c.API.UseLocal = true
				c.Database.Driver = DriverSQLite
				c.Database.Path = "greylit.db"
			},
		},
		{
			name: "missing url",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
				c.Database.Path = "greylit.db"
			},
			wantErr: "url",
		},
		{
			name: "oracle without sid or service",
			mutate: func(c *Config) {
				c.API.UseLocal = true
				c.Database.Username = "u"
				c.Database.Host = "h"
			},
			wantErr: "sid",
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.API.UseLocal = true
				c.Database.Driver = "postgres"
			},
			wantErr: "driver",
		},
		{
			name: "bad author mode",
			mutate: func(c *Config) {
				c.API.UseLocal = true
				c.Database.Driver = DriverSQLite
				c.Database.Path = "greylit.db"
				c.Authors.Mode = "pedantic"
			},
			wantErr: "mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Database.Password = "secret"
	cfg.API.APIKey = "key"

	red := cfg.Redacted()
	if red.Database.Password != "XXXXX" || red.API.APIKey != "XXXXX" {
		t.Errorf("Redacted() = %+v", red)
	}
	if cfg.Database.Password != "secret" {
		t.Error("Redacted() modified the original")
	}

	data, err := red.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("marshaled config leaks password:\n%s", data)
	}
}
