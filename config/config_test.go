package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: \"0123456789abcdef-secret\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should succeed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Grading.FailGrade != "E" {
		t.Errorf("expected fail grade E, got %s", cfg.Grading.FailGrade)
	}
	if cfg.Grading.GracePercent != 1 {
		t.Errorf("expected grace percent 1, got %v", cfg.Grading.GracePercent)
	}
	if cfg.Grading.SessionalCap != 50 {
		t.Errorf("expected sessional cap 50, got %d", cfg.Grading.SessionalCap)
	}
	if len(cfg.Grading.Boundaries) != 0 {
		t.Errorf("expected empty boundary table, got %v", cfg.Grading.Boundaries)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: \"0123456789abcdef-secret\"\nserver:\n  port: 9000\n")
	t.Setenv("ISTC_SERVER_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should succeed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.Server.Port)
	}
}

func TestLoad_CustomBoundaries(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
grading:
  boundaries:
    - {min_percent: 75, grade: "Distinction"}
    - {min_percent: 33, grade: "Pass"}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should succeed: %v", err)
	}
	if len(cfg.Grading.Boundaries) != 2 || cfg.Grading.Boundaries[1].Grade != "Pass" {
		t.Errorf("unexpected boundaries: %+v", cfg.Grading.Boundaries)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Auth:    AuthConfig{JWTSecret: "0123456789abcdef-secret"},
			Grading: GradingConfig{FailGrade: "E", GracePercent: 1, SessionalCap: 50},
			Import:  ImportConfig{MaxRows: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero grace percent", func(c *Config) { c.Grading.GracePercent = 0 }, true},
		{"zero sessional cap", func(c *Config) { c.Grading.SessionalCap = 0 }, true},
		{"ascending boundaries", func(c *Config) {
			c.Grading.Boundaries = []BoundaryConfig{{MinPercent: 40, Grade: "D"}, {MinPercent: 90, Grade: "A+"}}
		}, true},
		{"boundary names fail grade", func(c *Config) {
			c.Grading.Boundaries = []BoundaryConfig{{MinPercent: 40, Grade: "E"}}
		}, true},
		{"duplicate grade", func(c *Config) {
			c.Grading.Boundaries = []BoundaryConfig{{MinPercent: 90, Grade: "A"}, {MinPercent: 80, Grade: "A"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
