package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application-wide configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Grading  GradingConfig  `mapstructure:"grading"`
	Import   ImportConfig   `mapstructure:"import"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port        int        `mapstructure:"port"`
	MaxBodySize int64      `mapstructure:"max_body_size"` // bytes
	CORS        CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis settings (import progress, rate limiting)
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	ProgressTTL time.Duration `mapstructure:"progress_ttl"`
}

// AuthConfig identity token verification. Tokens are issued by the
// institution's identity provider with the same HMAC secret.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GradingConfig institutional grading policy. An empty boundary list means
// the built-in default table.
type GradingConfig struct {
	Boundaries   []BoundaryConfig `mapstructure:"boundaries"`
	FailGrade    string           `mapstructure:"fail_grade"`
	GracePercent float64          `mapstructure:"grace_percent"`
	SessionalCap int              `mapstructure:"sessional_cap"`
}

// BoundaryConfig one row of the grade table: percentages >= MinPercent earn Grade.
type BoundaryConfig struct {
	MinPercent float64 `mapstructure:"min_percent"`
	Grade      string  `mapstructure:"grade"`
}

// ImportConfig bulk import limits
type ImportConfig struct {
	MaxRows    int           `mapstructure:"max_rows"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

// Load reads configuration from file and environment.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_size", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "istc_sms")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Kolkata")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.progress_ttl", "24h")

	v.SetDefault("auth.issuer", "istc-sms")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("grading.fail_grade", "E")
	v.SetDefault("grading.grace_percent", 1.0)
	v.SetDefault("grading.sessional_cap", 50)

	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("import.rate_limit", 10)
	v.SetDefault("import.rate_window", "1m")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("ISTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// no file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	if c.Grading.GracePercent <= 0 || c.Grading.GracePercent > 100 {
		return fmt.Errorf("config: grading.grace_percent must be within (0, 100]")
	}
	if c.Grading.SessionalCap <= 0 {
		return fmt.Errorf("config: grading.sessional_cap must be positive")
	}
	if c.Grading.FailGrade == "" {
		return fmt.Errorf("config: grading.fail_grade must not be empty")
	}
	if c.Import.MaxRows <= 0 {
		return fmt.Errorf("config: import.max_rows must be positive")
	}
	return c.Grading.validateBoundaries()
}

func (g *GradingConfig) validateBoundaries() error {
	seen := make(map[string]bool, len(g.Boundaries))
	for i, b := range g.Boundaries {
		if b.Grade == "" {
			return fmt.Errorf("config: grading.boundaries[%d].grade must not be empty", i)
		}
		if b.Grade == g.FailGrade {
			return fmt.Errorf("config: grading.boundaries[%d] must not name the fail grade %q", i, g.FailGrade)
		}
		if seen[b.Grade] {
			return fmt.Errorf("config: grading.boundaries grade %q listed twice", b.Grade)
		}
		seen[b.Grade] = true
		if b.MinPercent <= 0 || b.MinPercent > 100 {
			return fmt.Errorf("config: grading.boundaries[%d].min_percent must be within (0, 100]", i)
		}
		if i > 0 && b.MinPercent >= g.Boundaries[i-1].MinPercent {
			return fmt.Errorf("config: grading.boundaries must be sorted by min_percent descending")
		}
	}
	return nil
}
