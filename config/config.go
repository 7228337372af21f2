// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

type Config struct {
	Env      string         `yaml:"env" env:"TIMESHEET_ENV" env-default:"local"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Policy   PolicyConfig   `yaml:"policy"`
	Upstream UpstreamConfig `yaml:"upstream"`
}

type ServerConfig struct {
	Port           int           `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"timesheets.db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"24h"`
}

type StorageConfig struct {
	UploadDir      string `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// PolicyConfig holds the write-boundary limits. Hour values are decimal strings.
type PolicyConfig struct {
	MinYear           int    `yaml:"min_year" env-default:"2000"`
	MaxYear           int    `yaml:"max_year" env-default:"2100"`
	MaxDailyHours     string `yaml:"max_daily_hours" env-default:"24"`
	MaxNotesLength    int    `yaml:"max_notes_length" env-default:"100"`
	StandardDayHours  string `yaml:"standard_day_hours" env-default:"8"`
	UploadTolerance   string `yaml:"upload_tolerance" env-default:"0.01"`
	OvertimeThreshold string `yaml:"overtime_threshold" env:"OVERTIME_THRESHOLD" env-default:"0"`
}

type UpstreamConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"5s"`
}

// LoadConfig reads path when it exists and falls back to environment only otherwise.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			return &cfg, cfg.validate()
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Policy.MinYear > c.Policy.MaxYear {
		return fmt.Errorf("policy: min_year %d is after max_year %d", c.Policy.MinYear, c.Policy.MaxYear)
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	return nil
}

// Rules converts the policy section into timesheet rules.
func (c *Config) Rules() (timesheet.Rules, error) {
	p := c.Policy
	parse := func(name, v string) (generic.Hours, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return generic.ZeroHours, fmt.Errorf("policy: %s %q: %w", name, v, err)
		}
		if d.IsNegative() {
			return generic.ZeroHours, fmt.Errorf("policy: %s must not be negative", name)
		}
		return generic.Hours{Value: d}, nil
	}

	rules := timesheet.Rules{
		Years:          generic.YearRange{Min: p.MinYear, Max: p.MaxYear},
		MaxNotesLength: p.MaxNotesLength,
		MaxUploadBytes: c.Storage.MaxUploadBytes,
	}
	var err error
	if rules.MaxDailyHours, err = parse("max_daily_hours", p.MaxDailyHours); err != nil {
		return timesheet.Rules{}, err
	}
	if rules.StandardDayHours, err = parse("standard_day_hours", p.StandardDayHours); err != nil {
		return timesheet.Rules{}, err
	}
	if rules.UploadTolerance, err = parse("upload_tolerance", p.UploadTolerance); err != nil {
		return timesheet.Rules{}, err
	}
	if rules.OvertimeThreshold, err = parse("overtime_threshold", p.OvertimeThreshold); err != nil {
		return timesheet.Rules{}, err
	}
	return rules, nil
}
