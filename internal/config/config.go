package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/adientlz/pvs-reporter/internal/extract"
	"github.com/adientlz/pvs-reporter/internal/mailer"
)

// Config holds the full application configuration.
type Config struct {
	Plan    PlanConfig     `yaml:"plan" mapstructure:"plan"`
	Refmap  RefmapConfig   `yaml:"refmap" mapstructure:"refmap"`
	Actuals ActualsConfig  `yaml:"actuals" mapstructure:"actuals"`
	Report  ReportConfig   `yaml:"report" mapstructure:"report"`
	Store   StoreConfig    `yaml:"store" mapstructure:"store"`
	Email   mailer.Config  `yaml:"email" mapstructure:"email"`
	Extract extract.Config `yaml:"extract" mapstructure:"extract"`
	Fetch   FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
	Log     LogConfig      `yaml:"log" mapstructure:"log"`
}

// PlanConfig selects and tunes the planned-quantity source.
type PlanConfig struct {
	// Source is "grid" for the spreadsheet reader or "csv" for the flat
	// export.
	Source string `yaml:"source" mapstructure:"source"`
	// Location is a local path or an ftp:// URL.
	Location      string `yaml:"location" mapstructure:"location"`
	Sheet         string `yaml:"sheet" mapstructure:"sheet"`
	TargetLabel   string `yaml:"target_label" mapstructure:"target_label"`
	LabelColumn   int    `yaml:"label_column" mapstructure:"label_column"`
	LineColumn    int    `yaml:"line_column" mapstructure:"line_column"`
	ProjectColumn int    `yaml:"project_column" mapstructure:"project_column"`
	ModelColumn   int    `yaml:"model_column" mapstructure:"model_column"`
	Workdays      int    `yaml:"workdays" mapstructure:"workdays"`
	// Windows1250 applies the legacy codepage decoder to CSV input.
	Windows1250 bool `yaml:"windows1250" mapstructure:"windows1250"`
}

// RefmapConfig locates the line reference table.
type RefmapConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ActualsConfig configures the production database.
type ActualsConfig struct {
	DatabaseURL      string   `yaml:"database_url" mapstructure:"database_url"`
	TransactionTypes []string `yaml:"transaction_types" mapstructure:"transaction_types"`
	QueryTimeoutSecs int      `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
}

// QueryTimeout returns the configured timeout as a duration.
func (c ActualsConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecs) * time.Second
}

// ReportConfig tunes reconciliation and output.
type ReportConfig struct {
	// Clamp bounds adherence percentages symmetrically.
	Clamp float64 `yaml:"clamp" mapstructure:"clamp"`
	// WeekendView lists weekday names on which the report shows the last
	// production day instead of today.
	WeekendView []string `yaml:"weekend_view" mapstructure:"weekend_view"`
	OutputDir   string   `yaml:"output_dir" mapstructure:"output_dir"`
}

// Weekdays parses WeekendView into time.Weekday values, skipping unknown
// names.
func (c ReportConfig) Weekdays() []time.Weekday {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	var out []time.Weekday
	for _, n := range c.WeekendView {
		if d, ok := names[strings.ToLower(strings.TrimSpace(n))]; ok {
			out = append(out, d)
		}
	}
	return out
}

// StoreConfig configures the snapshot database.
type StoreConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// FetchConfig configures FTP retrieval of the planning workbook.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// RatePerSec caps /api/pvs requests; burst rides on top of it.
	RatePerSec float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst  int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSHosts  []string `yaml:"cors_hosts" mapstructure:"cors_hosts"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	// Environment
	v.SetEnvPrefix("PVS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("plan.source", "grid")
	v.SetDefault("plan.sheet", "Daily PVS")
	v.SetDefault("plan.target_label", "Target (LTP input)")
	v.SetDefault("plan.label_column", 2)
	v.SetDefault("plan.line_column", 1)
	v.SetDefault("plan.project_column", 0)
	v.SetDefault("plan.workdays", 5)
	v.SetDefault("refmap.path", "config/line_reference.csv")
	v.SetDefault("actuals.transaction_types", []string{"RCT-WO", "rct-wo"})
	v.SetDefault("actuals.query_timeout_secs", 30)
	v.SetDefault("report.clamp", 300)
	v.SetDefault("report.weekend_view", []string{"sunday", "monday"})
	v.SetDefault("report.output_dir", "out")
	v.SetDefault("store.dsn", "pvs_snapshots.db")
	v.SetDefault("email.port", 25)
	v.SetDefault("extract.sheet", "PLANING")
	v.SetDefault("extract.filename_tokens", []string{"CW", "LTP"})
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("server.port", 5051)
	v.SetDefault("server.rate_per_sec", 5)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.cors_hosts", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
