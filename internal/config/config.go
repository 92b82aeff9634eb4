package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Attio   AttioConfig   `yaml:"attio" mapstructure:"attio"`
	Sidebar SidebarConfig `yaml:"sidebar" mapstructure:"sidebar"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Billing BillingConfig `yaml:"billing" mapstructure:"billing"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// AttioConfig holds CRM API credentials and throttling.
type AttioConfig struct {
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RetryMax    int     `yaml:"retry_max" mapstructure:"retry_max"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SidebarConfig holds object slugs and conversation handling settings.
type SidebarConfig struct {
	PeopleObject    string `yaml:"people_object" mapstructure:"people_object"`
	CompaniesObject string `yaml:"companies_object" mapstructure:"companies_object"`
	DealsObject     string `yaml:"deals_object" mapstructure:"deals_object"`
	StageAttribute  string `yaml:"stage_attribute" mapstructure:"stage_attribute"`
	InternalDomain  string `yaml:"internal_domain" mapstructure:"internal_domain"`
	BulkLimit       int    `yaml:"bulk_limit" mapstructure:"bulk_limit"`
}

// CacheConfig holds the per-slot TTLs. Companies and stages change rarely;
// the deal set changes during a session and must go stale quickly.
type CacheConfig struct {
	CompaniesTTL time.Duration `yaml:"companies_ttl" mapstructure:"companies_ttl"`
	StagesTTL    time.Duration `yaml:"stages_ttl" mapstructure:"stages_ttl"`
	DealsTTL     time.Duration `yaml:"deals_ttl" mapstructure:"deals_ttl"`
}

// BillingConfig maps the workspace-specific billing select-option ids. These
// differ per CRM workspace and must come from configuration, not constants.
type BillingConfig struct {
	BilledOptionID  string `yaml:"billed_option_id" mapstructure:"billed_option_id"`
	PartialOptionID string `yaml:"partial_option_id" mapstructure:"partial_option_id"`
}

// ServerConfig configures the sidebar API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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

	// Environment
	v.SetEnvPrefix("SIDEBAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("attio.base_url", "https://api.attio.com/v2")
	v.SetDefault("attio.rate_per_sec", 10.0)
	v.SetDefault("attio.retry_max", 3)
	v.SetDefault("attio.timeout_secs", 30)
	v.SetDefault("sidebar.people_object", "people")
	v.SetDefault("sidebar.companies_object", "companies")
	v.SetDefault("sidebar.deals_object", "deals")
	v.SetDefault("sidebar.stage_attribute", "stage")
	v.SetDefault("sidebar.bulk_limit", 500)
	v.SetDefault("cache.companies_ttl", "10m")
	v.SetDefault("cache.stages_ttl", "10m")
	v.SetDefault("cache.deals_ttl", "30s")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

// Validate checks that the configuration is usable for the given mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Attio.APIKey == "" {
		problems = append(problems, "attio.api_key is required")
	}
	if c.Sidebar.BulkLimit < 1 || c.Sidebar.BulkLimit > 1000 {
		problems = append(problems, "sidebar.bulk_limit must be between 1 and 1000")
	}
	if c.Cache.DealsTTL <= 0 {
		problems = append(problems, "cache.deals_ttl must be > 0")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "lookup", "stages":
		// Nothing beyond the common checks.
	default:
		return eris.New("config: unknown mode " + mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
