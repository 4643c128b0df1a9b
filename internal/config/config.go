package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"creator-trends/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SERP       SERPConfig       `mapstructure:"serp"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// Development reports whether the dev identity shortcut is enabled.
func (a AppConfig) Development() bool {
	return strings.EqualFold(a.Environment, "development")
}

// HTTPConfig controls the REST listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// AuthConfig covers bearer token verification.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	DevToken  string        `mapstructure:"dev_token"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SERPConfig captures search/trends provider connectivity.
type SERPConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	DefaultLocation string        `mapstructure:"default_location"`
}

// OpenRouterConfig captures LLM provider connectivity.
type OpenRouterConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Referer        string        `mapstructure:"referer"`
	Title          string        `mapstructure:"title"`
}

// CacheConfig holds freshness windows for stored provider data.
type CacheConfig struct {
	NewsWindow        time.Duration `mapstructure:"news_window"`
	KeywordWindow     time.Duration `mapstructure:"keyword_window"`
	TopSearchesWindow time.Duration `mapstructure:"top_searches_window"`
}

// LimitsConfig holds per-route daily call limits for free identities.
type LimitsConfig struct {
	ContentIdeas        int `mapstructure:"content_ideas"`
	ImproveTitle        int `mapstructure:"improve_title"`
	GenerateKeywords    int `mapstructure:"generate_keywords"`
	GenerateDescription int `mapstructure:"generate_description"`
	Thumbnails          int `mapstructure:"thumbnails"`
}

// RefreshConfig governs the background top-searches refresh.
type RefreshConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	Categories      []string      `mapstructure:"categories"`
	Location        string        `mapstructure:"location"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	RunOnStart      bool          `mapstructure:"run_on_start"`
}

// AlertingConfig defines rising-keyword alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram alert parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxKeywords int `mapstructure:"max_keywords"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CREATORTRENDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "creator-trends")
	v.SetDefault("app.environment", "production")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000", "http://localhost:8081"})

	v.SetDefault("auth.issuer", "creator-trends")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.dev_token", "dev-token")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("serp.base_url", "https://serpapi.com")
	v.SetDefault("serp.request_timeout", "15s")
	v.SetDefault("serp.user_agent", "creator-trends/1.0")
	v.SetDefault("serp.default_location", "us")

	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-3.5-turbo")
	v.SetDefault("openrouter.request_timeout", "30s")
	v.SetDefault("openrouter.referer", "http://localhost:3000")
	v.SetDefault("openrouter.title", "Creator Trends")

	v.SetDefault("cache.news_window", "1h")
	v.SetDefault("cache.keyword_window", "6h")
	v.SetDefault("cache.top_searches_window", "1h")

	v.SetDefault("limits.content_ideas", 10)
	v.SetDefault("limits.improve_title", 15)
	v.SetDefault("limits.generate_keywords", 20)
	v.SetDefault("limits.generate_description", 20)
	v.SetDefault("limits.thumbnails", 50)

	v.SetDefault("refresh.interval", "0s")
	v.SetDefault("refresh.categories", []string{"general", "technology", "gaming"})
	v.SetDefault("refresh.location", "us")
	v.SetDefault("refresh.align_to_bucket", true)
	v.SetDefault("refresh.advisory_lock_key", int64(0x63747264))
	v.SetDefault("refresh.startup_delay", "0s")
	v.SetDefault("refresh.run_on_start", true)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "6h")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_keywords", 50)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxKeywords <= 0 {
		return fmt.Errorf("export.max_keywords must be greater than zero")
	}
	if c.Cache.NewsWindow <= 0 || c.Cache.KeywordWindow <= 0 || c.Cache.TopSearchesWindow <= 0 {
		return fmt.Errorf("cache windows must be greater than zero")
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("refresh.interval cannot be negative")
	}
	for name, limit := range map[string]int{
		"limits.content_ideas":        c.Limits.ContentIdeas,
		"limits.improve_title":        c.Limits.ImproveTitle,
		"limits.generate_keywords":    c.Limits.GenerateKeywords,
		"limits.generate_description": c.Limits.GenerateDescription,
		"limits.thumbnails":           c.Limits.Thumbnails,
	} {
		if limit <= 0 {
			return fmt.Errorf("%s must be greater than zero", name)
		}
	}
	if !c.App.Development() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required outside development")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxKeywords returns either the CLI override or config default.
func (c *Config) ResolveMaxKeywords(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxKeywords
}
