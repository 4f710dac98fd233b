package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model" mapstructure:"model"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	RateMyProf RateMyProfConfig `yaml:"ratemyprof" mapstructure:"ratemyprof"`
	Calendar   CalendarConfig   `yaml:"calendar" mapstructure:"calendar"`
	Sheet      SheetConfig      `yaml:"sheet" mapstructure:"sheet"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ModelConfig selects the generative model provider and sampling settings.
type ModelConfig struct {
	Provider           string  `yaml:"provider" mapstructure:"provider"`
	MaxTokens          int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	ExtractMaxTokens   int64   `yaml:"extract_max_tokens" mapstructure:"extract_max_tokens"`
	RecommendMaxTokens int64   `yaml:"recommend_max_tokens" mapstructure:"recommend_max_tokens"`
	Temperature        float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP               float64 `yaml:"top_p" mapstructure:"top_p"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for OpenAI or an OpenAI-compatible gateway.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RateMyProfConfig configures the professor rating lookup.
type RateMyProfConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	SchoolID          string  `yaml:"school_id" mapstructure:"school_id"`
	SearchCount       int     `yaml:"search_count" mapstructure:"search_count"`
	CommentCount      int     `yaml:"comment_count" mapstructure:"comment_count"`
	CommentCap        int     `yaml:"comment_cap" mapstructure:"comment_cap"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// CalendarConfig configures Google Calendar export.
type CalendarConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	AccessToken  string `yaml:"access_token" mapstructure:"access_token"`
	Name         string `yaml:"name" mapstructure:"name"`
	TimeZone     string `yaml:"time_zone" mapstructure:"time_zone"`
	QuarterStart string `yaml:"quarter_start" mapstructure:"quarter_start"` // YYYY-MM-DD
	QuarterWeeks int    `yaml:"quarter_weeks" mapstructure:"quarter_weeks"`
	MaxRetries   int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// SheetConfig describes where the course-section table lives and which
// columns hold which fields. Column indices are zero-based; -1 disables.
type SheetConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	SheetName     string `yaml:"sheet_name" mapstructure:"sheet_name"`
	SkipRows      int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	SectionCol    int    `yaml:"section_col" mapstructure:"section_col"`
	TitleCol      int    `yaml:"title_col" mapstructure:"title_col"`
	InstructorCol int    `yaml:"instructor_col" mapstructure:"instructor_col"`
	EnrollmentCol int    `yaml:"enrollment_col" mapstructure:"enrollment_col"`
	MeetingCol    int    `yaml:"meeting_col" mapstructure:"meeting_col"`
	LocationCol   int    `yaml:"location_col" mapstructure:"location_col"`
	UnitsCol      int    `yaml:"units_col" mapstructure:"units_col"`
}

// PipelineConfig configures the planning pipeline.
type PipelineConfig struct {
	LookupConcurrency    int  `yaml:"lookup_concurrency" mapstructure:"lookup_concurrency"`
	LookupTimeoutSecs    int  `yaml:"lookup_timeout_secs" mapstructure:"lookup_timeout_secs"`
	ValidateSections     bool `yaml:"validate_sections" mapstructure:"validate_sections"`
	ProfileCacheTTLHours int  `yaml:"profile_cache_ttl_hours" mapstructure:"profile_cache_ttl_hours"`
	BreakerThreshold     int  `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs  int  `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("CLASSIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("model.provider", "anthropic")
	v.SetDefault("model.max_tokens", 512)
	v.SetDefault("model.extract_max_tokens", 4096)
	v.SetDefault("model.recommend_max_tokens", 2048)
	v.SetDefault("model.temperature", 0.5)
	v.SetDefault("model.top_p", 0.9)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.model", "gpt-4.1-mini")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("ratemyprof.base_url", "https://www.ratemyprofessors.com/graphql")
	v.SetDefault("ratemyprof.school_id", "U2Nob29sLTg4Mg==")
	v.SetDefault("ratemyprof.search_count", 10)
	v.SetDefault("ratemyprof.comment_count", 50)
	v.SetDefault("ratemyprof.comment_cap", 2)
	v.SetDefault("ratemyprof.timeout_secs", 10)
	v.SetDefault("ratemyprof.requests_per_second", 4.0)
	v.SetDefault("calendar.base_url", "https://www.googleapis.com/calendar/v3")
	v.SetDefault("calendar.name", "Class Schedule")
	v.SetDefault("calendar.time_zone", "America/Los_Angeles")
	v.SetDefault("calendar.quarter_weeks", 10)
	v.SetDefault("calendar.max_retries", 3)
	v.SetDefault("sheet.path", "sections.xlsx")
	v.SetDefault("sheet.skip_rows", 1)
	v.SetDefault("sheet.section_col", 0)
	v.SetDefault("sheet.title_col", 1)
	v.SetDefault("sheet.instructor_col", 2)
	v.SetDefault("sheet.enrollment_col", 3)
	v.SetDefault("sheet.meeting_col", 4)
	v.SetDefault("sheet.location_col", 5)
	v.SetDefault("sheet.units_col", -1)
	v.SetDefault("pipeline.lookup_concurrency", 4)
	v.SetDefault("pipeline.lookup_timeout_secs", 15)
	v.SetDefault("pipeline.validate_sections", true)
	v.SetDefault("pipeline.profile_cache_ttl_hours", 24*7)
	v.SetDefault("pipeline.breaker_threshold", 5)
	v.SetDefault("pipeline.breaker_cooldown_secs", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "classify.db")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Keys without defaults are invisible to Unmarshal unless bound.
	for _, key := range []string{
		"anthropic.key",
		"openai.key",
		"openai.base_url",
		"gemini.key",
		"calendar.access_token",
		"calendar.quarter_start",
		"sheet.sheet_name",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

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

// Validate checks that the settings required by the given mode are present.
// Modes: "plan" (model credentials), "calendar" (calendar token), "lookup".
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "plan":
		switch c.Model.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				missing = append(missing, "anthropic.key")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				missing = append(missing, "openai.key")
			}
		case "gemini":
			if c.Gemini.Key == "" {
				missing = append(missing, "gemini.key")
			}
		default:
			return eris.Errorf("config: unknown model provider %q", c.Model.Provider)
		}
		if c.RateMyProf.SchoolID == "" {
			missing = append(missing, "ratemyprof.school_id")
		}
	case "calendar":
		if c.Calendar.AccessToken == "" {
			missing = append(missing, "calendar.access_token")
		}
	case "lookup":
		if c.RateMyProf.SchoolID == "" {
			missing = append(missing, "ratemyprof.school_id")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", mode, strings.Join(missing, ", "))
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
