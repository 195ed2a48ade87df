package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Languages   LanguagesConfig   `mapstructure:"languages"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Translation TranslationConfig `mapstructure:"translation"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Providers   []ProviderConfig  `mapstructure:"providers" validate:"dive"`
}

type LanguagesConfig struct {
	From string `mapstructure:"from" validate:"required,langcode"`
	To   string `mapstructure:"to" validate:"required,langcode"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=sqlite3 mysql"`
	Path            string            `mapstructure:"path" validate:"required_if=Driver sqlite3"`
	Host            string            `mapstructure:"host" validate:"required_if=Driver mysql"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type TranslationConfig struct {
	GlobalPerMinute int           `mapstructure:"global_per_minute" validate:"gt=0"`
	QueueSize       int           `mapstructure:"queue_size" validate:"gt=0"`
	Placeholder     string        `mapstructure:"placeholder" validate:"required"`
	NotFoundText    string        `mapstructure:"not_found_text" validate:"required"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" validate:"gt=0"`
	RejectSymbols   bool          `mapstructure:"reject_symbols"`
}

// BreakerConfig controls the circuit breaker placed in front of every provider.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures" validate:"gt=0"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
}

type CredentialsConfig struct {
	DeepLAPIKey  string `mapstructure:"deepl_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
}

// ProviderConfig is one entry of the ordered provider fallback list.
type ProviderConfig struct {
	Name      string   `mapstructure:"name" validate:"required,oneof=libretranslate lingva simplytranslate mymemory deepl openai gemini"`
	PerMinute int      `mapstructure:"per_minute" validate:"gt=0"`
	Endpoints []string `mapstructure:"endpoints" validate:"dive,url"`
	Model     string   `mapstructure:"model"`
}

// DefaultProviders is the fallback order used when the config file does not list any provider.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:      "libretranslate",
			PerMinute: 15,
			Endpoints: []string{
				"https://translate.terraprint.co/translate",
				"https://lt.vern.cc/translate",
				"https://translate.fedilab.app/translate",
				"https://translate.astian.org/translate",
			},
		},
		{
			Name:      "lingva",
			PerMinute: 20,
			Endpoints: []string{
				"https://lingva.garudalinux.org/api/v1",
				"https://lingva.pussthecat.org/api/v1",
				"https://translate.plausibility.cloud/api/v1",
			},
		},
		{
			Name:      "simplytranslate",
			PerMinute: 15,
			Endpoints: []string{
				"https://simplytranslate.org",
				"https://st.tokhmi.xyz",
				"https://translate.josias.dev",
			},
		},
		{
			Name:      "deepl",
			PerMinute: 10,
			Endpoints: []string{"https://api-free.deepl.com/v2/translate"},
		},
		{
			Name:      "mymemory",
			PerMinute: 10,
			Endpoints: []string{"https://api.mymemory.translated.net/get"},
		},
	}
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/langtek")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("languages.from", "es")
	v.SetDefault("languages.to", "en")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", filepath.Join("db", "es-en.sqlite3"))
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "langtek")
	v.SetDefault("translation.global_per_minute", 10)
	v.SetDefault("translation.queue_size", 256)
	v.SetDefault("translation.placeholder", "[translating...]")
	v.SetDefault("translation.not_found_text", "[no translation found]")
	v.SetDefault("translation.provider_timeout", 5*time.Second)
	v.SetDefault("translation.reject_symbols", true)
	v.SetDefault("breaker.consecutive_failures", 5)
	v.SetDefault("breaker.open_timeout", time.Minute)

	// Secrets come from the environment only
	for key, env := range map[string]string{
		"credentials.deepl_api_key":  "DEEPL_API_KEY",
		"credentials.openai_api_key": "OPENAI_API_KEY",
		"credentials.gemini_api_key": "GEMINI_API_KEY",
		"database.password":          "DB_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
