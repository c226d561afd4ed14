package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/repeater/internal/llm"
	"github.com/kpauljoseph/repeater/internal/scheduler"
	"github.com/kpauljoseph/repeater/pkg/utils"
)

const (
	DefaultFileName  = "config.yaml"
	DatabaseFileName = "cards.db"
	LogFileName      = "repeater.log"
	APIKeyEnv        = "REPEATER_API_KEY"
)

type LLM struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Config struct {
	DataDir           string  `yaml:"data_dir"`
	DatabasePath      string  `yaml:"database_path"`
	CardLimit         *int    `yaml:"card_limit"`
	NewCardLimit      *int    `yaml:"new_card_limit"`
	Shuffle           bool    `yaml:"shuffle"`
	RephraseQuestions bool    `yaml:"rephrase_questions"`
	Retention         float64 `yaml:"retention"`
	LLM               LLM     `yaml:"llm"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath is the config file inside the default data directory.
func DefaultPath() string {
	return filepath.Join(utils.GetDefaultDataDir(), DefaultFileName)
}

// Load reads the YAML config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = utils.GetDefaultDataDir()
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, DatabaseFileName)
	}
	if c.Retention == 0 {
		c.Retention = scheduler.DefaultRetention
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = llm.ProviderGemini
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = APIKeyEnv
	}
}

func (c *Config) Validate() error {
	if err := scheduler.ValidateRetention(c.Retention); err != nil {
		return err
	}
	if c.CardLimit != nil && *c.CardLimit < 0 {
		return fmt.Errorf("card_limit must not be negative, got %d", *c.CardLimit)
	}
	if c.NewCardLimit != nil && *c.NewCardLimit < 0 {
		return fmt.Errorf("new_card_limit must not be negative, got %d", *c.NewCardLimit)
	}
	switch c.LLM.Provider {
	case llm.ProviderGemini, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q", llm.ErrUnknownProvider, c.LLM.Provider)
	}
	return nil
}

// LogPath is where a drill session writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, LogFileName)
}

// APIKey reads the key from REPEATER_API_KEY, falling back to the
// configured variable.
func (c *Config) APIKey() string {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		APIKey:   c.APIKey(),
	}
}
