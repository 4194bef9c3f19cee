package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		DBPath    string `yaml:"db_path"`
		OutputDir string `yaml:"output_dir"`
	} `yaml:"project"`
	AI struct {
		Provider    string `yaml:"provider"`
		Model       string `yaml:"model"`
		WriterModel string `yaml:"writer_model"` // model used for streamed article writing
		APIKey      string `yaml:"api_key"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"ai"`
	Editor struct {
		SaveQuiescenceMS      int `yaml:"save_quiescence_ms"`
		StreamRecoveryDelayMS int `yaml:"stream_recovery_delay_ms"`
	} `yaml:"editor"`
	Article struct {
		DefaultWords int    `yaml:"default_words"`
		DefaultTone  string `yaml:"default_tone"`
	} `yaml:"article"`
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	var cfg Config
	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, err
		}
	}

	// 2. Override with environment variables if present
	if apiKey := os.Getenv("INKWELL_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("INKWELL_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if baseURL := os.Getenv("INKWELL_BASE_URL"); baseURL != "" {
		cfg.AI.BaseURL = baseURL
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.DBPath == "" {
		c.Project.DBPath = "inkwell.db"
	}
	if c.Project.OutputDir == "" {
		c.Project.OutputDir = "articles"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.WriterModel == "" {
		c.AI.WriterModel = c.AI.Model
	}
	if c.Editor.SaveQuiescenceMS <= 0 {
		c.Editor.SaveQuiescenceMS = 2000
	}
	if c.Editor.StreamRecoveryDelayMS <= 0 {
		c.Editor.StreamRecoveryDelayMS = 3000
	}
	if c.Article.DefaultWords <= 0 {
		c.Article.DefaultWords = 1200
	}
	if c.Article.DefaultTone == "" {
		c.Article.DefaultTone = "informative"
	}
}

// SaveQuiescence is the delay after the last edit before a debounced save.
func (c *Config) SaveQuiescence() time.Duration {
	return time.Duration(c.Editor.SaveQuiescenceMS) * time.Millisecond
}

// StreamRecoveryDelay is the wait before the single post-stream re-fetch.
func (c *Config) StreamRecoveryDelay() time.Duration {
	return time.Duration(c.Editor.StreamRecoveryDelayMS) * time.Millisecond
}
