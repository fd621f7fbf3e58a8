// Package config loads tool settings from an optional YAML file with
// .env / environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Duration parses YAML values like "90s" or plain second counts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return err
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Cookies configures the bot-check retry ladder.
type Cookies struct {
	Browser string `yaml:"browser"`
	File    string `yaml:"file"`
}

// Proxy configures the shared HTTP client.
type Proxy struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Config struct {
	CacheRoot    string   `yaml:"cacheRoot"`
	CacheJSONDir string   `yaml:"cacheJsonDir"`
	Workers      int      `yaml:"workers"`
	Timeout      Duration `yaml:"timeout"`
	ChooseFormat bool     `yaml:"chooseFormat"`
	Cookies      Cookies  `yaml:"cookies"`
	Proxy        Proxy    `yaml:"proxy"`

	// Secrets; usually supplied through the environment, not the file.
	YouTubeAPIKey string `yaml:"youtubeApiKey"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		CacheRoot:    ".",
		CacheJSONDir: "cacheJSONs",
		Workers:      5,
		Cookies:      Cookies{Browser: "firefox", File: "./cookies.txt"},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (missing file is fine), then environment variables. A .env in
// the working directory is folded into the environment first.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debug().Str("op", "config/load").Err(err).Msg("no .env loaded")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			log.Debug().Str("op", "config/load").Msgf("config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}
	if v := os.Getenv("OTODL_YOUTUBE_API_KEY"); v != "" {
		cfg.YouTubeAPIKey = v
	}
	if v := os.Getenv("OTODL_CACHE_ROOT"); v != "" {
		cfg.CacheRoot = v
	}
	if v := os.Getenv("OTODL_COOKIES_BROWSER"); v != "" {
		cfg.Cookies.Browser = v
	}
	if v := os.Getenv("OTODL_COOKIES_FILE"); v != "" {
		cfg.Cookies.File = v
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	return cfg, nil
}
