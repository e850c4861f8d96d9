package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/Mavwarf/iconset/internal/entry"
	"github.com/Mavwarf/iconset/internal/idiom"
	"github.com/Mavwarf/iconset/internal/manifest"
	"github.com/Mavwarf/iconset/internal/paths"
)

// DefaultIdioms is the selector used when none is configured.
const DefaultIdioms = "all"

// MQTT holds broker settings for completion notices.
type MQTT struct {
	Broker   string `json:"broker,omitempty"    env:"BROKER"`
	Topic    string `json:"topic,omitempty"     env:"TOPIC"`
	ClientID string `json:"client_id,omitempty" env:"CLIENT_ID"`
	Username string `json:"username,omitempty"  env:"USERNAME"`
	Password string `json:"password,omitempty"  env:"PASSWORD"`
	QoS      byte   `json:"qos,omitempty"       env:"QOS"`
	Retain   bool   `json:"retain,omitempty"    env:"RETAIN"`
}

// Notify holds the optional completion notice targets.
type Notify struct {
	MQTT           MQTT              `json:"mqtt,omitempty"            envPrefix:"MQTT_"`
	Webhook        string            `json:"webhook,omitempty"         env:"WEBHOOK_URL"`
	WebhookHeaders map[string]string `json:"webhook_headers,omitempty"`
}

// Config holds everything a generate run needs besides the source image
// and target directory.
type Config struct {
	Prefix      string `json:"prefix"                 env:"ICONSET_PREFIX"`
	Idioms      string `json:"idioms"                 env:"ICONSET_IDIOMS"`
	Badge       string `json:"badge,omitempty"        env:"ICONSET_BADGE"`
	Author      string `json:"author"                 env:"ICONSET_AUTHOR"`
	Version     int    `json:"version"                env:"ICONSET_VERSION"`
	Workers     int    `json:"workers,omitempty"      env:"ICONSET_WORKERS"`
	History     bool   `json:"history"                env:"ICONSET_HISTORY"`
	HistoryPath string `json:"history_path,omitempty" env:"ICONSET_HISTORY_PATH"`
	Notify      Notify `json:"notify,omitempty"       envPrefix:"ICONSET_"`

	// Source is the file the config was read from, empty for defaults.
	Source string `json:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	info := manifest.DefaultInfo()
	return Config{
		Prefix:  entry.DefaultPrefix,
		Idioms:  DefaultIdioms,
		Author:  info.Author,
		Version: info.Version,
		History: true,
	}
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	*c = Default()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// Info returns the manifest info block for c.
func (c Config) Info() manifest.Info {
	return manifest.Info{Version: c.Version, Author: c.Author}
}

// ResolvedHistoryPath returns the history database path, falling back to
// the data directory.
func (c Config) ResolvedHistoryPath() string {
	if c.HistoryPath != "" {
		return c.HistoryPath
	}
	return paths.HistoryPath()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.ContainsAny(c.Prefix, `/\`) {
		return fmt.Errorf("prefix %q must not contain path separators", c.Prefix)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", c.Version)
	}
	if _, err := idiom.Parse(c.Idioms); err != nil {
		return err
	}
	m := c.Notify.MQTT
	if m.Broker != "" && m.Topic == "" {
		return errors.New("notify.mqtt.topic is required when a broker is set")
	}
	if m.QoS > 2 {
		return fmt.Errorf("notify.mqtt.qos must be 0, 1 or 2, got %d", m.QoS)
	}
	return nil
}

// ApplyEnv overrides fields from ICONSET_* environment variables.
func ApplyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load builds the configuration from defaults, a config file and the
// environment, in increasing priority. The file is looked up in order:
//  1. explicitPath (if non-empty; must exist)
//  2. iconset.json in the working directory
//  3. iconset.json next to the running binary
//  4. ~/.config/iconset/iconset.json (%APPDATA%\iconset on Windows)
//
// Finding no file is not an error.
func Load(explicitPath string) (Config, error) {
	cfg := Default()
	if explicitPath != "" {
		c, err := readConfig(explicitPath)
		if err != nil {
			return Config{}, err
		}
		cfg = c
	} else if p := findConfig(); p != "" {
		c, err := readConfig(p)
		if err != nil {
			return Config{}, err
		}
		cfg = c
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findConfig() string {
	var candidates []string
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, paths.ConfigFileName))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), paths.ConfigFileName))
	}
	candidates = append(candidates, filepath.Join(paths.DataDir(), paths.ConfigFileName))

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}
