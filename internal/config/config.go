package config

import (
	"fmt"
	"time"
)

// Config holds all nudge configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	LLM      LLMConfig      `yaml:"llm"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig tunes the recommendation decision engine.
type EngineConfig struct {
	QuotaTotal       int      `yaml:"quota_total"`        // decisions allowed per window
	QuotaWindowHours int      `yaml:"quota_window_hours"` // window length before used resets
	ReplenishFloor   int      `yaml:"replenish_floor"`    // auto-generate when active pool drops below this
	TTLHours         int      `yaml:"ttl_hours"`          // validity window for new recommendations
	TickMinutes      int      `yaml:"tick_minutes"`       // refresh/replenish check cadence
	Modules          []string `yaml:"modules"`            // organizer modules with a suggestion producer
}

// QuotaWindow returns the quota window as a duration.
func (e EngineConfig) QuotaWindow() time.Duration {
	return time.Duration(e.QuotaWindowHours) * time.Hour
}

// TTL returns the recommendation validity window as a duration.
func (e EngineConfig) TTL() time.Duration {
	return time.Duration(e.TTLHours) * time.Hour
}

// TickInterval returns the maintenance cadence as a duration.
func (e EngineConfig) TickInterval() time.Duration {
	return time.Duration(e.TickMinutes) * time.Minute
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "claude-cli", "anthropic", "ollama", "mock"
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
	AnthropicKey string `yaml:"anthropic_key"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38800,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Engine: EngineConfig{
			QuotaTotal:       10,
			QuotaWindowHours: 24,
			ReplenishFloor:   3,
			TTLHours:         72,
			TickMinutes:      15,
			Modules:          []string{"contacts", "planner", "budget"},
		},
		LLM: LLMConfig{
			Provider: "claude-cli",
			Model:    "haiku",
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
