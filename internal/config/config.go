// Package config loads application-manager configuration from the
// environment, in the style of a typical infrastructure/config package.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application-manager configuration.
type Config struct {
	Arena    ArenaConfig
	Queue    QueueConfig
	Manifest ManifestConfig
	Logging  LogConfig
}

// ArenaConfig sizes the single statically reserved memory region.
type ArenaConfig struct {
	// Base is the logical address the arena is mapped at on the target
	// device. Relocated GOT entries and computed entry addresses are
	// Base + offset.
	Base uint32 `envconfig:"ARENA_BASE" default:"536870912"`
	// MaxAppMemorySize is the total arena size in bytes.
	MaxAppMemorySize int `envconfig:"MAX_APP_MEMORY_SIZE" default:"65536"`
	// MaxAppStackWords is the number of 4-byte words reserved for the
	// guest stack, taken from the top of the arena.
	MaxAppStackWords int `envconfig:"MAX_APP_STACK_WORDS" default:"300"`
}

// QueueConfig sizes and times the controller's two message queues.
type QueueConfig struct {
	ThreadQueueCapacity int           `envconfig:"THREAD_QUEUE_CAPACITY" default:"1"`
	MsgQueueCapacity    int           `envconfig:"MSG_QUEUE_CAPACITY" default:"5"`
	TickDuration        time.Duration `envconfig:"TICK_DURATION" default:"1ms"`
	StartTimeoutTicks   int           `envconfig:"START_TIMEOUT_TICKS" default:"100"`
	QuitTimeoutTicks    int           `envconfig:"QUIT_TIMEOUT_TICKS" default:"10"`
	ButtonTimeoutTicks  int           `envconfig:"BUTTON_TIMEOUT_TICKS" default:"10"`
	PumpBlockTimeout    time.Duration `envconfig:"PUMP_BLOCK_TIMEOUT" default:"1s"`
}

// ManifestConfig governs flash scanning and manifest lookup behavior.
type ManifestConfig struct {
	SlotCount      int  `envconfig:"SLOT_COUNT" default:"32"`
	ExactNameMatch bool `envconfig:"EXACT_NAME_MATCH" default:"false"`
	VerifyCRC      bool `envconfig:"VERIFY_CRC" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables prefixed APPMANAGER_.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("appmanager", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment, falling back to
// Default on error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Arena: ArenaConfig{
			Base:             536870912,
			MaxAppMemorySize: 65536,
			MaxAppStackWords: 300,
		},
		Queue: QueueConfig{
			ThreadQueueCapacity: 1,
			MsgQueueCapacity:    5,
			TickDuration:        time.Millisecond,
			StartTimeoutTicks:   100,
			QuitTimeoutTicks:    10,
			ButtonTimeoutTicks:  10,
			PumpBlockTimeout:    time.Second,
		},
		Manifest: ManifestConfig{
			SlotCount:      32,
			ExactNameMatch: false,
			VerifyCRC:      true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// StartTimeout is the bounded send timeout for a start request.
func (c *Config) StartTimeout() time.Duration {
	return c.Queue.TickDuration * time.Duration(c.Queue.StartTimeoutTicks)
}

// QuitTimeout is the bounded send timeout for a quit request.
func (c *Config) QuitTimeout() time.Duration {
	return c.Queue.TickDuration * time.Duration(c.Queue.QuitTimeoutTicks)
}

// ButtonTimeout is the bounded send timeout for a button/tick post.
func (c *Config) ButtonTimeout() time.Duration {
	return c.Queue.TickDuration * time.Duration(c.Queue.ButtonTimeoutTicks)
}

// MaxAppStackBytes is the byte size of the reserved guest stack.
func (c *Config) MaxAppStackBytes() int {
	return c.Arena.MaxAppStackWords * 4
}
