package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rebbleos/appmanager/internal/config"
)

func TestDefaultTimeoutsScaleFromTickDuration(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 100*time.Millisecond, cfg.StartTimeout())
	assert.Equal(t, 10*time.Millisecond, cfg.QuitTimeout())
	assert.Equal(t, 10*time.Millisecond, cfg.ButtonTimeout())
}

func TestMaxAppStackBytes(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, cfg.Arena.MaxAppStackWords*4, cfg.MaxAppStackBytes())
}

func TestLoadOrDefaultFallsBackCleanly(t *testing.T) {
	cfg := config.LoadOrDefault()
	assert.NotZero(t, cfg.Arena.MaxAppMemorySize)
	assert.NotEmpty(t, cfg.Logging.Level)
}
