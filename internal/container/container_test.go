package container

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallethub/ledgercore/internal/config"
)

func TestNew(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	require.NotNil(t, c)
	assert.Equal(t, cfg, c.config)
}

func TestContainer_Config(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Equal(t, cfg, c.Config())
}

func TestContainer_Logger_BeforeInit(t *testing.T) {
	c := New(config.Development())
	assert.Nil(t, c.Logger())
}

func TestContainer_Pool_BeforeInit(t *testing.T) {
	c := New(config.Development())
	assert.Nil(t, c.Pool())
}

func TestContainer_HTTPServer_BeforeInit(t *testing.T) {
	c := New(config.Development())
	assert.Nil(t, c.HTTPServer())
}

func TestContainer_LedgerService_BeforeInit(t *testing.T) {
	c := New(config.Development())
	assert.Nil(t, c.LedgerService())
}

func TestContainer_initLogger_AllLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown", ""}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := config.Development()
			cfg.Log.Level = level

			c := New(cfg)
			logger := c.initLogger()

			require.NotNil(t, logger)
		})
	}
}

func TestContainer_initLogger_AllFormats(t *testing.T) {
	formats := []string{"json", "text", "unknown", ""}

	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			cfg := config.Development()
			cfg.Log.Format = format

			c := New(cfg)
			logger := c.initLogger()

			require.NotNil(t, logger)
		})
	}
}

func TestHealthStatus_Structure(t *testing.T) {
	status := &HealthStatus{
		Status:  "healthy",
		Version: "1.0.0",
		Uptime:  time.Hour,
		Checks:  map[string]string{"database": "ok"},
	}

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Equal(t, time.Hour, status.Uptime)
	assert.Equal(t, "ok", status.Checks["database"])
}

func TestHealthStatus_Unhealthy(t *testing.T) {
	status := &HealthStatus{
		Status:  "unhealthy",
		Version: "1.0.0",
		Checks:  map[string]string{"database": "error: connection refused"},
	}

	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.Checks["database"], "error")
}

func TestContainer_Shutdown_NilComponents(t *testing.T) {
	c := New(config.Development())
	c.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := c.Shutdown(ctx)
	assert.NoError(t, err)
}

func TestContainer_Initialize_NoDB(t *testing.T) {
	cfg := config.Development()
	cfg.Database.Host = "invalid-host-that-does-not-exist"
	cfg.Database.Port = 59999

	c := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Initialize(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestContainer_MultipleNew(t *testing.T) {
	cfg1 := config.Development()
	cfg2 := config.Test()

	c1 := New(cfg1)
	c2 := New(cfg2)

	assert.NotEqual(t, c1, c2)
	assert.Equal(t, cfg1, c1.Config())
	assert.Equal(t, cfg2, c2.Config())
}
