package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClinicConfig_Defaults(t *testing.T) {
	cfg, err := LoadClinicConfig()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Hours.Location.String())
	assert.Equal(t, 8, cfg.Hours.Open.Hour)
	assert.Equal(t, 17, cfg.Hours.Close.Hour)
	assert.Equal(t, 3, cfg.DefaultCapacity)
	assert.Equal(t, 30, cfg.SeedDays)
	assert.Equal(t, []time.Weekday{time.Sunday}, cfg.ClosedWeekdays)
}

func TestLoadClinicConfig_Overrides(t *testing.T) {
	t.Setenv("CLINIC_TIMEZONE", "UTC")
	t.Setenv("CLINIC_OPEN", "09:00")
	t.Setenv("CLINIC_CLOSE", "18:30")
	t.Setenv("CLINIC_CLOSED_WEEKDAYS", "saturday, sunday")

	cfg, err := LoadClinicConfig()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.Hours.Location)
	assert.Equal(t, "09:00", cfg.Hours.Open.String())
	assert.Equal(t, "18:30", cfg.Hours.Close.String())
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.ClosedWeekdays)
}

func TestLoadClinicConfig_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad timezone":  {"CLINIC_TIMEZONE", "Mars/Olympus"},
		"bad clock":     {"CLINIC_OPEN", "8am"},
		"open >= close": {"CLINIC_OPEN", "18:00"},
		"bad weekday":   {"CLINIC_CLOSED_WEEKDAYS", "funday"},
		"zero capacity": {"CLINIC_DEFAULT_CAPACITY", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadClinicConfig()
			require.Error(t, err)
		})
	}
}

func TestLoadDBConfig_SQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "file::memory:")

	cfg, err := LoadDBConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "file::memory:", cfg.SQLitePath)
}

func TestLoadDBConfig_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := LoadDBConfig()
	require.Error(t, err)
}

func TestLoadServerAndWorkerConfig(t *testing.T) {
	t.Setenv("GRPC_ADDR", ":6000")
	t.Setenv("GRPC_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SEED_WORKER_LOCK_TTL_SEC", "30")
	t.Setenv("SEED_WORKER_ENABLED", "false")

	srv := LoadServerConfig()
	assert.Equal(t, ":6000", srv.GRPCAddr)
	assert.InDelta(t, 2.5, srv.RateLimitRPS, 1e-9)

	w := LoadWorkerConfig()
	assert.Equal(t, 30*time.Second, w.LockTTL)
	assert.False(t, w.Enabled)
	assert.Equal(t, "@daily", w.CronSpec)
}
