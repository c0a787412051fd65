package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShift_PlannedStartOffset(t *testing.T) {
	assert.Equal(t, 7*time.Hour+30*time.Minute, Shift{PlannedStart: "07:30"}.PlannedStartOffset())
	assert.Equal(t, 8*time.Hour, Shift{PlannedStart: "мусор"}.PlannedStartOffset())
}

func TestShift_Location(t *testing.T) {
	assert.Equal(t, time.UTC, Shift{Timezone: "Нет/Такого"}.Location())
	assert.Equal(t, "UTC", Shift{Timezone: "UTC"}.Location().String())
}

func validConfig() Config {
	return Config{
		StorageDriver: StorageMemory,
		Shift:         Shift{Timezone: "Europe/Moscow", PlannedStart: "08:00"},
		Reaper:        Reaper{Enabled: true, Interval: 10 * time.Minute, MaxSessionAge: 16 * time.Hour},
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "postgres" }, wantErr: "storage_driver"},
		{name: "bad timezone", mutate: func(c *Config) { c.Shift.Timezone = "Нет/Такого" }, wantErr: "shift.timezone"},
		{name: "bad planned start", mutate: func(c *Config) { c.Shift.PlannedStart = "8 утра" }, wantErr: "shift.planned_start"},
		{name: "zero reaper interval", mutate: func(c *Config) { c.Reaper.Interval = 0 }, wantErr: "reaper.interval"},
		{name: "zero max age", mutate: func(c *Config) { c.Reaper.MaxSessionAge = 0 }, wantErr: "reaper.max_session_age"},
		{name: "reaper disabled", mutate: func(c *Config) { c.Reaper = Reaper{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
