package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 28, cfg.Leave.DefaultAllocation)
	assert.Equal(t, 10, cfg.Leave.SickAllocation)
	assert.Equal(t, time.April, cfg.Leave.YearStartMonth)
	assert.Equal(t, 24*time.Hour, cfg.Cron.ReconcileInterval)
	assert.True(t, cfg.Cron.Enabled)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, []string{"*"}, cfg.App.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "leave")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("LEAVE_DEFAULT_ALLOCATION", "25")
	t.Setenv("LEAVE_YEAR_START_MONTH", "1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Leave.DefaultAllocation)
	assert.Equal(t, time.January, cfg.Leave.YearStartMonth)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/leave?sslmode=disable", cfg.DatabaseURL())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:  DatabaseConfig{Driver: DriverPostgres, Password: "pw", MaxConns: 10},
			JWT:       JWTConfig{Secret: "s", AccessExpiration: "1h"},
			Leave:     LeaveConfig{DefaultAllocation: 28, SickAllocation: 10, YearStartMonth: time.April},
			Cron:      CronConfig{Enabled: true, ReconcileInterval: time.Hour},
			RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing password", mutate: func(c *Config) { c.Database.Password = "" }, wantErr: "DB_PASSWORD"},
		{name: "sqlite needs no password", mutate: func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.Password = ""
			c.Database.SQLitePath = ":memory:"
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET_KEY"},
		{name: "bad month", mutate: func(c *Config) { c.Leave.YearStartMonth = 13 }, wantErr: "LEAVE_YEAR_START_MONTH"},
		{name: "bad allocation", mutate: func(c *Config) { c.Leave.DefaultAllocation = -1 }, wantErr: "LEAVE_DEFAULT_ALLOCATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
