package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storefront", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, CatalogBackendMemory, cfg.Catalog.Backend)
		assert.Equal(t, 5, cfg.Catalog.PageSize)
		assert.Equal(t, "USD", cfg.Catalog.Currency)
		assert.Equal(t, "USD", cfg.Payment.Currency)
		assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
		assert.Equal(t, time.Duration(0), cfg.Session.IdleTimeout)
		assert.Equal(t, "gallery", cfg.Bot.ImageView)
		assert.Equal(t, 30*time.Second, cfg.Recommendation.Timeout)
		assert.Equal(t, "\n\n--------------------\n\n", cfg.Recommendation.Separator)
		assert.False(t, cfg.Recommendation.Enabled)
		assert.Equal(t, "storefront:", cfg.Redis.KeyPrefix)
		assert.Equal(t, "storefront", cfg.Telemetry.ServiceName)
		assert.Equal(t, time.Hour, cfg.Payment.InvoiceTTL)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
		assert.Equal(t, 2, cfg.Scheduler.Workers)
		assert.False(t, cfg.Storage.Enabled)
		assert.Equal(t, time.Hour, cfg.Storage.PresignExpiration)
	})

	t.Run("scheduler can be disabled", func(t *testing.T) {
		t.Setenv("STOREFRONT_SCHEDULER_ENABLED", "false")
		t.Setenv("STOREFRONT_SCHEDULER_INTERVAL", "1ms")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Scheduler.Enabled)
	})

	t.Run("loads values from environment variables with STOREFRONT prefix", func(t *testing.T) {
		t.Setenv("STOREFRONT_APP_PORT", "9000")
		t.Setenv("STOREFRONT_CATALOG_BACKEND", "database")
		t.Setenv("STOREFRONT_CATALOG_CURRENCY", "EUR")
		t.Setenv("STOREFRONT_DATABASE_DRIVER", "sqlite")
		t.Setenv("STOREFRONT_DATABASE_PATH", ":memory:")
		t.Setenv("STOREFRONT_SESSION_IDLE_TIMEOUT", "10m")
		t.Setenv("STOREFRONT_BOT_IMAGE_VIEW", "carousel")
		t.Setenv("STOREFRONT_PAYMENT_NEED_EMAIL", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, CatalogBackendDatabase, cfg.Catalog.Backend)
		assert.Equal(t, "EUR", cfg.Catalog.Currency)
		assert.Equal(t, "EUR", cfg.Payment.Currency, "payment currency follows the catalog")
		assert.Equal(t, ":memory:", cfg.Database.DSN())
		assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
		assert.Equal(t, "carousel", cfg.Bot.ImageView)
		assert.True(t, cfg.Payment.NeedEmail)
	})

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown catalog backend",
			env:  map[string]string{"STOREFRONT_CATALOG_BACKEND": "csv"},
			want: "catalog.backend",
		},
		{
			name: "invalid currency",
			env:  map[string]string{"STOREFRONT_CATALOG_CURRENCY": "DOLLARS"},
			want: "ISO 4217",
		},
		{
			name: "invalid language",
			env:  map[string]string{"STOREFRONT_CATALOG_LANGUAGE": "not a tag!"},
			want: "catalog.language",
		},
		{
			name: "idle conns exceed open conns",
			env: map[string]string{
				"STOREFRONT_DATABASE_MAX_OPEN_CONNS": "10",
				"STOREFRONT_DATABASE_MAX_IDLE_CONNS": "20",
			},
			want: "cannot exceed",
		},
		{
			name: "redis sessions without redis",
			env:  map[string]string{"STOREFRONT_SESSION_BACKEND": "redis"},
			want: "requires redis.enabled",
		},
		{
			name: "unknown image view",
			env:  map[string]string{"STOREFRONT_BOT_IMAGE_VIEW": "slideshow"},
			want: "bot.image_view",
		},
		{
			name: "recommendations without api key",
			env:  map[string]string{"STOREFRONT_RECOMMENDATION_ENABLED": "true"},
			want: "recommendation.api_key",
		},
		{
			name: "short auth secret",
			env: map[string]string{
				"STOREFRONT_AUTH_ENABLED": "true",
				"STOREFRONT_AUTH_SECRET":  "short",
			},
			want: "auth.secret",
		},
		{
			name: "scheduler interval too short",
			env:  map[string]string{"STOREFRONT_SCHEDULER_INTERVAL": "10ms"},
			want: "scheduler.interval",
		},
		{
			name: "storage without credentials",
			env: map[string]string{
				"STOREFRONT_STORAGE_ENABLED": "true",
				"STOREFRONT_STORAGE_BUCKET":  "photos",
			},
			want: "storage.access_key",
		},
		{
			name: "sampling ratio out of range",
			env:  map[string]string{"STOREFRONT_TELEMETRY_SAMPLING_RATIO": "1.5"},
			want: "sampling_ratio",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("STOREFRONT_APP_ENV", "production")
		t.Setenv("STOREFRONT_PAYMENT_PROVIDER_TOKEN", "284685063:TEST:token")
		t.Setenv("STOREFRONT_AUTH_ENABLED", "true")
		t.Setenv("STOREFRONT_AUTH_SECRET", "this-is-a-very-secure-gateway-secret-32chars")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires provider token", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOREFRONT_PAYMENT_PROVIDER_TOKEN", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment.provider_token is required in production")
	})

	t.Run("requires gateway auth", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOREFRONT_AUTH_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.enabled must be true in production")
	})

	t.Run("rejects swagger", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOREFRONT_HTTP_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.swagger_enabled")
	})

	t.Run("requires SSL for the database catalog", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOREFRONT_CATALOG_BACKEND", "database")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid postgres DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DatabaseDriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DatabaseDriverPostgres, Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DatabaseDriverSQLite, Path: "/tmp/storefront.db"}
		assert.Equal(t, "/tmp/storefront.db", cfg.DSN())
	})
}
