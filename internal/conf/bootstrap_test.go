package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSN = "app:secret@tcp(127.0.0.1:3306)/pickup?parseTime=true"

func TestNewBootstrap_Defaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", testDSN)

	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", bc.Server.Http.Addr)
	assert.Equal(t, testDSN, bc.Data.Database.Source)
	assert.False(t, bc.Registry.Enabled)
	assert.Equal(t, "pickup-game-manager", bc.Registry.ServiceName)
	assert.Equal(t, "/health", bc.Registry.HealthCheckPath)
	assert.Equal(t, "identity-service", bc.Identity.ServiceName)
	assert.Equal(t, "http://identity-service:3001", bc.Identity.BaseURL)
	assert.Empty(t, bc.EventGateway.Endpoint)

	assert.Equal(t, 10, bc.Resilience.Circuit.VolumeThreshold)
	assert.Equal(t, 50.0, bc.Resilience.Circuit.ErrorThresholdPercent)
	assert.Equal(t, time.Minute, bc.Resilience.Circuit.TimeWindow.AsDuration())
	assert.Equal(t, time.Minute, bc.Resilience.Circuit.SleepWindow.AsDuration())

	assert.Equal(t, 3, bc.Resilience.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, bc.Resilience.Retry.BaseInterval.AsDuration())
	assert.Equal(t, 2.0, bc.Resilience.Retry.BackoffFactor)
	assert.Equal(t, 0.5, bc.Resilience.Retry.JitterFactor)
	assert.Equal(t, []int{429, 500, 502, 503, 504}, bc.Resilience.Retry.RetryableStatusCodes)

	assert.Equal(t, 2*time.Second, bc.Resilience.Timeout.Connect.AsDuration())
	assert.Equal(t, 5*time.Second, bc.Resilience.Timeout.Read.AsDuration())

	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
}

func TestNewBootstrap_DeploymentEnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", testDSN)
	t.Setenv("CONSUL_ENABLED", "true")
	t.Setenv("CONSUL_URL", "http://consul:8500")
	t.Setenv("SERVICE_ADDRESS", "10.1.2.3")
	t.Setenv("PORT", "4000")
	t.Setenv("IDENTITY_SERVICE_URL", "http://identity:9000")
	t.Setenv("SERVICE_API_KEY", "svc-key")
	t.Setenv("EVENT_GATEWAY_URL", "http://gateway:8080")
	t.Setenv("EVENT_GATEWAY_API_KEY", "gw-key")

	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.True(t, bc.Registry.Enabled)
	assert.Equal(t, "http://consul:8500", bc.Registry.URL)
	assert.Equal(t, "10.1.2.3", bc.Registry.ServiceAddress)
	assert.Equal(t, 4000, bc.Registry.ServicePort)
	assert.Equal(t, "http://identity:9000", bc.Identity.BaseURL)
	assert.Equal(t, "svc-key", bc.Identity.ServiceAPIKey)
	assert.Equal(t, "http://gateway:8080", bc.EventGateway.Endpoint)
	assert.Equal(t, "gw-key", bc.EventGateway.APIKey)
}

func TestNewBootstrap_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", testDSN)
	t.Setenv("PGM_LOG_LEVEL", "debug")
	t.Setenv("PGM_SERVER_HTTP_ADDR", ":8080")

	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, "debug", bc.Log.Level)
	assert.Equal(t, ":8080", bc.Server.Http.Addr)
}

func TestNewBootstrap_ConfigFile(t *testing.T) {
	t.Setenv("MYSQL_DSN", testDSN)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http:
    addr: :9999
resilience:
  retry:
    max_attempts: 5
`), 0o600))

	bc, err := NewBootstrap(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", bc.Server.Http.Addr)
	assert.Equal(t, 5, bc.Resilience.Retry.MaxAttempts)
}

func TestNewBootstrap_MissingConfigFile(t *testing.T) {
	t.Setenv("MYSQL_DSN", testDSN)

	_, err := NewBootstrap("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_RequiresDSN(t *testing.T) {
	_, err := NewBootstrap("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MYSQL_DSN")
}

func TestValidate_RequiresConsulURLWhenEnabled(t *testing.T) {
	err := Validate(&Bootstrap{
		Data:     &Data{Database: &Data_Database{Source: testDSN}},
		Registry: &Registry{Enabled: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONSUL_URL")
}

func TestValidate_RejectsZeroAttempts(t *testing.T) {
	err := Validate(&Bootstrap{
		Data:       &Data{Database: &Data_Database{Source: testDSN}},
		Resilience: &Resilience{Retry: &Resilience_Retry{MaxAttempts: 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts")
}
