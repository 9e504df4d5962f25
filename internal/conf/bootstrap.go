// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment
// variables, with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the root configuration for the service.
type Bootstrap struct {
	Server       *Server
	Data         *Data
	Registry     *Registry
	Identity     *Identity
	EventGateway *EventGateway
	Resilience   *Resilience
	Log          *Log
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP holds the HTTP listener configuration.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds storage backends.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
}

// Data_Database holds the relational database connection settings.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis holds the Redis connection settings.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Registry holds service discovery settings. When Enabled is false the
// process neither registers itself nor queries the backend; discovery
// falls back to statically configured endpoints.
type Registry struct {
	Enabled         bool
	URL             string
	ServiceName     string
	ServiceAddress  string
	ServicePort     int
	Tags            []string
	HealthCheckPath string
	CheckInterval   *durationpb.Duration
	CheckTimeout    *durationpb.Duration
	DeregisterAfter *durationpb.Duration
	DiscoveryTTL    *durationpb.Duration
}

// Identity holds the external identity service settings.
type Identity struct {
	ServiceName   string
	BaseURL       string
	ServiceAPIKey string
}

// EventGateway holds the external event gateway settings. Endpoint may be
// empty; the publisher surfaces that as a missing-configuration error.
type EventGateway struct {
	Endpoint string
	APIKey   string
}

// Resilience holds circuit breaker, retry, and timeout policy.
type Resilience struct {
	Circuit *Resilience_Circuit
	Retry   *Resilience_Retry
	Timeout *Resilience_Timeout
}

// Resilience_Circuit configures the per-service fault detector.
type Resilience_Circuit struct {
	VolumeThreshold       int
	ErrorThresholdPercent float64
	TimeWindow            *durationpb.Duration
	SleepWindow           *durationpb.Duration
}

// Resilience_Retry configures outbound call retries.
type Resilience_Retry struct {
	MaxAttempts          int
	BaseInterval         *durationpb.Duration
	BackoffFactor        float64
	JitterFactor         float64
	RetryableStatusCodes []int
}

// Resilience_Timeout configures mandatory outbound call timeouts.
type Resilience_Timeout struct {
	Connect *durationpb.Duration
	Read    *durationpb.Duration
}

// Log holds logging configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed
// with PGM_. The original deployment's unprefixed variables (CONSUL_URL,
// IDENTITY_SERVICE_URL, EVENT_GATEWAY_URL, ...) are bound directly so
// existing environments keep working.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PGM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "PGM_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "PGM_DATA_REDIS_ADDR")
	_ = v.BindEnv("registry.enabled", "CONSUL_ENABLED", "PGM_REGISTRY_ENABLED")
	_ = v.BindEnv("registry.url", "CONSUL_URL", "PGM_REGISTRY_URL")
	_ = v.BindEnv("registry.service_address", "SERVICE_ADDRESS", "PGM_REGISTRY_SERVICE_ADDRESS")
	_ = v.BindEnv("registry.service_port", "PORT", "PGM_REGISTRY_SERVICE_PORT")
	_ = v.BindEnv("identity.base_url", "IDENTITY_SERVICE_URL", "PGM_IDENTITY_BASE_URL")
	_ = v.BindEnv("identity.service_api_key", "SERVICE_API_KEY", "PGM_IDENTITY_SERVICE_API_KEY")
	_ = v.BindEnv("event_gateway.endpoint", "EVENT_GATEWAY_URL", "PGM_EVENT_GATEWAY_ENDPOINT")
	_ = v.BindEnv("event_gateway.api_key", "EVENT_GATEWAY_API_KEY", "PGM_EVENT_GATEWAY_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Registry: &Registry{
			Enabled:         v.GetBool("registry.enabled"),
			URL:             v.GetString("registry.url"),
			ServiceName:     v.GetString("registry.service_name"),
			ServiceAddress:  v.GetString("registry.service_address"),
			ServicePort:     v.GetInt("registry.service_port"),
			Tags:            v.GetStringSlice("registry.tags"),
			HealthCheckPath: v.GetString("registry.health_check_path"),
			CheckInterval:   durationpb.New(v.GetDuration("registry.check_interval")),
			CheckTimeout:    durationpb.New(v.GetDuration("registry.check_timeout")),
			DeregisterAfter: durationpb.New(v.GetDuration("registry.deregister_after")),
			DiscoveryTTL:    durationpb.New(v.GetDuration("registry.discovery_ttl")),
		},
		Identity: &Identity{
			ServiceName:   v.GetString("identity.service_name"),
			BaseURL:       v.GetString("identity.base_url"),
			ServiceAPIKey: v.GetString("identity.service_api_key"),
		},
		EventGateway: &EventGateway{
			Endpoint: v.GetString("event_gateway.endpoint"),
			APIKey:   v.GetString("event_gateway.api_key"),
		},
		Resilience: &Resilience{
			Circuit: &Resilience_Circuit{
				VolumeThreshold:       v.GetInt("resilience.circuit.volume_threshold"),
				ErrorThresholdPercent: v.GetFloat64("resilience.circuit.error_threshold_percent"),
				TimeWindow:            durationpb.New(v.GetDuration("resilience.circuit.time_window")),
				SleepWindow:           durationpb.New(v.GetDuration("resilience.circuit.sleep_window")),
			},
			Retry: &Resilience_Retry{
				MaxAttempts:          v.GetInt("resilience.retry.max_attempts"),
				BaseInterval:         durationpb.New(v.GetDuration("resilience.retry.base_interval")),
				BackoffFactor:        v.GetFloat64("resilience.retry.backoff_factor"),
				JitterFactor:         v.GetFloat64("resilience.retry.jitter_factor"),
				RetryableStatusCodes: v.GetIntSlice("resilience.retry.retryable_status_codes"),
			},
			Timeout: &Resilience_Timeout{
				Connect: durationpb.New(v.GetDuration("resilience.timeout.connect")),
				Read:    durationpb.New(v.GetDuration("resilience.timeout.read")),
			},
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values. The resilience defaults
// match what the service has always run with: ten failures at a fifty
// percent error rate within a one minute window open a circuit, and a one
// minute sleep window guards reopening.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":3000")
	v.SetDefault("server.http.timeout", 30*time.Second)

	v.SetDefault("data.database.driver", "mysql")
	// data.database.source (MYSQL_DSN) is required from environment

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	v.SetDefault("registry.enabled", false)
	v.SetDefault("registry.url", "http://localhost:8500")
	v.SetDefault("registry.service_name", "pickup-game-manager")
	v.SetDefault("registry.service_address", "localhost")
	v.SetDefault("registry.service_port", 3000)
	v.SetDefault("registry.tags", []string{"api", "v1"})
	v.SetDefault("registry.health_check_path", "/health")
	v.SetDefault("registry.check_interval", 10*time.Second)
	v.SetDefault("registry.check_timeout", 5*time.Second)
	v.SetDefault("registry.deregister_after", 30*time.Second)
	v.SetDefault("registry.discovery_ttl", time.Duration(0)) // 0 disables the discovery cache

	v.SetDefault("identity.service_name", "identity-service")
	v.SetDefault("identity.base_url", "http://identity-service:3001")

	v.SetDefault("resilience.circuit.volume_threshold", 10)
	v.SetDefault("resilience.circuit.error_threshold_percent", 50.0)
	v.SetDefault("resilience.circuit.time_window", 60*time.Second)
	v.SetDefault("resilience.circuit.sleep_window", 60*time.Second)

	v.SetDefault("resilience.retry.max_attempts", 3)
	v.SetDefault("resilience.retry.base_interval", 50*time.Millisecond)
	v.SetDefault("resilience.retry.backoff_factor", 2.0)
	v.SetDefault("resilience.retry.jitter_factor", 0.5)
	v.SetDefault("resilience.retry.retryable_status_codes", []int{429, 500, 502, 503, 504})

	v.SetDefault("resilience.timeout.connect", 2*time.Second)
	v.SetDefault("resilience.timeout.read", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and
// valid. It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}

	if bc.Registry != nil && bc.Registry.Enabled && bc.Registry.URL == "" {
		missingFields = append(missingFields, "registry.url (CONSUL_URL)")
	}

	if bc.Resilience != nil && bc.Resilience.Retry != nil && bc.Resilience.Retry.MaxAttempts < 1 {
		return fmt.Errorf("resilience.retry.max_attempts must be at least 1")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	return nil
}
