package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	consul "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

// fakeConsul is a minimal agent: it accepts registrations keyed by ID and
// serves health lookups from a canned entry list.
type fakeConsul struct {
	services      map[string]consul.AgentServiceRegistration
	registrations atomic.Int64
	entries       []*consul.ServiceEntry
}

func newFakeConsul() *fakeConsul {
	return &fakeConsul{services: make(map[string]consul.AgentServiceRegistration)}
}

func (f *fakeConsul) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/agent/service/register", func(w http.ResponseWriter, r *http.Request) {
		var reg consul.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			w.WriteHeader(400)
			return
		}
		f.services[reg.ID] = reg
		f.registrations.Add(1)
		w.WriteHeader(200)
	})
	mux.HandleFunc("/v1/agent/service/deregister/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	mux.HandleFunc("/v1/health/service/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Consul-Index", "1")
		w.Header().Set("X-Consul-KnownLeader", "true")
		w.Header().Set("X-Consul-LastContact", "0")
		_ = json.NewEncoder(w).Encode(f.entries)
	})
	return mux
}

func healthEntry(address string, port int, status string) *consul.ServiceEntry {
	return &consul.ServiceEntry{
		Node: &consul.Node{Address: "10.0.0.1"},
		Service: &consul.AgentService{
			Service: "identity-service",
			Address: address,
			Port:    port,
		},
		Checks: consul.HealthChecks{
			{Status: status},
		},
	}
}

func registryConf(url string, enabled bool) *conf.Registry {
	return &conf.Registry{
		Enabled:         enabled,
		URL:             url,
		ServiceName:     "pickup-game-manager",
		ServiceAddress:  "localhost",
		ServicePort:     3000,
		Tags:            []string{"api", "v1"},
		HealthCheckPath: "/health",
		CheckInterval:   durationpb.New(10 * time.Second),
		CheckTimeout:    durationpb.New(5 * time.Second),
		DeregisterAfter: durationpb.New(30 * time.Second),
		DiscoveryTTL:    durationpb.New(0),
	}
}

func identityConf() *conf.Identity {
	return &conf.Identity{
		ServiceName: "identity-service",
		BaseURL:     "http://identity-service:3001",
	}
}

func TestConsulRegistry_RegisterIsIdempotent(t *testing.T) {
	fake := newFakeConsul()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	registry := NewConsulRegistry(registryConf(server.URL, true), identityConf(), log.DefaultLogger)

	require.NoError(t, registry.Register(context.Background()))
	require.NoError(t, registry.Register(context.Background()))

	assert.Equal(t, int64(2), fake.registrations.Load())
	assert.Len(t, fake.services, 1, "same service ID must upsert a single instance")

	reg := fake.services["pickup-game-manager"]
	assert.Equal(t, "pickup-game-manager", reg.Name)
	assert.Equal(t, "localhost", reg.Address)
	assert.Equal(t, 3000, reg.Port)
	assert.Equal(t, []string{"api", "v1"}, reg.Tags)
	require.NotNil(t, reg.Check)
	assert.Equal(t, "http://localhost:3000/health", reg.Check.HTTP)
	assert.Equal(t, "10s", reg.Check.Interval)
	assert.Equal(t, "30s", reg.Check.DeregisterCriticalServiceAfter)
}

func TestConsulRegistry_RegisterSwallowsBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer server.Close()

	registry := NewConsulRegistry(registryConf(server.URL, true), identityConf(), log.DefaultLogger)

	assert.NoError(t, registry.Register(context.Background()), "registration failure must not block startup")
}

func TestConsulRegistry_DiscoverPrefersPassing(t *testing.T) {
	fake := newFakeConsul()
	fake.entries = []*consul.ServiceEntry{
		healthEntry("10.0.0.2", 3001, consul.HealthCritical),
		healthEntry("10.0.0.3", 3001, consul.HealthPassing),
	}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	registry := NewConsulRegistry(registryConf(server.URL, true), identityConf(), log.DefaultLogger)

	ep := registry.Discover(context.Background(), "identity-service")
	require.NotNil(t, ep)
	assert.Equal(t, "10.0.0.3", ep.Address)
	assert.Equal(t, 3001, ep.Port)
	assert.Equal(t, "http://10.0.0.3:3001", ep.BaseURL())
}

func TestConsulRegistry_DiscoverFallsBackToFirstWhenNonePassing(t *testing.T) {
	fake := newFakeConsul()
	fake.entries = []*consul.ServiceEntry{
		healthEntry("10.0.0.2", 3001, consul.HealthCritical),
		healthEntry("10.0.0.3", 3001, consul.HealthWarning),
	}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	registry := NewConsulRegistry(registryConf(server.URL, true), identityConf(), log.DefaultLogger)

	ep := registry.Discover(context.Background(), "identity-service")
	require.NotNil(t, ep)
	assert.Equal(t, "10.0.0.2", ep.Address)
}

func TestConsulRegistry_DiscoverEmptyFallsBackToStatic(t *testing.T) {
	fake := newFakeConsul()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	registry := NewConsulRegistry(registryConf(server.URL, true), identityConf(), log.DefaultLogger)

	ep := registry.Discover(context.Background(), "identity-service")
	require.NotNil(t, ep)
	assert.Equal(t, "identity-service", ep.Address)
	assert.Equal(t, 3001, ep.Port)
}

func TestConsulRegistry_DisabledUsesStatics(t *testing.T) {
	registry := NewConsulRegistry(registryConf("", false), identityConf(), log.DefaultLogger)

	assert.False(t, registry.Enabled())

	ep := registry.Discover(context.Background(), "identity-service")
	require.NotNil(t, ep)
	assert.Equal(t, "http://identity-service:3001", ep.BaseURL())

	assert.Nil(t, registry.Discover(context.Background(), "unknown-service"))
}

func TestConsulRegistry_DiscoveryCacheServesRepeatLookups(t *testing.T) {
	fake := newFakeConsul()
	fake.entries = []*consul.ServiceEntry{
		healthEntry("10.0.0.3", 3001, consul.HealthPassing),
	}
	var healthHits atomic.Int64
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/health/service/identity-service" {
			healthHits.Add(1)
		}
		fake.handler().ServeHTTP(w, r)
	})
	server := httptest.NewServer(counting)
	defer server.Close()

	cfg := registryConf(server.URL, true)
	cfg.DiscoveryTTL = durationpb.New(time.Minute)
	registry := NewConsulRegistry(cfg, identityConf(), log.DefaultLogger)

	first := registry.Discover(context.Background(), "identity-service")
	second := registry.Discover(context.Background(), "identity-service")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.BaseURL(), second.BaseURL())
	assert.Equal(t, int64(1), healthHits.Load(), "second lookup should hit the cache")
}

func TestEndpointFromURL(t *testing.T) {
	ep := endpointFromURL("identity-service", "http://identity:3001")
	require.NotNil(t, ep)
	assert.Equal(t, "identity", ep.Address)
	assert.Equal(t, 3001, ep.Port)

	ep = endpointFromURL("identity-service", "http://identity")
	require.NotNil(t, ep)
	assert.Equal(t, 0, ep.Port)
	assert.Equal(t, "http://identity", ep.BaseURL())

	assert.Nil(t, endpointFromURL("identity-service", "://bad"))
}
