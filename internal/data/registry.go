package data

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	consul "github.com/hashicorp/consul/api"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ConsulRegistry registers this process with Consul and resolves addresses
// of named dependent services. When discovery is disabled it degrades to
// the statically configured endpoints, so a single-node deployment without
// Consul keeps working.
type ConsulRegistry struct {
	cfg     *conf.Registry
	client  *consul.Client
	statics map[string]*model.ServiceEndpoint
	cache   *expirable.LRU[string, *model.ServiceEndpoint]
	logger  *log.Helper
}

// NewConsulRegistry creates the registry. Client construction failure is
// logged and swallowed: registration and discovery then behave as if the
// backend were unreachable, which callers already tolerate.
func NewConsulRegistry(cfg *conf.Registry, identity *conf.Identity, logger log.Logger) *ConsulRegistry {
	helper := log.NewHelper(logger)

	r := &ConsulRegistry{
		cfg:     cfg,
		statics: make(map[string]*model.ServiceEndpoint),
		logger:  helper,
	}

	if identity != nil && identity.BaseURL != "" {
		if ep := endpointFromURL(identity.ServiceName, identity.BaseURL); ep != nil {
			r.statics[identity.ServiceName] = ep
		} else {
			helper.Warnw("msg", "invalid identity base URL, static fallback unavailable",
				"base_url", identity.BaseURL)
		}
	}

	if cfg == nil || !cfg.Enabled {
		return r
	}

	consulCfg := consul.DefaultConfig()
	consulCfg.Address = cfg.URL
	client, err := consul.NewClient(consulCfg)
	if err != nil {
		helper.Errorw("msg", "failed to create consul client", "error", err.Error())
		return r
	}
	r.client = client

	if ttl := cfg.DiscoveryTTL.AsDuration(); ttl > 0 {
		// Bounded: one entry per dependent service.
		r.cache = expirable.NewLRU[string, *model.ServiceEndpoint](16, nil, ttl)
	}

	return r
}

// Enabled reports whether registration with the discovery backend is
// configured for this process.
func (r *ConsulRegistry) Enabled() bool {
	return r.cfg != nil && r.cfg.Enabled
}

// Register upserts this process's service definition. Registering twice
// with the same ID leaves a single instance. Failures are logged and
// swallowed; registration must never block startup.
func (r *ConsulRegistry) Register(ctx context.Context) error {
	if r.cfg == nil || !r.cfg.Enabled {
		return nil
	}
	if r.client == nil {
		r.logger.Warn("consul client unavailable, skipping registration")
		return nil
	}

	checkURL := fmt.Sprintf("http://%s:%d%s",
		r.cfg.ServiceAddress, r.cfg.ServicePort, r.cfg.HealthCheckPath)

	registration := &consul.AgentServiceRegistration{
		ID:      r.cfg.ServiceName,
		Name:    r.cfg.ServiceName,
		Tags:    r.cfg.Tags,
		Address: r.cfg.ServiceAddress,
		Port:    r.cfg.ServicePort,
		Check: &consul.AgentServiceCheck{
			HTTP:                           checkURL,
			Interval:                       r.cfg.CheckInterval.AsDuration().String(),
			Timeout:                        r.cfg.CheckTimeout.AsDuration().String(),
			DeregisterCriticalServiceAfter: r.cfg.DeregisterAfter.AsDuration().String(),
		},
	}

	if err := r.client.Agent().ServiceRegisterOpts(registration, consul.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		r.logger.Errorw("msg", "failed to register with consul",
			"service", r.cfg.ServiceName,
			"error", err.Error())
		return nil
	}

	r.logger.Infow("msg", "registered with consul",
		"service", r.cfg.ServiceName,
		"address", r.cfg.ServiceAddress,
		"port", r.cfg.ServicePort)
	return nil
}

// Deregister removes this process's registration. Best-effort cleanup on
// shutdown; failures are logged, not raised.
func (r *ConsulRegistry) Deregister(ctx context.Context) error {
	if r.cfg == nil || !r.cfg.Enabled || r.client == nil {
		return nil
	}

	if err := r.client.Agent().ServiceDeregisterOpts(r.cfg.ServiceName, (&consul.QueryOptions{}).WithContext(ctx)); err != nil {
		r.logger.Errorw("msg", "failed to deregister from consul",
			"service", r.cfg.ServiceName,
			"error", err.Error())
		return nil
	}

	r.logger.Infow("msg", "deregistered from consul", "service", r.cfg.ServiceName)
	return nil
}

// Discover resolves an endpoint for the named service. Instances with a
// passing health status are preferred; when none report healthy the first
// instance is used. A nil return means "service unavailable" and is an
// expected outcome, not an error. Statically configured endpoints back
// the lookup when discovery is disabled or finds nothing.
func (r *ConsulRegistry) Discover(ctx context.Context, serviceName string) *model.ServiceEndpoint {
	if r.cfg == nil || !r.cfg.Enabled || r.client == nil {
		return r.statics[serviceName]
	}

	if r.cache != nil {
		if ep, ok := r.cache.Get(serviceName); ok {
			return ep
		}
	}

	entries, _, err := r.client.Health().Service(serviceName, "", false, (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		r.logger.Errorw("msg", "consul discovery failed",
			"service", serviceName,
			"error", err.Error())
		return r.statics[serviceName]
	}
	if len(entries) == 0 {
		return r.statics[serviceName]
	}

	chosen := entries[0]
	for _, entry := range entries {
		if entry.Checks.AggregatedStatus() == consul.HealthPassing {
			chosen = entry
			break
		}
	}

	address := chosen.Service.Address
	if address == "" {
		address = chosen.Node.Address
	}

	ep := &model.ServiceEndpoint{
		Name:    serviceName,
		Address: address,
		Port:    chosen.Service.Port,
	}

	if r.cache != nil {
		r.cache.Add(serviceName, ep)
	}

	return ep
}

// endpointFromURL parses a static base URL into an endpoint.
func endpointFromURL(name, raw string) *model.ServiceEndpoint {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil
	}

	port := 0
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}

	return &model.ServiceEndpoint{
		Name:    name,
		Address: u.Hostname(),
		Port:    port,
	}
}
