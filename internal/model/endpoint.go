package model

import "fmt"

// ServiceEndpoint is a resolved network address for a named dependent
// service. It is immutable once resolved; the registry re-resolves on the
// next lookup rather than mutating an existing endpoint.
type ServiceEndpoint struct {
	Name            string
	Address         string
	Port            int
	HealthCheckPath string
}

// BaseURL returns the http base URL for the endpoint.
func (e *ServiceEndpoint) BaseURL() string {
	if e.Port == 0 {
		return fmt.Sprintf("http://%s", e.Address)
	}
	return fmt.Sprintf("http://%s:%d", e.Address, e.Port)
}
