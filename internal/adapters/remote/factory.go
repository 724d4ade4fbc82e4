package remote

import (
	"net/http"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
)

var _ ports.RemoteFactory = (*Factory)(nil)

// Factory builds clients from project configuration.
type Factory struct {
	transport http.RoundTripper
}

// NewFactory creates a Factory using the default transport.
func NewFactory() *Factory {
	return &Factory{}
}

// New implements ports.RemoteFactory.
func (f *Factory) New(cfg domain.RemoteConfig) (ports.RemoteClient, error) {
	client, err := newClientWithHTTP(cfg, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: f.transport,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
