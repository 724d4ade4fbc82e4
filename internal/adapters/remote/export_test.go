package remote

import (
	"net/http"

	"go.trai.ch/prov/internal/core/domain"
)

// NewClientWithHTTPForTest exports newClientWithHTTP for testing purposes.
func NewClientWithHTTPForTest(cfg domain.RemoteConfig, httpClient *http.Client) (*Client, error) {
	return newClientWithHTTP(cfg, httpClient)
}
