package remote

import (
	"encoding/json"

	"go.trai.ch/prov/internal/core/domain"
)

const (
	// HeaderApplicationToken carries the token identifying this client application.
	HeaderApplicationToken = "X-Prov-Application-Token"
	// HeaderIdempotencyKey carries the content key of a pushed record.
	HeaderIdempotencyKey = "Idempotency-Key"

	// StatusCreated is reported in a response body for a new resource.
	StatusCreated = "created"
	// StatusExists is reported in a response body when the resource was already present.
	StatusExists = "exists"
)

// PushEnvelope is the body of a create-record request.
type PushEnvelope struct {
	Record       json.RawMessage         `json:"record"`
	Dependencies []domain.DependencyBody `json:"dependencies,omitempty"`
}

// StatusResponse is the body of create and error responses.
type StatusResponse struct {
	Status  string          `json:"status,omitempty"`
	ID      string          `json:"id,omitempty"`
	Message string          `json:"message,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// ListResponse is the body of a list-records response.
type ListResponse struct {
	Records []domain.RemoteSummary `json:"records"`
}

// ProjectRequest is the body of an ensure-project request.
type ProjectRequest struct {
	Name        string `json:"name"`
	LongName    string `json:"long_name,omitempty"`
	Description string `json:"description,omitempty"`
}
