// Package remote implements the HTTP client of the remote record service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxErrorBody bounds how much of an error response is attached to errors.
const maxErrorBody = 4 << 10

var _ ports.RemoteClient = (*Client)(nil)

// Client implements ports.RemoteClient over HTTP.
type Client struct {
	baseURL          *url.URL
	accessToken      string
	applicationToken string
	httpClient       *http.Client
}

// NewClient creates a Client. Both tokens must be present.
func NewClient(cfg domain.RemoteConfig) (*Client, error) {
	return newClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout})
}

// newClientWithHTTP creates a Client with a custom http client (used for testing).
func newClientWithHTTP(cfg domain.RemoteConfig, httpClient *http.Client) (*Client, error) {
	if !cfg.Configured() {
		return nil, zerr.Wrap(domain.ErrConfigInvalid, "no remote url configured")
	}
	base, err := url.Parse(cfg.URL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "remote url must be an absolute http(s) url"), "url", cfg.URL)
	}
	if cfg.AccessToken == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrAuth, "access token is not set"), "env", cfg.AccessTokenEnv)
	}
	if cfg.ApplicationToken == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrAuth, "application token is not set"), "env", cfg.ApplicationTokenEnv)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	return &Client{
		baseURL:          base,
		accessToken:      cfg.AccessToken,
		applicationToken: cfg.ApplicationToken,
		httpClient:       httpClient,
	}, nil
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

// endpoint appends escaped path segments to the base url.
func (c *Client) endpoint(trailingSlash bool, segments ...string) *url.URL {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	plain, raw := strings.Join(segments, "/"), strings.Join(escaped, "/")
	if trailingSlash {
		plain += "/"
		raw += "/"
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + plain
	u.RawPath = c.baseURL.EscapedPath() + raw
	u.RawQuery = ""
	return &u
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, body []byte, header http.Header) (*response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to build remote request"), "url", u.String())
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set(HeaderApplicationToken, c.applicationToken)
	req.Header.Set("Accept", domain.RecordMediaType+", application/json")
	if body != nil {
		req.Header.Set("Content-Type", domain.RecordMediaType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrNetwork, "remote request failed"), "url", u.String()), "error", err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrNetwork, "failed to read remote response"), "url", u.String()), "error", err.Error())
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// classify maps a non-success status to the error taxonomy.
func classify(resp *response, u *url.URL) error {
	body := string(resp.body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	var err error
	switch code := resp.status; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		err = zerr.Wrap(domain.ErrAuth, "remote rejected credentials")
	case code == http.StatusConflict:
		err = zerr.Wrap(domain.ErrConflict, "remote holds a different record under this label")
	case code == http.StatusNotFound:
		err = zerr.Wrap(domain.ErrNotFound, "remote resource not found")
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		err = zerr.Wrap(domain.ErrNetwork, "remote temporarily unavailable")
	default:
		err = zerr.With(zerr.Wrap(domain.ErrValidation, "remote rejected request"), "response", body)
	}
	return zerr.With(zerr.With(err, "status_code", resp.status), "url", u.String())
}

// EnsureProject creates project on the remote. An existing project is not an
// error; its long name and description are updated.
func (c *Client) EnsureProject(ctx context.Context, project domain.ProjectInfo) error {
	u := c.endpoint(true, project.Name)
	body, err := json.Marshal(ProjectRequest{
		Name:        project.Name,
		LongName:    project.LongName,
		Description: project.Description,
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	resp, err := c.do(ctx, http.MethodPut, u, body, nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusOK || resp.status == http.StatusCreated || resp.status == http.StatusNoContent {
		return nil
	}
	return classify(resp, u)
}

// Push submits a record with the dependency bodies the remote lacks.
func (c *Client) Push(ctx context.Context, project string, req domain.PushRequest) (domain.PushResult, error) {
	u := c.endpoint(true, project, req.Label)
	if req.Force {
		u.RawQuery = url.Values{"force": []string{"true"}}.Encode()
	}

	body, err := encodeEnvelope(PushEnvelope{
		Record:       json.RawMessage(req.Document),
		Dependencies: req.Dependencies,
	})
	if err != nil {
		return domain.PushResult{}, err
	}

	header := http.Header{}
	header.Set(HeaderIdempotencyKey, req.IdempotencyKey)
	resp, err := c.do(ctx, http.MethodPut, u, body, header)
	if err != nil {
		return domain.PushResult{}, err
	}

	switch resp.status {
	case http.StatusCreated:
		return domain.PushResult{Created: true}, nil
	case http.StatusOK:
		var status StatusResponse
		if len(resp.body) > 0 {
			if err := json.Unmarshal(resp.body, &status); err != nil {
				return domain.PushResult{}, zerr.With(zerr.Wrap(domain.ErrValidation, "unreadable remote response"), "response", string(resp.body))
			}
		}
		return domain.PushResult{Created: status.Status == StatusCreated}, nil
	default:
		err := zerr.With(classify(resp, u), "label", req.Label)
		if errors.Is(err, domain.ErrValidation) {
			err = zerr.With(zerr.With(err, "payload", string(req.Document)), "idempotency_key", req.IdempotencyKey)
		}
		return domain.PushResult{}, err
	}
}

// encodeEnvelope keeps the record document byte-identical to the one the
// idempotency key was computed from.
func encodeEnvelope(env PushEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	return buf.Bytes(), nil
}

// ListRecords returns the remote summaries of project.
func (c *Client) ListRecords(ctx context.Context, project string) ([]domain.RemoteSummary, error) {
	u := c.endpoint(true, project)
	resp, err := c.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, nil
	}
	if resp.status != http.StatusOK {
		return nil, classify(resp, u)
	}

	var list ListResponse
	if err := json.Unmarshal(resp.body, &list); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrValidation, "unreadable record listing"), "error", err.Error())
	}
	return list.Records, nil
}

// FetchRecord downloads and decodes the document of record id.
func (c *Client) FetchRecord(ctx context.Context, project, id string) (*domain.Record, error) {
	u := c.endpoint(false, project, "records", id)
	resp, err := c.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, zerr.With(classify(resp, u), "id", id)
	}
	return domain.DecodeDocument(resp.body)
}

// FetchRecordByLabel downloads the record the remote currently holds under label.
func (c *Client) FetchRecordByLabel(ctx context.Context, project, label string) (*domain.Record, error) {
	u := c.endpoint(true, project, label)
	resp, err := c.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "no remote record under label"), "label", label)
	}
	if resp.status != http.StatusOK {
		return nil, zerr.With(classify(resp, u), "label", label)
	}
	return domain.DecodeDocument(resp.body)
}
