package remote_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/remote"
	"go.trai.ch/prov/internal/adapters/remote/remotetest"
	"go.trai.ch/prov/internal/core/domain"
)

// MockRoundTripper is a helper to mock http.Client behavior.
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &MockRoundTripper{RoundTripFunc: handler},
	}
}

func sampleRecord(label string) *domain.Record {
	return &domain.Record{
		ID:         "0190b6d2-0000-7000-8000-00000000000" + label[len(label)-1:],
		Label:      label,
		Project:    "demo",
		Executable: domain.Executable{Name: "Python", Version: "3.12.1"},
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Phase:      domain.PhaseFinished,
	}
}

func pushRequest(t *testing.T, rec *domain.Record) domain.PushRequest {
	t.Helper()
	doc, err := domain.CanonicalDocument(rec)
	require.NoError(t, err)
	key, err := domain.IdempotencyKey(rec)
	require.NoError(t, err)
	return domain.PushRequest{Label: rec.Label, IdempotencyKey: key, Document: doc}
}

var demo = domain.ProjectInfo{Name: "demo"}

func newClient(t *testing.T, srv *remotetest.Server) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(srv.Config())
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.RemoteConfig
		want error
	}{
		{name: "no url", cfg: domain.RemoteConfig{AccessToken: "a", ApplicationToken: "b"}, want: domain.ErrConfigInvalid},
		{name: "relative url", cfg: domain.RemoteConfig{URL: "records.example", AccessToken: "a", ApplicationToken: "b"}, want: domain.ErrConfigInvalid},
		{name: "missing access token", cfg: domain.RemoteConfig{URL: "https://records.example", ApplicationToken: "b"}, want: domain.ErrAuth},
		{name: "missing application token", cfg: domain.RemoteConfig{URL: "https://records.example", AccessToken: "a"}, want: domain.ErrAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := remote.NewClient(tt.cfg)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_PushLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.NewServer(t)
	c := newClient(t, srv)

	require.NoError(t, c.EnsureProject(ctx, demo))
	require.NoError(t, c.EnsureProject(ctx, demo), "ensuring twice is fine")

	rec := sampleRecord("run-1")
	req := pushRequest(t, rec)
	req.Dependencies = []domain.DependencyBody{{Digest: "sha256:abc", Path: "model.py", Size: 3, Content: []byte("a=1")}}

	res, err := c.Push(ctx, "demo", req)
	require.NoError(t, err)
	assert.True(t, res.Created)

	body, ok := srv.Dependency("sha256:abc")
	require.True(t, ok)
	assert.Equal(t, []byte("a=1"), body.Content)

	res, err = c.Push(ctx, "demo", req)
	require.NoError(t, err)
	assert.False(t, res.Created, "replay with the same key is acknowledged")

	list, err := c.ListRecords(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, req.IdempotencyKey, list[0].IdempotencyKey)

	fetched, err := c.FetchRecord(ctx, "demo", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Label, fetched.Label)
	assert.Equal(t, "3.12.1", fetched.Executable.Version)
}

func TestClient_PushConflictAndForce(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.NewServer(t)
	c := newClient(t, srv)
	require.NoError(t, c.EnsureProject(ctx, demo))

	_, err := c.Push(ctx, "demo", pushRequest(t, sampleRecord("run-1")))
	require.NoError(t, err)

	other := sampleRecord("run-1")
	other.Reason = "different content"
	req := pushRequest(t, other)

	_, err = c.Push(ctx, "demo", req)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, domain.Retryable(err))

	theirs, err := c.FetchRecordByLabel(ctx, "demo", "run-1")
	require.NoError(t, err)
	assert.Empty(t, theirs.Reason)

	_, err = c.FetchRecordByLabel(ctx, "demo", "run-9")
	require.ErrorIs(t, err, domain.ErrNotFound)

	req.Force = true
	res, err := c.Push(ctx, "demo", req)
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestClient_PushStatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		want      error
		retryable bool
	}{
		{status: http.StatusUnauthorized, want: domain.ErrAuth},
		{status: http.StatusForbidden, want: domain.ErrAuth},
		{status: http.StatusBadRequest, want: domain.ErrValidation},
		{status: http.StatusUnprocessableEntity, want: domain.ErrValidation},
		{status: http.StatusConflict, want: domain.ErrConflict},
		{status: http.StatusRequestTimeout, want: domain.ErrNetwork, retryable: true},
		{status: http.StatusTooManyRequests, want: domain.ErrNetwork, retryable: true},
		{status: http.StatusBadGateway, want: domain.ErrNetwork, retryable: true},
		{status: http.StatusServiceUnavailable, want: domain.ErrNetwork, retryable: true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ctx := context.Background()
			srv := remotetest.NewServer(t)
			c := newClient(t, srv)
			require.NoError(t, c.EnsureProject(ctx, demo))
			srv.FailNext(tt.status)

			_, err := c.Push(ctx, "demo", pushRequest(t, sampleRecord("run-1")))
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryable, domain.Retryable(err))
		})
	}
}

func TestClient_ValidationCarriesPayload(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.NewServer(t)
	c := newClient(t, srv)
	require.NoError(t, c.EnsureProject(ctx, demo))
	srv.FailNext(http.StatusUnprocessableEntity)

	req := pushRequest(t, sampleRecord("run-1"))
	_, err := c.Push(ctx, "demo", req)
	require.ErrorIs(t, err, domain.ErrValidation)

	rejection := domain.RejectionOf(err)
	require.NotNil(t, rejection)
	assert.Equal(t, string(req.Document), rejection.Payload)
	assert.Equal(t, req.IdempotencyKey, rejection.IdempotencyKey)
	assert.Contains(t, rejection.Response, "injected failure")
}

func TestClient_RejectedCredentials(t *testing.T) {
	srv := remotetest.NewServer(t)
	cfg := srv.Config()
	cfg.AccessToken = "wrong"
	c, err := remote.NewClient(cfg)
	require.NoError(t, err)

	err = c.EnsureProject(context.Background(), demo)
	require.ErrorIs(t, err, domain.ErrAuth)
}

func TestClient_NetworkError(t *testing.T) {
	httpClient := newMockClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	c, err := remote.NewClientWithHTTPForTest(domain.RemoteConfig{
		URL:              "https://records.example/api",
		AccessToken:      "a",
		ApplicationToken: "b",
	}, httpClient)
	require.NoError(t, err)

	_, err = c.Push(context.Background(), "demo", domain.PushRequest{Label: "x", Document: []byte("{}")})
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.True(t, domain.Retryable(err))
}

func TestClient_RequestShape(t *testing.T) {
	var got *http.Request
	httpClient := newMockClient(func(req *http.Request) (*http.Response, error) {
		got = req
		return &http.Response{StatusCode: http.StatusCreated, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	c, err := remote.NewClientWithHTTPForTest(domain.RemoteConfig{
		URL:              "https://records.example/api",
		AccessToken:      "access",
		ApplicationToken: "app",
	}, httpClient)
	require.NoError(t, err)

	_, err = c.Push(context.Background(), "demo", domain.PushRequest{
		Label:          "run 1",
		IdempotencyKey: "sha256:key",
		Document:       []byte(`{"id":"x"}`),
		Force:          true,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/api/demo/run%201/", got.URL.EscapedPath())
	assert.Equal(t, "true", got.URL.Query().Get("force"))
	assert.Equal(t, "Bearer access", got.Header.Get("Authorization"))
	assert.Equal(t, "app", got.Header.Get(remote.HeaderApplicationToken))
	assert.Equal(t, "sha256:key", got.Header.Get(remote.HeaderIdempotencyKey))
	assert.Equal(t, domain.RecordMediaType, got.Header.Get("Content-Type"))
}

func TestClient_ListUnknownProject(t *testing.T) {
	srv := remotetest.NewServer(t)
	list, err := newClient(t, srv).ListRecords(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_FetchMissing(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.NewServer(t)
	c := newClient(t, srv)
	require.NoError(t, c.EnsureProject(ctx, demo))

	_, err := c.FetchRecord(ctx, "demo", "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFactory(t *testing.T) {
	srv := remotetest.NewServer(t)
	client, err := remote.NewFactory().New(srv.Config())
	require.NoError(t, err)
	require.NoError(t, client.EnsureProject(context.Background(), demo))

	_, err = remote.NewFactory().New(domain.RemoteConfig{})
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestClient_EnsureProjectPublishesInfo(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.NewServer(t)
	c := newClient(t, srv)

	require.NoError(t, c.EnsureProject(ctx, demo))
	info, ok := srv.ProjectInfo("demo")
	require.True(t, ok)
	assert.Empty(t, info.Description)

	described := domain.ProjectInfo{Name: "demo", LongName: "Demo model", Description: "Spiking network sweeps"}
	require.NoError(t, c.EnsureProject(ctx, described), "an existing project takes the new details")
	info, ok = srv.ProjectInfo("demo")
	require.True(t, ok)
	assert.Equal(t, described, info)
}
