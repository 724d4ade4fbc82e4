// Package remotetest provides an in-memory remote record service for tests.
package remotetest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.trai.ch/prov/internal/adapters/remote"
	"go.trai.ch/prov/internal/core/domain"
)

const (
	// AccessToken is accepted as the bearer token.
	AccessToken = "test-access-token"
	// ApplicationToken is accepted as the application token.
	ApplicationToken = "test-application-token"
)

type storedRecord struct {
	summary  domain.RemoteSummary
	document []byte
}

type project struct {
	info    domain.ProjectInfo
	byLabel map[string]*storedRecord
	order   []*storedRecord
}

// Server is a fake remote record service backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	projects map[string]*project
	deps     map[string]domain.DependencyBody
	failures []int
	pushes   int
	hook     func(label string)
}

// NewServer starts a Server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		projects: make(map[string]*project),
		deps:     make(map[string]domain.DependencyBody),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /{project}/{$}", s.handleEnsureProject)
	mux.HandleFunc("GET /{project}/{$}", s.handleList)
	mux.HandleFunc("PUT /{project}/{label}/{$}", s.handlePush)
	mux.HandleFunc("GET /{project}/{label}/{$}", s.handleGetByLabel)
	mux.HandleFunc("GET /{project}/records/{id}", s.handleGetByID)

	s.Server = httptest.NewServer(s.authenticate(mux))
	t.Cleanup(s.Close)
	return s
}

// Config returns a remote configuration pointing at the server.
func (s *Server) Config() domain.RemoteConfig {
	return domain.RemoteConfig{
		URL:              s.URL,
		AccessToken:      AccessToken,
		ApplicationToken: ApplicationToken,
		Timeout:          5 * time.Second,
	}
}

// FailNext makes the next pushes answer with the given status codes, in order.
func (s *Server) FailNext(codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, codes...)
}

// OnPush registers a hook run before each push is processed.
func (s *Server) OnPush(hook func(label string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Pushes returns the number of push requests received.
func (s *Server) Pushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

// Records returns the summaries held for name in arrival order.
func (s *Server) Records(name string) []domain.RemoteSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return nil
	}
	out := make([]domain.RemoteSummary, len(p.order))
	for i, r := range p.order {
		out[i] = r.summary
	}
	return out
}

// ProjectInfo returns the details last published for name.
func (s *Server) ProjectInfo(name string) (domain.ProjectInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return domain.ProjectInfo{}, false
	}
	return p.info, true
}

// Dependency returns the dependency body received for digest.
func (s *Server) Dependency(digest string) (domain.DependencyBody, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.deps[digest]
	return body, ok
}

// Seed stores rec as if another client had pushed it.
func (s *Server) Seed(t testing.TB, name string, rec *domain.Record) {
	t.Helper()
	doc, err := domain.CanonicalDocument(rec)
	if err != nil {
		t.Fatalf("encode seeded record: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(s.project(name), doc, rec)
}

func (s *Server) project(name string) *project {
	p, ok := s.projects[name]
	if !ok {
		p = &project{byLabel: make(map[string]*storedRecord)}
		s.projects[name] = p
	}
	return p
}

func (s *Server) store(p *project, doc []byte, rec *domain.Record) {
	sum := sha256.Sum256(doc)
	stored := &storedRecord{
		summary: domain.RemoteSummary{
			ID:             rec.ID,
			Label:          rec.Label,
			IdempotencyKey: domain.FormatDigest(sum[:]),
			Timestamp:      rec.StartedAt,
		},
		document: doc,
	}
	if prev, ok := p.byLabel[rec.Label]; ok {
		for i, r := range p.order {
			if r == prev {
				p.order[i] = stored
			}
		}
	} else {
		p.order = append(p.order, stored)
	}
	p.byLabel[rec.Label] = stored
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !equal(bearer, AccessToken) || !equal(r.Header.Get(remote.HeaderApplicationToken), ApplicationToken) {
			writeStatus(w, http.StatusUnauthorized, remote.StatusResponse{Message: "invalid credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func equal(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleEnsureProject(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := r.PathValue("project")
	var req remote.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, remote.StatusResponse{Message: "malformed project"})
		return
	}
	info := domain.ProjectInfo{Name: name, LongName: req.LongName, Description: req.Description}
	if p, ok := s.projects[name]; ok {
		p.info = info
		writeStatus(w, http.StatusOK, remote.StatusResponse{Status: remote.StatusExists})
		return
	}
	s.project(name).info = info
	writeStatus(w, http.StatusCreated, remote.StatusResponse{Status: remote.StatusCreated})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[r.PathValue("project")]
	if !ok {
		writeStatus(w, http.StatusNotFound, remote.StatusResponse{Message: "no such project"})
		return
	}
	list := remote.ListResponse{Records: make([]domain.RemoteSummary, 0, len(p.order))}
	for _, rec := range p.order {
		list.Records = append(list.Records, rec.summary)
	}
	writeStatus(w, http.StatusOK, list)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.pushes++
	hook := s.hook
	var failure int
	if len(s.failures) > 0 {
		failure, s.failures = s.failures[0], s.failures[1:]
	}
	s.mu.Unlock()

	label := r.PathValue("label")
	if hook != nil {
		hook(label)
	}
	if failure != 0 {
		writeStatus(w, failure, remote.StatusResponse{Message: "injected failure"})
		return
	}

	var env remote.PushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeStatus(w, http.StatusBadRequest, remote.StatusResponse{Message: "malformed body"})
		return
	}
	rec, err := domain.DecodeDocument(env.Record)
	if err != nil || rec.Label != label {
		writeStatus(w, http.StatusUnprocessableEntity, remote.StatusResponse{Message: "invalid record document"})
		return
	}
	sum := sha256.Sum256(env.Record)
	key := domain.FormatDigest(sum[:])
	if r.Header.Get(remote.HeaderIdempotencyKey) != key {
		writeStatus(w, http.StatusBadRequest, remote.StatusResponse{Message: "idempotency key does not match document"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[r.PathValue("project")]
	if !ok {
		writeStatus(w, http.StatusNotFound, remote.StatusResponse{Message: "no such project"})
		return
	}
	if prev, exists := p.byLabel[label]; exists {
		if prev.summary.IdempotencyKey == key {
			writeStatus(w, http.StatusOK, remote.StatusResponse{Status: remote.StatusExists, ID: prev.summary.ID})
			return
		}
		if r.URL.Query().Get("force") != "true" {
			writeStatus(w, http.StatusConflict, remote.StatusResponse{Message: "label holds a different record"})
			return
		}
	}
	for _, dep := range env.Dependencies {
		s.deps[dep.Digest] = dep
	}
	s.store(p, env.Record, rec)
	writeStatus(w, http.StatusCreated, remote.StatusResponse{Status: remote.StatusCreated, ID: rec.ID})
}

func (s *Server) writeDocument(w http.ResponseWriter, rec *storedRecord) {
	w.Header().Set("Content-Type", domain.RecordMediaType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.document)
}

func (s *Server) handleGetByLabel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[r.PathValue("project")]; ok {
		if rec, ok := p.byLabel[r.PathValue("label")]; ok {
			s.writeDocument(w, rec)
			return
		}
	}
	writeStatus(w, http.StatusNotFound, remote.StatusResponse{Message: "no such record"})
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[r.PathValue("project")]; ok {
		for _, rec := range p.order {
			if rec.summary.ID == r.PathValue("id") {
				s.writeDocument(w, rec)
				return
			}
		}
	}
	writeStatus(w, http.StatusNotFound, remote.StatusResponse{Message: "no such record"})
}
