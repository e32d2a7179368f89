package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/models"
	"github.com/neilberkman/ccsearch/internal/search"
	"github.com/neilberkman/ccsearch/internal/service"
)

type fakeBackend struct {
	lastSearch service.Request
	err        error
}

func (f *fakeBackend) ListProjects(ctx context.Context) ([]models.Project, error) {
	return []models.Project{{ID: "-p", Name: "/p", ConversationCount: 1}}, f.err
}

func (f *fakeBackend) ListConversations(ctx context.Context, projectID string) ([]*models.ConversationRecord, error) {
	if projectID != "-p" {
		return nil, fmt.Errorf("project %q: %w", projectID, models.ErrNotFound)
	}
	return []*models.ConversationRecord{{ID: "c1", ProjectID: projectID, MessageCount: 2}}, nil
}

func (f *fakeBackend) GetConversation(ctx context.Context, projectID, id string) (*models.ConversationRecord, error) {
	if id != "c1" {
		return nil, fmt.Errorf("conversation %q: %w", id, models.ErrNotFound)
	}
	return &models.ConversationRecord{
		ID:        id,
		ProjectID: projectID,
		Messages: []models.Message{{
			UUID:    "m1",
			Role:    models.RoleUser,
			Content: models.StringContent("hello"),
		}},
		MessageCount: 1,
	}, nil
}

func (f *fakeBackend) Search(ctx context.Context, req service.Request) (*service.Response, error) {
	f.lastSearch = req
	if req.Mode == "bogus" {
		_, err := search.ParseMode(req.Mode)
		return nil, err
	}
	return &service.Response{
		Query:   req.Query,
		Mode:    search.ModePartial,
		Results: []models.SearchResult{{ConversationID: "c1", ProjectID: "-p", MatchCount: 1}},
		Total:   1,
	}, nil
}

func (f *fakeBackend) GetProjectStats(ctx context.Context, projectID string) (*models.ProjectStats, error) {
	return &models.ProjectStats{ProjectID: projectID, TotalConversations: 3, ComputedAt: time.Unix(0, 0).UTC()}, f.err
}

func (f *fakeBackend) GetConversationStats(ctx context.Context, projectID, id string) (*models.ConversationStats, error) {
	return &models.ConversationStats{ConversationID: id, ProjectID: projectID}, f.err
}

func setupTestServer(t *testing.T, backend Backend) *Server {
	t.Helper()
	server, err := NewServer(backend, zap.NewNop(), "")
	require.NoError(t, err)
	return server
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("uses default address", func(t *testing.T) {
		server := setupTestServer(t, &fakeBackend{})
		assert.Equal(t, DefaultAddr, server.addr)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(&fakeBackend{}, nil, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when backend is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), "")
		assert.Error(t, err)
	})
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, setupTestServer(t, &fakeBackend{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRoutes(t *testing.T) {
	server := setupTestServer(t, &fakeBackend{})

	tests := []struct {
		name     string
		target   string
		status   int
		contains string
	}{
		{"projects", "/api/projects", http.StatusOK, `"id":"-p"`},
		{"conversations", "/api/projects/-p/conversations", http.StatusOK, `"id":"c1"`},
		{"unknown project", "/api/projects/-x/conversations", http.StatusNotFound, "not found"},
		{"conversation", "/api/projects/-p/conversations/c1", http.StatusOK, `"content":"hello"`},
		{"missing conversation", "/api/projects/-p/conversations/zz", http.StatusNotFound, "not found"},
		{"conversation stats", "/api/projects/-p/conversations/c1/stats", http.StatusOK, `"conversation_id":"c1"`},
		{"project stats", "/api/projects/-p/stats", http.StatusOK, `"total_conversations":3`},
		{"search", "/api/search?q=hello", http.StatusOK, `"total":1`},
		{"bad mode", "/api/search?q=hello&mode=bogus", http.StatusBadRequest, "invalid search mode"},
		{"bad limit", "/api/search?q=hello&limit=abc", http.StatusBadRequest, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, server, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestSearchPassesParameters(t *testing.T) {
	backend := &fakeBackend{}
	server := setupTestServer(t, backend)

	rec := get(t, server, "/api/search?q=foo+bar&mode=exact&project=-p&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.Request{ProjectID: "-p", Query: "foo bar", Mode: "exact", Limit: 5}, backend.lastSearch)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	server := setupTestServer(t, &fakeBackend{err: errors.New("disk on fire")})
	rec := get(t, server, "/api/projects")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t, &fakeBackend{})
	get(t, server, "/api/projects")

	rec := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "ccsearch_http_requests_total"))
}
