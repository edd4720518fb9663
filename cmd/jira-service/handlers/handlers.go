package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/espaceo/workspace-jira-service/cmd/jira-service/api"
	"github.com/espaceo/workspace-jira-service/cmd/jira-service/gateway"
	"github.com/espaceo/workspace-jira-service/internal/atlassian"
	"github.com/espaceo/workspace-jira-service/internal/cache"
	"github.com/espaceo/workspace-jira-service/internal/config"
	"github.com/espaceo/workspace-jira-service/internal/events"
	"github.com/espaceo/workspace-jira-service/internal/models"
	"github.com/espaceo/workspace-jira-service/internal/storage"
)

// Service carries the shared collaborators of the Jira HTTP surface. The
// Jira client itself is built per request, since each request may target a
// different stored workspace.
type Service struct {
	defaults   config.Jira
	store      storage.WorkspaceStore // nil when only env credentials exist
	meta       cache.Cache
	publisher  *events.Publisher
	validator  *atlassian.Validator
	apiTimeout time.Duration
	opts       gateway.Options
}

// NewService creates the Jira service handler set.
func NewService(defaults config.Jira, store storage.WorkspaceStore, meta cache.Cache, publisher *events.Publisher, timeout time.Duration, opts gateway.Options) *Service {
	return &Service{
		defaults:   defaults,
		store:      store,
		meta:       meta,
		publisher:  publisher,
		validator:  atlassian.NewValidator(),
		apiTimeout: timeout,
		opts:       opts,
	}
}

// Routes registers the v1 API on the mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/jira/tasks", s.handleTasks)
	mux.HandleFunc("/api/v1/jira/subtasks", s.handleSubtasks)
	mux.HandleFunc("/api/v1/jira/projects", s.handleProjects)
	mux.HandleFunc("/api/v1/workspaces", s.handleWorkspaces)
	mux.HandleFunc("/api/v1/workspaces/", s.handleWorkspaceByID)
	mux.HandleFunc("/healthz", s.handleHealth)
}

// resolveGateway builds a gateway for the request's workspace. An unknown
// workspace or a missing token fails closed before any Jira call.
func (s *Service) resolveGateway(workspace string) (*gateway.Gateway, *models.GatewayError) {
	creds := models.WorkspaceCredentials{
		Site:  s.defaults.Site(),
		Email: s.defaults.Email,
		Token: s.defaults.Token,
	}

	if workspace != "" {
		if s.store == nil {
			return nil, models.ConfigurationError("no workspace store configured")
		}
		stored, err := s.store.GetCredentials(workspace)
		if err != nil {
			return nil, models.ConfigurationError("workspace " + workspace + " not found")
		}
		creds = *stored
	} else if !s.defaults.Configured() {
		return nil, models.ConfigurationError("JIRA_API_TOKEN is not set")
	}

	client := api.NewClient(api.WorkspaceCredentials{
		Site:  creds.Site,
		Email: creds.Email,
		Token: creds.Token,
	}, s.apiTimeout)

	return gateway.New(client, s.meta, s.publisher, s.opts), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("warning: writing response failed: %v", err)
	}
}

// writeGatewayError does the pure variant-to-status mapping.
func writeGatewayError(w http.ResponseWriter, gerr *models.GatewayError) {
	writeJSON(w, gerr.HTTPStatus(), models.ErrorEnvelope(gerr.Message, gerr.Error(), gerr.Solution))
}

// CORSMiddleware lets the workspace front-end call this service from the
// browser.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LogMiddleware tags every request with a short correlation id.
func LogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s %s (%s)", requestID, r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
