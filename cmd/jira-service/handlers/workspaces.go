package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/espaceo/workspace-jira-service/internal/models"
	"github.com/espaceo/workspace-jira-service/internal/storage"
)

// handleWorkspaces serves the workspace collection: GET lists the stored
// Jira connections, POST registers a new one after validating its token
// against the live instance.
func (s *Service) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeGatewayError(w, models.ConfigurationError("no workspace store configured"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		workspaces, err := s.store.ListWorkspaces()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError,
				models.ErrorEnvelope("could not list workspaces", err.Error(), ""))
			return
		}
		writeJSON(w, http.StatusOK, models.DetailEnvelope("workspaces retrieved", workspaces))

	case http.MethodPost:
		var ws models.JiraWorkspace
		if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
			writeGatewayError(w, models.ValidationError("invalid JSON body: "+err.Error()))
			return
		}
		if ws.WorkspaceName == "" || ws.JiraURL == "" || ws.Email == "" || ws.APIToken == "" {
			writeGatewayError(w, models.ValidationError("workspaceName, jiraUrl, email and apiToken are required"))
			return
		}

		if err := s.validator.ValidateToken(ws.JiraURL, ws.Email, ws.APIToken); err != nil {
			writeJSON(w, http.StatusUnauthorized,
				models.ErrorEnvelope("Jira credentials rejected", err.Error(),
					"Vérifiez l'URL du site, l'email et le jeton d'API"))
			return
		}

		ws.WorkspaceID = uuid.New().String()
		if err := s.store.SaveWorkspace(&ws); err != nil {
			writeJSON(w, http.StatusInternalServerError,
				models.ErrorEnvelope("could not save workspace", err.Error(), ""))
			return
		}

		ws.APIToken = ""
		writeJSON(w, http.StatusCreated, models.DetailEnvelope("workspace registered", ws))

	default:
		writeJSON(w, http.StatusMethodNotAllowed,
			models.ErrorEnvelope("method not allowed", r.Method+" is not supported on this resource", ""))
	}
}

// handleWorkspaceByID serves DELETE /api/v1/workspaces/{id}.
func (s *Service) handleWorkspaceByID(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeGatewayError(w, models.ConfigurationError("no workspace store configured"))
		return
	}
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed,
			models.ErrorEnvelope("method not allowed", r.Method+" is not supported on this resource", ""))
		return
	}

	workspaceID := strings.TrimPrefix(r.URL.Path, "/api/v1/workspaces/")
	if workspaceID == "" {
		writeGatewayError(w, models.ValidationError("workspace id is required"))
		return
	}

	if err := s.store.DeleteWorkspace(workspaceID); err != nil {
		status := http.StatusInternalServerError
		if err == storage.ErrNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, models.ErrorEnvelope("could not delete workspace", err.Error(), ""))
		return
	}

	writeJSON(w, http.StatusOK, models.DetailEnvelope("workspace deleted",
		map[string]any{"workspaceId": workspaceID, "deleted": true}))
}
