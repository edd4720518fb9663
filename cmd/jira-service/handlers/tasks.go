package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// handleTasks dispatches the /api/v1/jira/tasks resource by method.
func (s *Service) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTasks(w, r)
	case http.MethodPost:
		s.handleCreateTask(w, r)
	case http.MethodPatch:
		s.handleUpdateTask(w, r)
	case http.MethodDelete:
		s.handleDeleteTask(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed,
			models.ErrorEnvelope("method not allowed", r.Method+" is not supported on this resource", ""))
	}
}

func (s *Service) handleListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := models.TaskFilters{
		ProjectKey: query.Get("projectKey"),
		Status:     query.Get("status"),
		Assignee:   query.Get("assignee"),
		Workspace:  query.Get("workspace"),
	}
	if raw := query.Get("maxResults"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filters.MaxResults = n
		}
	}

	g, gerr := s.resolveGateway(filters.Workspace)
	if gerr != nil {
		writeGatewayError(w, gerr)
		return
	}

	tasks, err := g.ListTasks(filters)
	if err != nil {
		writeGatewayError(w, models.AsGatewayError(err))
		return
	}

	writeJSON(w, http.StatusOK, models.TaskListEnvelope(tasks, r.URL.RequestURI()))
}

func (s *Service) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGatewayError(w, models.ValidationError("invalid JSON body: "+err.Error()))
		return
	}

	if req.Title == "" || req.ProjectKey == "" {
		writeGatewayError(w, models.ValidationError("title and projectKey are required"))
		return
	}

	g, gerr := s.resolveGateway(req.Workspace)
	if gerr != nil {
		writeGatewayError(w, gerr)
		return
	}

	task, err := g.CreateTask(req)
	if err != nil {
		writeGatewayError(w, models.AsGatewayError(err))
		return
	}

	writeJSON(w, http.StatusCreated,
		models.DetailEnvelope("Task "+task.JiraKey+" created in Jira", task))
}

func (s *Service) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGatewayError(w, models.ValidationError("invalid JSON body: "+err.Error()))
		return
	}

	g, gerr := s.resolveGateway(req.Workspace)
	if gerr != nil {
		writeGatewayError(w, gerr)
		return
	}

	result, err := g.UpdateTask(req)
	if err != nil {
		writeGatewayError(w, models.AsGatewayError(err))
		return
	}

	writeJSON(w, http.StatusOK,
		models.DetailEnvelope("Task "+result.JiraKey+" updated in Jira", result))
}

func (s *Service) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	jiraKey := r.URL.Query().Get("jiraKey")
	if jiraKey == "" {
		writeGatewayError(w, models.ValidationError("jiraKey query parameter is required"))
		return
	}

	g, gerr := s.resolveGateway(r.URL.Query().Get("workspace"))
	if gerr != nil {
		writeGatewayError(w, gerr)
		return
	}

	result, err := g.DeleteTask(jiraKey)
	if err != nil {
		writeDeleteError(w, models.AsGatewayError(err))
		return
	}

	message := "Task " + jiraKey + " deleted from Jira"
	if result.Closed {
		message = "Task " + jiraKey + " closed in Jira"
	}
	writeJSON(w, http.StatusOK, models.DetailEnvelope(message, result))
}

// writeDeleteError classifies delete failures with user-facing remediation
// strings, in the front-end's language.
func writeDeleteError(w http.ResponseWriter, gerr *models.GatewayError) {
	if gerr.Kind == models.ErrKindValidation || gerr.Kind == models.ErrKindConfiguration {
		writeGatewayError(w, gerr)
		return
	}

	var message, solution string
	switch gerr.UpstreamStatus {
	case http.StatusNotFound:
		message = "Tâche Jira non trouvée"
		solution = "Vérifiez que la clé de la tâche (jiraKey) est correcte"
	case http.StatusForbidden:
		message = "Permissions insuffisantes pour supprimer la tâche"
		solution = "Vérifiez que le compte Jira dispose du droit de suppression sur ce projet"
	default:
		message = "Échec de la suppression de la tâche Jira"
		solution = "Réessayez plus tard ou contactez un administrateur"
	}
	writeJSON(w, http.StatusInternalServerError,
		models.ErrorEnvelope(message, gerr.Error(), solution))
}
