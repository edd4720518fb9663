package handlers

import (
	"net/http"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// handleSubtasks serves GET /api/v1/jira/subtasks?parentIssueKey=KEY. The
// task read path calls this same endpoint over loopback to count children.
func (s *Service) handleSubtasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed,
			models.ErrorEnvelope("method not allowed", r.Method+" is not supported on this resource", ""))
		return
	}

	parentKey := r.URL.Query().Get("parentIssueKey")
	if parentKey == "" {
		writeGatewayError(w, models.ValidationError("parentIssueKey query parameter is required"))
		return
	}

	g, gerr := s.resolveGateway(r.URL.Query().Get("workspace"))
	if gerr != nil {
		writeGatewayError(w, gerr)
		return
	}

	subtasks, err := g.ListSubtasks(parentKey)
	if err != nil {
		writeGatewayError(w, models.AsGatewayError(err))
		return
	}

	writeJSON(w, http.StatusOK, models.SubtaskListEnvelope(subtasks, r.URL.RequestURI()))
}
