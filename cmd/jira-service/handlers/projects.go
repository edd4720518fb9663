package handlers

import (
	"net/http"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// handleProjects serves GET /api/v1/jira/projects, the project picker
// behind the workspace dashboard.
func (s *Service) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed,
			models.ErrorEnvelope("method not allowed", r.Method+" is not supported on this resource", ""))
		return
	}

	g, gerr := s.resolveGateway(r.URL.Query().Get("workspace"))
	if gerr != nil {
		writeGatewayError(w, gerr)
		return
	}

	projects, err := g.ListProjects()
	if err != nil {
		writeGatewayError(w, models.AsGatewayError(err))
		return
	}

	writeJSON(w, http.StatusOK, models.DetailEnvelope("projects retrieved from Jira", projects))
}
