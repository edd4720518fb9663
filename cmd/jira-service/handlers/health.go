package handlers

import (
	"net/http"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// handleHealth reports process liveness plus the state of the default Jira
// credentials and the workspace store. Credential problems degrade the
// report, they do not fail the probe.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed,
			models.ErrorEnvelope("method not allowed", r.Method+" is not supported on this resource", ""))
		return
	}

	report := map[string]any{
		"status": "ok",
	}

	if s.defaults.Configured() {
		if err := s.validator.ValidateToken(s.defaults.Site(), s.defaults.Email, s.defaults.Token); err != nil {
			report["jira"] = "unreachable: " + err.Error()
		} else {
			report["jira"] = "ok"
		}
	} else {
		report["jira"] = "not configured"
	}

	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			report["workspaceStore"] = "unreachable: " + err.Error()
		} else {
			report["workspaceStore"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, report)
}
