package gateway

import (
	"strings"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// Keyword sets for the status mapper, matched case-insensitively as
// substrings of the raw Jira status name. Order across the rule blocks in
// MapJiraStatus is the contract; do not reorder.
var (
	doneKeywords     = []string{"done", "closed", "resolved"}
	progressKeywords = []string{"progress", "in development", "doing", "work", "active"}
	reviewKeywords   = []string{"review", "testing", "test", "qa", "validation", "approval", "pending"}
	blockedKeywords  = []string{"blocked", "waiting", "on hold", "stopped"}
	todoKeywords     = []string{"todo", "open", "backlog", "to do", "new", "selected for development", "ready"}
)

// MapJiraStatus maps a Jira status (name plus coarse category) to the
// internal taxonomy. Name keywords are checked before the "indeterminate"
// category so that a status like "Code Review" lands in In Review even
// though its category suggests In Progress. An unmatched status is returned
// unchanged rather than forced to a default; earlier versions collapsed
// everything unknown into To Do and hid real workflow states.
func MapJiraStatus(name, category string) string {
	lowerName := strings.ToLower(name)
	lowerCategory := strings.ToLower(category)

	if lowerCategory == "done" || containsAny(lowerName, doneKeywords) {
		return models.StatusDone
	}
	if containsAny(lowerName, progressKeywords) {
		return models.StatusInProgress
	}
	if containsAny(lowerName, reviewKeywords) {
		return models.StatusInReview
	}
	if containsAny(lowerName, blockedKeywords) {
		return models.StatusBlocked
	}
	if lowerCategory == "new" || containsAny(lowerName, todoKeywords) {
		return models.StatusToDo
	}
	if lowerCategory == "indeterminate" {
		return models.StatusInProgress
	}

	return name
}

// MapStatusToJira returns the Jira status name to search transitions for.
// The five internal statuses map to themselves and unknown input passes
// through, so custom workflow states keep working. The result only drives
// transition selection, it is never written to the status field directly.
func MapStatusToJira(internalStatus string) string {
	return internalStatus
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
