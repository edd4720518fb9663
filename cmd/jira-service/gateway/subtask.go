package gateway

import (
	"strings"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// subtaskNamingProject is the one project whose issues were historically
// named "Sub-task: ..." instead of being real Jira subtasks. The naming
// heuristic only applies there.
const subtaskNamingProject = "CAP"

// IsSubtask classifies an issue as a subtask when any of three independent
// signals holds: the issue type is a subtask type, a parent issue is
// present, or (project CAP only) the summary follows the legacy naming
// convention. The naming heuristic can produce false positives; callers
// must tolerate them.
func IsSubtask(issue models.JiraIssue) bool {
	if issue.Fields.IssueType != nil {
		name := strings.ToLower(issue.Fields.IssueType.Name)
		if name == "subtask" || name == "sub-task" || issue.Fields.IssueType.Subtask {
			return true
		}
	}

	if issue.Fields.Parent != nil && issue.Fields.Parent.Key != "" {
		return true
	}

	if projectKeyOf(issue) == subtaskNamingProject && matchesSubtaskNaming(issue.Fields.Summary) {
		return true
	}

	return false
}

// ParentKey returns the parent issue key, or empty when the issue has none.
func ParentKey(issue models.JiraIssue) string {
	if issue.Fields.Parent == nil {
		return ""
	}
	return issue.Fields.Parent.Key
}

func projectKeyOf(issue models.JiraIssue) string {
	if issue.Fields.Project != nil {
		return issue.Fields.Project.Key
	}
	// Derive from the issue key (PROJ-123 -> PROJ) when the project field
	// was not requested.
	if idx := strings.Index(issue.Key, "-"); idx > 0 {
		return issue.Key[:idx]
	}
	return ""
}

func matchesSubtaskNaming(summary string) bool {
	lower := strings.ToLower(strings.TrimSpace(summary))
	return strings.HasPrefix(lower, "sub-task") ||
		strings.HasPrefix(lower, "subtask") ||
		strings.HasPrefix(lower, "[sub]")
}
