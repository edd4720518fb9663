package gateway

import (
	"fmt"
	"strings"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// BuildJQL assembles the search query from the optional task filters,
// omitting clauses for absent values. Results are always newest first.
func BuildJQL(filters models.TaskFilters) string {
	var clauses []string
	if filters.ProjectKey != "" {
		clauses = append(clauses, fmt.Sprintf(`project = "%s"`, escapeJQL(filters.ProjectKey)))
	}
	if filters.Status != "" {
		clauses = append(clauses, fmt.Sprintf(`status = "%s"`, escapeJQL(filters.Status)))
	}
	if filters.Assignee != "" {
		clauses = append(clauses, fmt.Sprintf(`assignee = "%s"`, escapeJQL(filters.Assignee)))
	}

	jql := strings.Join(clauses, " AND ")
	if jql != "" {
		jql += " "
	}
	return jql + "ORDER BY created DESC"
}

// escapeJQL neutralizes quotes inside a quoted JQL operand.
func escapeJQL(value string) string {
	return strings.ReplaceAll(value, `"`, `\"`)
}
