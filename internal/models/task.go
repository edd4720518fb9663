package models

// Internal task status taxonomy. Jira statuses that match none of the
// mapping rules are passed through unchanged, so Task.Status is not
// restricted to these five values.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusInReview   = "In Review"
	StatusBlocked    = "Blocked"
	StatusDone       = "Done"
)

// Task is the workspace-side view of a Jira issue. It is rebuilt from the
// Jira API on every request and never persisted. JiraKey/JiraID are the
// durable identifiers; ID is synthesized at serialization time and is not
// stable across requests.
type Task struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority,omitempty"`
	AssignedTo    string   `json:"assignedTo,omitempty"`
	Status        string   `json:"status"`
	ProjectID     string   `json:"projectId,omitempty"`
	ProjectName   string   `json:"projectName,omitempty"`
	JiraKey       string   `json:"jiraKey"`
	JiraID        string   `json:"jiraId"`
	IssueType     string   `json:"issueType"`
	IsSubtask     bool     `json:"isSubtask"`
	ParentKey     string   `json:"parentKey,omitempty"`
	HasSubtasks   bool     `json:"hasSubtasks"`
	SubtasksCount int      `json:"subtasksCount"`
	StoryPoints   *float64 `json:"storyPoints,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	Components    []string `json:"components,omitempty"`
	EpicLink      string   `json:"epicLink,omitempty"`
	Sprint        string   `json:"sprint,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
}

// Subtask is the shape served by the /api/v1/jira/subtasks endpoint and
// consumed back by the task read path when counting children.
type Subtask struct {
	JiraKey    string `json:"jiraKey"`
	JiraID     string `json:"jiraId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssignedTo string `json:"assignedTo,omitempty"`
	ParentKey  string `json:"parentKey"`
}

// TaskFilters narrows the JQL search on the read path. Zero-valued fields
// are omitted from the generated query.
type TaskFilters struct {
	ProjectKey string
	Status     string
	Assignee   string
	MaxResults int
	Workspace  string
}

// CreateTaskRequest is the POST /api/v1/jira/tasks body.
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProjectKey  string   `json:"projectKey"`
	IssueType   string   `json:"issueType"`
	Priority    string   `json:"priority"`
	Assignee    string   `json:"assignee"`
	Labels      []string `json:"labels"`
	StoryPoints *float64 `json:"storyPoints"`
	Workspace   string   `json:"workspace"`
}

// UpdateTaskRequest is the PATCH /api/v1/jira/tasks body. JiraKeyLegacy
// exists because older workspace clients send "jirakey" in lower case.
type UpdateTaskRequest struct {
	JiraKey       string   `json:"jiraKey"`
	JiraKeyLegacy string   `json:"jirakey"`
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status"`
	Priority      *string  `json:"priority"`
	Assignee      *string  `json:"assignee"`
	IssueType     *string  `json:"issueType"`
	StoryPoints   *float64 `json:"storyPoints"`
	Labels        []string `json:"labels"`
	Components    []string `json:"components"`
	EpicLink      *string  `json:"epicLink"`
	Sprint        *string  `json:"sprint"`
	Workspace     string   `json:"workspace"`
}

// Key returns the effective Jira key, honoring the legacy alias.
func (r UpdateTaskRequest) Key() string {
	if r.JiraKey != "" {
		return r.JiraKey
	}
	return r.JiraKeyLegacy
}

// UpdateTaskResult reports which fields were accepted by Jira.
type UpdateTaskResult struct {
	JiraKey string   `json:"jiraKey"`
	Updated bool     `json:"updated"`
	Fields  []string `json:"fields"`
}

// DeleteTaskResult reports the outcome of a delete. Closed is true when the
// issue was transitioned to a closed workflow state instead of being removed
// from Jira.
type DeleteTaskResult struct {
	JiraKey string `json:"jiraKey"`
	Deleted bool   `json:"deleted"`
	Closed  bool   `json:"closed,omitempty"`
}
