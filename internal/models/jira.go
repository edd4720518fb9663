package models

// Typed request/response payloads for the Jira Cloud REST v3 and Agile 1.0
// endpoints this service calls. Jira's own JSON is much larger; only the
// fields the gateway reads are declared.

// SearchRequest is the body of POST /rest/api/3/search.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

// SearchResponse is the result of a JQL search.
type SearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []JiraIssue `json:"issues"`
}

// JiraIssue is a single issue as returned by search or get.
type JiraIssue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self,omitempty"`
	Fields IssueFields `json:"fields"`
}

// IssueFields carries the subset of issue fields the gateway consumes.
// StoryPoints maps to the default company-managed estimation field.
type IssueFields struct {
	Summary     string       `json:"summary"`
	Description *ADFDocument `json:"description,omitempty"`
	Status      *IssueStatus `json:"status,omitempty"`
	Priority    *Priority    `json:"priority,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	IssueType   *IssueType   `json:"issuetype,omitempty"`
	Project     *ProjectRef  `json:"project,omitempty"`
	Parent      *ParentRef   `json:"parent,omitempty"`
	Subtasks    []JiraIssue  `json:"subtasks,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Components  []Component  `json:"components,omitempty"`
	Sprint      *Sprint      `json:"sprint,omitempty"`
	StoryPoints *float64     `json:"customfield_10016,omitempty"`
	EpicLink    string       `json:"customfield_10014,omitempty"`
	Created     string       `json:"created,omitempty"`
	Updated     string       `json:"updated,omitempty"`
}

// IssueStatus is a Jira workflow status with its coarse category.
type IssueStatus struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

// StatusCategory is the coarse taxonomy Jira attaches to every status:
// "new", "indeterminate" or "done".
type StatusCategory struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Priority is a Jira priority reference, IDs "1" (Highest) to "5" (Lowest).
type Priority struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// User is a Jira user reference.
type User struct {
	AccountID    string `json:"accountId,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// IssueType references an issue type by name.
type IssueType struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask,omitempty"`
}

// ProjectRef references a Jira project.
type ProjectRef struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Project is the detailed project resource, used for issue-type discovery.
type Project struct {
	ID         string      `json:"id"`
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	IssueTypes []IssueType `json:"issueTypes"`
}

// ParentRef links a subtask to its parent issue.
type ParentRef struct {
	ID  string `json:"id,omitempty"`
	Key string `json:"key"`
}

// Component is a Jira project component reference.
type Component struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CreateIssueRequest is the body of POST /rest/api/3/issue.
type CreateIssueRequest struct {
	Fields CreateIssueFields `json:"fields"`
}

// CreateIssueFields is the typed field set for issue creation. Optional
// fields are pointers so absent values stay out of the payload.
type CreateIssueFields struct {
	Project     ProjectRef   `json:"project"`
	IssueType   IssueType    `json:"issuetype"`
	Summary     string       `json:"summary"`
	Description *ADFDocument `json:"description,omitempty"`
	Priority    *Priority    `json:"priority,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	StoryPoints *float64     `json:"customfield_10016,omitempty"`
}

// CreatedIssue is Jira's response to issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// UpdateIssueRequest is the body of PUT /rest/api/3/issue/{key}.
type UpdateIssueRequest struct {
	Fields UpdateIssueFields `json:"fields"`
}

// UpdateIssueFields is the typed field set for issue updates. Status is
// deliberately absent: Jira statuses change through workflow transitions,
// never through a field PUT.
type UpdateIssueFields struct {
	Summary     string       `json:"summary,omitempty"`
	Description *ADFDocument `json:"description,omitempty"`
	Priority    *Priority    `json:"priority,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	IssueType   *IssueType   `json:"issuetype,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Components  []Component  `json:"components,omitempty"`
	StoryPoints *float64     `json:"customfield_10016,omitempty"`
	EpicLink    string       `json:"customfield_10014,omitempty"`
	Sprint      *int         `json:"customfield_10020,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (f UpdateIssueFields) IsEmpty() bool {
	return f.Summary == "" && f.Description == nil && f.Priority == nil &&
		f.Assignee == nil && f.IssueType == nil && f.Labels == nil &&
		f.Components == nil && f.StoryPoints == nil && f.EpicLink == "" &&
		f.Sprint == nil
}

// FieldNames lists the populated field names, for the update result echo.
func (f UpdateIssueFields) FieldNames() []string {
	var names []string
	if f.Summary != "" {
		names = append(names, "summary")
	}
	if f.Description != nil {
		names = append(names, "description")
	}
	if f.Priority != nil {
		names = append(names, "priority")
	}
	if f.Assignee != nil {
		names = append(names, "assignee")
	}
	if f.IssueType != nil {
		names = append(names, "issuetype")
	}
	if f.Labels != nil {
		names = append(names, "labels")
	}
	if f.Components != nil {
		names = append(names, "components")
	}
	if f.StoryPoints != nil {
		names = append(names, "storyPoints")
	}
	if f.EpicLink != "" {
		names = append(names, "epicLink")
	}
	if f.Sprint != nil {
		names = append(names, "sprint")
	}
	return names
}

// Transition is a workflow transition available on an issue.
type Transition struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	To   IssueStatus `json:"to"`
}

// TransitionsResponse wraps GET /rest/api/3/issue/{key}/transitions.
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// TransitionRequest is the body of POST /rest/api/3/issue/{key}/transitions.
type TransitionRequest struct {
	Transition TransitionRef `json:"transition"`
}

// TransitionRef selects a transition by ID.
type TransitionRef struct {
	ID string `json:"id"`
}

// Board is a Jira Agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// BoardsResponse wraps GET /rest/agile/1.0/board.
type BoardsResponse struct {
	Values []Board `json:"values"`
}

// Sprint is a Jira Agile sprint.
type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// SprintsResponse wraps GET /rest/agile/1.0/board/{id}/sprint.
type SprintsResponse struct {
	Values []Sprint `json:"values"`
}

// CreateSprintRequest is the body of POST /rest/agile/1.0/sprint.
type CreateSprintRequest struct {
	Name          string `json:"name"`
	OriginBoardID int    `json:"originBoardId"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
}

// MoveToSprintRequest is the body of POST /rest/agile/1.0/sprint/{id}/issue.
type MoveToSprintRequest struct {
	Issues []string `json:"issues"`
}
