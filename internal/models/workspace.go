package models

import "time"

// WorkspaceCredentials is the connection info handed to the Jira client.
type WorkspaceCredentials struct {
	Site  string
	Email string
	Token string
}

// JiraWorkspace is a stored Jira Cloud connection. A deployment usually has
// one (the env-configured default) but agencies running several Jira sites
// register extras and select them with the ?workspace= query parameter.
type JiraWorkspace struct {
	WorkspaceID   string    `json:"workspaceId"`
	WorkspaceName string    `json:"workspaceName"`
	JiraURL       string    `json:"jiraUrl"`
	Email         string    `json:"email"`
	APIToken      string    `json:"apiToken,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
