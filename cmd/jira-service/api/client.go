package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// WorkspaceCredentials holds connection info for one Jira Cloud instance.
type WorkspaceCredentials struct {
	Site  string // e.g., "https://espaceo.atlassian.net"
	Email string
	Token string // Atlassian API token
}

// Client wraps an HTTP client with Jira Basic auth and typed payloads for
// the REST v3 and Agile 1.0 endpoints the gateway uses.
type Client struct {
	creds      WorkspaceCredentials
	httpClient *http.Client
}

// Shared HTTP client with connection pooling
var sharedHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// NewClient creates an authenticated Jira client. A dedicated client is used
// when a specific timeout is requested, otherwise the shared pooled one.
func NewClient(creds WorkspaceCredentials, timeout time.Duration) *Client {
	client := sharedHTTPClient
	if timeout > 0 && timeout != sharedHTTPClient.Timeout {
		client = &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPClient.Transport,
		}
	}

	return &Client{
		creds: WorkspaceCredentials{
			Site:  strings.TrimSuffix(creds.Site, "/"),
			Email: creds.Email,
			Token: creds.Token,
		},
		httpClient: client,
	}
}

// Site returns the normalized base URL of the Jira instance.
func (c *Client) Site() string {
	return c.creds.Site
}

// authHeader returns the Basic auth header value
func (c *Client) authHeader() string {
	credentials := fmt.Sprintf("%s:%s", c.creds.Email, c.creds.Token)
	encoded := base64.StdEncoding.EncodeToString([]byte(credentials))
	return "Basic " + encoded
}

// do executes one request against Jira. A non-2xx answer becomes a
// GatewayError carrying the upstream status and raw body.
func (c *Client) do(method, path, op string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s payload: %w", op, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.creds.Site+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling Jira for %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return models.UpstreamError(op, resp.StatusCode, string(raw))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}

	return nil
}

// SearchIssues searches for issues using JQL.
func (c *Client) SearchIssues(req models.SearchRequest) (*models.SearchResponse, error) {
	if len(req.Fields) == 0 {
		// Make sure the essentials are always present.
		req.Fields = []string{
			"summary", "description", "status", "priority", "assignee",
			"issuetype", "project", "parent", "subtasks", "labels",
			"components", "customfield_10016", "customfield_10014",
			"created", "updated",
		}
	}

	var result models.SearchResponse
	if err := c.do(http.MethodPost, "/rest/api/3/search", "search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProject returns a project with its allowed issue types.
func (c *Client) GetProject(projectKey string) (*models.Project, error) {
	var project models.Project
	path := "/rest/api/3/project/" + url.PathEscape(projectKey)
	if err := c.do(http.MethodGet, path, "project lookup", nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns the projects visible to the workspace credentials.
func (c *Client) ListProjects() ([]models.ProjectRef, error) {
	var projects []models.ProjectRef
	if err := c.do(http.MethodGet, "/rest/api/3/project", "project list", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateIssue creates a new issue.
func (c *Client) CreateIssue(req models.CreateIssueRequest) (*models.CreatedIssue, error) {
	var created models.CreatedIssue
	if err := c.do(http.MethodPost, "/rest/api/3/issue", "issue creation", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateIssue updates an existing issue's fields. Status is never part of
// the field set; see TransitionIssue.
func (c *Client) UpdateIssue(issueKey string, fields models.UpdateIssueFields) error {
	path := "/rest/api/3/issue/" + url.PathEscape(issueKey)
	payload := models.UpdateIssueRequest{Fields: fields}
	return c.do(http.MethodPut, path, "issue update", payload, nil)
}

// GetTransitions returns the workflow transitions available on an issue.
func (c *Client) GetTransitions(issueKey string) ([]models.Transition, error) {
	var result models.TransitionsResponse
	path := "/rest/api/3/issue/" + url.PathEscape(issueKey) + "/transitions"
	if err := c.do(http.MethodGet, path, "transition lookup", nil, &result); err != nil {
		return nil, err
	}
	return result.Transitions, nil
}

// TransitionIssue executes a workflow transition on an issue.
func (c *Client) TransitionIssue(issueKey, transitionID string) error {
	path := "/rest/api/3/issue/" + url.PathEscape(issueKey) + "/transitions"
	payload := models.TransitionRequest{Transition: models.TransitionRef{ID: transitionID}}
	return c.do(http.MethodPost, path, "transition", payload, nil)
}

// DeleteIssue permanently removes an issue from Jira.
func (c *Client) DeleteIssue(issueKey string) error {
	path := "/rest/api/3/issue/" + url.PathEscape(issueKey)
	return c.do(http.MethodDelete, path, "issue deletion", nil, nil)
}

// GetBoards lists the agile boards attached to a project.
func (c *Client) GetBoards(projectKey string) ([]models.Board, error) {
	var result models.BoardsResponse
	path := "/rest/agile/1.0/board"
	if projectKey != "" {
		path += "?projectKeyOrId=" + url.QueryEscape(projectKey)
	}
	if err := c.do(http.MethodGet, path, "board lookup", nil, &result); err != nil {
		return nil, err
	}
	return result.Values, nil
}

// GetSprints lists sprints for a board, optionally filtered by state
// ("active", "future", "closed").
func (c *Client) GetSprints(boardID int, state string) ([]models.Sprint, error) {
	var result models.SprintsResponse
	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	if state != "" {
		path += "?state=" + url.QueryEscape(state)
	}
	if err := c.do(http.MethodGet, path, "sprint lookup", nil, &result); err != nil {
		return nil, err
	}
	return result.Values, nil
}

// CreateSprint creates a new sprint on a board.
func (c *Client) CreateSprint(req models.CreateSprintRequest) (*models.Sprint, error) {
	var sprint models.Sprint
	if err := c.do(http.MethodPost, "/rest/agile/1.0/sprint", "sprint creation", req, &sprint); err != nil {
		return nil, err
	}
	return &sprint, nil
}

// MoveIssuesToSprint places issues into a sprint.
func (c *Client) MoveIssuesToSprint(sprintID int, issueKeys []string) error {
	path := fmt.Sprintf("/rest/agile/1.0/sprint/%d/issue", sprintID)
	payload := models.MoveToSprintRequest{Issues: issueKeys}
	return c.do(http.MethodPost, path, "sprint assignment", payload, nil)
}

// Myself probes the authenticated user, used for credential validation.
func (c *Client) Myself() (*models.User, error) {
	var user models.User
	if err := c.do(http.MethodGet, "/rest/api/3/myself", "credential check", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
