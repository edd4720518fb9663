package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/espaceo/workspace-jira-service/cmd/jira-service/api"
	"github.com/espaceo/workspace-jira-service/internal/cache"
	"github.com/espaceo/workspace-jira-service/internal/events"
	"github.com/espaceo/workspace-jira-service/internal/models"
)

// Options tunes the gateway's enrichment and sprint-placement behavior.
type Options struct {
	// SubtasksBaseURL is the loopback base of this service, used for the
	// subtask-count enrichment calls.
	SubtasksBaseURL string
	// MaxConcurrent caps the enrichment fan-out. Zero means the default.
	MaxConcurrent int
	// PreferredBoardID is picked over the project's first board when it
	// appears among the board lookup results.
	PreferredBoardID int
	// SprintLengthDays is the span of a sprint created on the fly when a
	// project has no active one.
	SprintLengthDays int
}

const (
	defaultMaxConcurrent    = 8
	defaultSprintLengthDays = 14
	defaultMaxResults       = 50
	metadataCacheTTL        = 5 * time.Minute
)

// Fallback issue types when the project's allowed set cannot be fetched,
// and the substitution preference when the requested type is not allowed.
var preferredIssueTypes = []string{"Task", "Bug", "Story"}

// Gateway translates between the workspace task model and the Jira Cloud
// REST/Agile APIs. It holds no per-request state; one instance per Jira
// workspace is constructed at request time around a shared cache and event
// publisher.
type Gateway struct {
	client     *api.Client
	meta       cache.Cache
	publisher  *events.Publisher
	opts       Options
	httpClient *http.Client
}

// New builds a gateway around an authenticated Jira client. Cache and
// publisher may be nil; the corresponding behavior is then skipped.
func New(client *api.Client, meta cache.Cache, publisher *events.Publisher, opts Options) *Gateway {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.SprintLengthDays <= 0 {
		opts.SprintLengthDays = defaultSprintLengthDays
	}
	return &Gateway{
		client:     client,
		meta:       meta,
		publisher:  publisher,
		opts:       opts,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListTasks searches Jira with the given filters and enriches each non-
// subtask issue with its subtask count. Enrichment runs concurrently under
// a semaphore; an enrichment failure downgrades to a zero count and never
// fails the fetch.
func (g *Gateway) ListTasks(filters models.TaskFilters) ([]models.Task, error) {
	maxResults := filters.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	search, err := g.client.SearchIssues(models.SearchRequest{
		JQL:        BuildJQL(filters),
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, models.AsGatewayError(err)
	}

	tasks := make([]models.Task, len(search.Issues))
	sem := make(chan struct{}, g.opts.MaxConcurrent)
	var wg sync.WaitGroup
	for i, issue := range search.Issues {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, issue models.JiraIssue) {
			defer wg.Done()
			defer func() { <-sem }()
			tasks[index] = g.buildTask(index, issue, filters.Workspace)
		}(i, issue)
	}
	wg.Wait()

	return tasks, nil
}

// buildTask converts one Jira issue into a Task. The numeric id is derived
// from the array position and is not stable across requests.
func (g *Gateway) buildTask(index int, issue models.JiraIssue, workspace string) models.Task {
	task := taskFromIssue(issue)
	task.ID = index + 100
	if !task.IsSubtask {
		count, err := g.countSubtasks(issue.Key, workspace)
		if err != nil {
			log.Printf("warning: subtask count lookup for %s failed: %v", issue.Key, err)
			count = 0
		}
		task.SubtasksCount = count
		task.HasSubtasks = count > 0
	}
	return task
}

// countSubtasks asks this service's own subtasks endpoint, over loopback
// HTTP, how many children an issue has. The workspace rides along so the
// loopback request resolves the same credentials as the outer one.
func (g *Gateway) countSubtasks(parentKey, workspace string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/v1/jira/subtasks?parentIssueKey=%s",
		strings.TrimSuffix(g.opts.SubtasksBaseURL, "/"), url.QueryEscape(parentKey))
	if workspace != "" {
		endpoint += "&workspace=" + url.QueryEscape(workspace)
	}

	resp, err := g.httpClient.Get(endpoint)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("subtasks endpoint answered %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Embedded struct {
				Subtasks []models.Subtask `json:"subtasks"`
			} `json:"_embedded"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return len(payload.Data.Embedded.Subtasks), nil
}

// ListSubtasks returns the children of an issue for the subtasks endpoint.
func (g *Gateway) ListSubtasks(parentKey string) ([]models.Subtask, error) {
	if parentKey == "" {
		return nil, models.ValidationError("parentIssueKey is required")
	}

	search, err := g.client.SearchIssues(models.SearchRequest{
		JQL:        fmt.Sprintf(`parent = "%s" ORDER BY created ASC`, escapeJQL(parentKey)),
		MaxResults: defaultMaxResults,
	})
	if err != nil {
		return nil, models.AsGatewayError(err)
	}

	subtasks := make([]models.Subtask, 0, len(search.Issues))
	for _, issue := range search.Issues {
		sub := models.Subtask{
			JiraKey:   issue.Key,
			JiraID:    issue.ID,
			Title:     issue.Fields.Summary,
			ParentKey: parentKey,
		}
		if issue.Fields.Status != nil {
			sub.Status = MapJiraStatus(issue.Fields.Status.Name, statusCategoryKey(issue.Fields.Status))
		}
		if issue.Fields.Assignee != nil {
			sub.AssignedTo = issue.Fields.Assignee.DisplayName
		}
		subtasks = append(subtasks, sub)
	}
	return subtasks, nil
}

// ListProjects returns the projects visible to the workspace credentials.
func (g *Gateway) ListProjects() ([]models.ProjectRef, error) {
	projects, err := g.client.ListProjects()
	if err != nil {
		return nil, models.AsGatewayError(err)
	}
	return projects, nil
}

// CreateTask creates a Jira issue from the request. Issue-type validation,
// priority mapping and sprint placement are each independently fault
// tolerant; only the issue creation call itself can fail the operation.
func (g *Gateway) CreateTask(req models.CreateTaskRequest) (models.Task, error) {
	if req.Title == "" || req.ProjectKey == "" {
		return models.Task{}, models.ValidationError("title and projectKey are required")
	}

	issueType := g.resolveIssueType(req.ProjectKey, req.IssueType)

	fields := models.CreateIssueFields{
		Project:     models.ProjectRef{Key: req.ProjectKey},
		IssueType:   models.IssueType{Name: issueType},
		Summary:     req.Title,
		Priority:    &models.Priority{ID: MapPriority(req.Priority)},
		Labels:      req.Labels,
		StoryPoints: req.StoryPoints,
	}
	if req.Description != "" {
		fields.Description = models.NewADFDocument(req.Description)
	}
	if req.Assignee != "" {
		fields.Assignee = &models.User{AccountID: req.Assignee}
	}

	created, err := g.client.CreateIssue(models.CreateIssueRequest{Fields: fields})
	if err != nil {
		return models.Task{}, models.AsGatewayError(err)
	}

	g.placeInSprint(req.ProjectKey, created.Key)
	g.publish(events.TaskCreated, created.Key, req.ProjectKey)

	// Echo the caller's values merged with the new Jira identifiers; the
	// response is eventually consistent with Jira, not a read-after-write.
	task := models.Task{
		ID:          100,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.Assignee,
		Status:      models.StatusToDo,
		ProjectID:   req.ProjectKey,
		JiraKey:     created.Key,
		JiraID:      created.ID,
		IssueType:   issueType,
		Labels:      req.Labels,
		StoryPoints: req.StoryPoints,
	}
	return task, nil
}

// resolveIssueType validates the requested type against the project's
// allowed set. Lookup failure degrades to a static fallback set; an invalid
// requested type is substituted, never rejected.
func (g *Gateway) resolveIssueType(projectKey, requested string) string {
	allowed := g.allowedIssueTypes(projectKey)
	if requested == "" {
		requested = "Task"
	}
	for _, name := range allowed {
		if strings.EqualFold(name, requested) {
			return name
		}
	}
	for _, preference := range preferredIssueTypes {
		for _, name := range allowed {
			if strings.EqualFold(name, preference) {
				log.Printf("warning: issue type %q not allowed in %s, substituting %q", requested, projectKey, name)
				return name
			}
		}
	}
	if len(allowed) > 0 {
		log.Printf("warning: issue type %q not allowed in %s, substituting %q", requested, projectKey, allowed[0])
		return allowed[0]
	}
	return requested
}

// allowedIssueTypes returns the project's non-subtask issue type names,
// from the metadata cache when possible. This is auxiliary metadata; the
// issue read path is never cached.
func (g *Gateway) allowedIssueTypes(projectKey string) []string {
	cacheKey := "issuetypes:" + g.client.Site() + ":" + projectKey
	if g.meta != nil {
		if raw, ok := g.meta.Get(cacheKey); ok {
			var names []string
			if json.Unmarshal([]byte(raw), &names) == nil {
				return names
			}
		}
	}

	project, err := g.client.GetProject(projectKey)
	if err != nil {
		log.Printf("warning: issue type lookup for %s failed, using fallback set: %v", projectKey, err)
		return preferredIssueTypes
	}

	var names []string
	for _, issueType := range project.IssueTypes {
		if !issueType.Subtask {
			names = append(names, issueType.Name)
		}
	}
	if len(names) == 0 {
		return preferredIssueTypes
	}

	if g.meta != nil {
		if raw, err := json.Marshal(names); err == nil {
			g.meta.Set(cacheKey, string(raw), metadataCacheTTL)
		}
	}
	return names
}

// placeInSprint moves a freshly created issue into the project's active
// sprint, creating one when none is running. Every step is best effort;
// the issue stays created even when placement fails entirely.
func (g *Gateway) placeInSprint(projectKey, issueKey string) {
	board, ok := g.findBoard(projectKey)
	if !ok {
		return
	}

	sprints, err := g.client.GetSprints(board.ID, "active")
	if err != nil {
		log.Printf("warning: sprint lookup for board %d failed: %v", board.ID, err)
		return
	}

	var sprintID int
	if len(sprints) > 0 {
		sprintID = sprints[0].ID
	} else {
		start := time.Now().UTC()
		end := start.AddDate(0, 0, g.opts.SprintLengthDays)
		sprint, err := g.client.CreateSprint(models.CreateSprintRequest{
			Name:          fmt.Sprintf("Sprint %s", start.Format("2006-01-02")),
			OriginBoardID: board.ID,
			StartDate:     start.Format(time.RFC3339),
			EndDate:       end.Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("warning: sprint creation on board %d failed: %v", board.ID, err)
			return
		}
		sprintID = sprint.ID
	}

	if err := g.client.MoveIssuesToSprint(sprintID, []string{issueKey}); err != nil {
		log.Printf("warning: could not add %s to sprint %d: %v", issueKey, sprintID, err)
	}
}

// findBoard picks the project's board, preferring the configured board id
// when it appears among the results, else the first board.
func (g *Gateway) findBoard(projectKey string) (models.Board, bool) {
	boards, err := g.client.GetBoards(projectKey)
	if err != nil {
		log.Printf("warning: board lookup for %s failed: %v", projectKey, err)
		return models.Board{}, false
	}
	if len(boards) == 0 {
		return models.Board{}, false
	}
	if g.opts.PreferredBoardID != 0 {
		for _, board := range boards {
			if board.ID == g.opts.PreferredBoardID {
				return board, true
			}
		}
	}
	return boards[0], true
}

// UpdateTask applies a two-tier field update plus an optional workflow
// transition. Jira projects differ in which fields their screens accept;
// the reduced retry discovers that by failure rather than guessing.
func (g *Gateway) UpdateTask(req models.UpdateTaskRequest) (models.UpdateTaskResult, error) {
	key := req.Key()
	if key == "" {
		return models.UpdateTaskResult{}, models.ValidationError("jiraKey is required")
	}

	// An empty status string means "no status change", same as absence.
	status := ""
	if req.Status != nil {
		status = *req.Status
	}

	fields := updateFieldsFromRequest(req)
	if fields.IsEmpty() && status == "" {
		return models.UpdateTaskResult{}, models.ValidationError("no fields to update")
	}

	applied := fields
	if !fields.IsEmpty() {
		if err := g.client.UpdateIssue(key, fields); err != nil {
			log.Printf("warning: full field update of %s rejected, retrying reduced set: %v", key, err)
			applied = reducedFields(req)
			if applied.IsEmpty() {
				return models.UpdateTaskResult{}, models.AsGatewayError(err)
			}
			if err := g.client.UpdateIssue(key, applied); err != nil {
				return models.UpdateTaskResult{}, models.AsGatewayError(err)
			}
			// Editable-field restrictions often target assignee; try it
			// alone and swallow the failure.
			if req.Assignee != nil {
				assigneeOnly := models.UpdateIssueFields{Assignee: &models.User{AccountID: *req.Assignee}}
				if err := g.client.UpdateIssue(key, assigneeOnly); err != nil {
					log.Printf("warning: isolated assignee update of %s failed: %v", key, err)
				}
			}
		}
	}

	if status != "" {
		g.transitionToStatus(key, status)
	}

	g.publish(events.TaskUpdated, key, "")

	return models.UpdateTaskResult{
		JiraKey: key,
		Updated: true,
		Fields:  applied.FieldNames(),
	}, nil
}

// transitionToStatus finds and executes the workflow transition matching
// the requested status. No matching transition is non-fatal: the update
// stands, the status simply does not change.
func (g *Gateway) transitionToStatus(issueKey, status string) {
	target := MapStatusToJira(status)

	transitions, err := g.client.GetTransitions(issueKey)
	if err != nil {
		log.Printf("warning: transition lookup for %s failed: %v", issueKey, err)
		return
	}

	transition, ok := findStatusTransition(transitions, target)
	if !ok {
		log.Printf("warning: no transition to %q available on %s, status unchanged", target, issueKey)
		return
	}

	if err := g.client.TransitionIssue(issueKey, transition.ID); err != nil {
		log.Printf("warning: transition %q on %s failed: %v", transition.Name, issueKey, err)
	}
}

// findStatusTransition prefers an exact target-status name match, then a
// substring match on the transition name, then on the target status name.
func findStatusTransition(transitions []models.Transition, target string) (models.Transition, bool) {
	if target == "" {
		// An empty target would substring-match every transition.
		return models.Transition{}, false
	}
	lowerTarget := strings.ToLower(target)
	for _, t := range transitions {
		if strings.EqualFold(t.To.Name, target) {
			return t, true
		}
	}
	for _, t := range transitions {
		if strings.Contains(strings.ToLower(t.Name), lowerTarget) {
			return t, true
		}
	}
	for _, t := range transitions {
		if strings.Contains(strings.ToLower(t.To.Name), lowerTarget) {
			return t, true
		}
	}
	return models.Transition{}, false
}

// Transition names that close an issue, for the delete path. The first
// transition in workflow order matching any of these wins.
var closingKeywords = []string{"close", "resolve", "done", "complete", "finish"}

// DeleteTask closes an issue through its workflow when possible, and only
// deletes it from Jira when no closing transition exists.
func (g *Gateway) DeleteTask(jiraKey string) (models.DeleteTaskResult, error) {
	if jiraKey == "" {
		return models.DeleteTaskResult{}, models.ValidationError("jiraKey is required")
	}

	transitions, err := g.client.GetTransitions(jiraKey)
	if err != nil {
		return models.DeleteTaskResult{}, models.AsGatewayError(err)
	}

	for _, transition := range transitions {
		if containsAny(strings.ToLower(transition.Name), closingKeywords) {
			if err := g.client.TransitionIssue(jiraKey, transition.ID); err != nil {
				return models.DeleteTaskResult{}, models.AsGatewayError(err)
			}
			g.publish(events.TaskDeleted, jiraKey, "")
			return models.DeleteTaskResult{JiraKey: jiraKey, Deleted: true, Closed: true}, nil
		}
	}

	// No closing transition in this workflow: fall back to real deletion.
	if err := g.client.DeleteIssue(jiraKey); err != nil {
		return models.DeleteTaskResult{}, models.AsGatewayError(err)
	}
	g.publish(events.TaskDeleted, jiraKey, "")
	return models.DeleteTaskResult{JiraKey: jiraKey, Deleted: true}, nil
}

// publish emits a task lifecycle event when a publisher is configured.
// Publication is best effort, same policy as the other enrichments.
func (g *Gateway) publish(kind string, jiraKey, projectKey string) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(events.TaskEvent{
		Kind:       kind,
		JiraKey:    jiraKey,
		ProjectKey: projectKey,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("warning: event publication for %s failed: %v", jiraKey, err)
	}
}

// taskFromIssue maps the Jira wire representation to the workspace Task.
func taskFromIssue(issue models.JiraIssue) models.Task {
	fields := issue.Fields
	task := models.Task{
		Title:       fields.Summary,
		Description: fields.Description.PlainText(),
		JiraKey:     issue.Key,
		JiraID:      issue.ID,
		IsSubtask:   IsSubtask(issue),
		ParentKey:   ParentKey(issue),
		Labels:      fields.Labels,
		StoryPoints: fields.StoryPoints,
		EpicLink:    fields.EpicLink,
		CreatedAt:   fields.Created,
		UpdatedAt:   fields.Updated,
	}
	if fields.Status != nil {
		task.Status = MapJiraStatus(fields.Status.Name, statusCategoryKey(fields.Status))
	}
	if fields.Priority != nil {
		task.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil {
		task.AssignedTo = fields.Assignee.DisplayName
	}
	if fields.IssueType != nil {
		task.IssueType = fields.IssueType.Name
	}
	if fields.Project != nil {
		task.ProjectID = fields.Project.Key
		task.ProjectName = fields.Project.Name
	}
	if fields.Sprint != nil {
		task.Sprint = fields.Sprint.Name
	}
	for _, component := range fields.Components {
		task.Components = append(task.Components, component.Name)
	}
	return task
}

func statusCategoryKey(status *models.IssueStatus) string {
	if status == nil || status.StatusCategory == nil {
		return ""
	}
	return status.StatusCategory.Key
}

// updateFieldsFromRequest builds the full tier-one field set. Status is
// excluded on purpose; it can only move through a transition.
func updateFieldsFromRequest(req models.UpdateTaskRequest) models.UpdateIssueFields {
	fields := models.UpdateIssueFields{}
	if req.Title != nil {
		fields.Summary = *req.Title
	}
	if req.Description != nil {
		fields.Description = models.NewADFDocument(*req.Description)
	}
	if req.Priority != nil {
		fields.Priority = &models.Priority{ID: MapPriority(*req.Priority)}
	}
	if req.Assignee != nil {
		fields.Assignee = &models.User{AccountID: *req.Assignee}
	}
	if req.IssueType != nil {
		fields.IssueType = &models.IssueType{Name: *req.IssueType}
	}
	if req.StoryPoints != nil {
		fields.StoryPoints = req.StoryPoints
	}
	if req.Labels != nil {
		fields.Labels = req.Labels
	}
	if req.Components != nil {
		for _, name := range req.Components {
			fields.Components = append(fields.Components, models.Component{Name: name})
		}
	}
	if req.EpicLink != nil {
		fields.EpicLink = *req.EpicLink
	}
	if req.Sprint != nil {
		if id, err := strconv.Atoi(*req.Sprint); err == nil {
			fields.Sprint = &id
		} else {
			log.Printf("warning: sprint %q is not a sprint id, ignoring", *req.Sprint)
		}
	}
	return fields
}

// reducedFields is the tier-two retry set: the fields most Jira screens
// accept regardless of project configuration.
func reducedFields(req models.UpdateTaskRequest) models.UpdateIssueFields {
	fields := models.UpdateIssueFields{}
	if req.Title != nil {
		fields.Summary = *req.Title
	}
	if req.IssueType != nil {
		fields.IssueType = &models.IssueType{Name: *req.IssueType}
	}
	if req.Labels != nil {
		fields.Labels = req.Labels
	}
	if req.Description != nil {
		fields.Description = models.NewADFDocument(*req.Description)
	}
	return fields
}
