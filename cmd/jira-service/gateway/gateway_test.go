package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espaceo/workspace-jira-service/cmd/jira-service/api"
	"github.com/espaceo/workspace-jira-service/internal/models"
)

// fakeJira is a scriptable stand-in for the Jira Cloud API. Handlers are
// keyed by "METHOD path"; unscripted routes answer 404. Request bodies are
// recorded for payload assertions.
type fakeJira struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []string
	bodies   map[string][]json.RawMessage
	server   *httptest.Server
}

func newFakeJira(t *testing.T) *fakeJira {
	t.Helper()
	f := &fakeJira{
		handlers: make(map[string]http.HandlerFunc),
		bodies:   make(map[string][]json.RawMessage),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, route)
		if r.Body != nil {
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
				f.bodies[route] = append(f.bodies[route], raw)
			}
		}
		handler := f.handlers[route]
		f.mu.Unlock()
		if handler == nil {
			http.Error(w, `{"errorMessages":["not scripted"]}`, http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeJira) on(method, path string, status int, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if payload != nil {
			json.NewEncoder(w).Encode(payload)
		}
	}
}

func (f *fakeJira) onFunc(method, path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = handler
}

func (f *fakeJira) called(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeJira) lastBody(t *testing.T, method, path string) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := f.bodies[method+" "+path]
	require.NotEmpty(t, bodies, "no recorded body for %s %s", method, path)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(bodies[len(bodies)-1], &decoded))
	return decoded
}

func (f *fakeJira) gateway(opts Options) *Gateway {
	client := api.NewClient(api.WorkspaceCredentials{
		Site:  f.server.URL,
		Email: "svc@espaceo.example",
		Token: "test-token",
	}, 5*time.Second)
	return New(client, nil, nil, opts)
}

func searchIssue(key, typeName string, subtaskType bool, parentKey, statusName, categoryKey string) models.JiraIssue {
	iss := models.JiraIssue{ID: "1000" + key, Key: key}
	iss.Fields.Summary = "Work on " + key
	iss.Fields.IssueType = &models.IssueType{Name: typeName, Subtask: subtaskType}
	iss.Fields.Status = &models.IssueStatus{
		Name:           statusName,
		StatusCategory: &models.StatusCategory{Key: categoryKey},
	}
	if parentKey != "" {
		iss.Fields.Parent = &models.ParentRef{Key: parentKey}
	}
	return iss
}

// subtasksLoopback fakes this service's own subtasks endpoint for the
// enrichment calls. counts maps parent key to subtask count; a missing key
// answers 500.
func subtasksLoopback(t *testing.T, counts map[string]int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parent := r.URL.Query().Get("parentIssueKey")
		count, ok := counts[parent]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		subtasks := make([]models.Subtask, count)
		for i := range subtasks {
			subtasks[i] = models.Subtask{
				JiraKey:   fmt.Sprintf("%s-sub-%d", parent, i+1),
				Title:     "child",
				ParentKey: parent,
			}
		}
		payload := map[string]any{
			"data": map[string]any{
				"_embedded": map[string]any{"subtasks": subtasks},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestListTasksEnrichesSubtaskCounts(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("POST", "/rest/api/3/search", http.StatusOK, models.SearchResponse{
		Total: 3,
		Issues: []models.JiraIssue{
			searchIssue("CAP-1", "Task", false, "", "In Progress", "indeterminate"),
			searchIssue("CAP-2", "Subtask", true, "CAP-1", "To Do", "new"),
			searchIssue("PROJ-9", "Task", false, "", "Closed", "done"),
		},
	})

	// CAP-1 has two children; PROJ-9's lookup fails and must degrade to zero.
	loopback := subtasksLoopback(t, map[string]int{"CAP-1": 2})
	g := jira.gateway(Options{SubtasksBaseURL: loopback.URL})

	tasks, err := g.ListTasks(models.TaskFilters{ProjectKey: "CAP"})
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	// Positional ids, offset by 100.
	assert.Equal(t, 100, tasks[0].ID)
	assert.Equal(t, 101, tasks[1].ID)
	assert.Equal(t, 102, tasks[2].ID)

	assert.Equal(t, "CAP-1", tasks[0].JiraKey)
	assert.True(t, tasks[0].HasSubtasks)
	assert.Equal(t, 2, tasks[0].SubtasksCount)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)

	// Subtasks are never enriched with their own counts.
	assert.True(t, tasks[1].IsSubtask)
	assert.Equal(t, "CAP-1", tasks[1].ParentKey)
	assert.False(t, tasks[1].HasSubtasks)
	assert.Equal(t, 0, tasks[1].SubtasksCount)

	// Enrichment failure downgrades, it never fails the fetch.
	assert.Equal(t, models.StatusDone, tasks[2].Status)
	assert.False(t, tasks[2].HasSubtasks)
	assert.Equal(t, 0, tasks[2].SubtasksCount)
}

func TestListTasksEnrichmentCarriesWorkspace(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("POST", "/rest/api/3/search", http.StatusOK, models.SearchResponse{
		Total:  1,
		Issues: []models.JiraIssue{searchIssue("CAP-1", "Task", false, "", "To Do", "new")},
	})

	var gotWorkspace string
	loopback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWorkspace = r.URL.Query().Get("workspace")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"_embedded": map[string]any{"subtasks": []models.Subtask{}}},
		})
	}))
	defer loopback.Close()

	g := jira.gateway(Options{SubtasksBaseURL: loopback.URL})
	_, err := g.ListTasks(models.TaskFilters{ProjectKey: "CAP", Workspace: "ws-1"})
	require.NoError(t, err)

	// The loopback call must resolve the same workspace as the outer request.
	assert.Equal(t, "ws-1", gotWorkspace)
}

func TestListTasksSearchFailure(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("POST", "/rest/api/3/search", http.StatusBadGateway, map[string]any{"errorMessages": []string{"down"}})

	g := jira.gateway(Options{SubtasksBaseURL: "http://127.0.0.1:1"})
	_, err := g.ListTasks(models.TaskFilters{})
	require.Error(t, err)
	gerr := models.AsGatewayError(err)
	assert.Equal(t, models.ErrKindUpstream, gerr.Kind)
	assert.Equal(t, http.StatusBadGateway, gerr.UpstreamStatus)
}

func TestListTasksSendsFilteredJQL(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("POST", "/rest/api/3/search", http.StatusOK, models.SearchResponse{})

	g := jira.gateway(Options{SubtasksBaseURL: "http://127.0.0.1:1"})
	_, err := g.ListTasks(models.TaskFilters{ProjectKey: "CAP", Status: "Done", MaxResults: 10})
	require.NoError(t, err)

	body := jira.lastBody(t, "POST", "/rest/api/3/search")
	assert.Equal(t, `project = "CAP" AND status = "Done" ORDER BY created DESC`, body["jql"])
	assert.Equal(t, float64(10), body["maxResults"])
}

func TestListSubtasks(t *testing.T) {
	jira := newFakeJira(t)
	child := searchIssue("CAP-12", "Subtask", true, "CAP-1", "In Review", "indeterminate")
	child.Fields.Assignee = &models.User{DisplayName: "Jordan Li"}
	jira.on("POST", "/rest/api/3/search", http.StatusOK, models.SearchResponse{
		Issues: []models.JiraIssue{child},
	})

	g := jira.gateway(Options{})
	subtasks, err := g.ListSubtasks("CAP-1")
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, "CAP-12", subtasks[0].JiraKey)
	assert.Equal(t, "CAP-1", subtasks[0].ParentKey)
	assert.Equal(t, models.StatusInReview, subtasks[0].Status)
	assert.Equal(t, "Jordan Li", subtasks[0].AssignedTo)

	body := jira.lastBody(t, "POST", "/rest/api/3/search")
	assert.Equal(t, `parent = "CAP-1" ORDER BY created ASC`, body["jql"])
}

func TestListSubtasksRequiresParent(t *testing.T) {
	jira := newFakeJira(t)
	g := jira.gateway(Options{})
	_, err := g.ListSubtasks("")
	gerr := models.AsGatewayError(err)
	assert.Equal(t, models.ErrKindValidation, gerr.Kind)
	assert.Zero(t, jira.called("POST", "/rest/api/3/search"))
}

func TestCreateTaskSubstitutesDisallowedIssueType(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/project/CAP", http.StatusOK, models.Project{
		Key: "CAP",
		IssueTypes: []models.IssueType{
			{Name: "Story"},
			{Name: "Task"},
			{Name: "Sous-tâche", Subtask: true},
		},
	})
	jira.on("POST", "/rest/api/3/issue", http.StatusCreated, models.CreatedIssue{ID: "10042", Key: "CAP-42"})
	jira.on("GET", "/rest/agile/1.0/board", http.StatusOK, models.BoardsResponse{})

	g := jira.gateway(Options{})
	task, err := g.CreateTask(models.CreateTaskRequest{
		Title:      "Wire the importer",
		ProjectKey: "CAP",
		IssueType:  "Epic",
		Priority:   "urgent",
	})
	require.NoError(t, err)

	// Epic is not allowed; Task is the first preference present in CAP.
	body := jira.lastBody(t, "POST", "/rest/api/3/issue")
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "Task", fields["issuetype"].(map[string]any)["name"])
	assert.Equal(t, "1", fields["priority"].(map[string]any)["id"])
	assert.Equal(t, "Wire the importer", fields["summary"])

	assert.Equal(t, 100, task.ID)
	assert.Equal(t, "CAP-42", task.JiraKey)
	assert.Equal(t, "10042", task.JiraID)
	assert.Equal(t, "Task", task.IssueType)
	assert.Equal(t, models.StatusToDo, task.Status)
}

func TestCreateTaskIssueTypeLookupFailureUsesFallback(t *testing.T) {
	jira := newFakeJira(t)
	// Project lookup unscripted, answers 404; creation must still go through.
	jira.on("POST", "/rest/api/3/issue", http.StatusCreated, models.CreatedIssue{ID: "10001", Key: "CAP-1"})
	jira.on("GET", "/rest/agile/1.0/board", http.StatusOK, models.BoardsResponse{})

	g := jira.gateway(Options{})
	task, err := g.CreateTask(models.CreateTaskRequest{Title: "t", ProjectKey: "CAP", IssueType: "Bug"})
	require.NoError(t, err)
	assert.Equal(t, "Bug", task.IssueType)
}

func TestCreateTaskValidation(t *testing.T) {
	jira := newFakeJira(t)
	g := jira.gateway(Options{})

	_, err := g.CreateTask(models.CreateTaskRequest{ProjectKey: "CAP"})
	assert.Equal(t, models.ErrKindValidation, models.AsGatewayError(err).Kind)

	_, err = g.CreateTask(models.CreateTaskRequest{Title: "t"})
	assert.Equal(t, models.ErrKindValidation, models.AsGatewayError(err).Kind)

	assert.Zero(t, jira.called("POST", "/rest/api/3/issue"))
}

func TestCreateTaskPlacesIssueInActiveSprint(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/project/CAP", http.StatusOK, models.Project{
		Key:        "CAP",
		IssueTypes: []models.IssueType{{Name: "Task"}},
	})
	jira.on("POST", "/rest/api/3/issue", http.StatusCreated, models.CreatedIssue{ID: "10042", Key: "CAP-42"})
	jira.on("GET", "/rest/agile/1.0/board", http.StatusOK, models.BoardsResponse{
		Values: []models.Board{{ID: 7, Name: "CAP board"}},
	})
	jira.on("GET", "/rest/agile/1.0/board/7/sprint", http.StatusOK, models.SprintsResponse{
		Values: []models.Sprint{{ID: 55, Name: "Sprint 12", State: "active"}},
	})
	jira.on("POST", "/rest/agile/1.0/sprint/55/issue", http.StatusNoContent, nil)

	g := jira.gateway(Options{})
	_, err := g.CreateTask(models.CreateTaskRequest{Title: "t", ProjectKey: "CAP"})
	require.NoError(t, err)

	body := jira.lastBody(t, "POST", "/rest/agile/1.0/sprint/55/issue")
	assert.Equal(t, []any{"CAP-42"}, body["issues"])
}

func TestCreateTaskSprintPlacementFailureIsNonFatal(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/project/CAP", http.StatusOK, models.Project{
		Key:        "CAP",
		IssueTypes: []models.IssueType{{Name: "Task"}},
	})
	jira.on("POST", "/rest/api/3/issue", http.StatusCreated, models.CreatedIssue{ID: "10042", Key: "CAP-42"})
	// Board lookup blows up; the created task must still be returned.
	jira.on("GET", "/rest/agile/1.0/board", http.StatusInternalServerError, nil)

	g := jira.gateway(Options{})
	task, err := g.CreateTask(models.CreateTaskRequest{Title: "t", ProjectKey: "CAP"})
	require.NoError(t, err)
	assert.Equal(t, "CAP-42", task.JiraKey)
}

func TestUpdateTaskNeverWritesStatusField(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("PUT", "/rest/api/3/issue/CAP-5", http.StatusNoContent, nil)
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{
		Transitions: []models.Transition{
			{ID: "21", Name: "Start Progress", To: models.IssueStatus{Name: "In Progress"}},
			{ID: "31", Name: "Done", To: models.IssueStatus{Name: "Done"}},
		},
	})
	jira.on("POST", "/rest/api/3/issue/CAP-5/transitions", http.StatusNoContent, nil)

	title := "Renamed"
	status := "Done"
	g := jira.gateway(Options{})
	result, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", Title: &title, Status: &status})
	require.NoError(t, err)

	// The status travels through the transition endpoint, never the PUT body.
	put := jira.lastBody(t, "PUT", "/rest/api/3/issue/CAP-5")
	fields := put["fields"].(map[string]any)
	assert.NotContains(t, fields, "status")
	assert.Equal(t, "Renamed", fields["summary"])

	transition := jira.lastBody(t, "POST", "/rest/api/3/issue/CAP-5/transitions")
	assert.Equal(t, "31", transition["transition"].(map[string]any)["id"])

	assert.True(t, result.Updated)
	assert.Equal(t, []string{"summary"}, result.Fields)
}

func TestUpdateTaskStatusOnly(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{
		Transitions: []models.Transition{
			{ID: "11", Name: "To Do", To: models.IssueStatus{Name: "To Do"}},
		},
	})
	jira.on("POST", "/rest/api/3/issue/CAP-5/transitions", http.StatusNoContent, nil)

	status := "To Do"
	g := jira.gateway(Options{})
	result, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", Status: &status})
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.Empty(t, result.Fields)
	assert.Zero(t, jira.called("PUT", "/rest/api/3/issue/CAP-5"))
	assert.Equal(t, 1, jira.called("POST", "/rest/api/3/issue/CAP-5/transitions"))
}

func TestUpdateTaskMissingTransitionIsNonFatal(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{
		Transitions: []models.Transition{
			{ID: "21", Name: "Start Progress", To: models.IssueStatus{Name: "In Progress"}},
		},
	})

	status := "Blocked"
	g := jira.gateway(Options{})
	result, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", Status: &status})
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.Zero(t, jira.called("POST", "/rest/api/3/issue/CAP-5/transitions"))
}

func TestUpdateTaskReducedRetry(t *testing.T) {
	jira := newFakeJira(t)
	var putCount int
	var mu sync.Mutex
	jira.onFunc("PUT", "/rest/api/3/issue/CAP-5", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		putCount++
		n := putCount
		mu.Unlock()
		if n == 1 {
			// Screen rejects the full field set.
			http.Error(w, `{"errors":{"customfield_10016":"not on screen"}}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	title := "Renamed"
	points := 5.0
	g := jira.gateway(Options{})
	result, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", Title: &title, StoryPoints: &points})
	require.NoError(t, err)

	// Second attempt carries only the reduced set.
	put := jira.lastBody(t, "PUT", "/rest/api/3/issue/CAP-5")
	fields := put["fields"].(map[string]any)
	assert.Equal(t, "Renamed", fields["summary"])
	assert.NotContains(t, fields, "customfield_10016")

	assert.True(t, result.Updated)
	assert.Equal(t, []string{"summary"}, result.Fields)
}

func TestUpdateTaskReducedRetryEmptyReturnsOriginalError(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("PUT", "/rest/api/3/issue/CAP-5", http.StatusBadRequest, map[string]any{
		"errors": map[string]string{"customfield_10016": "not on screen"},
	})

	// Story points alone reduce to nothing; the original failure surfaces.
	points := 5.0
	g := jira.gateway(Options{})
	_, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", StoryPoints: &points})
	require.Error(t, err)
	gerr := models.AsGatewayError(err)
	assert.Equal(t, models.ErrKindUpstream, gerr.Kind)
	assert.Equal(t, http.StatusBadRequest, gerr.UpstreamStatus)
	assert.Equal(t, 1, jira.called("PUT", "/rest/api/3/issue/CAP-5"))
}

func TestUpdateTaskEmptyStatusDoesNotTransition(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("PUT", "/rest/api/3/issue/CAP-5", http.StatusNoContent, nil)
	// A tempting-but-wrong substring match for an empty target.
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{
		Transitions: []models.Transition{
			{ID: "91", Name: "Reject and Archive", To: models.IssueStatus{Name: "Archived"}},
		},
	})
	jira.on("POST", "/rest/api/3/issue/CAP-5/transitions", http.StatusNoContent, nil)

	title := "Renamed"
	empty := ""
	g := jira.gateway(Options{})
	result, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", Title: &title, Status: &empty})
	require.NoError(t, err)
	assert.True(t, result.Updated)

	// An empty status means no status change; no transition may run.
	assert.Zero(t, jira.called("GET", "/rest/api/3/issue/CAP-5/transitions"))
	assert.Zero(t, jira.called("POST", "/rest/api/3/issue/CAP-5/transitions"))
}

func TestUpdateTaskEmptyStatusAloneIsRejected(t *testing.T) {
	jira := newFakeJira(t)
	empty := ""
	g := jira.gateway(Options{})
	_, err := g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5", Status: &empty})
	assert.Equal(t, models.ErrKindValidation, models.AsGatewayError(err).Kind)
	assert.Empty(t, jira.calls)
}

func TestUpdateTaskValidation(t *testing.T) {
	jira := newFakeJira(t)
	g := jira.gateway(Options{})

	_, err := g.UpdateTask(models.UpdateTaskRequest{})
	assert.Equal(t, models.ErrKindValidation, models.AsGatewayError(err).Kind)

	// A key with neither fields nor status is rejected before any HTTP call.
	_, err = g.UpdateTask(models.UpdateTaskRequest{JiraKey: "CAP-5"})
	assert.Equal(t, models.ErrKindValidation, models.AsGatewayError(err).Kind)
	assert.Empty(t, jira.calls)
}

func TestUpdateTaskHonorsLegacyKeyAlias(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("PUT", "/rest/api/3/issue/CAP-9", http.StatusNoContent, nil)

	title := "Renamed"
	g := jira.gateway(Options{})
	result, err := g.UpdateTask(models.UpdateTaskRequest{JiraKeyLegacy: "CAP-9", Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "CAP-9", result.JiraKey)
}

func TestDeleteTaskClosesThroughWorkflow(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{
		Transitions: []models.Transition{
			{ID: "21", Name: "Start Progress", To: models.IssueStatus{Name: "In Progress"}},
			{ID: "41", Name: "Close Issue", To: models.IssueStatus{Name: "Closed"}},
		},
	})
	jira.on("POST", "/rest/api/3/issue/CAP-5/transitions", http.StatusNoContent, nil)

	g := jira.gateway(Options{})
	result, err := g.DeleteTask("CAP-5")
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.True(t, result.Closed)

	transition := jira.lastBody(t, "POST", "/rest/api/3/issue/CAP-5/transitions")
	assert.Equal(t, "41", transition["transition"].(map[string]any)["id"])
	assert.Zero(t, jira.called("DELETE", "/rest/api/3/issue/CAP-5"))
}

func TestDeleteTaskFallsBackToRealDeletion(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{
		Transitions: []models.Transition{
			{ID: "11", Name: "Reopen", To: models.IssueStatus{Name: "To Do"}},
			{ID: "21", Name: "Start Progress", To: models.IssueStatus{Name: "In Progress"}},
		},
	})
	jira.on("DELETE", "/rest/api/3/issue/CAP-5", http.StatusNoContent, nil)

	g := jira.gateway(Options{})
	result, err := g.DeleteTask("CAP-5")
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.False(t, result.Closed)
	assert.Equal(t, 1, jira.called("DELETE", "/rest/api/3/issue/CAP-5"))
}

func TestDeleteTaskMissingIssue(t *testing.T) {
	jira := newFakeJira(t)
	// Transition lookup on a missing issue already answers 404.
	g := jira.gateway(Options{})
	_, err := g.DeleteTask("CAP-404")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindNotFound, models.AsGatewayError(err).Kind)
}

func TestDeleteTaskDeletionNotFound(t *testing.T) {
	jira := newFakeJira(t)
	jira.on("GET", "/rest/api/3/issue/CAP-5/transitions", http.StatusOK, models.TransitionsResponse{})
	jira.on("DELETE", "/rest/api/3/issue/CAP-5", http.StatusNotFound, map[string]any{
		"errorMessages": []string{"Issue does not exist"},
	})

	g := jira.gateway(Options{})
	_, err := g.DeleteTask("CAP-5")
	require.Error(t, err)
	gerr := models.AsGatewayError(err)
	assert.Equal(t, models.ErrKindNotFound, gerr.Kind)
	assert.Equal(t, http.StatusNotFound, gerr.UpstreamStatus)
}

func TestDeleteTaskRequiresKey(t *testing.T) {
	jira := newFakeJira(t)
	g := jira.gateway(Options{})
	_, err := g.DeleteTask("")
	assert.Equal(t, models.ErrKindValidation, models.AsGatewayError(err).Kind)
	assert.Empty(t, jira.calls)
}

func TestFindStatusTransitionPreferenceOrder(t *testing.T) {
	transitions := []models.Transition{
		{ID: "1", Name: "Begin Review", To: models.IssueStatus{Name: "Reviewing"}},
		{ID: "2", Name: "Ship it", To: models.IssueStatus{Name: "In Review"}},
	}

	// Exact target-status match wins over the earlier name substring.
	picked, ok := findStatusTransition(transitions, "In Review")
	require.True(t, ok)
	assert.Equal(t, "2", picked.ID)

	// Then transition-name substring.
	picked, ok = findStatusTransition(transitions, "Review")
	require.True(t, ok)
	assert.Equal(t, "1", picked.ID)

	_, ok = findStatusTransition(transitions, "Done")
	assert.False(t, ok)

	// An empty target matches nothing instead of everything.
	_, ok = findStatusTransition(transitions, "")
	assert.False(t, ok)
}
