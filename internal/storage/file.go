package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/espaceo/workspace-jira-service/internal/models"
)

// WorkspaceStore is the interface for Jira workspace credential storage.
type WorkspaceStore interface {
	GetCredentials(workspaceID string) (*models.WorkspaceCredentials, error)
	SaveWorkspace(ws *models.JiraWorkspace) error
	DeleteWorkspace(workspaceID string) error
	ListWorkspaces() ([]models.JiraWorkspace, error)
	Ping() error
	Close() error
}

// workspaceFileEntry is the on-disk shape of one workspace in
// workspaces.json.
type workspaceFileEntry struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	BaseURL  string `json:"baseUrl"`
	Email    string `json:"email"`
	APIToken string `json:"apiToken"`
}

// FileWorkspaceStore keeps Jira workspace credentials in a JSON file,
// reloading it when the file changes on disk so hand edits are picked up
// without a restart.
type FileWorkspaceStore struct {
	filePath    string
	workspaces  map[string]workspaceFileEntry // indexed by ID (or name if ID missing)
	lastModTime time.Time
	mu          sync.RWMutex
}

// NewFileWorkspaceStore creates a file-backed workspace store.
func NewFileWorkspaceStore(filePath string) (*FileWorkspaceStore, error) {
	store := &FileWorkspaceStore{
		filePath:   filePath,
		workspaces: make(map[string]workspaceFileEntry),
	}
	if err := store.load(); err != nil {
		return nil, fmt.Errorf("loading workspaces: %w", err)
	}
	return store, nil
}

func (s *FileWorkspaceStore) load() error {
	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		s.mu.Lock()
		s.workspaces = make(map[string]workspaceFileEntry)
		s.mu.Unlock()
		return nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("reading workspaces file: %w", err)
	}

	var entries []workspaceFileEntry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing workspaces JSON: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspaces = make(map[string]workspaceFileEntry)
	for _, ws := range entries {
		id := ws.ID
		if id == "" {
			id = ws.Name
		}
		s.workspaces[id] = ws
	}

	if stat, err := os.Stat(absPath); err == nil {
		s.lastModTime = stat.ModTime()
	}
	return nil
}

func (s *FileWorkspaceStore) save() error {
	s.mu.RLock()
	var entries []workspaceFileEntry
	for _, ws := range s.workspaces {
		entries = append(entries, ws)
	}
	s.mu.RUnlock()

	// Stable output for hand editing and diffs.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(absPath, data, 0o644)
}

// GetCredentials retrieves credentials for a workspace.
func (s *FileWorkspaceStore) GetCredentials(workspaceID string) (*models.WorkspaceCredentials, error) {
	s.checkAndReload()

	s.mu.RLock()
	ws, exists := s.workspaces[workspaceID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}
	return &models.WorkspaceCredentials{
		Site:  ws.BaseURL,
		Email: ws.Email,
		Token: ws.APIToken,
	}, nil
}

// SaveWorkspace writes a workspace back to the file.
func (s *FileWorkspaceStore) SaveWorkspace(ws *models.JiraWorkspace) error {
	s.checkAndReload()

	id := ws.WorkspaceID
	if id == "" {
		id = ws.WorkspaceName
	}

	s.mu.Lock()
	s.workspaces[id] = workspaceFileEntry{
		ID:       id,
		Name:     ws.WorkspaceName,
		BaseURL:  ws.JiraURL,
		Email:    ws.Email,
		APIToken: ws.APIToken,
	}
	s.mu.Unlock()

	return s.save()
}

// DeleteWorkspace removes a workspace from the file.
func (s *FileWorkspaceStore) DeleteWorkspace(workspaceID string) error {
	s.checkAndReload()

	s.mu.Lock()
	if _, exists := s.workspaces[workspaceID]; !exists {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.workspaces, workspaceID)
	s.mu.Unlock()

	return s.save()
}

// ListWorkspaces returns all stored workspaces, tokens omitted.
func (s *FileWorkspaceStore) ListWorkspaces() ([]models.JiraWorkspace, error) {
	s.checkAndReload()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var workspaces []models.JiraWorkspace
	for id, ws := range s.workspaces {
		workspaces = append(workspaces, models.JiraWorkspace{
			WorkspaceID:   id,
			WorkspaceName: ws.Name,
			JiraURL:       ws.BaseURL,
			Email:         ws.Email,
		})
	}
	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].WorkspaceName < workspaces[j].WorkspaceName
	})
	return workspaces, nil
}

// Ping is a no-op for file-based storage.
func (s *FileWorkspaceStore) Ping() error {
	return nil
}

// Close is a no-op for file-based storage.
func (s *FileWorkspaceStore) Close() error {
	return nil
}

// checkAndReload reloads the file when it changed on disk.
func (s *FileWorkspaceStore) checkAndReload() {
	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return
	}
	stat, err := os.Stat(absPath)
	if err != nil {
		return
	}

	s.mu.RLock()
	lastMod := s.lastModTime
	s.mu.RUnlock()

	if stat.ModTime().After(lastMod) {
		_ = s.load()
	}
}

// NewWorkspaceStoreFromEnv picks the storage backend: WORKSPACES_FILE for
// file-based storage, else DATABASE_URL for Postgres (which additionally
// requires API_KEY_ENCRYPTION_KEY), else no store at all — the service then
// runs with the env-configured default workspace only.
func NewWorkspaceStoreFromEnv() (WorkspaceStore, error) {
	if workspacesFile := os.Getenv("WORKSPACES_FILE"); workspacesFile != "" {
		return NewFileWorkspaceStore(workspacesFile)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, nil
	}

	encryptionKey := os.Getenv("API_KEY_ENCRYPTION_KEY")
	if encryptionKey == "" {
		return nil, fmt.Errorf("API_KEY_ENCRYPTION_KEY is required when using database storage")
	}
	return NewPostgresWorkspaceStore(databaseURL, encryptionKey)
}
