package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/espaceo/workspace-jira-service/internal/crypto"
	"github.com/espaceo/workspace-jira-service/internal/models"
	_ "github.com/lib/pq"
)

// PostgresWorkspaceStore keeps Jira workspace credentials in Postgres with
// the API tokens encrypted at rest.
type PostgresWorkspaceStore struct {
	db            *sql.DB
	encryptionKey string
}

// NewPostgresWorkspaceStore opens the database and ensures the schema.
func NewPostgresWorkspaceStore(connectionString, encryptionKey string) (*PostgresWorkspaceStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	store := &PostgresWorkspaceStore{db: db, encryptionKey: encryptionKey}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *PostgresWorkspaceStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS jira_workspaces (
		workspace_id VARCHAR(255) PRIMARY KEY,
		workspace_name VARCHAR(255) NOT NULL,
		jira_url VARCHAR(500) NOT NULL,
		email VARCHAR(255) NOT NULL,
		api_token_encrypted TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// GetCredentials retrieves and decrypts credentials for a workspace.
func (s *PostgresWorkspaceStore) GetCredentials(workspaceID string) (*models.WorkspaceCredentials, error) {
	var jiraURL, email, encryptedToken string

	query := `
		SELECT jira_url, email, api_token_encrypted
		FROM jira_workspaces
		WHERE workspace_id = $1
	`
	err := s.db.QueryRow(query, workspaceID).Scan(&jiraURL, &email, &encryptedToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	token, err := crypto.Decrypt(encryptedToken, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	return &models.WorkspaceCredentials{
		Site:  jiraURL,
		Email: email,
		Token: token,
	}, nil
}

// SaveWorkspace encrypts the token and upserts the workspace row.
func (s *PostgresWorkspaceStore) SaveWorkspace(ws *models.JiraWorkspace) error {
	encryptedToken, err := crypto.Encrypt(ws.APIToken, s.encryptionKey)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO jira_workspaces
			(workspace_id, workspace_name, jira_url, email, api_token_encrypted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id)
		DO UPDATE SET
			workspace_name = EXCLUDED.workspace_name,
			jira_url = EXCLUDED.jira_url,
			email = EXCLUDED.email,
			api_token_encrypted = EXCLUDED.api_token_encrypted,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	ws.UpdatedAt = now

	_, err = s.db.Exec(query,
		ws.WorkspaceID,
		ws.WorkspaceName,
		ws.JiraURL,
		ws.Email,
		encryptedToken,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	return err
}

// DeleteWorkspace removes a workspace row.
func (s *PostgresWorkspaceStore) DeleteWorkspace(workspaceID string) error {
	result, err := s.db.Exec(`DELETE FROM jira_workspaces WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWorkspaces returns all workspaces, tokens omitted.
func (s *PostgresWorkspaceStore) ListWorkspaces() ([]models.JiraWorkspace, error) {
	query := `
		SELECT workspace_id, workspace_name, jira_url, email, created_at, updated_at
		FROM jira_workspaces
		ORDER BY workspace_name
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []models.JiraWorkspace
	for rows.Next() {
		var ws models.JiraWorkspace
		if err := rows.Scan(
			&ws.WorkspaceID,
			&ws.WorkspaceName,
			&ws.JiraURL,
			&ws.Email,
			&ws.CreatedAt,
			&ws.UpdatedAt,
		); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

// Ping tests the database connection.
func (s *PostgresWorkspaceStore) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection.
func (s *PostgresWorkspaceStore) Close() error {
	return s.db.Close()
}

// ErrNotFound is returned when a workspace is not in the store.
var ErrNotFound = &NotFoundError{}

// NotFoundError distinguishes a missing workspace from storage failures.
type NotFoundError struct{}

func (e *NotFoundError) Error() string {
	return "workspace not found"
}
