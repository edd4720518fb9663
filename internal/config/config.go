package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Jira holds the default workspace credentials, read from the environment
// once at startup and passed to the gateway by injection. An empty token is
// legal at construction time; the gateway fails closed with a 401 before
// any network call when the credentials are actually needed.
type Jira struct {
	Domain string
	Email  string
	Token  string
}

// JiraFromEnv builds the default credentials from JIRA_DOMAIN, JIRA_EMAIL
// and JIRA_API_TOKEN.
func JiraFromEnv() Jira {
	return Jira{
		Domain: os.Getenv("JIRA_DOMAIN"),
		Email:  os.Getenv("JIRA_EMAIL"),
		Token:  os.Getenv("JIRA_API_TOKEN"),
	}
}

// Configured reports whether an API token is present.
func (j Jira) Configured() bool {
	return j.Token != ""
}

// Site returns the instance base URL, accepting either a bare domain
// ("espaceo.atlassian.net") or a full URL in JIRA_DOMAIN.
func (j Jira) Site() string {
	domain := strings.TrimSuffix(j.Domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// App is the config.yaml structure.
type App struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Atlassian struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"atlassian"`
	Sync struct {
		MaxConcurrent    int    `yaml:"maxConcurrent"`
		PreferredBoardID int    `yaml:"preferredBoardId"`
		SprintLengthDays int    `yaml:"sprintLengthDays"`
		SubtasksBaseURL  string `yaml:"subtasksBaseUrl"`
	} `yaml:"sync"`
	Events struct {
		Exchange string `yaml:"exchange"`
	} `yaml:"events"`
}

// LoadApp reads config.yaml. A missing file yields the zero config; callers
// apply their own defaults.
func LoadApp(path string) (App, error) {
	var app App
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return app, nil
		}
		return app, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &app); err != nil {
		return app, fmt.Errorf("parsing %s: %w", path, err)
	}
	return app, nil
}

// Timeout parses the Atlassian API timeout, defaulting to 30s.
func (a App) Timeout() time.Duration {
	if a.Atlassian.Timeout != "" {
		if d, err := time.ParseDuration(a.Atlassian.Timeout); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// Port returns the listen port, defaulting to 3000.
func (a App) Port() int {
	if a.Server.Port > 0 {
		return a.Server.Port
	}
	return 3000
}
