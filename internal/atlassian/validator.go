package atlassian

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Validator checks Jira API credentials before they are stored or used by
// the health probe.
type Validator struct {
	client *http.Client
}

// NewValidator creates a new credential validator.
func NewValidator() *Validator {
	return &Validator{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ValidateToken validates credentials by calling the /myself endpoint,
// trying REST v3 first and falling back to v2 for older instances.
func (v *Validator) ValidateToken(siteURL, email, apiToken string) error {
	siteURL = strings.TrimSuffix(siteURL, "/")

	tryEndpoint := func(version string) error {
		apiURL := fmt.Sprintf("%s/rest/api/%s/myself", siteURL, version)

		req, err := http.NewRequest(http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.SetBasicAuth(email, apiToken)
		req.Header.Set("Accept", "application/json")

		resp, err := v.client.Do(req)
		if err != nil {
			return fmt.Errorf("connecting to Jira: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return errEndpointMissing
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("invalid credentials: authentication failed")
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		var result struct {
			EmailAddress string `json:"emailAddress"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		// Privacy settings may hide the email; only a real mismatch fails.
		if result.EmailAddress != "" && !strings.EqualFold(result.EmailAddress, email) {
			return fmt.Errorf("email mismatch: expected %s, got %s", email, result.EmailAddress)
		}
		return nil
	}

	err := tryEndpoint("3")
	if err == errEndpointMissing {
		if err = tryEndpoint("2"); err == errEndpointMissing {
			return fmt.Errorf("Jira API endpoint not found (tried v3 and v2), check the site URL")
		}
	}
	return err
}

var errEndpointMissing = fmt.Errorf("not found")
