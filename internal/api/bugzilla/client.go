package bugzilla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kanbantools/sprint-report/internal/api"
	"github.com/kanbantools/sprint-report/internal/domain"
)

// Client implements api.IssueTracker for Bugzilla's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient api.HTTPClient
}

// NewClient creates a new Bugzilla client.
func NewClient(config api.ClientConfig, httpClient api.HTTPClient) *Client {
	return &Client{
		baseURL:    config.BaseURL,
		apiKey:     config.Key,
		httpClient: httpClient,
	}
}

// Whoami verifies the configured API key against the tracker and
// returns the authenticated account name.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	var result whoamiResponse
	if err := c.doRequest(ctx, "/rest/whoami", nil, &result); err != nil {
		return "", fmt.Errorf("authentication check failed: %w", err)
	}
	return result.Name, nil
}

// GetIssue retrieves one issue, limited to the fields the synchronizer
// reads.
func (c *Client) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	query := url.Values{}
	query.Set("include_fields", "id,summary,cf_pm_score")

	var result bugsResponse
	if err := c.doRequest(ctx, "/rest/bug/"+id, query, &result); err != nil {
		return nil, fmt.Errorf("failed to get bug %s: %w", id, err)
	}
	if len(result.Bugs) == 0 {
		return nil, fmt.Errorf("bug %s not found", id)
	}

	return c.convertBug(result.Bugs[0]), nil
}

// convertBug converts a Bugzilla bug to the domain model.
func (c *Client) convertBug(b bug) *domain.Issue {
	return &domain.Issue{
		ID:      b.ID,
		Summary: b.Summary,
		PMScore: b.PMScore.String(),
	}
}

// doRequest performs a GET against the Bugzilla REST API and decodes
// the JSON response into result.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Bugzilla API response types
type whoamiResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type bugsResponse struct {
	Bugs []bug `json:"bugs"`
}

// cf_pm_score arrives as a string or a bare number depending on the
// field configuration, so it is decoded as json.Number-compatible raw
// text.
type bug struct {
	ID      int        `json:"id"`
	Summary string     `json:"summary"`
	PMScore flexString `json:"cf_pm_score"`
}

// flexString decodes a JSON string or number into its textual form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}
