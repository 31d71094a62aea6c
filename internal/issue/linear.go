package issue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	linearAPIBase      = "https://api.linear.app"
	LinearAPIKeyEnvVar = "LINEAR_API_KEY"
	linearHTTPTimeout  = 20 * time.Second
)

const linearByIdentifierQuery = `query($identifier: String!) {
  issues(filter: { identifier: { eq: $identifier } }, first: 1) {
    nodes { identifier title url }
  }
}`

const linearSearchQuery = `query($query: String!) {
  issueSearch(query: $query, first: 1) {
    nodes { identifier title url }
  }
}`

// Linear fetches issue metadata from the Linear GraphQL API.
type Linear struct {
	apiKeyEnv  string
	httpClient *http.Client
	apiBase    string // Override for testing; defaults to linearAPIBase
}

// NewLinear creates a Linear provider reading its API key from apiKeyEnv
// (LINEAR_API_KEY when empty).
func NewLinear(apiKeyEnv string) *Linear {
	return NewLinearWithClient(apiKeyEnv, &http.Client{Timeout: linearHTTPTimeout}, "")
}

// NewLinearWithClient creates a Linear provider with a custom HTTP client and
// API base URL (for testing).
func NewLinearWithClient(apiKeyEnv string, client *http.Client, apiBase string) *Linear {
	if apiKeyEnv == "" {
		apiKeyEnv = LinearAPIKeyEnvVar
	}
	if apiBase == "" {
		apiBase = linearAPIBase
	}
	return &Linear{apiKeyEnv: apiKeyEnv, httpClient: client, apiBase: apiBase}
}

type linearGraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type linearIssue struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}

type linearConnection struct {
	Nodes []linearIssue `json:"nodes"`
}

type linearResponse struct {
	Data struct {
		Issues      *linearConnection `json:"issues"`
		IssueSearch *linearConnection `json:"issueSearch"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (r *linearResponse) errorText() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// errUnauthorized signals a 401 so the raw-key form can be tried.
var errUnauthorized = errors.New("Linear API returned 401 Unauthorized")

// Fetch looks the issue up by identifier, falling back to issueSearch when
// the filter finds nothing or the API rejects it.
func (l *Linear) Fetch(ctx context.Context, _ string, ref Ref) (Info, error) {
	apiKey := strings.TrimSpace(os.Getenv(l.apiKeyEnv))
	if apiKey == "" {
		return Info{}, fmt.Errorf("%s environment variable not set", l.apiKeyEnv)
	}

	resp, err := l.query(ctx, apiKey, linearByIdentifierQuery, map[string]any{"identifier": ref.Key})
	if err != nil {
		return Info{}, err
	}
	if len(resp.Errors) == 0 && resp.Data.Issues != nil && len(resp.Data.Issues.Nodes) > 0 {
		return linearInfo(resp.Data.Issues.Nodes[0], ref.Key), nil
	}

	resp, err = l.query(ctx, apiKey, linearSearchQuery, map[string]any{"query": ref.Key})
	if err != nil {
		return Info{}, err
	}
	if len(resp.Errors) > 0 {
		return Info{}, fmt.Errorf("Linear API returned errors: %s", resp.errorText())
	}
	if resp.Data.IssueSearch == nil || len(resp.Data.IssueSearch.Nodes) == 0 {
		return Info{}, fmt.Errorf("Linear issue %s not found", ref.Key)
	}
	return linearInfo(resp.Data.IssueSearch.Nodes[0], ref.Key), nil
}

func linearInfo(n linearIssue, key string) Info {
	if n.Identifier != "" {
		key = n.Identifier
	}
	return Info{Source: SourceLinear, Key: key, Title: n.Title, URL: n.URL}
}

// query posts a GraphQL request, authenticating as "Bearer <key>" first and
// with the raw key when that is rejected with 401.
func (l *Linear) query(ctx context.Context, apiKey, query string, vars map[string]any) (*linearResponse, error) {
	body, err := json.Marshal(linearGraphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	resp, err := l.post(ctx, "Bearer "+apiKey, body)
	if errors.Is(err, errUnauthorized) {
		resp, err = l.post(ctx, apiKey, body)
	}
	return resp, err
}

func (l *Linear) post(ctx context.Context, auth string, body []byte) (*linearResponse, error) {
	url := fmt.Sprintf("%s/graphql", l.apiBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Linear: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("Linear API returned 403 Forbidden - check that your %s has access", l.apiKeyEnv)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest:
		return nil, fmt.Errorf("Linear API returned status %d", resp.StatusCode)
	}

	// GraphQL validation errors come back as 400 with an errors payload.
	var out linearResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse Linear response: %w", err)
	}
	if resp.StatusCode == http.StatusBadRequest && len(out.Errors) == 0 {
		return nil, fmt.Errorf("Linear API returned status %d", resp.StatusCode)
	}
	return &out, nil
}
