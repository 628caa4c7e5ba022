package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const githubUserAgent = "devconnector-backend"

type RepoLister interface {
	ListRepos(ctx context.Context, username string) (json.RawMessage, error)
}

// GitHubClient proxies the public repository listing of a GitHub user.
type GitHubClient struct {
	Token      string
	HTTPClient *http.Client
	Endpoint   string
}

func NewGitHubClient(token, endpoint string) *GitHubClient {
	if endpoint == "" {
		endpoint = "https://api.github.com"
	}
	return &GitHubClient{
		Token:    token,
		Endpoint: strings.TrimRight(endpoint, "/"),
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

// ListRepos returns the five oldest-created repositories of username as the
// raw GitHub response body. Any non-200 answer is an error.
func (c *GitHubClient) ListRepos(ctx context.Context, username string) (json.RawMessage, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("github: empty username")
	}

	u := fmt.Sprintf("%s/users/%s/repos?per_page=5&sort=created:asc", c.Endpoint, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", githubUserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github repos http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("github repos: invalid json body")
	}
	return json.RawMessage(body), nil
}
