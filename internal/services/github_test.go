package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubClient_ListRepos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		assert.Equal(t, "created:asc", r.URL.Query().Get("sort"))
		assert.Equal(t, "token s3cret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"name":"hello-world","stargazers_count":3}]`))
	}))
	defer srv.Close()

	body, err := NewGitHubClient("s3cret", srv.URL).ListRepos(context.Background(), "octocat")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"hello-world","stargazers_count":3}]`, string(body))
}

func TestGitHubClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"message":"Not Found"}`},
		{"rate limited", http.StatusForbidden, `{"message":"API rate limit exceeded"}`},
		{"garbage body", http.StatusOK, `<html>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewGitHubClient("", srv.URL).ListRepos(context.Background(), "ghost")
			assert.Error(t, err)
		})
	}
}

func TestGitHubClient_EscapesUsername(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewGitHubClient("", srv.URL).ListRepos(context.Background(), "a/b")
	assert.Error(t, err)
	assert.Equal(t, "/users/a%2Fb/repos", gotPath)
}
