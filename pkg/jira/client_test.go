package jira_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
)

func searchHandler(t *testing.T, issues []jira.Issue) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "changelog", r.URL.Query().Get("expand"))

		resp := map[string]any{
			"startAt":    0,
			"maxResults": len(issues),
			"total":      len(issues),
			"issues":     issues,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestSearchIssues_FetchesPage(t *testing.T) {
	t.Parallel()

	want := []jira.Issue{{Key: "PROJ-1"}, {Key: "PROJ-2"}}

	srv := httptest.NewServer(searchHandler(t, want))
	defer srv.Close()

	client := jira.NewClient(jira.ClientConfig{BaseURL: srv.URL, APIToken: "tok"})

	issues, err := client.SearchIssues(context.Background(), "PROJ", "")
	require.NoError(t, err)

	require.Len(t, issues, 2)
	assert.Equal(t, "PROJ-1", issues[0].Key)
}

func TestSearchIssues_BasicAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice@example.com", user)
		assert.Equal(t, "secret", pass)

		searchHandler(t, nil)(w, r)
	}))
	defer srv.Close()

	client := jira.NewClient(jira.ClientConfig{BaseURL: srv.URL, User: "alice@example.com", APIToken: "secret"})

	_, err := client.SearchIssues(context.Background(), "PROJ", "")
	require.NoError(t, err)
}

func TestSearchIssues_BearerAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		searchHandler(t, nil)(w, r)
	}))
	defer srv.Close()

	client := jira.NewClient(jira.ClientConfig{BaseURL: srv.URL, APIToken: "tok"})

	_, err := client.SearchIssues(context.Background(), "PROJ", "")
	require.NoError(t, err)
}

func TestSearchIssues_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		searchHandler(t, []jira.Issue{{Key: "PROJ-1"}})(w, r)
	}))
	defer srv.Close()

	client := jira.NewClient(jira.ClientConfig{
		BaseURL:    srv.URL,
		APIToken:   "tok",
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	})

	issues, err := client.SearchIssues(context.Background(), "PROJ", "")
	require.NoError(t, err)

	assert.Len(t, issues, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchIssues_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := jira.NewClient(jira.ClientConfig{
		BaseURL:    srv.URL,
		APIToken:   "tok",
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	})

	_, err := client.SearchIssues(context.Background(), "PROJ", "")

	assert.ErrorIs(t, err, jira.ErrRequestFailed)
}

func TestSearchIssues_NoBaseURL(t *testing.T) {
	t.Parallel()

	client := jira.NewClient(jira.ClientConfig{})

	_, err := client.SearchIssues(context.Background(), "PROJ", "")

	assert.ErrorIs(t, err, jira.ErrNoBaseURL)
}
