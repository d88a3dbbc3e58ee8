package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/eidosai/eidos/utils/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issueCommentPayload = `{
  "action": "created",
  "issue": {"number": 42, "title": "Login", "body": "Build a login page", "user": {"login": "alice", "type": "User"}},
  "comment": {"id": 9001, "body": "@eidosai wf", "user": {"login": "bob", "type": "User"}},
  "repository": {"full_name": "acme/web"},
  "sender": {"login": "bob", "type": "User"}
}`

const issuesPayload = `{
  "action": "opened",
  "issue": {"number": 7, "body": "@eidosai concept\nA pricing page"},
  "repository": {"full_name": "acme/web"},
  "sender": {"login": "alice", "type": "User"}
}`

func TestLoadEventIssueComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(issueCommentPayload), 0644))

	event, err := LoadEvent(path)
	require.NoError(t, err)
	assert.Equal(t, EventIssueComment, event.Name())
	assert.False(t, event.FromBot())

	ctx := event.IssueContext()
	assert.Equal(t, "Build a login page", ctx.IssueBody)
	assert.Equal(t, "@eidosai wf", ctx.CommentBody)
	assert.Equal(t, 42, ctx.IssueNumber)
	assert.Equal(t, "acme/web", ctx.Repository)
	assert.Equal(t, int64(9001), ctx.CommentID)
	assert.True(t, ctx.IsFromComment)
}

func TestParseEventIssues(t *testing.T) {
	event, err := ParseEvent([]byte(issuesPayload))
	require.NoError(t, err)
	assert.Equal(t, EventIssues, event.Name())

	ctx := event.IssueContext()
	assert.Equal(t, ctx.IssueBody, ctx.CommentBody, "issue body is the command source")
	assert.False(t, ctx.IsFromComment)
	assert.Zero(t, ctx.CommentID)
}

func TestParseEventErrors(t *testing.T) {
	_, err := ParseEvent([]byte("{"))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"action":"created"}`))
	assert.Error(t, err)

	_, err = LoadEvent("")
	assert.Error(t, err)
}

func TestFromBot(t *testing.T) {
	event, err := ParseEvent([]byte(issueCommentPayload))
	require.NoError(t, err)
	event.Comment.User = User{Login: "github-actions[bot]"}
	assert.True(t, event.FromBot())

	event.Comment.User = User{Login: "eidos-app", Type: "Bot"}
	assert.True(t, event.FromBot())

	issues, err := ParseEvent([]byte(issuesPayload))
	require.NoError(t, err)
	assert.False(t, issues.FromBot())
}

func TestTriggers(t *testing.T) {
	assert.True(t, Triggers(EventIssueComment, "created"))
	assert.True(t, Triggers(EventIssueComment, "edited"))
	assert.False(t, Triggers(EventIssueComment, "deleted"))
	assert.True(t, Triggers(EventIssues, "opened"))
	assert.False(t, Triggers(EventIssues, "closed"))
	assert.False(t, Triggers(EventPing, ""))
}

func noWait(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, MaxRetries), ctx)
}

func TestCreateAndUpdateComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghs_token", r.Header.Get("Authorization"))

		var req commentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/web/issues/42/comments":
			assert.Equal(t, "progress", req.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 555, "html_url": "https://github.com/acme/web/issues/42#issuecomment-555"}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/repos/acme/web/issues/comments/555":
			assert.Equal(t, "done", req.Body)
			w.Write([]byte(`{"id": 555}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "ghs_token")
	id, err := client.CreateComment(context.Background(), "acme/web", 42, "progress")
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)

	require.NoError(t, client.UpdateComment(context.Background(), "acme/web", 555, "done"))
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	client.backoff = noWait

	id, err := client.CreateComment(context.Background(), "acme/web", 1, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	client.backoff = noWait

	_, err := client.CreateComment(context.Background(), "acme/web", 1, "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(MaxRetries+1), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	client.backoff = noWait

	err := client.UpdateComment(context.Background(), "acme/web", 1, "x")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Not Found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComments(t *testing.T) {
	wf := &command.Command{Kind: command.KindWireframe}

	progress := ProgressComment(wf, 4)
	assert.True(t, IsOwnComment(progress))
	assert.Contains(t, progress, "Wireframe generation in progress")
	assert.Contains(t, progress, "Generating 4 images")
	assert.Contains(t, ProgressComment(wf, 1), "Generating 1 image.")

	result := ResultComment(wf, []string{"https://img/1.png", "https://img/2.png"}, []Failure{{Index: 3, Err: errors.New("quota\nexceeded")}})
	assert.True(t, IsOwnComment(result))
	assert.Contains(t, result, "![wireframe 1](https://img/1.png)")
	assert.Contains(t, result, "![wireframe 2](https://img/2.png)")
	assert.Less(t, strings.Index(result, "img/1.png"), strings.Index(result, "img/2.png"))
	assert.Contains(t, result, "- Image 3: quota exceeded")
	assert.NotContains(t, result, "@eidosai")

	custom := &command.Command{Kind: command.KindCustom, CustomInstruction: "a dark theme\nwith neon"}
	assert.Contains(t, ResultComment(custom, nil, nil), "> a dark theme\n> with neon")

	failure := FailureComment(&command.Command{Kind: command.KindModify}, errors.New("boom"))
	assert.Contains(t, failure, "Modify generation failed")
	assert.Contains(t, failure, "boom")

	assert.False(t, IsOwnComment("@eidosai wf"))
}
