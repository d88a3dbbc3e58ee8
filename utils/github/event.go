// Package github reads Actions event payloads and talks to the issue comments REST API.
package github

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eidosai/eidos/utils/fileutil"
	"github.com/eidosai/eidos/utils/prompt"
)

// Event names as delivered in GITHUB_EVENT_NAME and X-GitHub-Event
const (
	EventIssues       = "issues"
	EventIssueComment = "issue_comment"
	EventPing         = "ping"
)

// User is the actor of an issue or comment
type User struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Issue is the subset of an issue payload eidos reads
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	User   User   `json:"user"`
}

// Comment is the subset of a comment payload eidos reads
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

// Repository identifies the repository an event belongs to
type Repository struct {
	FullName string `json:"full_name"`
}

// Event is an issues or issue_comment payload
type Event struct {
	Action     string      `json:"action"`
	Issue      *Issue      `json:"issue"`
	Comment    *Comment    `json:"comment"`
	Repository *Repository `json:"repository"`
	Sender     *User       `json:"sender"`
}

// ParseEvent decodes a webhook or Actions event payload
func ParseEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("error parsing event payload: %w", err)
	}
	if event.Issue == nil {
		return nil, fmt.Errorf("event payload has no issue")
	}
	return &event, nil
}

// LoadEvent reads the payload file the Actions runner points GITHUB_EVENT_PATH at
func LoadEvent(path string) (*Event, error) {
	if path == "" {
		return nil, fmt.Errorf("no event payload path (GITHUB_EVENT_PATH is not set)")
	}
	data, err := fileutil.SafeReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseEvent(data)
}

// Name infers the event name from the payload shape
func (e *Event) Name() string {
	if e.Comment != nil {
		return EventIssueComment
	}
	return EventIssues
}

// FromBot reports whether the triggering actor is a bot, including eidos itself
func (e *Event) FromBot() bool {
	actor := e.Sender
	if e.Comment != nil {
		actor = &e.Comment.User
	}
	if actor == nil {
		return false
	}
	return actor.Type == "Bot" || strings.HasSuffix(actor.Login, "[bot]")
}

// Triggers reports whether an event of the given name and action can carry a command
func Triggers(name, action string) bool {
	switch name {
	case EventIssueComment:
		return action == "created" || action == "edited"
	case EventIssues:
		return action == "opened"
	}
	return false
}

// IssueContext converts the payload to the text the command parser and prompt builder read.
// For issues events the issue body is also the command source.
func (e *Event) IssueContext() prompt.IssueContext {
	ctx := prompt.IssueContext{}
	if e.Issue != nil {
		ctx.IssueBody = e.Issue.Body
		ctx.IssueNumber = e.Issue.Number
	}
	if e.Repository != nil {
		ctx.Repository = e.Repository.FullName
	}
	if e.Comment != nil {
		ctx.CommentBody = e.Comment.Body
		ctx.CommentID = e.Comment.ID
		ctx.IsFromComment = true
	} else {
		ctx.CommentBody = ctx.IssueBody
	}
	return ctx
}
