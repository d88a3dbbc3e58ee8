package server

import (
	"net/http"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// WebhookResponse answers a webhook delivery
type WebhookResponse struct {
	Accepted bool   `json:"accepted"`
	Command  string `json:"command,omitempty"`
	Count    int    `json:"count,omitempty"`
	Message  string `json:"message,omitempty"`
}

// PromptsRequest is the body of a prompt preview request
type PromptsRequest struct {
	IssueBody   string `json:"issue_body"`
	CommentBody string `json:"comment_body"`
}

// PromptsResponse lists the prompts a comment would produce
type PromptsResponse struct {
	Command           string   `json:"command,omitempty"`
	Count             int      `json:"count"`
	CustomInstruction string   `json:"custom_instruction,omitempty"`
	ExcludeIssueBody  bool     `json:"exclude_issue_body,omitempty"`
	Prompts           []string `json:"prompts"`
}

// ErrorResponse represents a generic error API response
type ErrorResponse struct {
	Success bool   `json:"success"` // Should always be false
	Error   string `json:"error"`
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	headersSent bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.headersSent {
		return
	}
	rw.statusCode = code
	rw.headersSent = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headersSent {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}
