package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/fileutil"
	"github.com/eidosai/eidos/utils/github"
	"github.com/eidosai/eidos/utils/prompt"
)

// maxWebhookBody caps a delivery; GitHub payloads stay well below this
const maxWebhookBody = 5 * 1024 * 1024

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := fileutil.ReadLimited(r.Body, maxWebhookBody)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	if !VerifySignature(s.config.WebhookSecret, body, r.Header.Get(SignatureHeader)) {
		config.VerboseLog("Rejected webhook delivery %s: bad signature", r.Header.Get("X-GitHub-Delivery"))
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	name := r.Header.Get("X-GitHub-Event")
	if name == github.EventPing {
		writeJSON(w, http.StatusOK, WebhookResponse{Accepted: false, Message: "pong"})
		return
	}

	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if !github.Triggers(name, envelope.Action) {
		writeJSON(w, http.StatusOK, WebhookResponse{Message: "ignored event " + name + "/" + envelope.Action})
		return
	}

	event, err := github.ParseEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if event.FromBot() {
		writeJSON(w, http.StatusOK, WebhookResponse{Message: "ignored bot event"})
		return
	}

	issue := event.IssueContext()
	if github.IsOwnComment(issue.CommentBody) {
		writeJSON(w, http.StatusOK, WebhookResponse{Message: "ignored own comment"})
		return
	}

	cmd, prompts := s.processor.Prompts(issue)
	if cmd == nil {
		writeJSON(w, http.StatusOK, WebhookResponse{Message: "no command"})
		return
	}

	config.VerboseLog("Accepted %s command on %s#%d: %s", cmd.Kind, issue.Repository, issue.IssueNumber,
		truncateString(cmd.RawText, 80))

	s.enqueue(func(ctx context.Context) {
		s.run(ctx, issue)
	})

	writeJSON(w, http.StatusAccepted, WebhookResponse{
		Accepted: true,
		Command:  cmd.Kind.String(),
		Count:    len(prompts),
	})
}

func (s *Server) run(ctx context.Context, issue prompt.IssueContext) {
	result, err := s.processor.Process(ctx, issue)
	if err != nil {
		logger.Printf("Generation for %s#%d failed: %v", issue.Repository, issue.IssueNumber, err)
		return
	}
	if result.Skipped {
		return
	}
	logger.Printf("Generation for %s#%d finished: %d of %d image(s) in %dms",
		issue.Repository, issue.IssueNumber, len(result.URLs), result.Count, result.Metrics.TotalTime)
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	var req PromptsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	cmd, prompts := s.processor.Prompts(prompt.IssueContext{IssueBody: req.IssueBody, CommentBody: req.CommentBody})
	if cmd == nil {
		writeJSON(w, http.StatusOK, PromptsResponse{Prompts: []string{}})
		return
	}
	if prompts == nil {
		prompts = []string{}
	}
	writeJSON(w, http.StatusOK, PromptsResponse{
		Command:           cmd.Kind.String(),
		Count:             len(prompts),
		CustomInstruction: cmd.CustomInstruction,
		ExcludeIssueBody:  cmd.ExcludeIssueBody,
		Prompts:           prompts,
	})
}
