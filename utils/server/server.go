// Package server receives GitHub webhooks and runs the processor for every command they carry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/eidosai/eidos/utils/command"
	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/processor"
	"github.com/eidosai/eidos/utils/prompt"
)

// JobTimeout bounds a single asynchronous generation run
const JobTimeout = 10 * time.Minute

// Processor is the part of processor.Processor the server drives
type Processor interface {
	Process(ctx context.Context, issue prompt.IssueContext) (*processor.Result, error)
	Prompts(issue prompt.IssueContext) (*command.Command, []string)
}

// Server represents the HTTP server
type Server struct {
	mux       *http.ServeMux
	config    *config.ServerConfig
	processor Processor

	// jobs run on baseCtx so they outlive the request that started them
	baseCtx context.Context
	cancel  context.CancelFunc
	jobs    sync.WaitGroup
}

// New creates a server around proc using the server section of envConfig
func New(envConfig *config.EnvConfig, proc Processor) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mux:       http.NewServeMux(),
		config:    envConfig.GetServerConfig(),
		processor: proc,
		baseCtx:   baseCtx,
		cancel:    cancel,
	}
	s.routes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up the server routes
func (s *Server) routes() {
	s.mux.HandleFunc("/health", logRequest(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}))

	s.mux.HandleFunc("/webhook", logRequest(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.handleWebhook(w, r)
	}))

	s.mux.HandleFunc("/prompts", logRequest(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if !checkAuth(s.config, w, r) {
			return
		}
		s.handlePrompts(w, r)
	}))

	// Images written by the directory uploader
	s.mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.config.DataDir))))
}

// enqueue runs fn in the background on the server context with a timeout
func (s *Server) enqueue(fn func(ctx context.Context)) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		ctx, cancel := context.WithTimeout(s.baseCtx, JobTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every background job has finished
func (s *Server) Wait() {
	s.jobs.Wait()
}

// Run serves on the configured port until ctx is cancelled, then drains in-flight jobs
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("Starting server on port %d...\n", s.config.Port)
	fmt.Printf("Data directory: %s\n", s.config.DataDir)
	if s.config.WebhookSecret == "" {
		config.ActionWarning("No webhook secret configured; deliveries are not verified")
	}
	if s.config.BearerToken != "" {
		fmt.Println("Authentication is enabled for /prompts. Bearer token required.")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("Shutting down, waiting for running jobs...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		s.cancel()
		<-done
	}
	s.cancel()
	return err
}
