package processor

import (
	"context"

	"github.com/eidosai/eidos/utils/command"
	"github.com/eidosai/eidos/utils/database"
	"github.com/eidosai/eidos/utils/github"
	"github.com/eidosai/eidos/utils/prompt"
)

// Commenter posts and edits issue comments
type Commenter interface {
	CreateComment(ctx context.Context, repo string, issue int, body string) (int64, error)
	UpdateComment(ctx context.Context, repo string, commentID int64, body string) error
}

// HistoryRecorder stores a record of every processed command
type HistoryRecorder interface {
	Record(ctx context.Context, g *database.Generation) error
}

// ReferenceCollector gathers the images a modify command works from
type ReferenceCollector interface {
	Collect(ctx context.Context, issue prompt.IssueContext) ([]prompt.ImageData, error)
}

// PerformanceMetrics tracks timing information for a run
type PerformanceMetrics struct {
	ReferenceTime  int64 // Time in milliseconds to collect reference images
	GenerationTime int64 // Time in milliseconds to generate and upload every image
	TotalTime      int64 // Total time in milliseconds
}

// Result is the outcome of processing one issue or comment
type Result struct {
	// Skipped is true when the text carried no command
	Skipped  bool
	Command  *command.Command
	Count    int
	Prompts  []string
	URLs     []string
	Failures []github.Failure
	// CommentID is the progress/result comment, zero when no commenter is configured
	CommentID int64
	Metrics   PerformanceMetrics
}

// Succeeded reports whether at least one image was produced
func (r *Result) Succeeded() bool {
	return len(r.URLs) > 0
}
