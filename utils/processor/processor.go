package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eidosai/eidos/utils/command"
	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/database"
	"github.com/eidosai/eidos/utils/github"
	"github.com/eidosai/eidos/utils/models"
	"github.com/eidosai/eidos/utils/prompt"
	"github.com/eidosai/eidos/utils/storage"
	"golang.org/x/sync/errgroup"
)

// ErrAllFailed is returned when not a single image could be produced
var ErrAllFailed = errors.New("all image generations failed")

// Processor turns a command found in issue text into posted images
type Processor struct {
	provider    models.Provider
	model       string
	uploader    storage.Uploader
	parser      *command.Parser
	builder     *prompt.Builder
	commenter   Commenter
	history     HistoryRecorder
	references  ReferenceCollector
	progress    ProgressWriter
	progressMu  sync.Mutex
	modifyCount int
	maxParallel int
	verbose     bool
}

// NewProcessor creates a processor from the run-wide defaults in envConfig
func NewProcessor(envConfig *config.EnvConfig, provider models.Provider, uploader storage.Uploader, verbose bool) *Processor {
	p := &Processor{
		provider:    provider,
		model:       envConfig.Defaults.Model,
		uploader:    uploader,
		parser:      command.NewParser(envConfig.Defaults.Marker),
		builder:     prompt.NewBuilder(&envConfig.Prompts),
		modifyCount: envConfig.Defaults.ModifyCount,
		maxParallel: envConfig.Defaults.MaxParallel,
		verbose:     verbose,
	}
	if p.modifyCount <= 0 {
		p.modifyCount = config.DefaultModifyCount
	}
	if p.maxParallel <= 0 {
		p.maxParallel = config.DefaultMaxParallel
	}
	p.debugf("Created processor for %s/%s (max %d in parallel)", provider.Name(), p.model, p.maxParallel)
	return p
}

// SetPromptConfig replaces the prompt overrides
func (p *Processor) SetPromptConfig(cfg *prompt.PromptConfig) {
	p.builder = prompt.NewBuilder(cfg)
}

// SetCommenter enables the progress and result comments
func (p *Processor) SetCommenter(c Commenter) {
	p.commenter = c
}

// SetHistory enables recording of every processed command
func (p *Processor) SetHistory(h HistoryRecorder) {
	p.history = h
}

// SetReferenceCollector enables fetching reference images for modify commands
func (p *Processor) SetReferenceCollector(r ReferenceCollector) {
	p.references = r
}

// SetProgressWriter sets the progress writer for streaming updates
func (p *Processor) SetProgressWriter(w ProgressWriter) {
	p.progress = w
}

// Parser returns the command parser the processor uses
func (p *Processor) Parser() *command.Parser {
	return p.parser
}

// Builder returns the prompt builder the processor uses
func (p *Processor) Builder() *prompt.Builder {
	return p.builder
}

func (p *Processor) debugf(format string, args ...interface{}) {
	if p.verbose {
		fmt.Printf("[DEBUG][Processor] "+format+"\n", args...)
	}
}

// emit is called from the generation goroutines; writers see one update at a time
func (p *Processor) emit(update ProgressUpdate) {
	if p.progress == nil {
		return
	}
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	if err := p.progress.WriteProgress(update); err != nil {
		p.debugf("Error writing progress update: %v", err)
	}
}

// ResolveCount returns how many images cmd produces, applying the modify default
func (p *Processor) ResolveCount(cmd *command.Command) int {
	if n, ok := p.builder.CountFor(*cmd); ok {
		return n
	}
	return p.modifyCount
}

// Prompts builds every prompt for the text without generating anything.
// It returns nil when the comment body carries no command.
func (p *Processor) Prompts(issue prompt.IssueContext) (*command.Command, []string) {
	cmd := p.parser.Parse(issue.CommentBody)
	if cmd == nil {
		return nil, nil
	}
	return cmd, p.builder.BuildAll(issue, *cmd, p.ResolveCount(cmd))
}

// Process parses the command in issue.CommentBody and, when there is one, generates,
// uploads and posts the requested images. Individual image failures are collected in the
// result; an error is returned only when nothing could be produced.
func (p *Processor) Process(ctx context.Context, issue prompt.IssueContext) (*Result, error) {
	start := time.Now()

	cmd := p.parser.Parse(issue.CommentBody)
	if cmd == nil {
		config.VerboseLog("No %s command found. Skipping.", p.parser.Marker())
		return &Result{Skipped: true}, nil
	}
	config.VerboseLog("Command detected: %s %s", p.parser.Marker(), cmd.Kind)

	result := &Result{Command: cmd, Count: p.ResolveCount(cmd)}
	if result.Count == 0 {
		config.VerboseLog("Command asks for zero images. Nothing to do.")
		return result, nil
	}

	if cmd.Kind == command.KindModify && p.references != nil {
		refStart := time.Now()
		refs, err := p.references.Collect(ctx, issue)
		if err != nil {
			return result, err
		}
		issue.ReferenceImages = refs
		result.Metrics.ReferenceTime = time.Since(refStart).Milliseconds()
		if len(refs) == 0 {
			config.ActionWarning("No reference images found for modify; generating from the text alone")
		}
	}

	result.CommentID = p.postProgress(ctx, issue, cmd, result.Count)
	p.emit(ProgressUpdate{Type: ProgressStep, Total: result.Count,
		Message: fmt.Sprintf("Generating %d %s image(s) with %s", result.Count, cmd.Kind.DisplayName(), p.model)})

	result.Prompts = p.builder.BuildAll(issue, *cmd, result.Count)

	genStart := time.Now()
	result.URLs, result.Failures = p.generateAll(ctx, result.Prompts, issue.ReferenceImages)
	result.Metrics.GenerationTime = time.Since(genStart).Milliseconds()
	result.Metrics.TotalTime = time.Since(start).Milliseconds()

	var runErr error
	if !result.Succeeded() {
		runErr = fmt.Errorf("%w: %v", ErrAllFailed, result.Failures[0].Err)
		if ctx.Err() != nil {
			runErr = ctx.Err()
		}
	}

	p.postResult(ctx, issue, result, runErr)
	p.record(ctx, issue, result, runErr)

	if runErr != nil {
		p.emit(ProgressUpdate{Type: ProgressError, Error: runErr, Total: result.Count})
		return result, runErr
	}
	p.emit(ProgressUpdate{Type: ProgressComplete, Total: result.Count, Metrics: &result.Metrics,
		Message: fmt.Sprintf("Generated %d of %d image(s)", len(result.URLs), result.Count)})
	return result, nil
}

type imageOutcome struct {
	url string
	err error
}

// generateAll runs every prompt with at most maxParallel in flight and returns the URLs in prompt order
func (p *Processor) generateAll(ctx context.Context, prompts []string, refs []prompt.ImageData) ([]string, []github.Failure) {
	outcomes := make([]imageOutcome, len(prompts))

	g := new(errgroup.Group)
	g.SetLimit(p.maxParallel)
	for i, text := range prompts {
		i, text := i, text
		g.Go(func() error {
			url, err := p.generateOne(ctx, i+1, len(prompts), text, refs)
			outcomes[i] = imageOutcome{url: url, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var urls []string
	var failures []github.Failure
	for i, o := range outcomes {
		if o.err != nil {
			failures = append(failures, github.Failure{Index: i + 1, Err: o.err})
			continue
		}
		urls = append(urls, o.url)
	}
	return urls, failures
}

func (p *Processor) generateOne(ctx context.Context, index, total int, text string, refs []prompt.ImageData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.debugf("Generating image %d/%d (%d character prompt)", index, total, len(text))

	img, err := p.provider.GenerateImage(ctx, p.model, text, refs)
	if err != nil {
		config.ActionWarning("Failed to generate image %d of %d: %v", index, total, err)
		p.emit(ProgressUpdate{Type: ProgressError, Index: index, Total: total, Error: err})
		return "", err
	}

	url, err := p.uploader.Upload(ctx, *img)
	if err != nil {
		err = fmt.Errorf("upload failed: %w", err)
		config.ActionWarning("Failed to upload image %d of %d: %v", index, total, err)
		p.emit(ProgressUpdate{Type: ProgressError, Index: index, Total: total, Error: err})
		return "", err
	}

	p.emit(ProgressUpdate{Type: ProgressImage, Index: index, Total: total, URL: url})
	return url, nil
}

func (p *Processor) postProgress(ctx context.Context, issue prompt.IssueContext, cmd *command.Command, total int) int64 {
	if p.commenter == nil || issue.Repository == "" || issue.IssueNumber == 0 {
		return 0
	}
	id, err := p.commenter.CreateComment(ctx, issue.Repository, issue.IssueNumber, github.ProgressComment(cmd, total))
	if err != nil {
		config.ActionWarning("Could not post progress comment: %v", err)
		return 0
	}
	return id
}

// postResult edits the progress comment, or posts a new comment when there was none
func (p *Processor) postResult(ctx context.Context, issue prompt.IssueContext, result *Result, runErr error) {
	if p.commenter == nil || issue.Repository == "" || issue.IssueNumber == 0 {
		return
	}

	body := github.ResultComment(result.Command, result.URLs, result.Failures)
	if runErr != nil {
		body = github.FailureComment(result.Command, runErr)
	}

	// Comment updates must survive a cancelled run
	ctx = context.WithoutCancel(ctx)
	if result.CommentID != 0 {
		err := p.commenter.UpdateComment(ctx, issue.Repository, result.CommentID, body)
		if err == nil {
			return
		}
		config.ActionWarning("Could not update progress comment: %v", err)
	}
	id, err := p.commenter.CreateComment(ctx, issue.Repository, issue.IssueNumber, body)
	if err != nil {
		config.ActionError("Could not post result comment: %v", err)
		return
	}
	result.CommentID = id
}

func (p *Processor) record(ctx context.Context, issue prompt.IssueContext, result *Result, runErr error) {
	if p.history == nil {
		return
	}
	g := &database.Generation{
		Repository:  issue.Repository,
		IssueNumber: issue.IssueNumber,
		CommentID:   issue.CommentID,
		Kind:        result.Command.Kind.String(),
		Count:       result.Count,
		Provider:    p.provider.Name(),
		Model:       p.model,
		URLs:        result.URLs,
		Failures:    len(result.Failures),
		DurationMS:  result.Metrics.TotalTime,
	}
	if runErr != nil {
		g.Error = runErr.Error()
	}
	if err := p.history.Record(context.WithoutCancel(ctx), g); err != nil {
		config.ActionWarning("Could not record generation history: %v", err)
	}
}
