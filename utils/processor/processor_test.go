package processor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eidosai/eidos/utils/command"
	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/database"
	"github.com/eidosai/eidos/utils/github"
	"github.com/eidosai/eidos/utils/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(provider *scriptedProvider, uploader *memoryUploader) *Processor {
	cfg := config.NewEnvConfig()
	cfg.Defaults.Model = "mock-1"
	cfg.Defaults.MaxParallel = 2
	return NewProcessor(cfg, provider, uploader, false)
}

func loginIssue(comment string) prompt.IssueContext {
	return prompt.IssueContext{
		IssueBody:     "Build a login page",
		CommentBody:   comment,
		IssueNumber:   42,
		Repository:    "acme/web",
		CommentID:     9001,
		IsFromComment: true,
	}
}

func TestProcessWithoutCommand(t *testing.T) {
	provider := &scriptedProvider{}
	commenter := &recordingCommenter{}
	p := newTestProcessor(provider, &memoryUploader{})
	p.SetCommenter(commenter)

	result, err := p.Process(context.Background(), loginIssue("Looks good to me"))
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, provider.prompts)
	assert.Empty(t, commenter.created)
}

func TestProcessWireframe(t *testing.T) {
	provider := &scriptedProvider{}
	commenter := &recordingCommenter{}
	history := &memoryHistory{}
	progress := &collectingWriter{}

	p := newTestProcessor(provider, &memoryUploader{})
	p.SetCommenter(commenter)
	p.SetHistory(history)
	p.SetProgressWriter(progress)

	result, err := p.Process(context.Background(), loginIssue("@eidosai wf"))
	require.NoError(t, err)
	require.False(t, result.Skipped)
	assert.Equal(t, command.KindWireframe, result.Command.Kind)
	assert.Equal(t, 4, result.Count)
	require.Len(t, result.Prompts, 4)
	assert.Contains(t, result.Prompts[0], "Build a login page\n\n@eidosai wf")

	// URLs follow prompt order regardless of completion order
	require.Len(t, result.URLs, 4)
	for i, url := range result.URLs {
		assert.Equal(t, "https://img.test/"+hashKey(result.Prompts[i]), url)
	}
	assert.Empty(t, result.Failures)

	require.Len(t, commenter.created, 1)
	assert.Contains(t, commenter.created[0].body, "Generating 4 images")
	require.Len(t, commenter.updated, 1)
	assert.Equal(t, commenter.created[0].id, commenter.updated[0].id)
	assert.Contains(t, commenter.updated[0].body, result.URLs[3])
	assert.Equal(t, commenter.created[0].id, result.CommentID)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, "acme/web", rec.Repository)
	assert.Equal(t, 42, rec.IssueNumber)
	assert.Equal(t, int64(9001), rec.CommentID)
	assert.Equal(t, "wf", rec.Kind)
	assert.Equal(t, "scripted", rec.Provider)
	assert.Equal(t, database.StatusSucceeded, rec.Status())

	assert.Equal(t, 4, progress.count(ProgressImage))
	assert.Equal(t, 1, progress.count(ProgressComplete))
}

func TestProcessRespectsParallelLimit(t *testing.T) {
	provider := &scriptedProvider{delay: 20 * time.Millisecond}
	p := newTestProcessor(provider, &memoryUploader{})

	result, err := p.Process(context.Background(), loginIssue("@eidosai concept --count 6"))
	require.NoError(t, err)
	assert.Len(t, result.URLs, 6)
	assert.LessOrEqual(t, provider.peak, int32(2))
}

func TestProcessSerializesProgressWrites(t *testing.T) {
	p := newTestProcessor(&scriptedProvider{}, &memoryUploader{})
	p.maxParallel = 8
	w := &overlapWriter{}
	p.SetProgressWriter(w)

	result, err := p.Process(context.Background(), loginIssue("@eidosai concept --count 8"))
	require.NoError(t, err)
	assert.Len(t, result.URLs, 8)
	assert.GreaterOrEqual(t, w.calls, int32(8))
	assert.Equal(t, int32(1), w.peak)
}

func TestProcessPartialFailure(t *testing.T) {
	provider := &scriptedProvider{failOn: []string{"Image 2 of 3"}}
	commenter := &recordingCommenter{}
	history := &memoryHistory{}
	p := newTestProcessor(provider, &memoryUploader{})
	p.SetCommenter(commenter)
	p.SetHistory(history)
	p.SetPromptConfig(&prompt.PromptConfig{ConceptTemplate: "Image {{imageNumber}} of {{totalCount}}: {{fullContext}}"})

	result, err := p.Process(context.Background(), loginIssue("@eidosai concept -c 3"))
	require.NoError(t, err)
	assert.Len(t, result.URLs, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)

	body := commenter.updated[0].body
	assert.Contains(t, body, "- Image 2: quota exceeded")
	assert.Equal(t, database.StatusPartial, history.records[0].Status())
}

func TestProcessAllFail(t *testing.T) {
	commenter := &recordingCommenter{}
	history := &memoryHistory{}
	p := newTestProcessor(&scriptedProvider{}, &memoryUploader{fail: true})
	p.SetCommenter(commenter)
	p.SetHistory(history)

	result, err := p.Process(context.Background(), loginIssue("@eidosai custom a dark theme"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllFailed))
	assert.Len(t, result.Failures, 2)
	assert.Empty(t, result.URLs)

	require.Len(t, commenter.updated, 1)
	assert.Contains(t, commenter.updated[0].body, "Custom generation failed")
	assert.Contains(t, commenter.updated[0].body, "bucket unavailable")
	assert.Equal(t, database.StatusFailed, history.records[0].Status())
	assert.NotEmpty(t, history.records[0].Error)
}

func TestProcessZeroCount(t *testing.T) {
	provider := &scriptedProvider{}
	commenter := &recordingCommenter{}
	p := newTestProcessor(provider, &memoryUploader{})
	p.SetCommenter(commenter)

	result, err := p.Process(context.Background(), loginIssue("@eidosai wf --count 0"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Empty(t, result.Prompts)
	assert.Empty(t, provider.prompts)
	assert.Empty(t, commenter.created)
}

func TestProcessModifyUsesReferences(t *testing.T) {
	provider := &scriptedProvider{}
	refs := &staticReferences{images: []prompt.ImageData{{MIMEType: "image/png", Data: []byte{1, 2, 3}}}}
	p := newTestProcessor(provider, &memoryUploader{})
	p.SetReferenceCollector(refs)

	result, err := p.Process(context.Background(), loginIssue("@eidosai modify make the button red"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count, "modify falls back to the configured default")
	assert.Equal(t, 1, refs.calls)
	require.Len(t, provider.refs, 1)
	assert.Equal(t, refs.images, provider.refs[0])
	assert.Contains(t, provider.prompts[0], "reference")

	// Other kinds never collect references
	_, err = p.Process(context.Background(), loginIssue("@eidosai concept"))
	require.NoError(t, err)
	assert.Equal(t, 1, refs.calls)
}

func TestProcessFallsBackToNewComment(t *testing.T) {
	commenter := &recordingCommenter{failCount: 1}
	p := newTestProcessor(&scriptedProvider{}, &memoryUploader{})
	p.SetCommenter(commenter)

	result, err := p.Process(context.Background(), loginIssue("@eidosai concept -c 1"))
	require.NoError(t, err)
	assert.Empty(t, commenter.updated)
	require.Len(t, commenter.created, 1)
	assert.True(t, github.IsOwnComment(commenter.created[0].body))
	assert.Contains(t, commenter.created[0].body, result.URLs[0])
	assert.Equal(t, commenter.created[0].id, result.CommentID)
}

func TestProcessCancelled(t *testing.T) {
	p := newTestProcessor(&scriptedProvider{delay: time.Second}, &memoryUploader{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, loginIssue("@eidosai wf"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProcessCustomMarker(t *testing.T) {
	cfg := config.NewEnvConfig()
	cfg.Defaults.Marker = "@pixels"
	p := NewProcessor(cfg, &scriptedProvider{}, &memoryUploader{}, false)

	cmd, prompts := p.Prompts(loginIssue("@pixels concept"))
	require.NotNil(t, cmd)
	assert.Len(t, prompts, 2)

	cmd, prompts = p.Prompts(loginIssue("@eidosai concept"))
	assert.Nil(t, cmd)
	assert.Nil(t, prompts)
}

func TestLineProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineProgressWriter(&buf)
	require.NoError(t, w.WriteProgress(ProgressUpdate{Type: ProgressStep, Message: "Generating"}))
	require.NoError(t, w.WriteProgress(ProgressUpdate{Type: ProgressImage, Index: 1, Total: 2, URL: "https://a"}))
	require.NoError(t, w.WriteProgress(ProgressUpdate{Type: ProgressError, Index: 2, Total: 2, Error: errors.New("boom")}))
	require.NoError(t, w.WriteProgress(ProgressUpdate{Type: ProgressComplete, Message: "Done", Metrics: &PerformanceMetrics{TotalTime: 12}}))

	assert.Equal(t, "Generating\n[1/2] https://a\n[2/2] failed: boom\nDone (12ms)\n", buf.String())
}

func TestSpinnerForwardsUpdates(t *testing.T) {
	var screen, lines bytes.Buffer
	s := NewSpinner(&screen, NewLineProgressWriter(&lines))
	s.interval = time.Millisecond

	require.NoError(t, s.WriteProgress(ProgressUpdate{Type: ProgressStep, Message: "Generating"}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.WriteProgress(ProgressUpdate{Type: ProgressComplete, Message: "Done"}))

	assert.Equal(t, "Generating\nDone\n", lines.String())
	assert.True(t, strings.Contains(screen.String(), "Generating... "))

	// Stopping twice is harmless
	s.Stop()
}

func TestChannelProgressWriter(t *testing.T) {
	ch := make(chan ProgressUpdate, 1)
	w := NewChannelProgressWriter(ch)
	require.NoError(t, w.WriteProgress(ProgressUpdate{Type: ProgressStep, Message: "x"}))
	assert.Equal(t, "x", (<-ch).Message)
}
