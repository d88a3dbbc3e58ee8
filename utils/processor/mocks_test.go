package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eidosai/eidos/utils/database"
	"github.com/eidosai/eidos/utils/prompt"
)

// scriptedProvider implements models.Provider, failing for prompts containing any of failOn
type scriptedProvider struct {
	mu       sync.Mutex
	prompts  []string
	refs     [][]prompt.ImageData
	failOn   []string
	delay    time.Duration
	inFlight int32
	peak     int32
}

func (m *scriptedProvider) Name() string                  { return "scripted" }
func (m *scriptedProvider) SupportsModel(string) bool     { return true }
func (m *scriptedProvider) Configure(apiKey string) error { return nil }
func (m *scriptedProvider) SetVerbose(bool)               {}

func (m *scriptedProvider) GenerateImage(ctx context.Context, modelName, text string, refs []prompt.ImageData) (*prompt.ImageData, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&m.peak, peak, n) {
			break
		}
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, text)
	m.refs = append(m.refs, refs)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, f := range m.failOn {
		if strings.Contains(text, f) {
			return nil, errors.New("quota exceeded")
		}
	}
	return &prompt.ImageData{MIMEType: "image/png", Data: []byte(text)}, nil
}

// memoryUploader returns URLs derived from the image payload so results can be matched to prompts
type memoryUploader struct {
	fail bool
}

func (u *memoryUploader) Upload(ctx context.Context, image prompt.ImageData) (string, error) {
	if u.fail {
		return "", errors.New("bucket unavailable")
	}
	return "https://img.test/" + hashKey(string(image.Data)), nil
}

func hashKey(s string) string {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return fmt.Sprintf("%08x.png", h)
}

type postedComment struct {
	id   int64
	body string
}

// recordingCommenter keeps every comment body it receives
type recordingCommenter struct {
	mu        sync.Mutex
	created   []postedComment
	updated   []postedComment
	failCount int
}

func (c *recordingCommenter) CreateComment(ctx context.Context, repo string, issue int, body string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCount > 0 {
		c.failCount--
		return 0, errors.New("github down")
	}
	id := int64(100 + len(c.created))
	c.created = append(c.created, postedComment{id: id, body: body})
	return id, nil
}

func (c *recordingCommenter) UpdateComment(ctx context.Context, repo string, commentID int64, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updated = append(c.updated, postedComment{id: commentID, body: body})
	return nil
}

type memoryHistory struct {
	records []*database.Generation
}

func (h *memoryHistory) Record(ctx context.Context, g *database.Generation) error {
	h.records = append(h.records, g)
	return nil
}

type staticReferences struct {
	images []prompt.ImageData
	calls  int
}

func (r *staticReferences) Collect(ctx context.Context, issue prompt.IssueContext) ([]prompt.ImageData, error) {
	r.calls++
	return r.images, nil
}

// collectingWriter records progress updates
type collectingWriter struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (w *collectingWriter) WriteProgress(update ProgressUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, update)
	return nil
}

// overlapWriter records how many WriteProgress calls ran at the same time
type overlapWriter struct {
	inFlight int32
	peak     int32
	calls    int32
}

func (w *overlapWriter) WriteProgress(update ProgressUpdate) error {
	n := atomic.AddInt32(&w.inFlight, 1)
	defer atomic.AddInt32(&w.inFlight, -1)
	atomic.AddInt32(&w.calls, 1)
	for {
		peak := atomic.LoadInt32(&w.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&w.peak, peak, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (w *collectingWriter) count(t ProgressType) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, u := range w.updates {
		if u.Type == t {
			n++
		}
	}
	return n
}
