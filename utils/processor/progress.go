package processor

import (
	"fmt"
	"io"
)

// ProgressType represents different types of progress updates
type ProgressType int

const (
	ProgressStep ProgressType = iota
	ProgressImage
	ProgressComplete
	ProgressError
)

// ProgressUpdate represents a progress update from the processor
type ProgressUpdate struct {
	Type    ProgressType
	Message string
	Error   error
	Index   int    // 1-based image index for ProgressImage and per-image ProgressError
	Total   int    // Number of images requested
	URL     string // Uploaded image URL for ProgressImage
	Metrics *PerformanceMetrics
}

// ProgressWriter is an interface for handling progress updates
type ProgressWriter interface {
	WriteProgress(update ProgressUpdate) error
}

// channelProgressWriter implements ProgressWriter by sending updates to a channel
type channelProgressWriter struct {
	ch chan<- ProgressUpdate
}

// NewChannelProgressWriter forwards updates to ch; the caller must keep draining it
func NewChannelProgressWriter(ch chan<- ProgressUpdate) ProgressWriter {
	return &channelProgressWriter{ch: ch}
}

func (w *channelProgressWriter) WriteProgress(update ProgressUpdate) error {
	w.ch <- update
	return nil
}

// lineProgressWriter prints one line per update
type lineProgressWriter struct {
	out io.Writer
}

// NewLineProgressWriter prints human readable progress lines to out
func NewLineProgressWriter(out io.Writer) ProgressWriter {
	return &lineProgressWriter{out: out}
}

func (w *lineProgressWriter) WriteProgress(update ProgressUpdate) error {
	var err error
	switch update.Type {
	case ProgressImage:
		_, err = fmt.Fprintf(w.out, "[%d/%d] %s\n", update.Index, update.Total, update.URL)
	case ProgressError:
		if update.Index > 0 {
			_, err = fmt.Fprintf(w.out, "[%d/%d] failed: %v\n", update.Index, update.Total, update.Error)
		} else {
			_, err = fmt.Fprintf(w.out, "Error: %v\n", update.Error)
		}
	case ProgressComplete:
		if update.Metrics != nil {
			_, err = fmt.Fprintf(w.out, "%s (%dms)\n", update.Message, update.Metrics.TotalTime)
		} else {
			_, err = fmt.Fprintln(w.out, update.Message)
		}
	default:
		_, err = fmt.Fprintln(w.out, update.Message)
	}
	return err
}
