package processor

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a status line on a terminal while images are generated.
// It also implements ProgressWriter so it can sit between the processor and another writer.
type Spinner struct {
	out      io.Writer
	chars    []string
	index    int
	message  string
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	next     ProgressWriter
	interval time.Duration
}

// NewSpinner creates a spinner writing to out and forwarding updates to next (may be nil)
func NewSpinner(out io.Writer, next ProgressWriter) *Spinner {
	return &Spinner{
		out:      out,
		chars:    []string{"|", "/", "-", "\\"},
		next:     next,
		interval: 100 * time.Millisecond,
	}
}

// Start begins animating message
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s... %s", s.message, s.chars[s.index])
				s.index = (s.index + 1) % len(s.chars)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
	fmt.Fprint(s.out, "\r\033[K")
}

// WriteProgress updates the animated message and forwards the update.
// The forwarded write holds the spinner lock so it never interleaves with a frame.
func (s *Spinner) WriteProgress(update ProgressUpdate) error {
	switch update.Type {
	case ProgressStep:
		s.Start(update.Message)
	case ProgressError:
		if update.Index == 0 {
			s.Stop()
		}
	case ProgressComplete:
		s.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		fmt.Fprint(s.out, "\r\033[K")
	}
	if s.next != nil {
		return s.next.WriteProgress(update)
	}
	return nil
}
