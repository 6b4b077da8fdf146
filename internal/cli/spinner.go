package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner animates a status line on stderr while a blocking step runs.
// Frames and speed come from the bubbles MiniDot spinner so the CLI and
// the browse TUI look alike.
type Spinner struct {
	out   io.Writer
	style spinner.Spinner
	ctx   context.Context
	stop  context.CancelFunc
	done  chan struct{}
	once  sync.Once

	mu    sync.Mutex
	msg   string
	drawn int
}

func newSpinner(ctx context.Context, msg string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, msg)
}

func newSpinnerTo(ctx context.Context, out io.Writer, msg string) *Spinner {
	ctx, stop := context.WithCancel(ctx)
	return &Spinner{
		out:   out,
		style: spinner.MiniDot,
		ctx:   ctx,
		stop:  stop,
		done:  make(chan struct{}),
		msg:   msg,
	}
}

// Start animates until Stop is called or the parent context ends.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		tick := time.NewTicker(s.style.FPS)
		defer tick.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.erase()
				return
			case <-tick.C:
				s.draw(s.style.Frames[frame%len(s.style.Frames)])
			}
		}
	}()
}

// Update changes the status message.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Step runs fn with msg as the status. If fn fails, the spinner stops and
// prints failed; the error is returned unchanged.
func (s *Spinner) Step(msg, failed string, fn func() error) error {
	s.Update(msg)
	if err := fn(); err != nil {
		s.StopWithError(failed)
		return err
	}
	return nil
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := StyleDim.Render(s.msg)
	s.drawn = max(s.drawn, len(frame)+1+len(s.msg))
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), line)
}

func (s *Spinner) erase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.drawn))
	}
}

// Stop ends the animation and clears the line. Later calls do nothing.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.stop()
		<-s.done
	})
}

// StopWithError stops the spinner and prints msg as an error.
func (s *Spinner) StopWithError(msg string) {
	s.Stop()
	printError("%s", msg)
}

// Cancelled reports whether the spinner has stopped, through Stop or its
// parent context.
func (s *Spinner) Cancelled() bool { return s.ctx.Err() != nil }
