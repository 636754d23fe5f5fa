package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a status line on w while a ring operation is pending.
type Spinner struct {
	w       io.Writer
	message string
	frames  []string
	every   time.Duration

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a spinner. Nothing is drawn until Start.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"|", "/", "-", "\\"},
		every:   100 * time.Millisecond,
		done:    make(chan struct{}),
	}
}

// Start draws frames until the spinner is stopped.
func (s *Spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(s.every)
		defer t.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			select {
			case <-s.done:
				return
			case <-t.C:
			}
		}
	}()
}

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() {
	s.finish("\r\033[K")
}

// Success stops the spinner with a success line.
func (s *Spinner) Success(message string) {
	s.finish(fmt.Sprintf("\r\033[Kok: %s\n", message))
}

// Fail stops the spinner with a failure line.
func (s *Spinner) Fail(message string) {
	s.finish(fmt.Sprintf("\r\033[Kfailed: %s\n", message))
}

func (s *Spinner) finish(line string) {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		fmt.Fprint(s.w, line)
	})
}
