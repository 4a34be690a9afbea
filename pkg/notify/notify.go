// Package notify carries user-facing status messages out of the navigation
// core. A Sink is injected where messages originate; nothing in this module
// writes to a global handle.
package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives one human-readable message at a time.
type Sink interface {
	Notify(msg string) error
}

// Func adapts a plain function to a Sink.
type Func func(msg string) error

// Notify calls f(msg).
func (f Func) Notify(msg string) error { return f(msg) }

// Discard drops every message.
var Discard Sink = Func(func(string) error { return nil })

// LogSink forwards messages to a logger at info level.
type LogSink struct {
	Log logrus.FieldLogger
}

// Notify logs msg.
func (s LogSink) Notify(msg string) error {
	s.Log.WithField("component", "notify").Info(msg)
	return nil
}

// WriterSink writes each message as one line, for example to the UI's named
// pipe. Writes from concurrent goroutines do not interleave.
type WriterSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w)}
}

// Notify writes msg followed by a newline and flushes. Embedded newlines are
// replaced by spaces so one message stays one line.
func (s *WriterSink) Notify(msg string) error {
	line := strings.ReplaceAll(msg, "\n", " ")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("notify: write: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("notify: flush: %w", err)
	}
	return nil
}

// Multi fans a message out to every sink and returns the first error.
func Multi(sinks ...Sink) Sink {
	return Func(func(msg string) error {
		var first error
		for _, s := range sinks {
			if err := s.Notify(msg); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
