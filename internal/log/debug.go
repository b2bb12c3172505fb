// Package log provides the debug logger shared by all gitoverlay packages.
// Messages are buffered in memory until SetFile decides whether they go to a
// file or get discarded, so early startup logging is never lost.
package log

import (
	"log"
	"os"
	"sync"
)

type debugSink struct {
	mu      sync.Mutex
	file    *os.File
	pending []byte
	discard bool
}

var (
	sink      = &debugSink{}
	stdLogger = log.New(sink, "", log.LstdFlags|log.Lmicroseconds)
)

// Write implements io.Writer for the standard logger. Output goes to the
// configured file, or into the pending buffer while no file is set.
func (s *debugSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discard {
		return len(p), nil
	}
	if s.file != nil {
		n, err := s.file.Write(p)
		_ = s.file.Sync()
		return n, err
	}
	s.pending = append(s.pending, p...)
	return len(p), nil
}

// SetFile directs debug output to the given path, flushing anything buffered
// so far. An empty path discards buffered and future messages.
func SetFile(path string) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.file != nil {
		_ = sink.file.Close()
		sink.file = nil
	}

	if path == "" {
		sink.discard = true
		sink.pending = nil
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		sink.discard = true
		sink.pending = nil
		return err
	}

	sink.file = f
	sink.discard = false
	if len(sink.pending) > 0 {
		_, _ = f.Write(sink.pending)
		_ = f.Sync()
		sink.pending = nil
	}
	return nil
}

// Printf writes a formatted debug message.
func Printf(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Println writes a debug message.
func Println(v ...any) {
	stdLogger.Println(v...)
}

// Close closes the debug log file if one is open.
func Close() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.file == nil {
		return nil
	}
	err := sink.file.Close()
	sink.file = nil
	return err
}
