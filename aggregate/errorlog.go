package aggregate

import (
	"fmt"
	"os"
	"sync"
)

// ErrorLog is the append-only failure log shared by batch workers.  Each
// entry is formatted into one complete line and written under a mutex, so
// concurrent appends never interleave.  The file is opened lazily on the
// first entry; a fully successful batch leaves no log file behind.  It is
// passed into workers as an explicit capability rather than reached through
// global state.
type ErrorLog struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewErrorLog returns a log that will append to path once the first entry
// arrives.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Failedf appends one formatted line.  Open and write errors are swallowed:
// the log is diagnostic and must not fail the batch.
func (l *ErrorLog) Failedf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...) + "\n"
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		l.f = f
	}
	_, _ = l.f.WriteString(line)
}

func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
