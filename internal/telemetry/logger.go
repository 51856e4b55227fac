package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

const defaultRingSize = 100

// Event is one activity line kept for the in-app log pane.
type Event struct {
	TS   time.Time
	Line string
}

// Logger writes JSON lines to a file and keeps a bounded in-memory ring of
// activity events for the UI. A nil or file-less logger is safe to call.
type Logger struct {
	mu      sync.Mutex
	w       io.WriteCloser
	ring    []Event
	ringCap int
	onEvent func(Event)
}

func NewLogger(path string) (*Logger, error) {
	l := &Logger{ringCap: defaultRingSize}
	if path == "" {
		l.w = nopCloser{Writer: io.Discard}
		return l, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l.w = f
	return l, nil
}

// SetOnEvent registers a callback invoked for every activity event, outside
// the logger lock.
func (l *Logger) SetOnEvent(fn func(Event)) {
	l.mu.Lock()
	l.onEvent = fn
	l.mu.Unlock()
}

// Activity records a user-visible line: it lands in the ring, the file, and
// the callback.
func (l *Logger) Activity(line string) {
	if l == nil {
		return
	}
	ev := Event{TS: time.Now().UTC(), Line: line}
	l.mu.Lock()
	l.ring = append(l.ring, ev)
	if len(l.ring) > l.ringCap {
		l.ring = l.ring[len(l.ring)-l.ringCap:]
	}
	fn := l.onEvent
	l.mu.Unlock()
	l.log("info", line, nil)
	if fn != nil {
		fn(ev)
	}
}

// Recent returns the ring newest first.
func (l *Logger) Recent() []Event {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.ring))
	for i, ev := range l.ring {
		out[len(l.ring)-1-i] = ev
	}
	return out
}

// Clear empties the ring. The file keeps its history.
func (l *Logger) Clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ring = nil
	l.mu.Unlock()
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log("info", msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log("error", msg, fields)
}

func (l *Logger) log(level, msg string, fields map[string]any) {
	if l == nil || l.w == nil {
		return
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	b, _ := json.Marshal(entry)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
