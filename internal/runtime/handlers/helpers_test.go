package handlers

import (
	"context"
	"sync"

	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
)

type increment struct {
	name   string
	value  string
	amount float64
}

type recordingWriter struct {
	mu    sync.Mutex
	calls []increment
	err   error
}

func (w *recordingWriter) Increment(_ context.Context, name, value string, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, increment{name: name, value: value, amount: amount})
	return w.err
}

func (w *recordingWriter) values() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.calls))
	for i, c := range w.calls {
		out[i] = c.value
	}
	return out
}

type logEntry struct {
	level  string
	msg    string
	err    error
	fields loggingpkg.LogFields
}

// recordingLogger shares its entries with every child created by With.
type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	base    loggingpkg.LogFields
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (r *recordingLogger) With(fields loggingpkg.LogFields) loggingpkg.ServiceLogger {
	merged := loggingpkg.LogFields{}
	for k, v := range r.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{mu: r.mu, entries: r.entries, base: merged}
}

func (r *recordingLogger) record(level, msg string, err error, fields loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	merged := loggingpkg.LogFields{}
	for k, v := range r.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	*r.entries = append(*r.entries, logEntry{level: level, msg: msg, err: err, fields: merged})
}

func (r *recordingLogger) Debug(msg string, fields loggingpkg.LogFields) {
	r.record("debug", msg, nil, fields)
}

func (r *recordingLogger) Info(msg string, fields loggingpkg.LogFields) {
	r.record("info", msg, nil, fields)
}

func (r *recordingLogger) Error(msg string, err error, fields loggingpkg.LogFields) {
	r.record("error", msg, err, fields)
}

func (r *recordingLogger) Trace(msg string, fields loggingpkg.LogFields) {
	r.record("trace", msg, nil, fields)
}

func (r *recordingLogger) byLevel(level string) []logEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []logEntry
	for _, e := range *r.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}
