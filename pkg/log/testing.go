package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// capture は TestLogger とその派生ロガーが共有する記録先
type capture struct {
	mu      sync.Mutex
	buf     *bytes.Buffer
	entries []map[string]interface{}
}

// TestLogger records every emitted entry as a JSON line and keeps the
// decoded entries for assertions. Loggers derived through With write to the
// same capture.
type TestLogger struct {
	level  Level
	fields map[string]interface{}
	out    *capture
}

// NewTestLogger returns a TestLogger capturing records at level and above,
// and the buffer holding the raw JSON lines.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	clf, _ := knn.New(3, "reference", knn.WithLogger(logger))
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{
		level:  level,
		fields: map[string]interface{}{},
		out:    &capture{buf: buf},
	}, buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With returns a logger sharing the capture with fields bound.
func (t *TestLogger) With(fields ...any) Logger {
	bound := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		bound[k] = v
	}
	putFields(bound, fields)
	return &TestLogger{level: t.level, fields: bound, out: t.out}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return level >= t.level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}

	entry := map[string]interface{}{"level": level.String(), "message": msg}
	for k, v := range t.fields {
		entry[k] = v
	}
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			entry[ErrAttrKey] = err.Error()
			fields = fields[1:]
		}
	}
	putFields(entry, fields)

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q,"marshal_error":%q}`, level.String(), msg, err.Error()))
	}
	// 数値などを JSON で読み戻した形に揃えて保持する
	var decoded map[string]interface{}
	_ = json.Unmarshal(line, &decoded)

	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	t.out.buf.Write(append(line, '\n'))
	t.out.entries = append(t.out.entries, decoded)
}

func putFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// GetBuffer returns the buffer holding the raw JSON lines.
func (t *TestLogger) GetBuffer() *bytes.Buffer {
	return t.out.buf
}

// GetLogEntries returns the captured entries in emission order. Numbers are
// float64, as after a JSON round trip.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	return append([]map[string]interface{}(nil), t.out.entries...), nil
}

// ContainsMessage reports whether any entry's message contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, _ := t.GetLogEntries()
	for _, e := range entries {
		if m, ok := e["message"].(string); ok && strings.Contains(m, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any entry has key set to value. Compare
// numbers as float64 (log.KKey, 3.0).
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, _ := t.GetLogEntries()
	for _, e := range entries {
		if v, ok := e[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	t.out.buf.Reset()
	t.out.entries = nil
}

// TestLoggerProvider hands out TestLoggers sharing one capture. Install it
// with SetLoggerProvider and restore the previous provider afterwards.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider returns a provider and the buffer its loggers write to.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger { return p.logger }

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel affects loggers obtained after the call.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}

// GetBuffer returns the buffer holding the raw JSON lines.
func (p *TestLoggerProvider) GetBuffer() *bytes.Buffer {
	return p.logger.out.buf
}
