package log

import (
	"bytes"
	"encoding/json"
	"strings"
)

// TestLogger captures JSON log lines in memory so tests can assert on them.
// It writes through ZerologLogger, so entries have the same shape as
// production output.
type TestLogger struct {
	*ZerologLogger
	buffer *bytes.Buffer
}

// NewTestLogger creates a TestLogger with the given minimum level and
// returns the buffer it writes to.
//
// Example:
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	d := dashboard.New(records, settings, logger)
//	...
//	assert.True(t, logger.ContainsMessage("Overview computed"))
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		ZerologLogger: NewZerologLogger(buffer, level, "json"),
		buffer:        buffer,
	}, buffer
}

// Entries decodes the captured lines. Loggers derived with With share the
// buffer, so their lines are included.
func (t *TestLogger) Entries() ([]map[string]any, error) {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(t.buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured line contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether any entry has key set to value. JSON numbers
// decode as float64.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.Entries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}
