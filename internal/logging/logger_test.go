package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input       string
		expected    LogLevel
		expectError bool
	}{
		{input: "debug", expected: LevelDebug},
		{input: "INFO", expected: LevelInfo},
		{input: "", expected: LevelInfo},
		{input: "warning", expected: LevelWarn},
		{input: "error", expected: LevelError},
		{input: "fatal", expected: LevelFatal},
		{input: "verbose", expected: LevelInfo, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestSiteLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Output: &buf})

	logger.Debug(context.Background(), "debug message")
	logger.Info(context.Background(), "info message")
	logger.Warn(context.Background(), errors.New("careful"), "warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "careful")
}

func TestSiteLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("build").
		With("output_dir", "build").
		Info(context.Background(), "page written", "page", "index.html", "dangling")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "page written", record["msg"])
	assert.Equal(t, "build", record["component"])
	assert.Equal(t, "build", record["output_dir"])
	assert.Equal(t, "index.html", record["page"])
	assert.NotContains(t, record, "dangling")
}

func TestWithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	_ = base.With("request", "abc")
	base.Info(context.Background(), "plain")

	assert.NotContains(t, buf.String(), "request=abc")
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiLogger(
		NewLogger(&LoggerConfig{Level: LevelInfo, Output: &a}),
		NewLogger(&LoggerConfig{Level: LevelInfo, Format: "json", Output: &b}),
	)

	multi.WithComponent("server").Error(context.Background(), errors.New("boom"), "listen failed")

	assert.Contains(t, a.String(), "listen failed")
	assert.Contains(t, a.String(), "component=server")
	assert.Contains(t, b.String(), `"component":"server"`)
}

func TestPerfLogger(t *testing.T) {
	mock := &mockLogger{}
	perf := StartOperation(mock, "build")

	duration := perf.End(context.Background(), "pages", 2)
	assert.GreaterOrEqual(t, duration.Nanoseconds(), int64(0))

	require.Len(t, mock.infos, 1)
	assert.Equal(t, "Operation completed", mock.infos[0].msg)
	fields := fieldsToMap(mock.infos[0].fields)
	assert.Contains(t, fields, "duration_ms")
	assert.Equal(t, 2, fields["pages"])
	assert.Equal(t, []interface{}{"operation", "build"}, mock.withFields)

	perf.EndWithError(context.Background(), errors.New("link check failed"))
	assert.Equal(t, 1, mock.errorCallCount)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error(context.Background(), errors.New("x"), "dropped")
	})
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain path",
			input:    "/docs/intro",
			expected: "/docs/intro",
		},
		{
			name:     "path with credential-like words",
			input:    "/docs/authentication",
			expected: "/docs/authentication",
		},
		{
			name:     "keyboard path",
			input:    "/blog/keyboard-shortcuts",
			expected: "/blog/keyboard-shortcuts",
		},
		{
			name:     "forged log line",
			input:    "/a\nINFO forged=1",
			expected: `/a\u000aINFO forged=1`,
		},
		{
			name:     "carriage return and escape",
			input:    "x\r\x1b[31m",
			expected: `x\u000d\u001b[31m`,
		},
		{
			name:     "unicode kept",
			input:    "/docs/café",
			expected: "/docs/café",
		},
		{
			name:     "long text truncation",
			input:    strings.Repeat("a", 1500),
			expected: strings.Repeat("a", 1000) + "...[TRUNCATED]",
		},
		{
			name:     "truncation keeps whole runes",
			input:    strings.Repeat("a", 999) + "é" + "b",
			expected: strings.Repeat("a", 999) + "...[TRUNCATED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForLog(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

type loggedCall struct {
	msg    string
	fields []interface{}
}

// Mock logger for testing
type mockLogger struct {
	errorCallCount int
	infos          []loggedCall
	withFields     []interface{}
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	m.infos = append(m.infos, loggedCall{msg: msg, fields: fields})
}
func (m *mockLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	m.errorCallCount++
}
func (m *mockLogger) Fatal(ctx context.Context, err error, msg string, fields ...interface{}) {}

func (m *mockLogger) With(
	fields ...interface{},
) Logger {
	m.withFields = append(m.withFields, fields...)
	return m
}

func (m *mockLogger) WithComponent(
	component string,
) Logger {
	return m
}

// Helper function to convert fields slice to map
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			if key, ok := fields[i].(string); ok {
				result[key] = fields[i+1]
			}
		}
	}
	return result
}
