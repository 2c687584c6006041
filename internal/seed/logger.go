package seed

import "encoding/json"

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const (
	maxLoggedPayload = 50
	ellipsis         = "..."
)

// summarize renders v as JSON cut to maxLoggedPayload characters.
func summarize(v interface{}) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(encoded)
	if limit := maxLoggedPayload - len(ellipsis); len(s) > limit {
		s = s[:limit] + ellipsis
	}
	return s
}
