// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance for CLI runs (console encoding, ISO8601
// timestamps) and for the HTTP surface (json encoding). Logs are written to stderr so
// that the extraction report printed on stdout stays machine readable.
//
// # Context Awareness
//
// WithRequestID extracts the request id stored by the requestid middleware from a Fiber
// context and attaches it to the log entry.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Scan finished", zap.Int("records", n))
package logger
