// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a plain *zap.Logger. Session and Component derive
// child loggers so every line from a view carries its session id.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	sessionLog := logger.Session(sessionID)
//	sessionLog.Warn("Dropped message", zap.String("channel", "unzip"))
package logging
