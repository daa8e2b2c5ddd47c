// Package main is the entry point for the web container bridge host.
//
// The host serves a web bundle to browser views and answers their bridge
// requests over WebSocket, or drives a single page in a headless view.
//
// Architecture:
//
//	Page (native.*) → /bridge → Dispatcher → capability plugins
//	                                      → sandbox files, sqlite, transfers, media
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve ./web with data under ./data
//	./server -port 8000 -root ./data -bundle ./web
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
//	# Headless view
//	./server -headless /index.html
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
