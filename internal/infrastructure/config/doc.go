// Package config provides 12-factor configuration for the bridge host.
//
// Configuration is loaded from environment variables with defaults. CLI
// flags in cmd/server override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Sandbox: sandbox root, read-only web bundle, media library
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Transfer: download/upload timeout, retries and pacing
//   - Device: values of the injected systemInfo constant
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST (HOST defaults to 127.0.0.1; set 0.0.0.0 to serve other machines)
//   - SANDBOX_ROOT, BUNDLE_DIR, MEDIA_LIBRARY_DIR
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - TRANSFER_TIMEOUT, TRANSFER_RETRIES, TRANSFER_RPS
//   - SDK_VERSION, SCREEN_WIDTH, SCREEN_HEIGHT, THEME, DEVICE_PROFILE
package config
