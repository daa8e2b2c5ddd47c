// Package middleware provides the HTTP middleware of the bridge host.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for pages served elsewhere
//   - RateLimit: Per-IP token bucket rate limiting with idle cleanup
//   - GlobalRateLimit: One bucket shared by every client
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
