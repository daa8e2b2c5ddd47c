// Package http serves web content and host status over gin.
//
// Endpoints:
//   - Pages: any path not matched below; HTML gets the systemInfo constant
//     and the bridge client injected at the top of <head>
//   - Bridge client: /native.js for pages hosted elsewhere
//   - Health: /health (dispatch counters, sessions, transfer breakers)
//   - Capabilities: /capabilities (registered channels in order)
//
// Example Usage:
//
//	handlers := http.NewHandlers(locator, info, channels, metrics, breakers, logger)
//	router.GET("/health", handlers.Health)
//	router.NoRoute(handlers.Page)
package http
