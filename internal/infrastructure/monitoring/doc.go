/*
Package monitoring provides Prometheus metrics for the bridge host.

# Overview

Metrics tracks HTTP requests, view sessions, WebSocket frames and the
lifecycle of every capability request: dispatch, progress, completion and
silent drops. It implements bridge.Observer, so a Dispatcher built with
bridge.WithObserver(metrics) reports without further wiring.

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	dispatcher := bridge.NewDispatcher(reg, emitter, bridge.WithObserver(metrics))

Each Metrics owns a private registry; nothing is registered globally.
*/
package monitoring
