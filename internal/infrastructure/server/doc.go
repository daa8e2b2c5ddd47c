// Package server assembles the bridge host.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Prepare the sandbox root and the device system info
//  4. Build the capability host (media, transfer, database per session)
//  5. Setup HTTP routes and middleware
//  6. Serve browser views on /bridge, or drive a headless view
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	srv, err := server.NewServer(config.LoadOrDefault())
//	go srv.Run()
//	defer srv.Close()
package server
