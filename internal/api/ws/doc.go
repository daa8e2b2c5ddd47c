// Package ws serves browser web views over WebSocket.
//
// Each connection on /bridge is one view session with its own dispatch loop,
// plugin registry and database slot. The page posts requests and the host
// answers with completion and progress frames.
//
// Message Types (Client → Server):
//   - post: {"type":"post","channel":<name>,"body":{...,"eventId"}}
//
// Message Types (Server → Client):
//   - ready: session id, registered channels and systemInfo
//   - progress: {"eventId","progress"}
//   - done: {"eventId","isSuccess","data"}
//   - navigate: {"url"} after a successful reLaunch
//
// Example Usage:
//
//	handler := ws.NewHandler(host, info, metrics, logger)
//	router.GET("/bridge", handler.HandleConnection)
package ws
