// Package bridge implements the host side of the web container bridge.
//
// A web page cannot touch the filesystem or device hardware, so it posts a
// capability request on a named channel. The host decodes the body into a
// typed request, routes it to the plugin registered for that channel, and
// sends results back as done/progress notifications keyed by the request's
// eventId.
//
// Components:
//   - Registry: insertion-ordered plugins keyed by Channel, unique per channel
//   - Dispatcher: eventId extraction, routing, typed decoding, panic recovery
//   - Reply: settle-once completion plus progress for a single request
//   - Loop: the single logical dispatch thread for a view session
//   - Emitter: host → web delivery (script evaluation or websocket frames)
//
// Ordering: for one eventId, zero or more progress notifications are sent,
// followed by exactly one completion. Nothing is delivered after settlement.
//
// Example Usage:
//
//	reg := bridge.NewRegistry(logger)
//	reg.Register(files.NewList(root))
//	d := bridge.NewDispatcher(reg, emitter, bridge.WithLoop(loop))
//	err := d.Dispatch(ctx, bridge.Inbound{Channel: "getFileList", Body: body})
package bridge
