// Package websocket streams simulation frames to renderers and dashboards.
//
// Architecture:
//
// A central Hub owns every connection. Registration, removal and fan-out
// all happen on the Hub.Run goroutine; each client has its own read and
// write pumps. Clients are read-only subscribers of one session, chosen
// with the session query parameter when connecting (/ws?session=ab12).
//
// Message Protocol:
//
// Every outgoing message is one JSON text frame:
//
//	{"session_id": "ab12", "event": "frame", "snapshot": {...}}
//	{"session_id": "ab12", "event": "session_closed", "data": {...}}
//
// A frame carries the engine.Snapshot taken right after a tick. Frames are
// best effort: when the hub or a client falls behind, messages are dropped
// rather than slowing the simulation down, and a client whose buffer fills
// up is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	sessions.SetFrameHandler(hub.BroadcastFrame)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
