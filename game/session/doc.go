// Package session runs independent intersection simulations side by side.
//
// Each Session owns one engine.World, the metrics.Collector it reports to,
// and an optional runner goroutine. The runner ticks the world once per
// Config.FrameInterval and, when auto-spawn is on, adds a random vehicle
// once per Config.SpawnInterval. Every access to the world goes through the
// session mutex, so REST calls, MCP tools and the runner can share it.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs unless the caller picks one. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManagerWithArchive(store)
//	manager.SetFrameHandler(hub.BroadcastFrame)
//
//	sess, err := manager.Create("", "classic", cfg, session.Options{Running: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess.SetAutoSpawn(true)
//
//	// later
//	report, err := manager.Delete(sess.ID)
//
// Cleanup:
//
// Deleting a session, letting it expire through CleanupExpiredSessions, or
// calling Shutdown stops its runner and archives its final statistics to the
// report store, if one is configured.
package session
