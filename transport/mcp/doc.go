// Package mcp exposes the simulator to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API of a running server, and the JSON response is rendered as plain
// text for the agent. No simulation state lives in this package.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - snapshot, spawn_vehicle, step
//   - set_running, set_auto_spawn, metrics
//   - list_configs, list_reports
//   - simulation_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
