// Package api provides the HTTP REST API for the intersection simulator.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                  - Create a session {config_id, seed, running, auto_spawn}
//   - GET    /api/sessions                  - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET    /api/sessions/{id}             - Session status and metrics
//   - DELETE /api/sessions/{id}             - Stop, archive and remove a session; returns its report
//
// Simulation:
//   - GET  /api/sessions/{id}/snapshot      - Current vehicles and core rectangle
//   - POST /api/sessions/{id}/spawn         - {behavior: "RU"} | {approach: "left"} | {} for random
//   - POST /api/sessions/{id}/step          - {ticks: N} advance a paused or running session
//   - POST /api/sessions/{id}/run           - {running: true|false}
//   - POST /api/sessions/{id}/auto-spawn    - {enabled: true|false}
//   - GET  /api/sessions/{id}/metrics       - Trip, speed and close call summary
//
// Reports:
//   - GET /api/reports                      - Archived session reports, newest first (?limit=N)
//   - GET /api/reports/{id}                 - One archived report
//
// Configuration:
//   - GET  /api/configs                     - List tuning presets
//   - GET  /api/configs/{name}              - Load a preset
//   - POST /api/configs                     - Save a preset (engine.Config as JSON)
//
// Streaming:
//   - GET /ws?session={id}                  - WebSocket frame stream, see transport/websocket
//   - GET /health
//
// Error Handling:
//
// Errors are returned as JSON with the status derived from the wrapped
// sentinel: 404 for unknown sessions, reports and presets, 400 for invalid
// arguments and configs, 409 for duplicate session ids, 503 when no report
// archive is configured, 500 otherwise.
//
//	{"error": "session zz99: session not found"}
package api
