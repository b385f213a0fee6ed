// Package service provides the business logic layer of the intersection
// simulator.
//
// SimulationService is the single entry point the transports use (REST,
// WebSocket, MCP). It resolves tuning presets through a ConfigManager,
// keeps simulations in a SessionManager and reads archived statistics from
// a report.Store.
//
// Architecture:
//
// The service layer sits between the transport layer and the per-session
// engine.World. Each session has its own world, metrics collector and
// runner, so sessions with different presets run side by side.
//
// Usage:
//
//	sessionMgr := session.NewManagerWithArchive(store)
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewSimulationService(sessionMgr, configMgr, store)
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{ConfigID: "rush_hour"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc.Spawn(ctx, info.ID, service.SpawnRequest{Approach: "left"})
//	svc.Step(ctx, info.ID, 600)
//	report, err := svc.DeleteSession(ctx, info.ID)
//
// Errors:
//
// Lookups wrap the sentinel errors of the lower layers
// (session.ErrSessionNotFound, report.ErrReportNotFound and the config
// package's ErrConfigNotFound), so callers can map them with errors.Is. Bad
// input is reported as ErrInvalidArgument.
package service
