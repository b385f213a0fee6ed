package service

import (
	"context"
	"errors"

	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/metrics"
	"github.com/wricardo/smartroad/game/report"
	"github.com/wricardo/smartroad/game/session"
)

// MaxStepTicks bounds a single manual step request.
const MaxStepTicks = 10000

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrReportsDisabled = errors.New("report archive is not configured")
)

// SimulationService defines all simulation operations
type SimulationService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) (*report.Report, error)

	// Simulation Operations
	Snapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Spawn(ctx context.Context, sessionID string, req SpawnRequest) (*SpawnResult, error)
	Step(ctx context.Context, sessionID string, ticks int) (*StepResult, error)
	SetRunning(ctx context.Context, sessionID string, running bool) (*SessionInfo, error)
	SetAutoSpawn(ctx context.Context, sessionID string, enabled bool) (*SessionInfo, error)
	Metrics(ctx context.Context, sessionID string) (*metrics.Report, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.Config, error)
	SaveConfig(ctx context.Context, configName string, config *engine.Config) error

	// Archived reports
	ListReports(ctx context.Context) ([]*report.Report, error)
	GetReport(ctx context.Context, reportID string) (*report.Report, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.Config, opts session.Options) (*session.Session, error)
	Get(id string) (*session.Session, error)
	List() []*session.Session
	Delete(id string) (*report.Report, error)
	UpdateLastAccessed(id string) error
}

// ConfigManager handles tuning preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.Config, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.Config
	SaveConfig(name string, config *engine.Config) error
}
