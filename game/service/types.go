package service

import (
	"time"

	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/metrics"
)

// CreateSessionRequest describes a new simulation session
type CreateSessionRequest struct {
	ConfigID  string  `json:"config_id,omitempty"`
	Seed      *uint64 `json:"seed,omitempty"`
	Running   bool    `json:"running,omitempty"`
	AutoSpawn bool    `json:"auto_spawn,omitempty"`
}

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string         `json:"id"`
	ConfigID       string         `json:"config_id"`
	ConfigName     string         `json:"config_name"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	Running        bool           `json:"running"`
	AutoSpawn      bool           `json:"auto_spawn"`
	Tick           uint64         `json:"tick"`
	Active         int            `json:"active"`
	Metrics        metrics.Report `json:"metrics"`
	Config         *engine.Config `json:"config,omitempty"`
}

// SpawnRequest selects what to spawn. Behavior wins over Approach; with
// neither set a random code of all twelve is used.
type SpawnRequest struct {
	// Behavior is a two-letter code such as "RU".
	Behavior string `json:"behavior,omitempty"`
	// Approach is a heading (north, s, ...) or an arrow key (up, down, left,
	// right) naming the side the vehicle enters from.
	Approach string `json:"approach,omitempty"`
}

// SpawnResult reports whether the spawn was accepted
type SpawnResult struct {
	Accepted bool   `json:"accepted"`
	Tick     uint64 `json:"tick"`
	Active   int    `json:"active"`
	Message  string `json:"message"`
}

// StepResult is the state after a manual step
type StepResult struct {
	Stepped  int             `json:"stepped"`
	Snapshot engine.Snapshot `json:"snapshot"`
	Metrics  metrics.Report  `json:"metrics"`
}

// ConfigInfo provides information about a tuning preset
type ConfigInfo struct {
	Filename            string  `json:"filename"`
	ConfigID            string  `json:"config_id"` // The identifier to use for session creation
	Name                string  `json:"name"`      // Display name
	Description         string  `json:"description"`
	WindowSize          float64 `json:"window_size"`
	Capacity            int     `json:"capacity"`
	CongestionThreshold int     `json:"congestion_threshold"`
}
