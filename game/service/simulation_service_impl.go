package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/metrics"
	"github.com/wricardo/smartroad/game/report"
	"github.com/wricardo/smartroad/game/session"
)

var log = logrus.WithField("module", "service")

// arrowApproach maps arrow keys to the heading of a vehicle entering from
// that side of the window.
var arrowApproach = map[string]engine.Heading{
	"right": engine.West,
	"left":  engine.East,
	"up":    engine.South,
	"down":  engine.North,
}

// simulationServiceImpl implements the SimulationService interface
type simulationServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	reports  report.Store
}

// NewSimulationService creates a new simulation service instance. reports
// may be nil, in which case the report operations fail with
// ErrReportsDisabled.
func NewSimulationService(sessions SessionManager, configs ConfigManager, reports report.Store) SimulationService {
	return &simulationServiceImpl{
		sessions: sessions,
		configs:  configs,
		reports:  reports,
	}
}

// getConfigID returns the config_id for a given display name
func (s *simulationServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *simulationServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	var config *engine.Config
	configID := strings.TrimSpace(req.ConfigID)

	if configID != "" {
		var err error
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			// Provide helpful error message with available options
			if availableConfigs, listErr := s.configs.ListConfigs(); listErr == nil && len(availableConfigs) > 0 {
				ids := lo.Map(availableConfigs, func(c *ConfigInfo, _ int) string { return c.ConfigID })
				return nil, fmt.Errorf("config '%s': %w (available configs: %v)", configID, err, ids)
			}
			return nil, fmt.Errorf("config '%s': %w", configID, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config, session.Options{
		Seed:      req.Seed,
		Running:   req.Running,
		AutoSpawn: req.AutoSpawn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(sess), nil
}

func (s *simulationServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

func (s *simulationServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	infos := lo.Map(sessions, func(sess *session.Session, _ int) *SessionInfo {
		info := sessionInfo(sess)
		info.Config = nil
		return info
	})

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

func (s *simulationServiceImpl) DeleteSession(ctx context.Context, sessionID string) (*report.Report, error) {
	r, err := s.sessions.Delete(sessionID)
	if err != nil {
		if r != nil {
			// closed but not archived; the caller still gets the statistics
			log.Warnf("session %s: %v", sessionID, err)
			return r, nil
		}
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return r, nil
}

func (s *simulationServiceImpl) Snapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *simulationServiceImpl) Spawn(ctx context.Context, sessionID string, req SpawnRequest) (*SpawnResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var (
		accepted bool
		what     string
	)
	switch {
	case req.Behavior != "":
		code, err := engine.ParseBehavior(req.Behavior)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		accepted = sess.Spawn(code)
		what = code.String()

	case req.Approach != "":
		heading, err := ParseApproach(req.Approach)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		accepted = sess.SpawnFrom(heading)
		what = "random " + heading.String() + "bound"

	default:
		accepted = sess.SpawnRandom()
		what = "random"
	}

	st := sess.Status()
	result := &SpawnResult{
		Accepted: accepted,
		Tick:     st.Tick,
		Active:   st.Active,
	}
	if accepted {
		result.Message = fmt.Sprintf("spawned %s vehicle", what)
	} else {
		result.Message = fmt.Sprintf("%s spawn rejected: spawn point occupied or capacity reached", what)
	}
	return result, nil
}

func (s *simulationServiceImpl) Step(ctx context.Context, sessionID string, ticks int) (*StepResult, error) {
	if ticks < 1 || ticks > MaxStepTicks {
		return nil, fmt.Errorf("%w: ticks must be between 1 and %d, got %d", ErrInvalidArgument, MaxStepTicks, ticks)
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	snap := sess.Step(ticks)
	return &StepResult{
		Stepped:  ticks,
		Snapshot: snap,
		Metrics:  sess.Metrics(),
	}, nil
}

func (s *simulationServiceImpl) SetRunning(ctx context.Context, sessionID string, running bool) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.SetRunning(running)
	return sessionInfo(sess), nil
}

func (s *simulationServiceImpl) SetAutoSpawn(ctx context.Context, sessionID string, enabled bool) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.SetAutoSpawn(enabled)
	return sessionInfo(sess), nil
}

func (s *simulationServiceImpl) Metrics(ctx context.Context, sessionID string) (*metrics.Report, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	r := sess.Metrics()
	return &r, nil
}

func (s *simulationServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

func (s *simulationServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.Config, error) {
	return s.configs.LoadConfig(configName)
}

func (s *simulationServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.Config) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *simulationServiceImpl) ListReports(ctx context.Context) ([]*report.Report, error) {
	if s.reports == nil {
		return nil, ErrReportsDisabled
	}
	return s.reports.List(ctx)
}

func (s *simulationServiceImpl) GetReport(ctx context.Context, reportID string) (*report.Report, error) {
	if s.reports == nil {
		return nil, ErrReportsDisabled
	}
	return s.reports.Get(ctx, reportID)
}

// session looks a session up and records the access.
func (s *simulationServiceImpl) session(sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func sessionInfo(sess *session.Session) *SessionInfo {
	st := sess.Status()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		ConfigName:     sess.Config.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: st.LastAccessedAt,
		Running:        st.Running,
		AutoSpawn:      st.AutoSpawn,
		Tick:           st.Tick,
		Active:         st.Active,
		Metrics:        st.Metrics,
		Config:         sess.Config,
	}
}

// ParseApproach accepts a heading name or an arrow key. Arrow keys name the
// side a vehicle enters from, so "right" yields a westbound vehicle.
func ParseApproach(s string) (engine.Heading, error) {
	if h, ok := arrowApproach[strings.ToLower(strings.TrimSpace(s))]; ok {
		return h, nil
	}
	return engine.ParseHeading(s)
}
