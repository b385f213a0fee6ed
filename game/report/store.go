package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/smartroad/game/metrics"
)

var log = logrus.WithField("module", "report")

var ErrReportNotFound = errors.New("report not found")

// Report is the archived statistics of one finished session.
type Report struct {
	ID         string         `json:"id" bson:"_id"`
	SessionID  string         `json:"session_id" bson:"session_id"`
	ConfigID   string         `json:"config_id" bson:"config_id"`
	StartedAt  time.Time      `json:"started_at" bson:"started_at"`
	FinishedAt time.Time      `json:"finished_at" bson:"finished_at"`
	Ticks      uint64         `json:"ticks" bson:"ticks"`
	Active     int            `json:"active" bson:"active"`
	Stats      metrics.Report `json:"stats" bson:"stats"`
}

// New stamps a report for a session that is being closed.
func New(sessionID, configID string, startedAt time.Time, ticks uint64, active int, stats metrics.Report) *Report {
	return &Report{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		ConfigID:   configID,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Ticks:      ticks,
		Active:     active,
		Stats:      stats,
	}
}

// Store archives finished-run reports.
type Store interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// List returns every report, most recently finished first.
	List(ctx context.Context) ([]*Report, error)
	Delete(ctx context.Context, id string) error
}

func sortNewestFirst(reports []*Report) {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].FinishedAt.After(reports[j].FinishedAt)
	})
}
