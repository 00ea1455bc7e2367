package model

import (
	"context"
	"fmt"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
)

// RunStat is the per-run aggregate report: how much was collected, enriched,
// failed and skipped, and how long the run took.
type RunStat struct {
	Model
	StartedAt   time.Time `json:"started_at" gorm:"column:started_at"`
	FinishedAt  time.Time `json:"finished_at" gorm:"column:finished_at"`
	DurationSec int64     `json:"duration_sec" gorm:"column:duration_sec;default:0"`
	Collected   int64     `json:"collected" gorm:"column:collected;default:0"`
	Enriched    int64     `json:"enriched" gorm:"column:enriched;default:0"`
	Failed      int64     `json:"failed" gorm:"column:failed;default:0"`
	Skipped     int64     `json:"skipped" gorm:"column:skipped;default:0"`
}

func NewRunStat(config *cfg.Config, logger log.Logger, db *db.Mysql) (*RunStat, error) {
	rs := &RunStat{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return rs, nil
}

func (s *RunStat) TableName() string {
	return "run_stats"
}

func (s *RunStat) Save(ctx context.Context, stat *RunStat) error {
	db, err := s.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if err := db.WithContext(ctx).Create(stat).Error; err != nil {
		return fmt.Errorf("failed to save run stats: %w", err)
	}
	return nil
}
