package model

import (
	"context"
	"fmt"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
	"gorm.io/gorm/clause"
)

// FoundFile records which facet file surfaced a repository during
// discovery, with a coarse sensitivity classification.
type FoundFile struct {
	Model
	RepoGithubID int64     `json:"repo_github_id" gorm:"column:repo_github_id;index:idx_found_files_repo_file,unique;not null"`
	Filename     string    `json:"filename" gorm:"column:filename;type:varchar(255);index:idx_found_files_repo_file,unique;not null"`
	Path         string    `json:"path" gorm:"column:path;type:varchar(512)"`
	IsConfigFile bool      `json:"is_config_file" gorm:"column:is_config_file;default:false"`
	IsSecretFile bool      `json:"is_secret_file" gorm:"column:is_secret_file;default:false"`
	DetectedAt   time.Time `json:"detected_at" gorm:"column:detected_at"`
}

func NewFoundFile(config *cfg.Config, logger log.Logger, db *db.Mysql) (*FoundFile, error) {
	ff := &FoundFile{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return ff, nil
}

func (f *FoundFile) TableName() string {
	return "found_files"
}

// InsertBatch stores found-file rows, silently skipping pairs already seen
// in an earlier run.
func (f *FoundFile) InsertBatch(ctx context.Context, files []FoundFile) error {
	if len(files) == 0 {
		return nil
	}

	db, err := f.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repo_github_id"}, {Name: "filename"}},
		DoNothing: true,
	}).CreateInBatches(files, 100)
	if result.Error != nil {
		return fmt.Errorf("failed to batch insert found files: %w", result.Error)
	}
	return nil
}
