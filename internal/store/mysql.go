package store

import (
	"context"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/secrets"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
)

// MysqlStore persists through the gorm models. It is the only backend with
// query support, so phase 2 always selects its candidates here.
type MysqlStore struct {
	Logger      log.Logger
	Config      *cfg.Config
	RepoMd      *model.Repo
	FoundFileMd *model.FoundFile
	RunStatMd   *model.RunStat
}

func NewMysqlStore(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*MysqlStore, error) {
	repoMd, err := model.NewRepo(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	foundFileMd, err := model.NewFoundFile(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	runStatMd, err := model.NewRunStat(config, logger, mysql)
	if err != nil {
		return nil, err
	}

	return &MysqlStore{
		Logger:      logger,
		Config:      config,
		RepoMd:      repoMd,
		FoundFileMd: foundFileMd,
		RunStatMd:   runStatMd,
	}, nil
}

func (s *MysqlStore) BulkUpsert(ctx context.Context, repos []model.Repo) (int64, error) {
	affected, err := s.RepoMd.UpsertBatch(ctx, repos)
	if err != nil {
		return 0, err
	}

	// Found-file rows ride along with the batch. Their loss is tolerable,
	// so a failure here is logged, not propagated.
	files := collectFoundFiles(repos)
	if len(files) > 0 {
		if err := s.FoundFileMd.InsertBatch(ctx, files); err != nil {
			s.Logger.Warn(ctx, "Failed to insert found files for batch: %v", err)
		}
	}

	return affected, nil
}

func (s *MysqlStore) UpdateDetails(ctx context.Context, githubID int64, fields map[string]interface{}) (int64, error) {
	return s.RepoMd.UpdateDetails(ctx, githubID, fields)
}

func (s *MysqlStore) Candidates(ctx context.Context, filter CandidateFilter) ([]model.Repo, error) {
	return s.RepoMd.Candidates(ctx, filter)
}

func (s *MysqlStore) SaveRunStat(ctx context.Context, stat *model.RunStat) error {
	return s.RunStatMd.Save(ctx, stat)
}

// collectFoundFiles turns the transient source-file facet carried by
// discovered entities into classified found_files rows.
func collectFoundFiles(repos []model.Repo) []model.FoundFile {
	now := time.Now()
	var files []model.FoundFile
	for _, repo := range repos {
		if repo.SourceFile == "" {
			continue
		}
		files = append(files, model.FoundFile{
			RepoGithubID: repo.GithubID,
			Filename:     repo.SourceFile,
			Path:         "/" + repo.SourceFile,
			IsConfigFile: secrets.IsConfigFilename(repo.SourceFile),
			IsSecretFile: secrets.IsSecretFilename(repo.SourceFile),
			DetectedAt:   now,
		})
	}
	return files
}
