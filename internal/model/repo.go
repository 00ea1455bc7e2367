package model

import (
	"context"
	"fmt"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is the discovered repository entity. Basic columns are written by
// phase 1 and widened on every rediscovery, detail columns are written once
// by phase 2. github_id is the stable external identifier and the upsert key.
type Repo struct {
	Model
	GithubID        int64      `json:"github_id" gorm:"column:github_id;uniqueIndex;not null"`
	Name            string     `json:"name" gorm:"column:name;type:varchar(255)"`
	FullName        string     `json:"full_name" gorm:"column:full_name;type:varchar(512);not null"`
	Description     string     `json:"description" gorm:"column:description;type:text"`
	HtmlUrl         string     `json:"html_url" gorm:"column:html_url;type:varchar(512)"`
	OwnerLogin      string     `json:"owner_login" gorm:"column:owner_login;type:varchar(255)"`
	OwnerID         int64      `json:"owner_id" gorm:"column:owner_id"`
	OwnerType       string     `json:"owner_type" gorm:"column:owner_type;type:varchar(64)"`
	Language        string     `json:"language" gorm:"column:language;type:varchar(128)"`
	Topics          string     `json:"topics" gorm:"column:topics;type:text"`
	Size            int64      `json:"size" gorm:"column:size;default:0"`
	StargazersCount int64      `json:"stargazers_count" gorm:"column:stargazers_count;index;default:0"`
	WatchersCount   int64      `json:"watchers_count" gorm:"column:watchers_count;default:0"`
	ForksCount      int64      `json:"forks_count" gorm:"column:forks_count;default:0"`
	OpenIssuesCount int64      `json:"open_issues_count" gorm:"column:open_issues_count;default:0"`
	DefaultBranch   string     `json:"default_branch" gorm:"column:default_branch;type:varchar(255)"`
	LicenseName     string     `json:"license_name" gorm:"column:license_name;type:varchar(255)"`
	Visibility      string     `json:"visibility" gorm:"column:visibility;type:varchar(32)"`
	Private         bool       `json:"private" gorm:"column:private;default:false"`
	Fork            bool       `json:"fork" gorm:"column:fork;default:false"`
	Archived        bool       `json:"archived" gorm:"column:archived;default:false"`
	Disabled        bool       `json:"disabled" gorm:"column:disabled;default:false"`
	RepoCreatedAt   *time.Time `json:"repo_created_at" gorm:"column:repo_created_at;index"`
	RepoUpdatedAt   *time.Time `json:"repo_updated_at" gorm:"column:repo_updated_at"`
	RepoPushedAt    *time.Time `json:"repo_pushed_at" gorm:"column:repo_pushed_at"`

	// Completion markers, the sole resumability mechanism. detail_completed
	// implies basic_completed.
	BasicCompleted    bool       `json:"basic_completed" gorm:"column:basic_completed;index;default:false"`
	BasicCompletedAt  *time.Time `json:"basic_completed_at" gorm:"column:basic_completed_at"`
	DetailCompleted   bool       `json:"detail_completed" gorm:"column:detail_completed;index;default:false"`
	DetailCompletedAt *time.Time `json:"detail_completed_at" gorm:"column:detail_completed_at"`

	// Detail columns, written only by phase 2.
	MainLanguage      string `json:"main_language" gorm:"column:main_language;type:varchar(128)"`
	LanguageStats     string `json:"language_stats" gorm:"column:language_stats;type:text"`
	TotalCodeBytes    int64  `json:"total_code_bytes" gorm:"column:total_code_bytes;default:0"`
	ContributorsCount int    `json:"contributors_count" gorm:"column:contributors_count;default:0"`
	TopContributor    string `json:"top_contributor" gorm:"column:top_contributor;type:varchar(255)"`
	CommitsCount      int    `json:"commits_count" gorm:"column:commits_count;default:0"`
	BranchesCount     int    `json:"branches_count" gorm:"column:branches_count;default:0"`
	ReleasesCount     int    `json:"releases_count" gorm:"column:releases_count;default:0"`
	LatestReleaseTag  string `json:"latest_release_tag" gorm:"column:latest_release_tag;type:varchar(255)"`
	ReadmeExcerpt     string `json:"readme_excerpt" gorm:"column:readme_excerpt;type:text"`
	ReadmeKeywords    string `json:"readme_keywords" gorm:"column:readme_keywords;type:varchar(255)"`

	// Facet that surfaced the entity in this run. Not persisted on the repo
	// row, the store turns it into found_files rows.
	SourceFile  string `json:"-" gorm:"-"`
	SourceTopic string `json:"-" gorm:"-"`
}

func NewRepo(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Repo, error) {
	repo := &Repo{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return repo, nil
}

func (r *Repo) TableName() string {
	return "repos"
}

// basicUpdateColumns are the columns a rediscovery may refresh. Detail
// columns and detail_completed are deliberately absent so a later basic
// upsert can never undo an enrichment, and basic_completed is only ever
// assigned true.
var basicUpdateColumns = []string{
	"name", "full_name", "description", "html_url",
	"owner_login", "owner_id", "owner_type",
	"language", "topics", "size",
	"stargazers_count", "watchers_count", "forks_count", "open_issues_count",
	"default_branch", "license_name", "visibility",
	"private", "fork", "archived", "disabled",
	"repo_created_at", "repo_updated_at", "repo_pushed_at",
	"basic_completed", "basic_completed_at", "updated_at",
}

// UpsertBatch stores a batch of discovered entities with insert-or-update
// semantics keyed on github_id. Returns the number of rows the statement
// touched.
func (r *Repo) UpsertBatch(ctx context.Context, repos []Repo) (int64, error) {
	if len(repos) == 0 {
		return 0, nil
	}

	db, err := r.Mysql.Db()
	if err != nil {
		return 0, fmt.Errorf("failed to get database connection: %w", err)
	}

	now := time.Now()
	for i := range repos {
		repos[i].FullName = TruncateString(repos[i].FullName, 500)
		repos[i].CreatedAt = now
		repos[i].UpdatedAt = now
	}

	var affected int64
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "github_id"}},
			DoUpdates: clause.AssignmentColumns(basicUpdateColumns),
		}).CreateInBatches(repos, 100)
		if result.Error != nil {
			return fmt.Errorf("failed to batch upsert repositories: %w", result.Error)
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// UpdateDetails applies one enrichment result to the row identified by
// githubID. fields holds only detail columns plus the completion marker, so
// basic columns are never cleared here.
func (r *Repo) UpdateDetails(ctx context.Context, githubID int64, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	db, err := r.Mysql.Db()
	if err != nil {
		return 0, fmt.Errorf("failed to get database connection: %w", err)
	}

	result := db.WithContext(ctx).Model(&Repo{}).Where("github_id = ?", githubID).Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update repository %d: %w", githubID, result.Error)
	}
	return result.RowsAffected, nil
}

// CandidateFilter bounds the phase 2 selection.
type CandidateFilter struct {
	MinStars     int
	CreatedAfter time.Time
	SkipForks    bool
	Limit        int
}

// Candidates selects entities eligible for enrichment: basic done, detail
// pending, popular and recent enough, best first.
func (r *Repo) Candidates(ctx context.Context, filter CandidateFilter) ([]Repo, error) {
	db, err := r.Mysql.Db()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	query := db.WithContext(ctx).Model(&Repo{}).
		Where("basic_completed = ?", true).
		Where("detail_completed = ?", false).
		Where("stargazers_count >= ?", filter.MinStars)
	if !filter.CreatedAfter.IsZero() {
		query = query.Where("repo_created_at >= ?", filter.CreatedAfter)
	}
	if filter.SkipForks {
		query = query.Where("fork = ?", false)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var repos []Repo
	result := query.Order("stargazers_count DESC").Order("repo_created_at DESC").Find(&repos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to select enrichment candidates: %w", result.Error)
	}
	return repos, nil
}
