package crawler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/githubapi"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/pkg/log"
)

// DiscoveryWorker executes one discovery task: it pages through the search
// results for the task's facet, deduplicates against the shared seen set and
// maps the raw items into entities carrying the basic completion marker.
type DiscoveryWorker struct {
	Logger log.Logger
	Config *cfg.Config
	Api    *githubapi.Client
	Seen   *SeenSet
}

func NewDiscoveryWorker(logger log.Logger, config *cfg.Config, api *githubapi.Client, seen *SeenSet) *DiscoveryWorker {
	return &DiscoveryWorker{
		Logger: logger,
		Config: config,
		Api:    api,
		Seen:   seen,
	}
}

// Run pages forward until the task's ceiling is reached, a page comes back
// short, or the search depth limit is hit. Entities collected before an
// error are returned alongside it so the scheduler can still save them.
func (w *DiscoveryWorker) Run(ctx context.Context, task DiscoveryTask) ([]model.Repo, error) {
	perPage := w.Config.GithubApi.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	maxPages := maxSearchPages(w.Config.GithubApi.SearchMaxResults, perPage)

	query := task.Query()
	var collected []model.Repo
	for page := 1; page <= maxPages; page++ {
		resp, err := w.Api.SearchRepositories(ctx, query, page, perPage)
		if err != nil {
			if errors.Is(err, githubapi.ErrNotFound) || errors.Is(err, githubapi.ErrUnprocessable) {
				w.Logger.Warn(ctx, "Search rejected for task %s: %v", task.Name, err)
				return collected, nil
			}
			return collected, err
		}

		for _, item := range resp.Items {
			// Dedup before counting toward the ceiling, so racing facets
			// never double-count a shared repository.
			if !w.Seen.Add(item.ID) {
				continue
			}
			collected = append(collected, buildEntity(item, task))
			if task.Ceiling > 0 && len(collected) >= task.Ceiling {
				return collected, nil
			}
		}

		if len(resp.Items) < perPage {
			break
		}
	}

	return collected, nil
}

func maxSearchPages(maxResults, perPage int) int {
	if maxResults <= 0 {
		maxResults = 1000
	}
	pages := maxResults / perPage
	if maxResults%perPage != 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}

func buildEntity(item githubapi.RepoItem, task DiscoveryTask) model.Repo {
	now := time.Now()
	repo := model.Repo{
		GithubID:         item.ID,
		Name:             item.Name,
		FullName:         item.FullName,
		Description:      model.TruncateString(item.Description, 5000),
		HtmlUrl:          item.HtmlUrl,
		OwnerLogin:       item.Owner.Login,
		OwnerID:          item.Owner.ID,
		OwnerType:        item.Owner.Type,
		Language:         item.Language,
		Topics:           strings.Join(item.Topics, ","),
		Size:             item.Size,
		StargazersCount:  item.StargazersCount,
		WatchersCount:    item.WatchersCount,
		ForksCount:       item.ForksCount,
		OpenIssuesCount:  item.OpenIssuesCount,
		DefaultBranch:    item.DefaultBranch,
		Visibility:       item.Visibility,
		Private:          item.Private,
		Fork:             item.Fork,
		Archived:         item.Archived,
		Disabled:         item.Disabled,
		RepoCreatedAt:    item.CreatedAt,
		RepoUpdatedAt:    item.UpdatedAt,
		RepoPushedAt:     item.PushedAt,
		BasicCompleted:   true,
		BasicCompletedAt: &now,
		SourceFile:       task.FileType,
		SourceTopic:      strings.Join(task.Topics, ","),
	}
	if item.License != nil {
		repo.LicenseName = item.License.Name
	}
	return repo
}
