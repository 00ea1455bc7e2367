package crawler

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/githubapi"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/secrets"
	"github.com/minhlq/github-harvester/internal/store"
	"github.com/minhlq/github-harvester/pkg/log"
)

// readmeExcerptChars bounds the stored readme excerpt.
const readmeExcerptChars = 2000

// EnrichmentWorker fills in the detail columns for one discovered entity.
// The four secondary fetches are independently best-effort: whichever subset
// succeeds is merged into a single partial update.
type EnrichmentWorker struct {
	Logger log.Logger
	Config *cfg.Config
	Api    *githubapi.Client
	Writer store.Writer
}

func NewEnrichmentWorker(logger log.Logger, config *cfg.Config, api *githubapi.Client, writer store.Writer) *EnrichmentWorker {
	return &EnrichmentWorker{
		Logger: logger,
		Config: config,
		Api:    api,
		Writer: writer,
	}
}

// Run enriches one entity and issues exactly one partial update. The detail
// completion marker is set even when every fetch came back empty, otherwise
// a permanently broken entity would be re-selected on every run.
func (w *EnrichmentWorker) Run(ctx context.Context, repo model.Repo) (bool, error) {
	fields := map[string]interface{}{}

	if languages, err := w.Api.Languages(ctx, repo.FullName); err != nil {
		w.Logger.Debug(ctx, "Languages fetch failed for %s: %v", repo.FullName, err)
	} else if len(languages) > 0 {
		main, stats, total := summarizeLanguages(languages)
		fields["main_language"] = main
		fields["language_stats"] = stats
		fields["total_code_bytes"] = total
	}

	if contributors, err := w.Api.Contributors(ctx, repo.FullName); err != nil {
		w.Logger.Debug(ctx, "Contributors fetch failed for %s: %v", repo.FullName, err)
	} else if len(contributors) > 0 {
		fields["contributors_count"] = len(contributors)
		// The API orders contributors by contribution count, trust it.
		fields["top_contributor"] = contributors[0].Login
	}

	w.fetchActivity(ctx, repo, fields)

	if excerpt, err := w.Api.Readme(ctx, repo.FullName, readmeExcerptChars); err != nil {
		w.Logger.Debug(ctx, "Readme fetch failed for %s: %v", repo.FullName, err)
	} else if excerpt != "" {
		fields["readme_excerpt"] = excerpt
		if keywords := secrets.ScanKeywords(excerpt); len(keywords) > 0 {
			fields["readme_keywords"] = strings.Join(keywords, ",")
		}
	}

	now := timeNow()
	fields["detail_completed"] = true
	fields["detail_completed_at"] = now
	fields["updated_at"] = now

	if _, err := w.Writer.UpdateDetails(ctx, repo.GithubID, fields); err != nil {
		return false, err
	}
	return true, nil
}

// fetchActivity collects the commit, branch and release signals. The commit
// count comes from pagination metadata and undercounts when the last-page
// link is absent, it is a best-effort metric.
func (w *EnrichmentWorker) fetchActivity(ctx context.Context, repo model.Repo, fields map[string]interface{}) {
	if commits, err := w.Api.CommitCount(ctx, repo.FullName); err != nil {
		w.Logger.Debug(ctx, "Commit count fetch failed for %s: %v", repo.FullName, err)
	} else if commits > 0 {
		fields["commits_count"] = commits
	}

	if branches, err := w.Api.Branches(ctx, repo.FullName); err != nil {
		w.Logger.Debug(ctx, "Branches fetch failed for %s: %v", repo.FullName, err)
	} else if len(branches) > 0 {
		fields["branches_count"] = len(branches)
	}

	if releases, err := w.Api.Releases(ctx, repo.FullName); err != nil {
		w.Logger.Debug(ctx, "Releases fetch failed for %s: %v", repo.FullName, err)
	} else if len(releases) > 0 {
		fields["releases_count"] = len(releases)
		fields["latest_release_tag"] = releases[0].TagName
	}
}

// summarizeLanguages turns per-language byte counts into the main language,
// a JSON percentage breakdown rounded to two decimals, and the total bytes.
func summarizeLanguages(languages map[string]int64) (string, string, int64) {
	var total int64
	names := make([]string, 0, len(languages))
	for name, bytes := range languages {
		total += bytes
		names = append(names, name)
	}
	if total == 0 {
		return "", "{}", 0
	}

	sort.Slice(names, func(i, j int) bool {
		if languages[names[i]] != languages[names[j]] {
			return languages[names[i]] > languages[names[j]]
		}
		return names[i] < names[j]
	})

	stats := make(map[string]float64, len(languages))
	for name, bytes := range languages {
		stats[name] = math.Round(float64(bytes)/float64(total)*10000) / 100
	}

	encoded, err := json.Marshal(stats)
	if err != nil {
		return names[0], "{}", total
	}
	return names[0], string(encoded), total
}
