package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/minhlq/github-harvester/cfg"
)

// topicBatchSize bounds how many topics share one search query. Batching
// keeps the task count manageable while each query stays narrow enough to
// fit under the search API's result depth ceiling.
const topicBatchSize = 3

// DiscoveryTask describes one bounded search over a single facet. Tasks are
// built once at startup and consumed exactly once by a worker.
type DiscoveryTask struct {
	Name         string
	FileType     string
	Language     string
	Topics       []string
	MinStars     int
	CreatedAfter time.Time
	ExcludeForks bool
	Ceiling      int
}

// Query composes the search expression for this task's facet. Sorting by
// recent activity is applied by the API client, so repeated runs surface
// the most recently active repositories first.
func (t *DiscoveryTask) Query() string {
	var parts []string
	if t.FileType != "" {
		parts = append(parts, fmt.Sprintf("filename:%s", t.FileType))
	}
	for _, topic := range t.Topics {
		parts = append(parts, fmt.Sprintf("topic:%s", topic))
	}
	if t.Language != "" {
		parts = append(parts, fmt.Sprintf("language:%s", t.Language))
	}
	if t.MinStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:>=%d", t.MinStars))
	}
	if !t.CreatedAfter.IsZero() {
		parts = append(parts, fmt.Sprintf("created:>=%s", t.CreatedAfter.Format("2006-01-02")))
	}
	if t.ExcludeForks {
		parts = append(parts, "fork:false")
	}
	return strings.Join(parts, " ")
}

// BuildTasks partitions the configured facet space into independent tasks:
// the cartesian product of file types and languages, plus batches of topics.
// A broad target population has to be split into many narrow queries because
// any single query is truncated at a fixed result depth.
func BuildTasks(config *cfg.Config, now time.Time) []DiscoveryTask {
	var createdAfter time.Time
	if config.Phase1.MaxAgeYears > 0 {
		createdAfter = now.AddDate(-config.Phase1.MaxAgeYears, 0, 0)
	}

	base := DiscoveryTask{
		MinStars:     config.Phase1.MinStars,
		CreatedAfter: createdAfter,
		ExcludeForks: config.Phase1.ExcludeForks,
		Ceiling:      config.Phase1.MaxReposPerTask,
	}

	var tasks []DiscoveryTask
	for _, fileType := range config.Phase1.FileTypes {
		if len(config.Phase1.Languages) == 0 {
			task := base
			task.Name = fileType
			task.FileType = fileType
			tasks = append(tasks, task)
			continue
		}
		for _, language := range config.Phase1.Languages {
			task := base
			task.Name = fmt.Sprintf("%s/%s", fileType, language)
			task.FileType = fileType
			task.Language = language
			tasks = append(tasks, task)
		}
	}

	for i := 0; i < len(config.Phase1.Topics); i += topicBatchSize {
		end := i + topicBatchSize
		if end > len(config.Phase1.Topics) {
			end = len(config.Phase1.Topics)
		}
		batch := config.Phase1.Topics[i:end]
		task := base
		task.Name = fmt.Sprintf("topics/%s", strings.Join(batch, ","))
		task.Topics = append([]string{}, batch...)
		tasks = append(tasks, task)
	}

	return tasks
}
