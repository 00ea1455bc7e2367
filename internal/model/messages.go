package model

import "time"

// Message keys used on the kafka backend.
const (
	MessageKeyRepo   = "repo"
	MessageKeyDetail = "detail"
)

// RepoMessage carries one discovered entity to the consumer. The source
// facet fields are transient on Repo (json:"-"), so the message has to
// carry them explicitly or the consumer-side found_files rows are lost.
type RepoMessage struct {
	Repo        Repo   `json:"repo"`
	SourceFile  string `json:"source_file,omitempty"`
	SourceTopic string `json:"source_topic,omitempty"`
}

func NewRepoMessage(repo Repo) *RepoMessage {
	return &RepoMessage{
		Repo:        repo,
		SourceFile:  repo.SourceFile,
		SourceTopic: repo.SourceTopic,
	}
}

// Entity rebuilds the entity including the facet fields stripped by the
// JSON round trip.
func (m *RepoMessage) Entity() Repo {
	repo := m.Repo
	repo.SourceFile = m.SourceFile
	repo.SourceTopic = m.SourceTopic
	return repo
}

// DetailMessage carries one enrichment result to the consumer when the
// kafka storage backend is selected.
type DetailMessage struct {
	GithubID int64                  `json:"github_id"`
	Fields   map[string]interface{} `json:"fields"`
}

// Field keys holding timestamps, restored to time.Time by NormalizedFields.
var detailTimeFields = map[string]bool{
	"detail_completed_at": true,
	"updated_at":          true,
}

// NormalizedFields returns the field map with timestamp values parsed back
// to time.Time. JSON transit turns them into RFC3339 strings, which the
// DATETIME write must not depend on the database parsing.
func (m *DetailMessage) NormalizedFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(m.Fields))
	for key, value := range m.Fields {
		if s, ok := value.(string); ok && detailTimeFields[key] {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				fields[key] = ts
				continue
			}
		}
		fields[key] = value
	}
	return fields
}
