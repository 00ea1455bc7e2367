package store

import (
	"context"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/model"
	kafkapkg "github.com/minhlq/github-harvester/pkg/kafka"
	"github.com/minhlq/github-harvester/pkg/log"
)

// KafkaStore implements the Writer capability by publishing to topics. A
// consumer drains them into MySQL, so durability is deferred, not skipped.
// It deliberately does not implement Store: the broker cannot answer
// candidate queries.
type KafkaStore struct {
	Logger log.Logger
	Config *cfg.Config

	repoProducer   *kafkapkg.Producer
	detailProducer *kafkapkg.Producer
}

func NewKafkaStore(logger log.Logger, config *cfg.Config) (*KafkaStore, error) {
	repoProducer, err := kafkapkg.NewProducer(config, logger, config.Kafka.TopicRepo)
	if err != nil {
		return nil, err
	}
	detailProducer, err := kafkapkg.NewProducer(config, logger, config.Kafka.TopicDetail)
	if err != nil {
		return nil, err
	}

	return &KafkaStore{
		Logger:         logger,
		Config:         config,
		repoProducer:   repoProducer,
		detailProducer: detailProducer,
	}, nil
}

// BulkUpsert publishes each entity individually; the consumer re-batches
// before writing. Counts only what was accepted by the broker.
func (s *KafkaStore) BulkUpsert(ctx context.Context, repos []model.Repo) (int64, error) {
	var published int64
	for i := range repos {
		if err := s.repoProducer.Publish(ctx, model.MessageKeyRepo, model.NewRepoMessage(repos[i])); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func (s *KafkaStore) UpdateDetails(ctx context.Context, githubID int64, fields map[string]interface{}) (int64, error) {
	msg := &model.DetailMessage{
		GithubID: githubID,
		Fields:   fields,
	}
	if err := s.detailProducer.Publish(ctx, model.MessageKeyDetail, msg); err != nil {
		return 0, err
	}
	return 1, nil
}

// Close releases both producers.
func (s *KafkaStore) Close() error {
	if err := s.repoProducer.Close(); err != nil {
		return err
	}
	return s.detailProducer.Close()
}
