package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "github-harvester",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Port:                  "3306",
			Username:              "root",
			Password:              "root",
			Database:              "github_harvester",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// Kafka
		Kafka: Kafka{
			Brokers:       []string{"127.0.0.1:9092"},
			TopicRepo:     "harvester.repos",
			TopicDetail:   "harvester.details",
			ConsumerGroup: "harvester-consumer",
		},

		// GithubApi
		GithubApi: GithubApi{
			Tokens:               nil,
			BaseUrl:              "https://api.github.com",
			RequestsPerSecond:    1.0,
			Burst:                1,
			PerPage:              100,
			MaxRetries:           3,
			RetryBaseDelayMs:     10,
			RequestTimeoutSec:    30,
			SearchMaxResults:     1000,
			AuthenticatedQuota:   5000,
			UnauthenticatedQuota: 60,
		},

		// Phase1
		Phase1: Phase1{
			Enabled:         true,
			FileTypes:       []string{".env", "config.json", "settings.py"},
			Languages:       []string{"Python", "JavaScript", "Go"},
			Topics:          []string{"api", "security"},
			MinStars:        0,
			MaxAgeYears:     5,
			ExcludeForks:    true,
			MaxReposPerTask: 1000,
			Workers:         5,
			BatchSize:       100,
		},

		// Phase2
		Phase2: Phase2{
			Enabled:     true,
			MinStars:    10,
			MaxAgeYears: 5,
			SkipForks:   true,
			MaxRepos:    1000,
			Workers:     5,
		},

		Storage: Storage{
			Backend: "mysql",
		},

		Ui: Ui{
			Port: 8080,
		},
	}, nil
}
