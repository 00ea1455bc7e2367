package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	Kafka struct {
		Brokers       []string
		TopicRepo     string
		TopicDetail   string
		ConsumerGroup string
	}

	// GithubApi holds everything the rate-limited client needs: the token
	// list for credential rotation, the global pacing budget and the retry
	// policy shared by search and detail calls.
	GithubApi struct {
		Tokens               []string
		BaseUrl              string
		RequestsPerSecond    float64
		Burst                int
		PerPage              int
		MaxRetries           int
		RetryBaseDelayMs     int
		RequestTimeoutSec    int
		SearchMaxResults     int
		AuthenticatedQuota   int
		UnauthenticatedQuota int
	}

	// Phase1 controls broad discovery: the facet lists partition the search
	// space into many narrow queries so each stays under the API's result
	// depth ceiling.
	Phase1 struct {
		Enabled         bool
		FileTypes       []string
		Languages       []string
		Topics          []string
		MinStars        int
		MaxAgeYears     int
		ExcludeForks    bool
		MaxReposPerTask int
		Workers         int
		BatchSize       int
	}

	// Phase2 controls selective enrichment of already discovered entities.
	Phase2 struct {
		Enabled     bool
		MinStars    int
		MaxAgeYears int
		SkipForks   bool
		MaxRepos    int
		Workers     int
	}

	Storage struct {
		Backend string // "mysql" or "kafka"
	}

	Ui struct {
		Port int
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	Kafka     Kafka
	GithubApi GithubApi
	Phase1    Phase1
	Phase2    Phase2
	Storage   Storage
	Ui        Ui
}
