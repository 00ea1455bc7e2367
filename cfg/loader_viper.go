package cfg

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfgIns     *Config
	cfgInsOnce sync.Once
	cfgMutex   sync.RWMutex
)

type ViperLoader struct {
	configChangeCallbacks []func(*Config)
}

func NewViperLoader() (*ViperLoader, error) {
	return &ViperLoader{
		configChangeCallbacks: make([]func(*Config), 0),
	}, nil
}

func (yl *ViperLoader) Load() (*Config, error) {
	var err error
	cfgInsOnce.Do(func() {
		err = yl.loadConfig()
		if err == nil && yl.IsWatchChange() {
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				fmt.Printf("[INFO][CONFIG] Config file changed: %s\n", e.Name)
				if errReload := yl.reloadConfig(); errReload != nil {
					fmt.Printf("[ERROR][CONFIG] Failed to reload config: %v\n", errReload)
				}
			})
		}
	})

	if err != nil {
		return nil, err
	}

	cfgMutex.RLock()
	defer cfgMutex.RUnlock()
	return cfgIns, nil
}

func (yl *ViperLoader) IsWatchChange() bool {
	return true
}

func (yl *ViperLoader) RegisterConfigChangeCallback(callback func(*Config)) {
	cfgMutex.Lock()
	yl.configChangeCallbacks = append(yl.configChangeCallbacks, callback)
	cfgMutex.Unlock()
}

func (yl *ViperLoader) loadConfig() error {
	viper.AddConfigPath("cfg/yaml")
	viper.SetConfigName("mode")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)

	cfgMutex.Lock()
	cfgIns = cfg
	cfgMutex.Unlock()

	return nil
}

func (yl *ViperLoader) reloadConfig() error {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config during reload: %w", err)
	}
	applyDefaults(cfg)

	cfgMutex.Lock()
	cfgIns = cfg
	callbacks := make([]func(*Config), len(yl.configChangeCallbacks))
	copy(callbacks, yl.configChangeCallbacks)
	cfgMutex.Unlock()
	for _, callback := range callbacks {
		go callback(cfg)
	}

	fmt.Println("[INFO][CONFIG] Configuration reloaded successfully")
	return nil
}

// applyDefaults fills the fields that must never be zero, so a sparse yaml
// file still yields a runnable configuration.
func applyDefaults(cfg *Config) {
	if cfg.GithubApi.BaseUrl == "" {
		cfg.GithubApi.BaseUrl = "https://api.github.com"
	}
	if cfg.GithubApi.RequestsPerSecond <= 0 {
		cfg.GithubApi.RequestsPerSecond = 1.0
	}
	if cfg.GithubApi.Burst <= 0 {
		cfg.GithubApi.Burst = 1
	}
	if cfg.GithubApi.PerPage <= 0 || cfg.GithubApi.PerPage > 100 {
		cfg.GithubApi.PerPage = 100
	}
	if cfg.GithubApi.MaxRetries <= 0 {
		cfg.GithubApi.MaxRetries = 3
	}
	if cfg.GithubApi.RetryBaseDelayMs <= 0 {
		cfg.GithubApi.RetryBaseDelayMs = 1000
	}
	if cfg.GithubApi.RequestTimeoutSec <= 0 {
		cfg.GithubApi.RequestTimeoutSec = 30
	}
	if cfg.GithubApi.SearchMaxResults <= 0 {
		cfg.GithubApi.SearchMaxResults = 1000
	}
	if cfg.GithubApi.AuthenticatedQuota <= 0 {
		cfg.GithubApi.AuthenticatedQuota = 5000
	}
	if cfg.GithubApi.UnauthenticatedQuota <= 0 {
		cfg.GithubApi.UnauthenticatedQuota = 60
	}
	if cfg.Phase1.Workers <= 0 {
		cfg.Phase1.Workers = 5
	}
	if cfg.Phase1.BatchSize <= 0 {
		cfg.Phase1.BatchSize = 100
	}
	if cfg.Phase1.MaxReposPerTask <= 0 {
		cfg.Phase1.MaxReposPerTask = 1000
	}
	if cfg.Phase2.Workers <= 0 {
		cfg.Phase2.Workers = 5
	}
	if cfg.Phase2.MaxRepos <= 0 {
		cfg.Phase2.MaxRepos = 1000
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "mysql"
	}
	if cfg.Ui.Port <= 0 {
		cfg.Ui.Port = 8080
	}
}
