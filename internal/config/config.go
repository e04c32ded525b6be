package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment
// variables (optionally seeded from a .env file by the entrypoint).
type Config struct {
	Env       string `mapstructure:"app_env"`
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	MongoURI  string `mapstructure:"mongo_uri"`
	MongoDB   string `mapstructure:"mongo_db"`
	RedisAddr string `mapstructure:"redis_addr"`
	JWTSecret string `mapstructure:"jwt_secret"`

	// DefaultTenantID is used when a quiz request carries no tenant.
	DefaultTenantID string `mapstructure:"default_tenant_id"`

	// Workflow tuning. Page sizes are kept in the hundreds so every
	// step stays well under the per-step wall-clock ceiling.
	Workers           int  `mapstructure:"workflow_workers"`
	PageSize          int  `mapstructure:"workflow_page_size"`
	SampleBatch       int  `mapstructure:"workflow_sample_batch"`
	MaxSampleRounds   int  `mapstructure:"workflow_max_sample_rounds"`
	SampledCollection bool `mapstructure:"workflow_sampled_collection"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app_env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "medbank")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("jwt_secret", "dev-secret-change-in-production")
	v.SetDefault("default_tenant_id", "default")
	v.SetDefault("workflow_workers", 4)
	v.SetDefault("workflow_page_size", 200)
	v.SetDefault("workflow_sample_batch", 50)
	v.SetDefault("workflow_max_sample_rounds", 20)
	v.SetDefault("workflow_sampled_collection", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Strip a redis:// prefix so both URI and host:port forms work.
	cfg.RedisAddr = strings.TrimPrefix(cfg.RedisAddr, "redis://")

	return &cfg, nil
}
