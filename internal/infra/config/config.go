package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// Config holds all application configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
	Server     ServerConfig     `mapstructure:"server"`
	Stability  StabilityConfig  `mapstructure:"stability"`
	ClickUp    ClickUpConfig    `mapstructure:"clickup"`
	WordPress  WordPressConfig  `mapstructure:"wordpress"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Content    ContentConfig    `mapstructure:"content"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// BreakerConfig configures the circuit breakers wrapped around outbound APIs.
type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	FailureThreshold    uint32        `mapstructure:"failure_threshold"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxHalfOpenRequests uint32        `mapstructure:"max_half_open_requests"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
}

// StabilityConfig configures the image generation client.
type StabilityConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	OutputDir    string        `mapstructure:"output_dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	// MaxConcurrent caps parallel batch generation. 1 keeps batches sequential.
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	FactionsFile  string `mapstructure:"factions_file"`
	UploadPrefix  string `mapstructure:"upload_prefix"`
}

// Validate checks the credentials needed before any Stability call.
func (c *StabilityConfig) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "stability.api_key")
	}
	if c.OutputDir == "" {
		missing = append(missing, "stability.output_dir")
	}
	if len(missing) > 0 {
		return apperrors.Configuration("stability", missing...)
	}
	return nil
}

// ClickUpStatuses maps workflow steps to status names in the ClickUp list.
type ClickUpStatuses struct {
	Open             string `mapstructure:"open"`
	AIAnalysis       string `mapstructure:"ai_analysis"`
	SubtasksPending  string `mapstructure:"subtasks_pending"`
	ChecklistPending string `mapstructure:"checklist_pending"`
	TECDataDrop      string `mapstructure:"tec_data_drop"`
	PolkinPreDeploy  string `mapstructure:"polkin_pre_deploy"`
}

// ClickUpConfig configures the task tracker client and workflows.
type ClickUpConfig struct {
	APIToken      string            `mapstructure:"api_token"`
	BaseURL       string            `mapstructure:"base_url"`
	ListID        string            `mapstructure:"list_id"`
	WorkspaceID   string            `mapstructure:"workspace_id"`
	CustomFields  map[string]string `mapstructure:"custom_fields"`
	Statuses      ClickUpStatuses   `mapstructure:"statuses"`
	TriggerTags   []string          `mapstructure:"trigger_tags"`
	TeamMembers   map[string]string `mapstructure:"team_members"`
	TemplatesFile string            `mapstructure:"templates_file"`
}

// Validate checks the token and list id.
func (c *ClickUpConfig) Validate() error {
	var missing []string
	if c.APIToken == "" {
		missing = append(missing, "clickup.api_token")
	}
	if c.ListID == "" {
		missing = append(missing, "clickup.list_id")
	}
	if len(missing) > 0 {
		return apperrors.Configuration("clickup", missing...)
	}
	return nil
}

// WordPressConfig configures the content publisher.
type WordPressConfig struct {
	SiteURL     string `mapstructure:"site_url"`
	User        string `mapstructure:"user"`
	AppPassword string `mapstructure:"app_password"`
	PostStatus  string `mapstructure:"post_status"`
	Categories  []int  `mapstructure:"categories"`
}

// APIBase returns the REST base for the site. A bare site URL gets /wp-json/wp/v2 appended.
func (c *WordPressConfig) APIBase() string {
	base := strings.TrimRight(c.SiteURL, "/")
	if base == "" || strings.Contains(base, "/wp-json") {
		return base
	}
	return base + "/wp-json/wp/v2"
}

// Validate checks the site and basic auth credentials.
func (c *WordPressConfig) Validate() error {
	var missing []string
	if c.SiteURL == "" {
		missing = append(missing, "wordpress.site_url")
	}
	if c.User == "" {
		missing = append(missing, "wordpress.user")
	}
	if c.AppPassword == "" {
		missing = append(missing, "wordpress.app_password")
	}
	if len(missing) > 0 {
		return apperrors.Configuration("wordpress", missing...)
	}
	return nil
}

// OpenAIConfig configures the text generation client.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Validate checks the API key.
func (c *OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return apperrors.Configuration("openai", "openai.api_key")
	}
	return nil
}

// StorageConfig holds object storage configuration. The default endpoint is the
// S3-compatible interoperability API of Google Cloud Storage.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	BackupPrefix    string `mapstructure:"backup_prefix"`
}

// Validate checks the bucket and credentials.
func (c *StorageConfig) Validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "storage.bucket")
	}
	if c.AccessKeyID == "" {
		missing = append(missing, "storage.access_key_id")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "storage.secret_access_key")
	}
	if len(missing) > 0 {
		return apperrors.Configuration("storage", missing...)
	}
	return nil
}

// RedisConfig holds Redis configuration for the memory store.
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool { return c.Address != "" }

// DatabaseConfig holds the artifact ledger database configuration.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Enabled reports whether a DSN is configured.
func (c *DatabaseConfig) Enabled() bool { return c.DSN != "" }

// PipelineConfig configures the publishing pipeline.
type PipelineConfig struct {
	ReadyStatus     string `mapstructure:"ready_status"`
	PublishedStatus string `mapstructure:"published_status"`
}

// ContentConfig configures the Airth content agent.
type ContentConfig struct {
	PromptsFile   string `mapstructure:"prompts_file"`
	MemoryLimit   int    `mapstructure:"memory_limit"`
	MaxChunkSize  int    `mapstructure:"max_chunk_size"`
	BlogMaxTokens int    `mapstructure:"blog_max_tokens"`
}

// Load loads configuration from file, .env and environment.
// An empty path searches the default locations.
func Load(path string) (*Config, error) {
	v := viper.New()
	return load(v, path)
}

// LoadWith loads configuration into a caller-owned viper instance, so CLI flags bound
// to v take precedence over file and environment values.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	return load(v, path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tecflow")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := applyLegacyEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyLegacyEnv honours the unprefixed variable names the automation scripts have
// always used.
func applyLegacyEnv(cfg *Config) error {
	overrides := []struct {
		env string
		dst *string
	}{
		{"STABILITY_API_KEY", &cfg.Stability.APIKey},
		{"CLICKUP_API_TOKEN", &cfg.ClickUp.APIToken},
		{"CLICKUP_LIST_ID", &cfg.ClickUp.ListID},
		{"CLICKUP_WORKSPACE_ID", &cfg.ClickUp.WorkspaceID},
		{"OPENAI_API_KEY", &cfg.OpenAI.APIKey},
		{"WP_SITE_URL", &cfg.WordPress.SiteURL},
		{"WP_USER", &cfg.WordPress.User},
		{"WP_APP_PASS", &cfg.WordPress.AppPassword},
		{"GCP_BUCKET_NAME", &cfg.Storage.Bucket},
		{"STORAGE_ACCESS_KEY_ID", &cfg.Storage.AccessKeyID},
		{"STORAGE_SECRET_ACCESS_KEY", &cfg.Storage.SecretAccessKey},
		{"REDIS_ADDR", &cfg.Redis.Address},
		{"DATABASE_URL", &cfg.Database.DSN},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}

	if s := os.Getenv("WORKER_TIMEOUT"); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil || secs <= 0 {
			return fmt.Errorf("WORKER_TIMEOUT must be a positive number of seconds, got %q", s)
		}
		cfg.Stability.PollTimeout = time.Duration(secs) * time.Second
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 30*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 120*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Breaker defaults
	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 60*time.Second)
	v.SetDefault("breaker.max_half_open_requests", 1)

	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})

	// Stability defaults
	v.SetDefault("stability.api_key", "")
	v.SetDefault("stability.base_url", "https://api.stability.ai/v2beta")
	v.SetDefault("stability.output_dir", "output/images")
	v.SetDefault("stability.poll_interval", 10*time.Second)
	v.SetDefault("stability.poll_timeout", 500*time.Second)
	v.SetDefault("stability.max_concurrent", 1)
	v.SetDefault("stability.factions_file", "data/factions.json")
	v.SetDefault("stability.upload_prefix", "images/")

	// ClickUp defaults
	v.SetDefault("clickup.api_token", "")
	v.SetDefault("clickup.base_url", "https://api.clickup.com/api/v2")
	v.SetDefault("clickup.list_id", "")
	v.SetDefault("clickup.workspace_id", "")
	v.SetDefault("clickup.custom_fields", map[string]string{})
	v.SetDefault("clickup.statuses.open", "Open")
	v.SetDefault("clickup.statuses.ai_analysis", "AI Analysis")
	v.SetDefault("clickup.statuses.subtasks_pending", "Subtasks Pending")
	v.SetDefault("clickup.statuses.checklist_pending", "Checklist Pending")
	v.SetDefault("clickup.statuses.tec_data_drop", "TEC Data Drop")
	v.SetDefault("clickup.statuses.polkin_pre_deploy", "Polkin pre-deploy")
	v.SetDefault("clickup.trigger_tags", []string{
		"ai-alpha-commence-assessment",
		"1st drop",
		"content",
		"automation",
		"ai-collab",
	})
	v.SetDefault("clickup.team_members", map[string]string{})
	v.SetDefault("clickup.templates_file", "data/task_templates.json")

	// WordPress defaults
	v.SetDefault("wordpress.site_url", "")
	v.SetDefault("wordpress.user", "")
	v.SetDefault("wordpress.app_password", "")
	v.SetDefault("wordpress.post_status", "draft")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 1000)

	// Storage defaults
	v.SetDefault("storage.endpoint", "https://storage.googleapis.com")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.backup_prefix", "backups/")

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "airth:memory:")

	// Database defaults
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	// Pipeline defaults
	v.SetDefault("pipeline.ready_status", "Ready for Publishing")
	v.SetDefault("pipeline.published_status", "Published")

	// Content defaults
	v.SetDefault("content.prompts_file", "config/prompts.yaml")
	v.SetDefault("content.memory_limit", 3)
	v.SetDefault("content.max_chunk_size", 1000)
	v.SetDefault("content.blog_max_tokens", 2000)
}
