package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the career assistant service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MigrationsDir  string        `mapstructure:"migrations_dir"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// Normalize applies defaults for unset server values.
func (s ServerConfig) Normalize() ServerConfig {
	s.Address = strings.TrimSpace(s.Address)
	if s.Address == "" {
		s.Address = ":8000"
	}
	if s.Address[0] != ':' && !strings.Contains(s.Address, ":") {
		s.Address = ":" + s.Address
	}
	if len(s.AllowOrigins) == 0 {
		s.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 60 * time.Second
	}
	if strings.TrimSpace(s.MigrationsDir) == "" {
		s.MigrationsDir = "file://migrations"
	}
	return s
}

// StorageConfig selects the conversation store backend.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // postgres or redis
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

const (
	StorageBackendPostgres = "postgres"
	StorageBackendRedis    = "redis"
)

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case StorageBackendPostgres:
		return s.Postgres.Validate()
	case StorageBackendRedis:
		return s.Redis.Validate()
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", StorageBackendPostgres, StorageBackendRedis, s.Backend)
	}
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	// Timeout bounds connection setup and the startup ping.
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds the connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
	if p.Timeout > 0 {
		dsn += fmt.Sprintf("&connect_timeout=%d", int(math.Ceil(p.Timeout.Seconds())))
	}
	return dsn, nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr returns host:port.
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

// Enabled reports whether a redis endpoint is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

// LLMConfig configures the text-completion and embedding provider.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"` // openai or gemini
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Normalize applies provider defaults.
func (c LLMConfig) Normalize() LLMConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.CompletionModel == "" {
		switch c.Provider {
		case "gemini":
			c.CompletionModel = "gemini-2.0-flash"
		default:
			c.CompletionModel = "gpt-4o-mini"
		}
	}
	if c.EmbeddingModel == "" {
		switch c.Provider {
		case "gemini":
			c.EmbeddingModel = "text-embedding-004"
		default:
			c.EmbeddingModel = "text-embedding-3-small"
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be openai or gemini, got %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2]")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens cannot be negative")
	}
	return nil
}

// JobsConfig configures the live job provider and its offline fallback.
type JobsConfig struct {
	Adzuna          AdzunaConfig  `mapstructure:"adzuna"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ResultsLimit    int           `mapstructure:"results_limit"`
	DefaultRole     string        `mapstructure:"default_role"`
	DefaultLocation string        `mapstructure:"default_location"`
	OfflineSnapshot string        `mapstructure:"offline_snapshot"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

// AdzunaConfig contains Adzuna API credentials.
type AdzunaConfig struct {
	AppID    string `mapstructure:"app_id"`
	AppKey   string `mapstructure:"app_key"`
	Endpoint string `mapstructure:"endpoint"`
	Country  string `mapstructure:"country"`
}

// Normalize applies defaults for unset job settings.
func (c JobsConfig) Normalize() JobsConfig {
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.ResultsLimit <= 0 {
		c.ResultsLimit = 3
	}
	if strings.TrimSpace(c.DefaultRole) == "" {
		c.DefaultRole = "engineer"
	}
	if strings.TrimSpace(c.DefaultLocation) == "" {
		c.DefaultLocation = "India"
	}
	if c.Adzuna.Endpoint == "" {
		c.Adzuna.Endpoint = "https://api.adzuna.com/v1/api/jobs"
	}
	c.Adzuna.Endpoint = strings.TrimRight(c.Adzuna.Endpoint, "/")
	if c.Adzuna.Country == "" {
		c.Adzuna.Country = "in"
	}
	return c
}

func (c JobsConfig) Validate() error {
	if c.CacheTTL < 0 {
		return fmt.Errorf("jobs.cache_ttl cannot be negative")
	}
	return nil
}

// KnowledgeConfig configures corpus loading, indexing and the RAG chain.
type KnowledgeConfig struct {
	DataDir          string        `mapstructure:"data_dir"`
	URLs             []string      `mapstructure:"urls"`
	IndexPath        string        `mapstructure:"index_path"`
	Builtin          bool          `mapstructure:"builtin"`
	Hybrid           bool          `mapstructure:"hybrid"`
	TopK             int           `mapstructure:"top_k"`
	ChunkSize        int           `mapstructure:"chunk_size"`
	ChunkOverlap     int           `mapstructure:"chunk_overlap"`
	MaxContextChars  int           `mapstructure:"max_context_chars"`
	CondenseQuestion bool          `mapstructure:"condense_question"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
}

// Normalize applies defaults for unset knowledge settings.
func (c KnowledgeConfig) Normalize() KnowledgeConfig {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = 6000
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	return c
}

func (c KnowledgeConfig) Validate() error {
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("knowledge.chunk_overlap must be smaller than knowledge.chunk_size")
	}
	return nil
}

// MemoryConfig controls per-session conversational memory.
type MemoryConfig struct {
	Window            int  `mapstructure:"window"`
	Summarize         bool `mapstructure:"summarize"`
	// SummaryBatchChars caps the conversation text sent in one summarizer call.
	SummaryBatchChars int  `mapstructure:"summary_batch_chars"`
	// MaxBacklogChars caps the overflow folded per request; older overflow is dropped.
	MaxBacklogChars   int  `mapstructure:"max_backlog_chars"`
}

// Normalize applies defaults for unset memory values.
func (c MemoryConfig) Normalize() MemoryConfig {
	if c.Window <= 0 {
		c.Window = 6
	}
	if c.SummaryBatchChars <= 0 {
		c.SummaryBatchChars = 8000
	}
	if c.MaxBacklogChars <= 0 {
		c.MaxBacklogChars = 4 * c.SummaryBatchChars
	}
	if c.MaxBacklogChars < c.SummaryBatchChars {
		c.MaxBacklogChars = c.SummaryBatchChars
	}
	return c
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads configuration from path, or searches the usual locations when path is empty.
// A missing config file is not an error: defaults and CAREERCHAT_* environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CAREERCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = cfg.Server.Normalize()
	cfg.LLM = cfg.LLM.Normalize()
	cfg.Jobs = cfg.Jobs.Normalize()
	cfg.Knowledge = cfg.Knowledge.Normalize()
	cfg.Memory = cfg.Memory.Normalize()
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "careerchat"
	}

	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Jobs.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Knowledge.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", StorageBackendPostgres)
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.dbname", "careerchat")
	v.SetDefault("storage.postgres.user", "careerchat")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.timeout", "5s")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("knowledge.builtin", true)
	v.SetDefault("knowledge.hybrid", true)
	v.SetDefault("knowledge.chunk_overlap", 200)
	v.SetDefault("knowledge.condense_question", true)
	v.SetDefault("memory.summarize", true)
	v.SetDefault("jobs.cache_ttl", "15m")
	// bound so AutomaticEnv picks them up without a config file entry
	for _, key := range []string{
		"llm.api_key", "llm.base_url",
		"jobs.adzuna.app_id", "jobs.adzuna.app_key",
		"storage.postgres.url", "storage.postgres.password",
		"storage.redis.host", "storage.redis.password",
		"telemetry.otlp_endpoint",
	} {
		_ = v.BindEnv(key)
	}
}
