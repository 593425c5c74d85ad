package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigError reports an invalid configuration value. It is returned at load
// time; components never re-validate thresholds at run time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Reason)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig holds queue/status backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MinioConfig holds object storage settings for uploaded documents.
type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	UseSSL     bool   `yaml:"useSSL"`
	Region     string `yaml:"region"`
	BucketName string `yaml:"bucketName"`
}

// StoreConfig holds the sqlite database location.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SummarizerConfig holds settings for the OpenAI-compatible summarization
// backend.
type SummarizerConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// UnsplashConfig holds image search settings.
type UnsplashConfig struct {
	AccessKey string        `yaml:"accessKey"`
	BaseURL   string        `yaml:"baseURL"`
	PerPage   int           `yaml:"perPage"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PipelineConfig holds every tunable the core algorithms depend on. The
// struct is passed by value into component constructors so parallel tests can
// run with different thresholds without shared state.
type PipelineConfig struct {
	ChunkTargetWords   int     `yaml:"chunkTargetWords"`
	RelevanceThreshold float64 `yaml:"relevanceThreshold"`

	SimilarityThreshold      float64 `yaml:"similarityThreshold"`
	TitleSimilarityThreshold float64 `yaml:"titleSimilarityThreshold"`

	MaxFileSizeMB  int           `yaml:"maxFileSizeMB"`
	SummarizeDelay time.Duration `yaml:"summarizeDelay"`
	ItemTimeout    time.Duration `yaml:"itemTimeout"`
}

// Config is the root application configuration. Immutable after Load.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Minio      MinioConfig      `yaml:"minio"`
	Store      StoreConfig      `yaml:"store"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Unsplash   UnsplashConfig   `yaml:"unsplash"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	LogLevel   string           `yaml:"logLevel"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Minio: MinioConfig{
			Endpoint:   "localhost:9000",
			BucketName: "health-documents",
		},
		Store: StoreConfig{Path: "data/articles.db"},
		Summarizer: SummarizerConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Unsplash: UnsplashConfig{
			BaseURL: "https://api.unsplash.com",
			PerPage: 10,
			Timeout: 10 * time.Second,
		},
		Pipeline: PipelineConfig{
			ChunkTargetWords:         200,
			RelevanceThreshold:       0.3,
			SimilarityThreshold:      0.65,
			TitleSimilarityThreshold: 0.8,
			MaxFileSizeMB:            50,
			SummarizeDelay:           time.Second,
			ItemTimeout:              30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML config file at path, applies environment overrides for
// secrets, and validates the result. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	// .env is optional; plain environment variables still apply.
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.Minio.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET_NAME"); v != "" {
		cfg.Minio.BucketName = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Summarizer.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Summarizer.BaseURL = v
	}
	if v := os.Getenv("UNSPLASH_ACCESS_KEY"); v != "" {
		cfg.Unsplash.AccessKey = v
	}
}

// Validate rejects values outside their documented ranges.
func (c Config) Validate() error {
	if err := unitRange("pipeline.relevanceThreshold", c.Pipeline.RelevanceThreshold); err != nil {
		return err
	}
	if err := unitRange("pipeline.similarityThreshold", c.Pipeline.SimilarityThreshold); err != nil {
		return err
	}
	if err := unitRange("pipeline.titleSimilarityThreshold", c.Pipeline.TitleSimilarityThreshold); err != nil {
		return err
	}
	if c.Pipeline.ChunkTargetWords <= 0 {
		return &ConfigError{Field: "pipeline.chunkTargetWords", Reason: "must be positive"}
	}
	if c.Pipeline.MaxFileSizeMB <= 0 {
		return &ConfigError{Field: "pipeline.maxFileSizeMB", Reason: "must be positive"}
	}
	if c.Pipeline.SummarizeDelay < 0 {
		return &ConfigError{Field: "pipeline.summarizeDelay", Reason: "must not be negative"}
	}
	if c.Pipeline.ItemTimeout <= 0 {
		return &ConfigError{Field: "pipeline.itemTimeout", Reason: "must be positive"}
	}
	return nil
}

func unitRange(field string, v float64) error {
	if v < 0 || v > 1 {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("%v outside [0,1]", v)}
	}
	return nil
}
