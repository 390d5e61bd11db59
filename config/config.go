// Package config loads the service configuration from an optional YAML file
// layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/answerdesk/ai"
	"github.com/poiesic/answerdesk/answer"
	"github.com/poiesic/answerdesk/normalize"
	"github.com/poiesic/answerdesk/questionlog"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Knowledge   KnowledgeConfig   `yaml:"knowledge"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Acronyms    []string          `yaml:"acronyms"`
	Policy      answer.Policy     `yaml:"policy"`
	Messages    MessagesConfig    `yaml:"messages"`
	QuestionLog QuestionLogConfig `yaml:"question_log"`
	Server      ServerConfig      `yaml:"server"`
}

// KnowledgeConfig locates the knowledge source.
type KnowledgeConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig configures the embedding service and its cache.
type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	Dimension int    `yaml:"dimension"`
	Normalize bool   `yaml:"normalize"`
	BatchSize int    `yaml:"batch_size"`
	// CacheDir enables the on-disk embedding cache when set.
	CacheDir string `yaml:"cache_dir"`
}

// MessagesConfig holds user-facing response texts.
type MessagesConfig struct {
	NotFound      string `yaml:"not_found"`
	Reference     string `yaml:"reference"`
	RelatedHeader string `yaml:"related_header"`
}

// QuestionLogConfig configures the unanswered question log.
type QuestionLogConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Path       string        `yaml:"path"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MergeSchedule string `yaml:"merge_schedule"`
	Metrics       bool   `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	emb := ai.DefaultConfig()
	return &Config{
		Knowledge: KnowledgeConfig{Path: "data/data.xlsx"},
		Embedding: EmbeddingConfig{
			Host:      emb.EmbeddingHost,
			Model:     emb.EmbeddingModel,
			APIKey:    emb.APIKey,
			Dimension: emb.Dimension,
			Normalize: emb.NormalizeEmbeddings,
			BatchSize: emb.BatchSize,
		},
		Acronyms: append([]string(nil), normalize.DefaultAcronyms...),
		Policy:   answer.DefaultPolicy(),
		Messages: MessagesConfig{
			NotFound:      answer.DefaultNotFoundMessage,
			Reference:     answer.DefaultReferenceLabel,
			RelatedHeader: answer.DefaultRelatedHeader,
		},
		QuestionLog: QuestionLogConfig{
			Enabled:    true,
			Path:       "logs/unanswered_questions.xlsx",
			MaxRetries: questionlog.DefaultMaxRetries,
			RetryDelay: questionlog.DefaultRetryDelay,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MergeSchedule: "@every 30s",
			Metrics:       true,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// AIConfig converts the embedding settings to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimension(c.Embedding.Dimension),
		ai.WithNormalizeEmbeddings(c.Embedding.Normalize),
		ai.WithBatchSize(c.Embedding.BatchSize),
	)
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Knowledge.Path == "" {
		errs = append(errs, errors.New("knowledge.path is required"))
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.QuestionLog.Enabled {
		if c.QuestionLog.Path == "" {
			errs = append(errs, errors.New("question_log.path is required"))
		}
		if c.QuestionLog.MaxRetries < 1 {
			errs = append(errs, errors.New("question_log.max_retries must be at least 1"))
		}
		if c.QuestionLog.RetryDelay < 0 {
			errs = append(errs, errors.New("question_log.retry_delay cannot be negative"))
		}
	}
	return errors.Join(errs...)
}
