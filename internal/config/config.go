// Package config loads the YAML configuration of the anp command.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/anp/internal/nn"
	"github.com/born-ml/anp/internal/np"
)

// Config is the top-level configuration.
type Config struct {
	Model ModelConfig `yaml:"model"`
	Data  DataConfig  `yaml:"data"`
	Train TrainConfig `yaml:"train"`
	Log   LogConfig   `yaml:"log"`
}

// ModelConfig describes the encoder and the reference latent model.
type ModelConfig struct {
	Encoder       np.Kind `yaml:"encoder"`
	XDim          int     `yaml:"x_dim"`
	YDim          int     `yaml:"y_dim"`
	HDim          int     `yaml:"h_dim"`
	RSDim         []int   `yaml:"rs_dim"`
	LatentDim     int     `yaml:"latent_dim"`
	VocabSize     int     `yaml:"vocab_size"`
	ContextPoints int     `yaml:"context_points"`
	TargetLatent  bool    `yaml:"target_latent"`
	Seed          int64   `yaml:"seed"`
}

// DataConfig describes how batches are produced.
type DataConfig struct {
	BatchSize int `yaml:"batch_size"`
	NumPoints int `yaml:"num_points"`
	// Tokenizer names the tokenizer used for text corpora.
	Tokenizer string `yaml:"tokenizer"`
	// MaxVocab caps the corpus vocabulary; rarer tokens map to the unknown id.
	MaxVocab int `yaml:"max_vocab"`
}

// TrainConfig describes the step driver.
type TrainConfig struct {
	Workers int `yaml:"workers"`
	Steps   int `yaml:"steps"`
}

// LogConfig describes the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Encoder:      np.KindMLP,
			XDim:         1,
			YDim:         8,
			HDim:         32,
			RSDim:        []int{16},
			LatentDim:    8,
			VocabSize:    64,
			TargetLatent: true,
			Seed:         1,
		},
		Data: DataConfig{
			BatchSize: 4,
			NumPoints: 16,
			Tokenizer: "cl100k_base",
			MaxVocab:  4096,
		},
		Train: TrainConfig{
			Workers: 2,
			Steps:   10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads and validates the configuration at path. Fields missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config files are not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks c. Errors wrap nn.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.Reference().Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if c.Data.BatchSize <= 0 || c.Data.NumPoints <= 0 {
		return fmt.Errorf("data: %w: batch_size and num_points must be positive", nn.ErrConfiguration)
	}
	if c.Model.ContextPoints > c.Data.NumPoints {
		return fmt.Errorf("data: %w: context_points %d exceeds num_points %d",
			nn.ErrConfiguration, c.Model.ContextPoints, c.Data.NumPoints)
	}
	if c.Data.MaxVocab < 0 {
		return fmt.Errorf("data: %w: max_vocab must not be negative", nn.ErrConfiguration)
	}
	if c.Train.Workers <= 0 || c.Train.Steps < 0 {
		return fmt.Errorf("train: %w: workers must be positive and steps non-negative", nn.ErrConfiguration)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log: %w: unknown format %q", nn.ErrConfiguration, c.Log.Format)
	}
	return nil
}

// Encoder returns the encoder configuration.
func (c *Config) Encoder() np.EncoderConfig {
	return np.EncoderConfig{
		Kind:  c.Model.Encoder,
		XDim:  c.Model.XDim,
		YDim:  c.Model.YDim,
		HDim:  c.Model.HDim,
		RSDim: append(np.RSDim(nil), c.Model.RSDim...),
	}
}

// Reference returns the reference model configuration.
func (c *Config) Reference() np.ReferenceConfig {
	return np.ReferenceConfig{
		Encoder:       c.Encoder(),
		VocabSize:     c.Model.VocabSize,
		LatentDim:     c.Model.LatentDim,
		ContextPoints: c.Model.ContextPoints,
		TargetLatent:  c.Model.TargetLatent,
	}
}
