package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Renderer RendererConfig `yaml:"renderer"`
	Mixup    MixupConfig    `yaml:"mixup"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig contains corpus location and split parameters
type DataConfig struct {
	DataDir      string  `yaml:"data_dir"`      // directory holding <name>.wav/.flac + <name>.txt pairs
	CacheDir     string  `yaml:"cache_dir"`     // directory for cached pool artifacts
	SampleRate   int     `yaml:"sample_rate"`   // rate recordings are resampled to
	TestFraction float64 `yaml:"test_fraction"` // held-out fraction per class
	SplitSeed    uint64  `yaml:"split_seed"`
}

// RendererConfig contains spectrogram rendering parameters
type RendererConfig struct {
	BasedImage      string  `yaml:"based_image"` // "mel" or "stft"
	ImageLength     int     `yaml:"image_length"`
	FMin            float64 `yaml:"f_min"`
	FMax            float64 `yaml:"f_max"`
	NFFT            int     `yaml:"n_fft"`
	Hop             int     `yaml:"hop"`
	FrameLength     int     `yaml:"frame_length"`
	FrameStep       int     `yaml:"frame_step"`
	FFTLength       int     `yaml:"fft_length"`
	FFTVectorLength int     `yaml:"fft_vector_length"`
}

// MixupRound parameterizes one augmentation round
type MixupRound struct {
	Alpha     float64 `yaml:"alpha"`
	BatchSize int     `yaml:"batch_size"`
}

// MixupConfig contains augmentation parameters
type MixupConfig struct {
	Enabled       bool         `yaml:"enabled"`
	IncludeNormal bool         `yaml:"include_normal"`
	Seed          uint64       `yaml:"seed"`
	Rounds        []MixupRound `yaml:"rounds"`
}

// MetricsConfig contains the optional Prometheus listener configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config: %w", err)
	}

	if err := c.Renderer.Validate(); err != nil {
		return fmt.Errorf("renderer config: %w", err)
	}

	if err := c.Mixup.Validate(); err != nil {
		return fmt.Errorf("mixup config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates corpus configuration
func (d *DataConfig) Validate() error {
	if d.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	if d.CacheDir == "" {
		return fmt.Errorf("cache_dir cannot be empty")
	}

	if d.SampleRate < 1000 {
		return fmt.Errorf("sample_rate must be at least 1000 Hz, got %d", d.SampleRate)
	}

	if d.TestFraction <= 0 || d.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be between 0 and 1 (exclusive), got %f", d.TestFraction)
	}

	return nil
}

// Validate validates renderer configuration
func (r *RendererConfig) Validate() error {
	if r.BasedImage != "mel" && r.BasedImage != "stft" {
		return fmt.Errorf("based_image must be 'mel' or 'stft', got '%s'", r.BasedImage)
	}

	if r.ImageLength < 16 {
		return fmt.Errorf("image_length must be at least 16, got %d", r.ImageLength)
	}

	if r.FMin < 0 {
		return fmt.Errorf("f_min cannot be negative, got %f", r.FMin)
	}

	if r.FMax <= r.FMin {
		return fmt.Errorf("f_max (%f) must be greater than f_min (%f)", r.FMax, r.FMin)
	}

	if r.NFFT < 2*r.ImageLength {
		return fmt.Errorf("n_fft must be at least twice image_length, got %d", r.NFFT)
	}

	if r.Hop < 1 {
		return fmt.Errorf("hop must be at least 1, got %d", r.Hop)
	}

	if r.BasedImage == "stft" {
		if r.FrameLength < 2 {
			return fmt.Errorf("frame_length must be at least 2, got %d", r.FrameLength)
		}

		if r.FrameStep < 4 {
			return fmt.Errorf("frame_step must be at least 4, got %d", r.FrameStep)
		}

		if r.FFTLength < r.FrameLength {
			return fmt.Errorf("fft_length (%d) must be at least frame_length (%d)", r.FFTLength, r.FrameLength)
		}
	}

	if r.FFTVectorLength < 2 {
		return fmt.Errorf("fft_vector_length must be at least 2, got %d", r.FFTVectorLength)
	}

	return nil
}

// Validate validates augmentation configuration
func (m *MixupConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if len(m.Rounds) == 0 {
		return fmt.Errorf("rounds cannot be empty when mixup is enabled")
	}

	for i, round := range m.Rounds {
		if round.Alpha <= 0 {
			return fmt.Errorf("round %d: alpha must be positive, got %f", i, round.Alpha)
		}
		if round.BatchSize < 1 {
			return fmt.Errorf("round %d: batch_size must be at least 1, got %d", i, round.BatchSize)
		}
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address cannot be empty when metrics are enabled")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}
