package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/view111111/lungsound-pipeline/internal/config"
	"github.com/view111111/lungsound-pipeline/internal/dataset"
	"github.com/view111111/lungsound-pipeline/internal/evaluate"
	"github.com/view111111/lungsound-pipeline/internal/metrics"
	"github.com/view111111/lungsound-pipeline/internal/mixup"
	"github.com/view111111/lungsound-pipeline/internal/pool"
	"github.com/view111111/lungsound-pipeline/internal/spectrogram"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "lungsound-pipeline"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	predictionsPath := flag.String("predictions", "", "Path to a JSON file of test-set prediction vectors to score")
	noProgress := flag.Bool("no-progress", false, "Disable terminal progress bars")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Pipeline starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)
	logger.Info("Configuration loaded",
		slog.String("data_dir", cfg.Data.DataDir),
		slog.String("cache_dir", cfg.Data.CacheDir),
		slog.Int("sample_rate", cfg.Data.SampleRate),
		slog.Float64("test_fraction", cfg.Data.TestFraction),
		slog.String("based_image", cfg.Renderer.BasedImage),
		slog.Int("image_length", cfg.Renderer.ImageLength),
		slog.Bool("mixup_enabled", cfg.Mixup.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics and the scrape endpoint (if enabled)
	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.NewMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			logger.Info("Metrics endpoint listening", slog.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				logger.Error("Metrics endpoint failed", slog.String("error", err.Error()))
			}
		}()
	}

	renderer, err := spectrogram.New(rendererConfig(cfg))
	if err != nil {
		logger.Error("Failed to create renderer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	builder := &dataset.Builder{
		DataDir:         cfg.Data.DataDir,
		SampleRate:      cfg.Data.SampleRate,
		TestFraction:    cfg.Data.TestFraction,
		SplitSeed:       cfg.Data.SplitSeed,
		Renderer:        renderer,
		FFTVectorLength: cfg.Renderer.FFTVectorLength,
		Cache:           &pool.Cache{Dir: cfg.Data.CacheDir},
		Metrics:         appMetrics,
		Logger:          logger,
		ShowProgress:    !*noProgress,
	}

	train, test, err := builder.Build()
	if err != nil {
		logger.Error("Failed to build dataset", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Pools ready",
		slog.Int("train_samples", train.Len()),
		slog.Int("test_samples", test.Len()),
	)

	if cfg.Mixup.Enabled {
		stream := mixup.NewStream(cfg.Mixup.Seed)
		rounds := make([]mixup.Round, len(cfg.Mixup.Rounds))
		for i, r := range cfg.Mixup.Rounds {
			rounds[i] = mixup.Round{Alpha: r.Alpha, BatchSize: r.BatchSize}
		}

		augmented, err := mixup.Augment(train, rounds, cfg.Mixup.IncludeNormal, stream)
		if err != nil {
			logger.Error("Augmentation failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		synthesized := augmented.Len() - train.Len()
		if appMetrics != nil {
			appMetrics.RecordSamplesSynthesized(synthesized)
		}
		logger.Info("Mixup augmentation complete",
			slog.Int("rounds", len(rounds)),
			slog.Int("synthesized", synthesized),
			slog.Int("train_samples", augmented.Len()),
		)

		if err := builder.Cache.SavePool(pool.AugmentedImages, augmented); err != nil {
			logger.Error("Failed to export augmented pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		train = augmented
	}

	if *predictionsPath != "" {
		if err := scorePredictions(logger, *predictionsPath, test); err != nil {
			logger.Error("Failed to score predictions", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("Pipeline finished",
		slog.Int("train_samples", train.Len()),
		slog.Int("test_samples", test.Len()),
	)
}

// scorePredictions reads prediction vectors for the test pool and
// prints the scoring report as JSON on stdout.
func scorePredictions(logger *slog.Logger, path string, test *pool.Pool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read predictions %s: %w", path, err)
	}

	var preds [][]float64
	if err := json.Unmarshal(data, &preds); err != nil {
		return fmt.Errorf("failed to parse predictions: %w", err)
	}

	report, err := evaluate.Evaluate(test.Labels, preds)
	if err != nil {
		return err
	}

	logger.Info("Predictions scored",
		slog.Int("samples", len(preds)),
		slog.Float64("accuracy", report.Accuracy),
		slog.Float64("harmonic_score", report.HarmonicScore),
	)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func rendererConfig(cfg *config.Config) spectrogram.Config {
	return spectrogram.Config{
		Variant:     cfg.Renderer.BasedImage,
		SampleRate:  cfg.Data.SampleRate,
		ImageLength: cfg.Renderer.ImageLength,
		FMin:        cfg.Renderer.FMin,
		FMax:        cfg.Renderer.FMax,
		NFFT:        cfg.Renderer.NFFT,
		Hop:         cfg.Renderer.Hop,
		FrameLength: cfg.Renderer.FrameLength,
		FrameStep:   cfg.Renderer.FrameStep,
		FFTLength:   cfg.Renderer.FFTLength,
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
