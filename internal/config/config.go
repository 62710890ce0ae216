package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel string

	// Structure resolution
	MaxScanPages     int       // page cap for missing-section discovery
	AnchorThresholds []float64 // similarity ladder for heading anchors, tried in order

	// Segmentation
	MinParagraphLength int
	HeaderFontDelta    float64
	ShortMergeTokens   int
	RepeatBandMargin   float64
	RepeatBandMinPages int

	// Batch pipeline
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Output
	OutputDir string
}

func Load() Config {
	cfg := Config{
		LogLevel: envOr("DOCSTRUCT_LOG_LEVEL", "info"),

		MaxScanPages:     envInt("DOCSTRUCT_MAX_SCAN_PAGES", 20),
		AnchorThresholds: envFloats("DOCSTRUCT_ANCHOR_THRESHOLDS", []float64{0.6, 0.4, 0.25, 0.15}),

		MinParagraphLength: envInt("DOCSTRUCT_MIN_PARAGRAPH_LENGTH", 10),
		HeaderFontDelta:    envFloat("DOCSTRUCT_HEADER_FONT_DELTA", 2.0),
		ShortMergeTokens:   envInt("DOCSTRUCT_SHORT_MERGE_TOKENS", 100),
		RepeatBandMargin:   envFloat("DOCSTRUCT_REPEAT_BAND_MARGIN", 60),
		RepeatBandMinPages: envInt("DOCSTRUCT_REPEAT_BAND_MIN_PAGES", 3),

		WorkerCount:  envInt("DOCSTRUCT_WORKER_COUNT", 4),
		MaxQueueSize: envInt("DOCSTRUCT_MAX_QUEUE_SIZE", 100),
		JobTTL:       envDuration("DOCSTRUCT_JOB_TTL", 1*time.Hour),

		OutputDir: envOr("DOCSTRUCT_OUTPUT_DIR", "out"),
	}

	if cfg.MaxScanPages <= 0 {
		cfg.MaxScanPages = 20
	}
	if cfg.MinParagraphLength <= 0 {
		cfg.MinParagraphLength = 10
	}
	if cfg.HeaderFontDelta <= 0 {
		cfg.HeaderFontDelta = 2.0
	}
	if cfg.ShortMergeTokens < 0 {
		cfg.ShortMergeTokens = 100
	}
	if cfg.RepeatBandMargin <= 0 {
		cfg.RepeatBandMargin = 60
	}
	if cfg.RepeatBandMinPages <= 0 {
		cfg.RepeatBandMinPages = 3
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if len(c.AnchorThresholds) == 0 {
		return fmt.Errorf("DOCSTRUCT_ANCHOR_THRESHOLDS must list at least one threshold")
	}
	for _, t := range c.AnchorThresholds {
		if t <= 0 || t > 1 {
			return fmt.Errorf("anchor threshold %v out of range (0,1]", t)
		}
	}
	if c.OutputDir == "" {
		return fmt.Errorf("DOCSTRUCT_OUTPUT_DIR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envFloats parses a comma-separated float list. Any unparsable element
// invalidates the whole value and the fallback is used.
func envFloats(key string, fallback []float64) []float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fallback
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
