package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

var validate = validator.New()

// TuningConfig represents the root configuration for analysis tuning.
// Every field is optional; the Get* accessors supply the defaults, so a
// partial file only overrides what it names.
type TuningConfig struct {
	// Repetition state machine thresholds (degrees)
	RepThresholdUp   *float64 `json:"rep_threshold_up,omitempty" validate:"omitempty,gte=0,lte=180"`
	RepThresholdDown *float64 `json:"rep_threshold_down,omitempty" validate:"omitempty,gte=0,lte=180"`

	// Hold position band (degrees, exclusive on both ends)
	HoldMinAngle *float64 `json:"hold_min_angle,omitempty" validate:"omitempty,gte=0,lte=360"`
	HoldMaxAngle *float64 `json:"hold_max_angle,omitempty" validate:"omitempty,gte=0,lte=360"`

	// Number of recent frame scores averaged into a hold session's quality
	HoldQualityWindow *int `json:"hold_quality_window,omitempty" validate:"omitempty,gte=1,lte=10000"`

	// Frame scores below this tag feedback as warnings
	WarningScore *float64 `json:"warning_score,omitempty" validate:"omitempty,gte=0,lte=1"`

	// Frame rate used to derive timestamps when a source carries none
	DefaultFPS *float64 `json:"default_fps,omitempty" validate:"omitempty,gt=0,lte=1000"`

	// Job execution
	MaxConcurrentJobs *int    `json:"max_concurrent_jobs,omitempty" validate:"omitempty,gte=1,lte=64"`
	DetectorPoolSize  *int    `json:"detector_pool_size,omitempty" validate:"omitempty,gte=1,lte=64"`
	JobTimeout        *string `json:"job_timeout,omitempty"` // duration string like "10m"; "0s" disables

	// Detection memoization cache size in MiB; 0 disables the cache
	DetectionCacheMB *int `json:"detection_cache_mb,omitempty" validate:"omitempty,gte=0,lte=4096"`

	// Keep a per-frame record in every AnalysisResult
	RecordFrames *bool `json:"record_frames,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		RepThresholdUp:    ptrFloat64(empty.GetRepThresholdUp()),
		RepThresholdDown:  ptrFloat64(empty.GetRepThresholdDown()),
		HoldMinAngle:      ptrFloat64(empty.GetHoldMinAngle()),
		HoldMaxAngle:      ptrFloat64(empty.GetHoldMaxAngle()),
		HoldQualityWindow: ptrInt(empty.GetHoldQualityWindow()),
		WarningScore:      ptrFloat64(empty.GetWarningScore()),
		DefaultFPS:        ptrFloat64(empty.GetDefaultFPS()),
		MaxConcurrentJobs: ptrInt(empty.GetMaxConcurrentJobs()),
		DetectorPoolSize:  ptrInt(empty.GetDetectorPoolSize()),
		JobTimeout:        ptrString("0s"),
		DetectionCacheMB:  ptrInt(empty.GetDetectionCacheMB()),
		RecordFrames:      ptrBool(empty.GetRecordFrames()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/vision/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/vision/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.GetRepThresholdDown() >= c.GetRepThresholdUp() {
		return fmt.Errorf("rep_threshold_down (%.1f) must be below rep_threshold_up (%.1f)",
			c.GetRepThresholdDown(), c.GetRepThresholdUp())
	}

	if c.GetHoldMinAngle() >= c.GetHoldMaxAngle() {
		return fmt.Errorf("hold_min_angle (%.1f) must be below hold_max_angle (%.1f)",
			c.GetHoldMinAngle(), c.GetHoldMaxAngle())
	}

	if c.JobTimeout != nil && *c.JobTimeout != "" {
		d, err := time.ParseDuration(*c.JobTimeout)
		if err != nil {
			return fmt.Errorf("invalid job_timeout '%s': %w", *c.JobTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("job_timeout must be non-negative, got %s", d)
		}
	}

	return nil
}

// GetRepThresholdUp returns the angle above which a rep exercise is in the UP position.
func (c *TuningConfig) GetRepThresholdUp() float64 {
	if c.RepThresholdUp == nil {
		return 160
	}
	return *c.RepThresholdUp
}

// GetRepThresholdDown returns the angle below which a rep exercise is in the DOWN position.
func (c *TuningConfig) GetRepThresholdDown() float64 {
	if c.RepThresholdDown == nil {
		return 90
	}
	return *c.RepThresholdDown
}

// GetHoldMinAngle returns the exclusive lower bound of the hold band.
func (c *TuningConfig) GetHoldMinAngle() float64 {
	if c.HoldMinAngle == nil {
		return 160
	}
	return *c.HoldMinAngle
}

// GetHoldMaxAngle returns the exclusive upper bound of the hold band.
func (c *TuningConfig) GetHoldMaxAngle() float64 {
	if c.HoldMaxAngle == nil {
		return 190
	}
	return *c.HoldMaxAngle
}

// GetHoldQualityWindow returns the hold_quality_window value or the default.
func (c *TuningConfig) GetHoldQualityWindow() int {
	if c.HoldQualityWindow == nil {
		return 10
	}
	return *c.HoldQualityWindow
}

// GetWarningScore returns the warning_score value or the default.
func (c *TuningConfig) GetWarningScore() float64 {
	if c.WarningScore == nil {
		return 0.7
	}
	return *c.WarningScore
}

// GetDefaultFPS returns the default_fps value or the default.
func (c *TuningConfig) GetDefaultFPS() float64 {
	if c.DefaultFPS == nil {
		return 30
	}
	return *c.DefaultFPS
}

// GetMaxConcurrentJobs returns the max_concurrent_jobs value or the default.
func (c *TuningConfig) GetMaxConcurrentJobs() int {
	if c.MaxConcurrentJobs == nil {
		return 2
	}
	return *c.MaxConcurrentJobs
}

// GetDetectorPoolSize returns the detector_pool_size value or the default.
func (c *TuningConfig) GetDetectorPoolSize() int {
	if c.DetectorPoolSize == nil {
		return 2
	}
	return *c.DetectorPoolSize
}

// GetJobTimeout parses and returns the JobTimeout as a time.Duration.
// Zero means no timeout.
func (c *TuningConfig) GetJobTimeout() time.Duration {
	if c.JobTimeout == nil || *c.JobTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.JobTimeout)
	if err != nil || d < 0 {
		return 0 // default on parse error
	}
	return d
}

// GetDetectionCacheMB returns the detection_cache_mb value or the default.
func (c *TuningConfig) GetDetectionCacheMB() int {
	if c.DetectionCacheMB == nil {
		return 0
	}
	return *c.DetectionCacheMB
}

// GetRecordFrames returns the record_frames value or the default.
func (c *TuningConfig) GetRecordFrames() bool {
	if c.RecordFrames == nil {
		return false
	}
	return *c.RecordFrames
}
