package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.RepThresholdUp == nil || *cfg.RepThresholdUp != 160 {
		t.Errorf("Expected RepThresholdUp 160, got %v", cfg.RepThresholdUp)
	}
	if cfg.RepThresholdDown == nil || *cfg.RepThresholdDown != 90 {
		t.Errorf("Expected RepThresholdDown 90, got %v", cfg.RepThresholdDown)
	}
	if cfg.HoldQualityWindow == nil || *cfg.HoldQualityWindow != 10 {
		t.Errorf("Expected HoldQualityWindow 10, got %v", cfg.HoldQualityWindow)
	}
	if cfg.JobTimeout == nil || *cfg.JobTimeout != "0s" {
		t.Errorf("Expected JobTimeout '0s', got %v", cfg.JobTimeout)
	}

	// Test getter methods
	if cfg.GetHoldMinAngle() != 160 {
		t.Errorf("GetHoldMinAngle() = %f, want 160", cfg.GetHoldMinAngle())
	}
	if cfg.GetHoldMaxAngle() != 190 {
		t.Errorf("GetHoldMaxAngle() = %f, want 190", cfg.GetHoldMaxAngle())
	}
	if cfg.GetWarningScore() != 0.7 {
		t.Errorf("GetWarningScore() = %f, want 0.7", cfg.GetWarningScore())
	}
	if cfg.GetJobTimeout() != 0 {
		t.Errorf("GetJobTimeout() = %v, want 0", cfg.GetJobTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestEmptyTuningConfigGetters(t *testing.T) {
	cfg := EmptyTuningConfig()

	if cfg.GetRepThresholdUp() != 160 || cfg.GetRepThresholdDown() != 90 {
		t.Errorf("rep thresholds = %f/%f, want 160/90", cfg.GetRepThresholdUp(), cfg.GetRepThresholdDown())
	}
	if cfg.GetDefaultFPS() != 30 {
		t.Errorf("GetDefaultFPS() = %f, want 30", cfg.GetDefaultFPS())
	}
	if cfg.GetMaxConcurrentJobs() != 2 || cfg.GetDetectorPoolSize() != 2 {
		t.Errorf("jobs/pool = %d/%d, want 2/2", cfg.GetMaxConcurrentJobs(), cfg.GetDetectorPoolSize())
	}
	if cfg.GetDetectionCacheMB() != 0 {
		t.Errorf("GetDetectionCacheMB() = %d, want 0", cfg.GetDetectionCacheMB())
	}
	if cfg.GetRecordFrames() {
		t.Error("GetRecordFrames() = true, want false")
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "rep_threshold_up": 150,
  "rep_threshold_down": 100,
  "hold_quality_window": 5,
  "job_timeout": "2m",
  "record_frames": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetRepThresholdUp() != 150 {
		t.Errorf("GetRepThresholdUp() = %f, want 150", cfg.GetRepThresholdUp())
	}
	if cfg.GetRepThresholdDown() != 100 {
		t.Errorf("GetRepThresholdDown() = %f, want 100", cfg.GetRepThresholdDown())
	}
	if cfg.GetHoldQualityWindow() != 5 {
		t.Errorf("GetHoldQualityWindow() = %d, want 5", cfg.GetHoldQualityWindow())
	}
	if cfg.GetJobTimeout() != 2*time.Minute {
		t.Errorf("GetJobTimeout() = %v, want 2m", cfg.GetJobTimeout())
	}
	if !cfg.GetRecordFrames() {
		t.Error("GetRecordFrames() = false, want true")
	}

	// Unset fields keep their defaults
	if cfg.GetHoldMaxAngle() != 190 {
		t.Errorf("GetHoldMaxAngle() = %f, want default 190", cfg.GetHoldMaxAngle())
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "missing.json"), "failed to stat"},
		{"bad json", write("bad.json", "{not json"), "failed to parse"},
		{"out of range", write("range.json", `{"warning_score": 1.5}`), "invalid configuration"},
		{"inverted thresholds", write("inv.json", `{"rep_threshold_up": 80}`), "rep_threshold_down"},
		{"inverted hold band", write("hold.json", `{"hold_min_angle": 200, "hold_max_angle": 190}`), "hold_min_angle"},
		{"bad timeout", write("timeout.json", `{"job_timeout": "soon"}`), "job_timeout"},
		{"negative window", write("window.json", `{"hold_quality_window": -1}`), "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuningConfig(tt.path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "huge.json")
	if err := os.WriteFile(p, make([]byte, 1024*1024+1), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuningConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	want := DefaultTuningConfig()

	if cfg.GetRepThresholdUp() != want.GetRepThresholdUp() ||
		cfg.GetRepThresholdDown() != want.GetRepThresholdDown() ||
		cfg.GetHoldMinAngle() != want.GetHoldMinAngle() ||
		cfg.GetHoldMaxAngle() != want.GetHoldMaxAngle() ||
		cfg.GetHoldQualityWindow() != want.GetHoldQualityWindow() ||
		cfg.GetWarningScore() != want.GetWarningScore() {
		t.Errorf("defaults file disagrees with built-in defaults")
	}
}

func TestGetJobTimeout_Negative(t *testing.T) {
	cfg := &TuningConfig{JobTimeout: ptrString("-5s")}
	if cfg.GetJobTimeout() != 0 {
		t.Errorf("GetJobTimeout() = %v, want 0 for negative duration", cfg.GetJobTimeout())
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative job_timeout")
	}
}
