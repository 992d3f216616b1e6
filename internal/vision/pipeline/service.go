package pipeline

import (
	"context"

	"github.com/abdulrehhhhman/fitness-ai/internal/version"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
)

// ServiceName identifies this analysis service in info and health output.
const ServiceName = "exercise-vision"

// ExerciseInfo describes one supported exercise.
type ExerciseInfo struct {
	Exercise vision.Exercise `json:"exercise"`
	Kind     string          `json:"kind"`
	Label    string          `json:"label"`
	Angles   []string        `json:"angles"`
}

// ServiceInfo lists what the service accepts.
type ServiceInfo struct {
	Service      string         `json:"service"`
	Version      string         `json:"version"`
	Exercises    []ExerciseInfo `json:"exercises"`
	InputFormats []string       `json:"input_formats"`
}

// Info returns the static service description.
func Info() ServiceInfo {
	info := ServiceInfo{
		Service:      ServiceName,
		Version:      version.Version,
		InputFormats: []string{".jsonl", "capture:<id>"},
	}
	for _, e := range vision.Exercises() {
		cfg, _ := vision.Lookup(e)
		angles := make([]string, len(cfg.Angles))
		for i, a := range cfg.Angles {
			angles[i] = a.Name
		}
		info.Exercises = append(info.Exercises, ExerciseInfo{
			Exercise: e,
			Kind:     cfg.Kind.String(),
			Label:    cfg.Label,
			Angles:   angles,
		})
	}
	return info
}

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the result of a detector health check.
type HealthStatus struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Detectors    int    `json:"detectors"`
	DetectorInfo string `json:"detector_info,omitempty"`
}

// Health checks one detector from pool.
func Health(ctx context.Context, pool *l1source.DetectorPool) HealthStatus {
	h := HealthStatus{Status: StatusHealthy, Service: ServiceName, Detectors: pool.Size()}
	if err := pool.HealthCheck(ctx); err != nil {
		h.Status = StatusUnhealthy
		h.DetectorInfo = err.Error()
		opsf("detector health check failed: %v", err)
	}
	return h
}
