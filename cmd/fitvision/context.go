package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/abdulrehhhhman/fitness-ai/internal/config"
	"github.com/abdulrehhhhman/fitness-ai/internal/metrics"
	"github.com/abdulrehhhhman/fitness-ai/internal/monitoring"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/pipeline"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/storage/sqlite"
)

const (
	defaultDBPath    = "fitvision.db"
	metricsNamespace = "fitness"
	metricsSubsystem = "vision"
)

// commandContext carries flag values and lazily built dependencies shared
// by all subcommands of one invocation.
type commandContext struct {
	configPath string
	logLevel   string
	logFile    string
	logJSON    bool
	dbPath     string
	format     string
	cacheMB    int

	logger    *logrus.Logger
	logCloser io.Closer

	configOnce sync.Once
	config     *config.TuningConfig
	configErr  error

	registry *prometheus.Registry
	metrics  *metrics.Manager

	pool  *l1source.DetectorPool
	store *sqlite.Store
}

func newCommandContext() *commandContext {
	reg := prometheus.NewRegistry()
	return &commandContext{
		logger:   logrus.New(),
		registry: reg,
		metrics:  metrics.NewManager(metricsNamespace, metricsSubsystem, reg),
	}
}

func (c *commandContext) setupLogging(stderr io.Writer) {
	c.logCloser = monitoring.Setup(c.logger, monitoring.LoggerSetupParams{
		LogFileName:   strings.TrimSpace(c.logFile),
		LogLevel:      c.logLevel,
		LogFormatJSON: c.logJSON,
	})
	if c.logFile == "" {
		c.logger.SetOutput(stderr)
	}
	pipeline.SetLogger(c.logger)
}

func (c *commandContext) ensureConfig() (*config.TuningConfig, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(c.configPath)
		if path == "" {
			c.config = config.EmptyTuningConfig()
			return
		}
		cfg, err := config.LoadTuningConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// tuning returns a copy of the loaded configuration that a command may
// adjust from its own flags.
func (c *commandContext) tuning() *config.TuningConfig {
	cfg, _ := c.ensureConfig()
	if cfg == nil {
		return config.EmptyTuningConfig()
	}
	dup := *cfg
	return &dup
}

func (c *commandContext) cacheSizeMB(t *config.TuningConfig) int {
	if c.cacheMB >= 0 {
		return c.cacheMB
	}
	return t.GetDetectionCacheMB()
}

// detectorPool builds the detector pool on first use. Detectors share one
// detection cache when caching is enabled.
func (c *commandContext) detectorPool(t *config.TuningConfig) (*l1source.DetectorPool, error) {
	if c.pool != nil {
		return c.pool, nil
	}
	cache := l1source.NewDetectionCache(c.cacheSizeMB(t))
	factory := l1source.CachedFactory(l1source.NewLandmarkDetector, cache, c.metrics.CounterCacheHits.Inc)
	pool, err := l1source.NewDetectorPool(t.GetDetectorPoolSize(), factory)
	if err != nil {
		return nil, fmt.Errorf("create detector pool: %w", err)
	}
	c.pool = pool
	return pool, nil
}

func (c *commandContext) openStore() (*sqlite.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, err := sqlite.Open(c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open capture database %s: %w", c.dbPath, err)
	}
	c.store = store
	return store, nil
}

// writeMetrics dumps the invocation's registry in the Prometheus text
// format, for node_exporter's textfile collector.
func (c *commandContext) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (c *commandContext) close() error {
	var err error
	if c.pool != nil {
		err = multierr.Append(err, c.pool.Close())
		c.pool = nil
	}
	if c.store != nil {
		err = multierr.Append(err, c.store.Close())
		c.store = nil
	}
	if c.logCloser != nil {
		err = multierr.Append(err, c.logCloser.Close())
		c.logCloser = nil
	}
	return err
}
