package l1source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"

	"github.com/coocood/freecache"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// noPose marks a cached detection that found nothing.
var noPose = []byte("null")

// NewDetectionCache returns a cache of sizeMB mebibytes, or nil when sizeMB
// is not positive.
func NewDetectionCache(sizeMB int) *freecache.Cache {
	if sizeMB <= 0 {
		return nil
	}
	return freecache.NewCache(sizeMB * 1024 * 1024)
}

// CachingDetector memoizes an inner detector by payload hash. Repeated
// frames (replays, static poses) skip detection. Errors are never cached.
// The cache may be shared between detectors; freecache is safe for
// concurrent use.
type CachingDetector struct {
	inner PoseDetector
	cache *freecache.Cache

	// OnHit is called for every detection served from the cache.
	OnHit func()
}

// NewCachingDetector wraps inner. A nil cache returns inner unchanged.
func NewCachingDetector(inner PoseDetector, cache *freecache.Cache) PoseDetector {
	if cache == nil {
		return inner
	}
	return &CachingDetector{inner: inner, cache: cache}
}

// CachedFactory wraps every detector built by factory with a shared cache.
func CachedFactory(factory DetectorFactory, cache *freecache.Cache, onHit func()) DetectorFactory {
	return func() (PoseDetector, error) {
		d, err := factory()
		if err != nil || cache == nil {
			return d, err
		}
		return &CachingDetector{inner: d, cache: cache, OnHit: onHit}, nil
	}
}

func (c *CachingDetector) Detect(ctx context.Context, frame RawFrame) (vision.KeypointFrame, bool, error) {
	if len(frame.Payload) == 0 {
		return c.inner.Detect(ctx, frame)
	}

	sum := sha256.Sum256(frame.Payload)
	key := sum[:]
	if v, err := c.cache.Get(key); err == nil {
		if kp, ok, derr := decodeCached(v); derr == nil {
			if c.OnHit != nil {
				c.OnHit()
			}
			return kp, ok, nil
		}
		c.cache.Del(key)
	} else if !errors.Is(err, freecache.ErrNotFound) {
		return c.inner.Detect(ctx, frame)
	}

	kp, ok, err := c.inner.Detect(ctx, frame)
	if err != nil {
		return nil, false, err
	}
	value := noPose
	if ok {
		if value, err = json.Marshal(map[string]vision.Keypoint(kp)); err != nil {
			return kp, ok, nil
		}
	}
	// A full cache evicts; a Set failure only means the entry is too large.
	_ = c.cache.Set(key, value, 0)
	return kp, ok, nil
}

// HealthCheck delegates to the inner detector.
func (c *CachingDetector) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Close closes the inner detector if it is closable.
func (c *CachingDetector) Close() error {
	if cl, ok := c.inner.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}

func decodeCached(v []byte) (vision.KeypointFrame, bool, error) {
	if bytes.Equal(v, noPose) {
		return nil, false, nil
	}
	var kp map[string]vision.Keypoint
	if err := json.Unmarshal(v, &kp); err != nil {
		return nil, false, err
	}
	return vision.KeypointFrame(kp), true, nil
}
