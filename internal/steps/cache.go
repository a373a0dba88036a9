package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
)

type cacheConfig struct {
	// Action is "restore" (default) or "save".
	Action string `mapstructure:"action"`

	// Path is the cached directory, relative to the workdir.
	Path string `mapstructure:"path"`

	// KeyFiles are the dependency lockfiles whose contents fingerprint the
	// entry, relative to the workdir.
	KeyFiles []string `mapstructure:"key-files"`
}

// cacheStep restores or saves the dependency cache. Cache trouble is never
// allowed to fail a run: a miss, a missing store or an IO error all degrade
// to a cold start with a log line. Only misconfiguration (no path, no
// key-files) is a real error, since that means the workflow author asked for
// something the step cannot do.
func (r *Registry) cacheStep(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	var cfg cacheConfig
	if err := decodeWith(step, &cfg); err != nil {
		return "", err
	}
	if cfg.Path == "" {
		return "", fmt.Errorf("cache step requires a path")
	}
	if len(cfg.KeyFiles) == 0 {
		return "", fmt.Errorf("cache step requires key-files")
	}
	if r.cache == nil {
		r.logger.WarnContext(ctx, "no cache store configured, skipping", "run_id", rc.RunID)
		return "cache disabled", nil
	}

	key, err := r.cacheKey(cfg, rc)
	if err != nil {
		// Unreadable lockfile means the key is undefined; treat as a miss.
		r.logger.WarnContext(ctx, "cache key unavailable", "run_id", rc.RunID, "err", err)
		return "cache skipped: " + err.Error(), nil
	}

	target := filepath.Join(rc.Workdir, cfg.Path)

	if cfg.Action == "save" {
		if err := r.cache.Save(ctx, key, target); err != nil {
			r.logger.WarnContext(ctx, "cache save failed", "run_id", rc.RunID, "key", key, "err", err)
			return "cache save failed: " + err.Error(), nil
		}
		return "cache saved: " + key, nil
	}

	hit, err := r.cache.Restore(ctx, key, target)
	if err != nil {
		r.logger.WarnContext(ctx, "cache restore failed", "run_id", rc.RunID, "key", key, "err", err)
		return "cache restore failed: " + err.Error(), nil
	}
	if !hit {
		r.logger.InfoContext(ctx, "cache miss", "run_id", rc.RunID, "key", key)
		return "cache miss: " + key, nil
	}
	return "cache hit: " + key, nil
}

func (r *Registry) cacheKey(cfg cacheConfig, rc *scheduler.RunContext) (string, error) {
	contents := make([][]byte, 0, len(cfg.KeyFiles))
	for _, name := range cfg.KeyFiles {
		data, err := os.ReadFile(filepath.Join(rc.Workdir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read lockfile %s: %w", name, err)
		}
		contents = append(contents, data)
	}
	return domain.CacheKey(r.osID, contents...), nil
}
