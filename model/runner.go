package model

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunFile replays the fixture at path.
func RunFile(ctx context.Context, log *zap.Logger, path string, opts ...Option) error {
	steps, err := LoadSteps(path)
	if err != nil {
		return fmt.Errorf("fixture %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := NewExecutor(log, opts...).Run(ctx, name, steps); err != nil {
		return fmt.Errorf("fixture %s: %w", path, err)
	}

	log.Info("Fixture passed", zap.String("path", path), zap.Int("steps", len(steps)))
	return nil
}

// RunFiles replays every fixture at paths concurrently. Fixtures never share
// chains. The returned error combines the failure of every fixture that failed.
func RunFiles(ctx context.Context, log *zap.Logger, paths []string, opts ...Option) error {
	var (
		mu   sync.Mutex
		errs error
		eg   errgroup.Group
	)
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			if err := RunFile(ctx, log, path, opts...); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	return errs
}

// FixtureFiles lists the JSON fixtures in dir, sorted by name.
func FixtureFiles(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no fixtures in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}
