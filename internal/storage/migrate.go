package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Migrate applies every *.sql file under dir in lexical order. Scripts must be idempotent.
func Migrate(ctx context.Context, pool DB, dir string) ([]string, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	applied := make([]string, 0, len(files))
	for _, file := range files {
		script, readErr := os.ReadFile(file)
		if readErr != nil {
			return applied, fmt.Errorf("read migration %s: %w", filepath.Base(file), readErr)
		}
		if _, execErr := pool.Exec(ctx, string(script)); execErr != nil {
			return applied, fmt.Errorf("apply migration %s: %w", filepath.Base(file), execErr)
		}
		applied = append(applied, filepath.Base(file))
	}
	return applied, nil
}
