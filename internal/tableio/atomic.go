package tableio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// writeAtomic writes path through fn using the temp file + fsync + rename
// pattern. The temp file lives next to path and is removed on any failure.
func writeAtomic(path string, fn func(tmp *os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up temp file on error.
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := fn(tmp); err != nil {
		return err
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// lockPath returns the advisory lock file guarding writes to path.
func lockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

// acquireLock takes an exclusive advisory lock for path, waiting up to
// timeout. The returned func releases the lock and removes the lock file.
func acquireLock(path string, timeout time.Duration, logger *zap.Logger) (func(), error) {
	lp := lockPath(path)
	fl := flock.New(lp)

	logger.Debug("lock: acquiring exclusive lock", zap.String("lock", lp))
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", lp, err)
	}
	if err != nil || !locked {
		return nil, fmt.Errorf("could not acquire lock on %s - another sndedup run may be writing it", lp)
	}
	logger.Debug("lock: exclusive lock acquired")

	return func() {
		fl.Unlock()
		os.Remove(lp)
		logger.Debug("lock: exclusive lock released")
	}, nil
}
