package git

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the git common directory.
const LockFileName = "iwt.lock"

// lockRetryDelay is how often a held lock is re-tried.
const lockRetryDelay = 100 * time.Millisecond

// Lock takes the advisory lock for the repository whose git common directory
// is commonDir, waiting up to timeout. The returned func releases it.
func Lock(ctx context.Context, commonDir string, timeout time.Duration) (func() error, error) {
	path := filepath.Join(commonDir, LockFileName)
	fl := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if lockCtx.Err() != nil {
			return nil, fmt.Errorf("another iwt process holds %s (waited %s)", path, timeout)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("another iwt process holds %s (waited %s)", path, timeout)
	}

	return fl.Unlock, nil
}
