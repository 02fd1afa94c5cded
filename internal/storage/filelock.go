package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const lockPollInterval = 10 * time.Millisecond

// acquireBlobLock takes the exclusive flock that serializes task blob writes
// between the widget, a watcher, and one-shot commands sharing a directory.
// The lock is polled non-blocking so a writer queued behind a hung process
// gives up when ctx ends. Unix only.
func acquireBlobLock(ctx context.Context, path string) (release func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	fd := int(f.Fd())

	for {
		err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			f.Close()
			return nil, fmt.Errorf("locking %s: %w", filepath.Base(path), err)
		}
		select {
		case <-ctx.Done():
			f.Close()
			return nil, fmt.Errorf("waiting for %s: %w", filepath.Base(path), ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(fd, syscall.LOCK_UN)
	}, nil
}
