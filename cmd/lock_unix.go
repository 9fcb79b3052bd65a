//go:build unix

package cmd

import (
	"fmt"
	"syscall"
	"time"
)

// Lock acquisition parameters (30 seconds total, 500ms intervals)
const (
	lockRetryCount    = 60
	lockRetryInterval = 500 * time.Millisecond
)

// acquireLock takes an exclusive flock on path so overlapping passes and a
// concurrently running daemon exclude each other. Waiting covers the common
// case of a cron sync firing while a pass is still finishing. The returned
// release closes the descriptor, which drops the lock.
func acquireLock(path string) (func() error, error) {
	fd, err := syscall.Open(path, syscall.O_CREAT|syscall.O_RDWR|syscall.O_CLOEXEC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	var lockErr error
	for i := 0; i < lockRetryCount; i++ {
		lockErr = syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB)
		if lockErr == nil {
			return func() error { return syscall.Close(fd) }, nil
		}
		if lockErr != syscall.EWOULDBLOCK && lockErr != syscall.EAGAIN {
			syscall.Close(fd)
			return nil, fmt.Errorf("lock error: %w", lockErr)
		}
		if i%5 == 0 {
			Printer.Printf("Waiting for another instance to release %s... (%d/%d)\n", path, i, lockRetryCount)
		}
		time.Sleep(lockRetryInterval)
	}

	syscall.Close(fd)
	return nil, fmt.Errorf("another instance holds %s", path)
}
