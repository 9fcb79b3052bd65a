//go:build !unix

package cmd

// acquireLock is a no-op where flock is unavailable.
func acquireLock(path string) (func() error, error) {
	return func() error { return nil }, nil
}
