package docstore

import (
	"context"
	"fmt"
)

// ExecStore is a document inside a running container, reached through the
// container runtime CLI. No shell is involved: reads use cat, writes stream
// stdin through tee to a temp file followed by a rename, so paths never
// pass through quoting.
type ExecStore struct {
	engine    string // "docker" or "podman"
	container string
	path      string
	runner    CommandRunner
}

// NewExec creates a store for a document inside a container. A nil runner
// uses the real one.
func NewExec(engine, container, path string, runner CommandRunner) *ExecStore {
	if engine == "" {
		engine = "docker"
	}
	if runner == nil {
		runner = DefaultRunner
	}
	return &ExecStore{
		engine:    engine,
		container: container,
		path:      path,
		runner:    runner,
	}
}

// Read returns the document content from inside the container.
func (s *ExecStore) Read(ctx context.Context) (string, error) {
	if err := s.runner.Run(ctx, s.engine, "exec", s.container, "test", "-f", s.path); err != nil {
		return "", fmt.Errorf("%s: %w", s.Location(), ErrNotFound)
	}
	out, err := s.runner.Output(ctx, s.engine, "exec", s.container, "cat", s.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.Location(), err)
	}
	return string(out), nil
}

// Write replaces the document: content streams to a temp file beside the
// target, then a rename swaps it in.
func (s *ExecStore) Write(ctx context.Context, content string) error {
	tmp := s.path + ".tmp"
	if err := s.runner.RunInput(ctx, content, s.engine, "exec", "-i", s.container, "tee", tmp); err != nil {
		return fmt.Errorf("write %s: %w", s.Location(), err)
	}
	if err := s.runner.Run(ctx, s.engine, "exec", s.container, "mv", tmp, s.path); err != nil {
		return fmt.Errorf("rename %s in %s: %w", tmp, s.container, err)
	}
	return nil
}

// Restart restarts the container so its process reloads the document.
func (s *ExecStore) Restart(ctx context.Context) error {
	if err := s.runner.Run(ctx, s.engine, "restart", s.container); err != nil {
		return fmt.Errorf("restart %s: %w", s.container, err)
	}
	return nil
}

// Location identifies the document for logs.
func (s *ExecStore) Location() string {
	return s.container + ":" + s.path
}
