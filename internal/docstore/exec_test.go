package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecStoreRead(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("Run", "docker", "exec", "proxy", "test", "-f", "/etc/traefik/dynamic.yml").Return(nil)
	runner.On("Output", "docker", "exec", "proxy", "cat", "/etc/traefik/dynamic.yml").
		Return([]byte("doc body\n"), nil)

	s := NewExec("docker", "proxy", "/etc/traefik/dynamic.yml", runner)
	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "doc body\n", got)
	runner.AssertExpectations(t)
}

func TestExecStoreReadMissing(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("Run", "docker", "exec", "proxy", "test", "-f", "/etc/traefik/dynamic.yml").
		Return(errors.New("exit status 1"))

	s := NewExec("docker", "proxy", "/etc/traefik/dynamic.yml", runner)
	_, err := s.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	runner.AssertExpectations(t)
}

func TestExecStoreWrite(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("RunInput", "new body\n", "docker", "exec", "-i", "proxy", "tee", "/etc/traefik/dynamic.yml.tmp").
		Return(nil)
	runner.On("Run", "docker", "exec", "proxy", "mv", "/etc/traefik/dynamic.yml.tmp", "/etc/traefik/dynamic.yml").
		Return(nil)

	s := NewExec("docker", "proxy", "/etc/traefik/dynamic.yml", runner)
	require.NoError(t, s.Write(context.Background(), "new body\n"))
	runner.AssertExpectations(t)
}

func TestExecStoreWriteFailurePropagates(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("RunInput", "body", "docker", "exec", "-i", "proxy", "tee", "/srv/a.yml.tmp").
		Return(errors.New("container not running"))

	s := NewExec("docker", "proxy", "/srv/a.yml", runner)
	err := s.Write(context.Background(), "body")
	assert.Error(t, err)
	runner.AssertExpectations(t)
}

func TestExecStoreRestart(t *testing.T) {
	runner := new(MockCommandRunner)
	runner.On("Run", "podman", "restart", "proxy").Return(nil)

	s := NewExec("podman", "proxy", "/srv/a.yml", runner)
	require.NoError(t, s.Restart(context.Background()))
	runner.AssertExpectations(t)
}

func TestExecStoreDefaults(t *testing.T) {
	s := NewExec("", "proxy", "/srv/a.yml", nil)
	assert.Equal(t, "proxy:/srv/a.yml", s.Location())
	assert.Equal(t, "docker", s.engine)
	assert.NotNil(t, s.runner)
}
