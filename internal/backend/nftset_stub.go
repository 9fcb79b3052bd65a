//go:build !linux
// +build !linux

package backend

import (
	"context"
	"fmt"
	"runtime"

	"grimm.is/allowsync/internal/logging"
)

// NFTSetBackend is a stub for non-Linux platforms. nftables sets are
// managed over netlink, which is only available on Linux.
type NFTSetBackend struct{}

// NewNFTSet always fails on non-Linux platforms.
func NewNFTSet(cfg NFTSetConfig, log *logging.Logger) (*NFTSetBackend, error) {
	return nil, errUnsupported()
}

func (b *NFTSetBackend) Fetch(context.Context) ([]string, error) { return nil, errUnsupported() }
func (b *NFTSetBackend) Create(context.Context, []string) error  { return errUnsupported() }
func (b *NFTSetBackend) Add(context.Context, []string) error     { return errUnsupported() }
func (b *NFTSetBackend) Remove(context.Context, []string) error  { return errUnsupported() }
func (b *NFTSetBackend) Location() string                        { return "nft:unsupported" }

func errUnsupported() error {
	return fmt.Errorf("nftables sets are not supported on %s", runtime.GOOS)
}
