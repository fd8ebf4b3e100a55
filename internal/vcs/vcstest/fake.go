// Package vcstest provides an in-memory vcs.Client for tests.
package vcstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/TRIADBLUE/consoleblue/internal/vcs"
)

// Fake records commits instead of sending them anywhere
type Fake struct {
	mu sync.Mutex

	// Configured is returned by IsConfigured
	Configured bool
	// Err, when set, is returned by every CommitFile call
	Err error
	// Block makes CommitFile wait for the context to end
	Block bool

	calls []vcs.CommitRequest
}

// New returns a configured fake
func New() *Fake {
	return &Fake{Configured: true}
}

// IsConfigured implements vcs.Client
func (f *Fake) IsConfigured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Configured
}

// CommitFile implements vcs.Client
func (f *Fake) CommitFile(ctx context.Context, req vcs.CommitRequest) (*vcs.CommitResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	err, block := f.Err, f.Block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	sha := fmt.Sprintf("%040x", n)
	return &vcs.CommitResult{
		SHA: sha,
		URL: fmt.Sprintf("https://github.com/%s/%s/commit/%s", req.Owner, req.Repo, sha),
	}, nil
}

// Calls returns a copy of the recorded requests
func (f *Fake) Calls() []vcs.CommitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vcs.CommitRequest(nil), f.calls...)
}

var _ vcs.Client = (*Fake)(nil)
