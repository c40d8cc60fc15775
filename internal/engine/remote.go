package engine

import (
	"context"
	stderrors "errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

const defaultRemote = "origin"

// push updates remote refs. Without a branch the remote's configured
// refspecs apply; with one, only that branch is pushed. Transfer
// progress goes to the engine's progress writer.
func (e *Engine) push(ctx context.Context, force bool, remote, branch string) (string, error) {
	if remote == "" {
		remote = defaultRemote
	}

	opts := &gogit.PushOptions{
		RemoteName: remote,
		Progress:   e.progress,
		Force:      force,
	}
	if branch != "" {
		opts.RefSpecs = []config.RefSpec{
			config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
		}
	}

	err := e.repo.PushContext(ctx, opts)
	switch {
	case err == nil:
		return "To " + e.remoteURL(remote), nil
	case stderrors.Is(err, gogit.NoErrAlreadyUpToDate):
		return "Everything up-to-date", nil
	case stderrors.Is(err, gogit.ErrRemoteNotFound):
		return "", fmt.Errorf("remote '%s' not found", remote)
	default:
		return "", fmt.Errorf("failed to push: %w", err)
	}
}

// pull fetches from a remote and fast-forwards the current branch.
func (e *Engine) pull(ctx context.Context, remote, branch string) (string, error) {
	if remote == "" {
		remote = defaultRemote
	}

	wt, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	before, err := e.currentHead()
	if err != nil {
		return "", err
	}

	opts := &gogit.PullOptions{
		RemoteName: remote,
		Progress:   e.progress,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	err = wt.PullContext(ctx, opts)
	switch {
	case err == nil:
		after, headErr := e.currentHead()
		if headErr != nil {
			return "", headErr
		}
		return fmt.Sprintf("Updating %.7s..%.7s\nFast-forward", before.hash.String(), after.hash.String()), nil
	case stderrors.Is(err, gogit.NoErrAlreadyUpToDate):
		return "Already up to date.", nil
	case stderrors.Is(err, gogit.ErrRemoteNotFound):
		return "", fmt.Errorf("remote '%s' not found", remote)
	default:
		return "", fmt.Errorf("failed to pull: %w", err)
	}
}

// remoteURL answers the first configured URL of a remote, for the push
// summary line.
func (e *Engine) remoteURL(name string) string {
	remote, err := e.repo.Remote(name)
	if err != nil || len(remote.Config().URLs) == 0 {
		return name
	}
	return remote.Config().URLs[0]
}
