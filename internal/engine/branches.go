package engine

import (
	stderrors "errors"
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// branches lists local branches sorted by name, the current one marked
// with an asterisk. The payload is a line list, not joined text, so
// transports carry it as a JSON array.
func (e *Engine) branches() ([]string, error) {
	current := ""
	if h, err := e.currentHead(); err == nil {
		current = h.branch
	}

	iter, err := e.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		if name == current {
			lines = append(lines, "* "+name)
		} else {
			lines = append(lines, "  "+name)
		}
	}
	return lines, nil
}

// checkout switches the working tree to an existing branch.
func (e *Engine) checkout(branch string) (string, error) {
	wt, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("branch '%s' not found", branch)
		}
		return "", fmt.Errorf("failed to switch branch: %w", err)
	}
	return fmt.Sprintf("Switched to branch '%s'", branch), nil
}
