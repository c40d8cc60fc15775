package engine

import (
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// status renders the working tree state: the current branch line followed
// by short-format entries, or the clean message.
func (e *Engine) status() (string, error) {
	h, err := e.currentHead()
	if err != nil {
		return "", err
	}

	var lines []string
	switch {
	case h.detached:
		lines = append(lines, fmt.Sprintf("HEAD detached at %.7s", h.hash.String()))
	default:
		lines = append(lines, "On branch "+h.branch)
	}
	if h.unborn {
		lines = append(lines, "", "No commits yet")
	}

	wt, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}

	if st.IsClean() {
		lines = append(lines, "nothing to commit, working tree clean")
		return strings.Join(lines, "\n"), nil
	}

	entries := make([]string, 0, len(st))
	for path, fs := range st {
		if fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified {
			continue
		}
		entries = append(entries, fmt.Sprintf("%c%c %s", fs.Staging, fs.Worktree, path))
	}
	// Status iterates a map; the entries get a stable order here so the
	// rendered text is deterministic.
	sort.Slice(entries, func(i, j int) bool { return entries[i][3:] < entries[j][3:] })

	return strings.Join(append(lines, entries...), "\n"), nil
}
