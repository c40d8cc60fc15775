package engine

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// gitDateFormat matches git's default log date rendering.
const gitDateFormat = "Mon Jan 2 15:04:05 2006 -0700"

// log walks history from a branch (or HEAD) and renders up to depth
// commits. A depth of zero or less means unlimited.
func (e *Engine) log(branch string, depth int, oneline bool) (string, error) {
	from, err := e.startHash(branch)
	if err != nil {
		return "", err
	}

	iter, err := e.repo.Log(&gogit.LogOptions{From: from})
	if err != nil {
		return "", fmt.Errorf("failed to walk history: %w", err)
	}
	defer iter.Close()

	var entries []string
	err = iter.ForEach(func(c *object.Commit) error {
		if depth > 0 && len(entries) >= depth {
			return storer.ErrStop
		}
		if oneline {
			entries = append(entries, fmt.Sprintf("%.7s %s", c.Hash.String(), summaryLine(c.Message)))
		} else {
			entries = append(entries, formatCommit(c))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk history: %w", err)
	}

	if oneline {
		return strings.Join(entries, "\n"), nil
	}
	return strings.Join(entries, "\n\n"), nil
}

// show renders one object the way `git show` does: the commit header
// followed by its patch against the first parent. A root commit diffs
// against the empty tree.
func (e *Engine) show(ctx context.Context, oid string) (string, error) {
	hash, err := e.repo.ResolveRevision(plumbing.Revision(oid))
	if err != nil {
		return "", fmt.Errorf("unknown revision '%s'", oid)
	}
	commit, err := e.repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("object '%s' is not a commit", oid)
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to read commit tree: %w", err)
	}
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return "", fmt.Errorf("failed to read parent commit: %w", err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return "", fmt.Errorf("failed to read parent tree: %w", err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", fmt.Errorf("failed to diff trees: %w", err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to render patch: %w", err)
	}

	text := formatCommit(commit)
	if body := patch.String(); body != "" {
		text += "\n\n" + body
	}
	return text, nil
}

// startHash resolves the commit a history walk starts from.
func (e *Engine) startHash(branch string) (plumbing.Hash, error) {
	if branch == "" {
		h, err := e.currentHead()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if h.unborn {
			return plumbing.ZeroHash, fmt.Errorf("your current branch '%s' does not have any commits yet", h.branch)
		}
		return h.hash, nil
	}
	hash, err := e.repo.ResolveRevision(plumbing.Revision(branch))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("unknown revision '%s'", branch)
	}
	return *hash, nil
}

// summaryLine returns the first line of a commit message.
func summaryLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}

// formatCommit renders the header block of a commit, message indented
// the way git does.
func formatCommit(c *object.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash.String())
	fmt.Fprintf(&b, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(&b, "Date:   %s\n\n", c.Author.When.Format(gitDateFormat))
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
