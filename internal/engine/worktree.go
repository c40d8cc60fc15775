package engine

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"

	"forgeterm.dev/forgeterm/internal/errors"
	"forgeterm.dev/forgeterm/internal/rpc"
)

// diff renders changes between HEAD and the working tree as a unified
// diff, optionally narrowed to one path or directory. Untracked files do
// not appear; staged ones do. No changes renders as empty output.
func (e *Engine) diff(path string) (string, error) {
	wt, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}

	var headTree *object.Tree
	if h, err := e.currentHead(); err == nil && !h.unborn {
		commit, err := e.repo.CommitObject(h.hash)
		if err != nil {
			return "", fmt.Errorf("failed to read HEAD commit: %w", err)
		}
		headTree, err = commit.Tree()
		if err != nil {
			return "", fmt.Errorf("failed to read HEAD tree: %w", err)
		}
	}

	var paths []string
	for p, fileStatus := range st {
		if fileStatus.Staging == gogit.Untracked {
			continue
		}
		if path != "" && p != path && !strings.HasPrefix(p, path+"/") {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		old, err := headFileContent(headTree, p)
		if err != nil {
			return "", err
		}
		current, err := worktreeFileContent(wt, p)
		if err != nil {
			return "", err
		}
		if old == current {
			continue
		}

		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", p, p)
		if isBinary(old) || isBinary(current) {
			fmt.Fprintf(&b, "Binary files a/%s and b/%s differ\n", p, p)
			continue
		}

		fromFile, toFile := "a/"+p, "b/"+p
		if old == "" {
			fromFile = "/dev/null"
		}
		if current == "" {
			toFile = "/dev/null"
		}
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        contentLines(old),
			B:        contentLines(current),
			FromFile: fromFile,
			ToFile:   toFile,
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("failed to diff %s: %w", p, err)
		}
		b.WriteString(text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// add stages paths into the index. An empty path list stages everything,
// untracked files included.
func (e *Engine) add(paths []string) (string, error) {
	wt, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if len(paths) == 0 {
		if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
			return "", fmt.Errorf("failed to stage changes: %w", err)
		}
		return "", nil
	}

	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("pathspec '%s' did not match any files", p)
			}
			return "", fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return "", nil
}

// commit records the staged changes. The message is mandatory; with
// nothing staged the commit is refused.
func (e *Engine) commit(params rpc.Params) (string, error) {
	message := params.String("message")
	if message == "" {
		return "", stderrors.New("missing commit message")
	}

	wt, err := e.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}

	staged, dirty := false, false
	for _, fileStatus := range st {
		if fileStatus.Staging == gogit.Untracked {
			dirty = true
			continue
		}
		if fileStatus.Staging != gogit.Unmodified {
			staged = true
		}
		if fileStatus.Worktree != gogit.Unmodified {
			dirty = true
		}
	}
	if !staged {
		if dirty {
			return "", fmt.Errorf("%w (use \"git add\" to stage changes)", errors.ErrEmptyCommit)
		}
		return "", fmt.Errorf("%w, working tree clean", errors.ErrEmptyCommit)
	}

	before, err := e.currentHead()
	if err != nil {
		return "", err
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  e.identity.Name,
			Email: e.identity.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	marker := ""
	if before.unborn {
		marker = "(root-commit) "
	}
	return fmt.Sprintf("[%s %s%.7s] %s", before.branch, marker, hash.String(), summaryLine(message)), nil
}

// headFileContent reads a file from the HEAD tree, empty when the file
// does not exist there (or there is no commit yet).
func headFileContent(tree *object.Tree, path string) (string, error) {
	if tree == nil {
		return "", nil
	}
	file, err := tree.File(path)
	if err != nil {
		if stderrors.Is(err, object.ErrFileNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s from HEAD: %w", path, err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("failed to read %s from HEAD: %w", path, err)
	}
	return content, nil
}

// worktreeFileContent reads a file from the working tree, empty when
// deleted.
func worktreeFileContent(wt *gogit.Worktree, path string) (string, error) {
	file, err := wt.Filesystem.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(content), nil
}

func isBinary(content string) bool {
	return bytes.IndexByte([]byte(content), 0) >= 0
}

func contentLines(content string) []string {
	if content == "" {
		return nil
	}
	return difflib.SplitLines(content)
}
