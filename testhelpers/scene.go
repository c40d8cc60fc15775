// Package testhelpers provides shared test fixtures: throwaway Git
// repositories built through go-git, and a scripted engine caller for
// asserting on interpreter dispatch.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Scene is a temporary Git repository for one test. All helpers fail the
// test immediately on error, so test bodies read as straight-line setup.
type Scene struct {
	T    *testing.T
	Dir  string
	Repo *gogit.Repository
}

// NewEmptyScene initializes a repository with no commits, on an unborn
// main branch.
func NewEmptyScene(t *testing.T) *Scene {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(t, err, "init repository")

	return &Scene{T: t, Dir: dir, Repo: repo}
}

// NewScene initializes a repository with one commit containing README.md
// on main.
func NewScene(t *testing.T) *Scene {
	t.Helper()

	scene := NewEmptyScene(t)
	scene.WriteCommit("README.md", "# demo\n", "initial commit")
	return scene
}

// CloneScene clones an existing repository, typically a bare remote made
// with BareRemote, into its own temp directory.
func CloneScene(t *testing.T, url string) *Scene {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainClone(dir, false, &gogit.CloneOptions{URL: url})
	require.NoError(t, err, "clone %s", url)

	return &Scene{T: t, Dir: dir, Repo: repo}
}

// WriteFile writes a file under the scene directory, creating parent
// directories as needed.
func (s *Scene) WriteFile(name, content string) {
	s.T.Helper()

	path := filepath.Join(s.Dir, name)
	require.NoError(s.T, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.T, os.WriteFile(path, []byte(content), 0o644))
}

// Remove deletes a file from the working tree.
func (s *Scene) Remove(name string) {
	s.T.Helper()
	require.NoError(s.T, os.Remove(filepath.Join(s.Dir, name)))
}

// Stage adds paths to the index. With no paths it stages everything.
func (s *Scene) Stage(paths ...string) {
	s.T.Helper()

	wt, err := s.Repo.Worktree()
	require.NoError(s.T, err)

	if len(paths) == 0 {
		require.NoError(s.T, wt.AddWithOptions(&gogit.AddOptions{All: true}))
		return
	}
	for _, path := range paths {
		_, err := wt.Add(path)
		require.NoError(s.T, err, "stage %s", path)
	}
}

// Commit records the staged changes and returns the new commit hash.
func (s *Scene) Commit(message string) plumbing.Hash {
	s.T.Helper()

	wt, err := s.Repo.Worktree()
	require.NoError(s.T, err)

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "author@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(s.T, err, "commit %q", message)
	return hash
}

// WriteCommit writes one file, stages it, and commits it.
func (s *Scene) WriteCommit(name, content, message string) plumbing.Hash {
	s.T.Helper()

	s.WriteFile(name, content)
	s.Stage(name)
	return s.Commit(message)
}

// NewBranch creates a branch at the current HEAD without switching to it.
func (s *Scene) NewBranch(name string) {
	s.T.Helper()

	head, err := s.Repo.Head()
	require.NoError(s.T, err)

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	require.NoError(s.T, s.Repo.Storer.SetReference(ref))
}

// Checkout switches the working tree to an existing branch.
func (s *Scene) Checkout(name string) {
	s.T.Helper()

	wt, err := s.Repo.Worktree()
	require.NoError(s.T, err)
	require.NoError(s.T, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	}), "checkout %s", name)
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (s *Scene) CurrentBranch() string {
	s.T.Helper()

	head, err := s.Repo.Head()
	require.NoError(s.T, err)
	return head.Name().Short()
}

// Head returns the current HEAD commit hash.
func (s *Scene) Head() plumbing.Hash {
	s.T.Helper()

	head, err := s.Repo.Head()
	require.NoError(s.T, err)
	return head.Hash()
}

// BareRemote initializes a bare repository in its own temp directory and
// registers it as a remote of the scene. Returns the remote's path.
func (s *Scene) BareRemote(name string) string {
	s.T.Helper()

	dir := s.T.TempDir()
	_, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.Main},
		Bare:        true,
	})
	require.NoError(s.T, err, "init bare remote")

	_, err = s.Repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{dir},
	})
	require.NoError(s.T, err, "register remote %s", name)
	return dir
}
