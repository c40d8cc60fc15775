// Package engine is the reference Git engine: it answers the interpreter's
// operations against a local repository using go-git.
//
// It is the same engine the daemon serves over a transport, so a terminal
// wired to a local directory and one wired to a remote engine observe the
// same behavior. All operations are serialized on an internal mutex; the
// engine is safe for concurrent callers.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"forgeterm.dev/forgeterm/internal/errors"
	"forgeterm.dev/forgeterm/internal/rpc"
)

// Identity is the signature used for commits created by this engine.
type Identity struct {
	Name  string
	Email string
}

var defaultIdentity = Identity{Name: "forgeterm", Email: "forgeterm@localhost"}

// Engine serves the git.* operations against one local repository.
type Engine struct {
	// Synchronizes go-git operations to prevent concurrent packfile access.
	mu sync.Mutex

	repo     *gogit.Repository
	identity Identity
	progress io.Writer
}

// Open opens the repository that contains dir, searching parent
// directories the way git does.
func Open(dir string) (*Engine, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if stderrors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", dir, errors.ErrNotRepository)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return New(repo), nil
}

// New wraps an already-open repository.
func New(repo *gogit.Repository) *Engine {
	return &Engine{
		repo:     repo,
		identity: defaultIdentity,
		progress: io.Discard,
	}
}

// SetIdentity sets the commit signature. Configure before serving calls.
func (e *Engine) SetIdentity(id Identity) {
	if id.Name != "" {
		e.identity.Name = id.Name
	}
	if id.Email != "" {
		e.identity.Email = id.Email
	}
}

// SetProgress directs transfer progress from push and pull to w.
// Configure before serving calls.
func (e *Engine) SetProgress(w io.Writer) {
	if w != nil {
		e.progress = w
	}
}

// Handle implements rpc.Handler. Payloads are the interpreter's
// normalized shapes: plain text for most operations, a line list for
// git.branch.
func (e *Engine) Handle(ctx context.Context, op string, params rpc.Params) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch op {
	case rpc.OpStatus:
		return e.status()
	case rpc.OpShow:
		return e.show(ctx, params.String("oid"))
	case rpc.OpLog:
		return e.log(params.String("branch"), params.Int("depth", 50), params.Bool("oneline"))
	case rpc.OpBranch:
		return e.branches()
	case rpc.OpCheckout:
		return e.checkout(params.String("branch"))
	case rpc.OpDiff:
		return e.diff(params.String("path"))
	case rpc.OpAdd:
		return e.add(params.StringSlice("paths"))
	case rpc.OpCommit:
		return e.commit(params)
	case rpc.OpPush:
		return e.push(ctx, params.Bool("force"), params.String("remote"), params.String("branch"))
	case rpc.OpPull:
		return e.pull(ctx, params.String("remote"), params.String("branch"))
	default:
		return nil, errors.NewUnknownOperationError(op)
	}
}

// head describes where HEAD points right now.
type head struct {
	branch   string        // branch name, empty when detached
	hash     plumbing.Hash // zero when unborn
	detached bool
	unborn   bool // HEAD names a branch with no commits yet
}

// currentHead resolves HEAD, distinguishing a detached HEAD and the
// unborn branch of a freshly initialized repository.
func (e *Engine) currentHead() (head, error) {
	ref, err := e.repo.Head()
	if err == nil {
		if ref.Name() == plumbing.HEAD {
			return head{hash: ref.Hash(), detached: true}, nil
		}
		return head{branch: ref.Name().Short(), hash: ref.Hash()}, nil
	}
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		sym, symErr := e.repo.Reference(plumbing.HEAD, false)
		if symErr == nil && sym.Type() == plumbing.SymbolicReference {
			return head{branch: sym.Target().Short(), unborn: true}, nil
		}
	}
	return head{}, fmt.Errorf("failed to resolve HEAD: %w", err)
}
