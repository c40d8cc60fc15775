// Package forge defines the identifier types that locate a repository in
// the collaboration network: the repository id (RID), the owner identity
// (DID), the relay that seeds the repository, and the local working-copy id.
package forge

import (
	"fmt"
	"strings"
)

// RID is the globally addressable identifier of a repository in the forge
// network. The canonical form is "rid:" followed by an opaque token, e.g.
// "rid:z3TajuX4qGoVhTSVgBXiJWLLqAZvw".
type RID string

// ParseRID validates s as a repository identifier.
func ParseRID(s string) (RID, error) {
	if !strings.HasPrefix(s, "rid:") {
		return "", fmt.Errorf("repository id %q: missing rid: prefix", s)
	}
	if len(s) == len("rid:") {
		return "", fmt.Errorf("repository id %q: empty token", s)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", fmt.Errorf("repository id %q: contains whitespace", s)
	}
	return RID(s), nil
}

// IsZero reports whether the RID is unset.
func (r RID) IsZero() bool { return r == "" }

func (r RID) String() string { return string(r) }

// DID is the decentralized identity of a repository owner, e.g.
// "did:key:z6MkltRpzcq2ybm13yQpyre58JUeMvZY6toxoxSY3cJX16jH".
type DID string

// ParseDID validates s as an owner identity.
func ParseDID(s string) (DID, error) {
	if !strings.HasPrefix(s, "did:") {
		return "", fmt.Errorf("owner identity %q: missing did: prefix", s)
	}
	rest := s[len("did:"):]
	method, token, ok := strings.Cut(rest, ":")
	if !ok || method == "" || token == "" {
		return "", fmt.Errorf("owner identity %q: want did:<method>:<token>", s)
	}
	return DID(s), nil
}

// IsZero reports whether the DID is unset.
func (d DID) IsZero() bool { return d == "" }

func (d DID) String() string { return string(d) }

// RepoRef locates one repository for a terminal session: which relay seeds
// it, its network-wide id, who owns it, and the id of the local working
// copy. A session holds exactly one RepoRef and never mutates it.
type RepoRef struct {
	// Relay is the host (optionally host:port) of the relay node the
	// engine synchronizes with. Empty for purely local sessions.
	Relay string `json:"relay,omitempty"`

	// RID is the repository's globally addressable identifier. It is the
	// one field forwarded on every engine call.
	RID RID `json:"rid"`

	// Owner is the identity that published the repository.
	Owner DID `json:"owner,omitempty"`

	// LocalID identifies the local working copy when several checkouts of
	// the same repository exist side by side.
	LocalID string `json:"localId,omitempty"`
}

// Validate checks that the reference is usable: the RID is mandatory, the
// remaining fields are optional context.
func (ref RepoRef) Validate() error {
	if ref.RID.IsZero() {
		return fmt.Errorf("repo ref: missing repository id")
	}
	if _, err := ParseRID(string(ref.RID)); err != nil {
		return fmt.Errorf("repo ref: %w", err)
	}
	if !ref.Owner.IsZero() {
		if _, err := ParseDID(string(ref.Owner)); err != nil {
			return fmt.Errorf("repo ref: %w", err)
		}
	}
	return nil
}

// String renders the reference as "<rid>@<relay>" (or just the RID when no
// relay is configured). Used in prompts and log lines.
func (ref RepoRef) String() string {
	if ref.Relay == "" {
		return ref.RID.String()
	}
	return ref.RID.String() + "@" + ref.Relay
}
