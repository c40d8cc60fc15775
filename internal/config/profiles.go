// Package config stores forgeterm's named connection profiles: which
// repository a terminal session addresses and which engine answers it.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"forgeterm.dev/forgeterm/internal/engine"
	"forgeterm.dev/forgeterm/internal/forge"
	"forgeterm.dev/forgeterm/internal/rpc"
	"forgeterm.dev/forgeterm/internal/runtime"
	"forgeterm.dev/forgeterm/internal/transport"
)

// Environment overrides. A set variable wins over the stored profile.
const (
	EnvProfile = "FORGETERM_PROFILE"
	EnvEngine  = "FORGETERM_ENGINE"
	EnvToken   = "FORGETERM_TOKEN"
)

// Identity is the commit signature a local engine uses.
type Identity struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Profile names one repository and the engine that serves it. Engine is
// either a filesystem path (served in-process), an http(s) URL, or a
// ws(s) URL; a Unix socket path in Socket reroutes an http engine's
// bytes through that socket.
type Profile struct {
	Relay    string    `json:"relay,omitempty"`
	RID      string    `json:"rid,omitempty"`
	Owner    string    `json:"owner,omitempty"`
	LocalID  string    `json:"localId,omitempty"`
	Engine   string    `json:"engine,omitempty"`
	Socket   string    `json:"socket,omitempty"`
	Token    string    `json:"token,omitempty"`
	Identity *Identity `json:"identity,omitempty"`
}

// Config is the on-disk profile store.
type Config struct {
	DefaultProfile string             `json:"defaultProfile,omitempty"`
	Profiles       map[string]Profile `json:"profiles,omitempty"`
}

// DefaultPath returns the standard config location,
// ~/.config/forgeterm/config.json or the platform equivalent.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "forgeterm", "config.json"), nil
}

// Load reads the config file. A missing file is an empty config, not an
// error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Config{}, nil
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config file, creating its directory. Profiles can
// carry tokens, so the file is not group or world readable.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Set stores a profile under a name.
func (c *Config) Set(name string, profile Profile) {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	c.Profiles[name] = profile
}

// Remove deletes a profile and reports whether it existed.
func (c *Config) Remove(name string) bool {
	_, ok := c.Profiles[name]
	delete(c.Profiles, name)
	if c.DefaultProfile == name {
		c.DefaultProfile = ""
	}
	return ok
}

// Names lists profile names sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the profile to use. An explicit name wins, then the
// FORGETERM_PROFILE variable, then the stored default, then a lone
// profile when there is exactly one. Engine and token environment
// overrides are applied to the returned profile.
func (c *Config) Resolve(name string) (string, Profile, error) {
	if name == "" {
		name = os.Getenv(EnvProfile)
	}
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" && len(c.Profiles) == 1 {
		for only := range c.Profiles {
			name = only
		}
	}
	if name == "" {
		return "", Profile{}, fmt.Errorf("no profile selected; add one with 'forgeterm profile add'")
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return "", Profile{}, fmt.Errorf("unknown profile '%s'", name)
	}

	if engineOverride := os.Getenv(EnvEngine); engineOverride != "" {
		profile.Engine = engineOverride
	}
	if tokenOverride := os.Getenv(EnvToken); tokenOverride != "" {
		profile.Token = tokenOverride
	}
	return name, profile, nil
}

// Session assembles the runtime session for a profile: the repository
// reference plus a caller for its engine. Filesystem paths get the
// in-process engine; URLs get the matching transport.
func (p Profile) Session(ctx context.Context) (*runtime.Session, error) {
	if p.RID != "" {
		if _, err := forge.ParseRID(p.RID); err != nil {
			return nil, err
		}
	}
	repo := forge.RepoRef{
		Relay:   p.Relay,
		RID:     forge.RID(p.RID),
		Owner:   forge.DID(p.Owner),
		LocalID: p.LocalID,
	}

	var tokens runtime.TokenSource
	if p.Token != "" {
		tokens = runtime.StaticTokens{"": p.Token}
	}

	endpoint := p.Engine
	if endpoint == "" {
		endpoint = "."
	}

	var caller rpc.Caller
	var local *engine.Engine
	switch {
	case strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://"):
		ws, err := transport.DialWS(ctx, strings.TrimRight(endpoint, "/")+"/rpc/ws", tokens)
		if err != nil {
			return nil, err
		}
		caller = ws
	case strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://"):
		httpCaller, err := transport.NewHTTPCaller(endpoint, transport.HTTPOptions{
			SocketPath: p.Socket,
			Tokens:     tokens,
		})
		if err != nil {
			return nil, err
		}
		caller = httpCaller
	default:
		opened, err := engine.Open(endpoint)
		if err != nil {
			return nil, err
		}
		if p.Identity != nil {
			opened.SetIdentity(engine.Identity{Name: p.Identity.Name, Email: p.Identity.Email})
		}
		local = opened
		caller = rpc.Bridge(opened)
	}

	session := runtime.NewSession(repo, caller)
	session.Tokens = tokens
	if local != nil {
		// Transfer progress from push and pull surfaces through the
		// session callback once the front-end installs one.
		local.SetProgress(session.ProgressWriter())
	}
	return session, nil
}
