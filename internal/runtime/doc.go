// Package runtime provides the per-session execution context for forgeterm
// commands.
//
// It encapsulates what the interpreter needs from its host: the repository
// reference, the engine caller, and the optional progress and token hooks.
package runtime
