// Package locate finds the external agent binary across platform-specific
// install locations and the system PATH.
package locate

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// DefaultBinary is the executable name of the headless agent CLI.
const DefaultBinary = "cursor-agent"

// ErrNotFound indicates the agent binary could not be located anywhere.
// Callers treat it as a missing external dependency, not a bug.
var ErrNotFound = errors.New("agent binary not found")

// Resolver locates the agent executable and caches the result. Each Resolver
// owns its own cache; there is no package-level state, so unrelated
// orchestrator instances never share a stale path.
type Resolver struct {
	mu         sync.Mutex
	binary     string
	override   string
	candidates []string
	cached     string

	// Injection points for tests.
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
}

// NewResolver creates a Resolver for the given executable name. A non-empty
// override path short-circuits the search entirely.
func NewResolver(binary, override string) *Resolver {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Resolver{
		binary:     binary,
		override:   override,
		candidates: candidatePaths(binary),
		lookPath:   exec.LookPath,
		stat:       os.Stat,
	}
}

// Resolve returns the path to the agent binary, searching the override, the
// system PATH, then the platform candidate locations, in that order. The
// first hit is cached for the lifetime of the Resolver.
func (r *Resolver) Resolve() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != "" {
		return r.cached, nil
	}

	if r.override != "" {
		if r.exists(r.override) {
			r.cached = r.override
			return r.cached, nil
		}
		return "", fmt.Errorf("%w: configured path %s does not exist", ErrNotFound, r.override)
	}

	if path, err := r.lookPath(r.binary); err == nil {
		r.cached = path
		return r.cached, nil
	}

	for _, candidate := range r.candidates {
		if r.exists(candidate) {
			r.cached = candidate
			return r.cached, nil
		}
	}

	return "", fmt.Errorf("%w: %s is not in PATH or any known install location\n\n"+
		"Install the agent CLI, or point agent.binary_path at it in the config", ErrNotFound, r.binary)
}

// SetOverride pins the resolver to an explicit path and drops the cache.
// An empty path clears the override and re-enables the search.
func (r *Resolver) SetOverride(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = path
	r.cached = ""
}

// Invalidate drops the cached path so the next Resolve searches again.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = ""
}

// exists reports whether path names an existing non-directory file.
func (r *Resolver) exists(path string) bool {
	info, err := r.stat(path)
	return err == nil && !info.IsDir()
}
