// Package crew loads YAML manifests describing a set of agents to launch
// together.
package crew

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// manifestVersion is the only schema version currently understood.
const manifestVersion = 1

// AgentSpec describes one agent in a crew manifest.
type AgentSpec struct {
	// Name labels the agent in output. Defaults to "agent-N" by position.
	Name string `yaml:"name"`
	// Prompt is the task handed to the agent. Required.
	Prompt string `yaml:"prompt"`
	// Dir is an optional working directory. Relative paths resolve against
	// the manifest's own directory; environment variables are expanded.
	Dir string `yaml:"dir"`
}

// Manifest is a parsed crew file.
type Manifest struct {
	Version int         `yaml:"version"`
	Agents  []AgentSpec `yaml:"agents"`
}

// Load reads and validates a crew manifest from disk. Relative agent
// directories are resolved against the manifest's location.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Agents {
		dir := os.ExpandEnv(m.Agents[i].Dir)
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		m.Agents[i].Dir = dir
	}

	return m, nil
}

// Parse unmarshals and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	if m.Version != 0 && m.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}

	if len(m.Agents) == 0 {
		return nil, fmt.Errorf("manifest lists no agents")
	}

	seen := make(map[string]bool, len(m.Agents))
	for i := range m.Agents {
		a := &m.Agents[i]

		a.Prompt = strings.TrimSpace(a.Prompt)
		if a.Prompt == "" {
			return nil, fmt.Errorf("agent %d has an empty prompt", i+1)
		}

		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			a.Name = fmt.Sprintf("agent-%d", i+1)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
	}

	return &m, nil
}
