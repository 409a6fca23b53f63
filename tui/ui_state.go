package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// uiConfig holds TUI-only state that should survive restarts but does not
// belong in settings.json: the markdown theme, pinned project paths, and
// the last selected project. Stored as ui.yaml next to the other config
// files so it is easy to hand-edit.
type uiConfig struct {
	Theme           string   `yaml:"theme,omitempty"`
	PinnedProjects  []string `yaml:"pinned_projects,omitempty"`
	LastProjectPath string   `yaml:"last_project_path,omitempty"`
}

func loadUIConfig(configDir string) (*uiConfig, string) {
	path := filepath.Join(configDir, "ui.yaml")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return &uiConfig{}, path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &uiConfig{}, path
	}
	var cfg uiConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &uiConfig{}, path
	}
	return &cfg, path
}

func saveUIConfig(cfg *uiConfig, path string) error {
	if cfg == nil {
		cfg = &uiConfig{}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *uiConfig) isPinned(projectPath string) bool {
	for _, p := range c.PinnedProjects {
		if p == projectPath {
			return true
		}
	}
	return false
}

func (c *uiConfig) togglePinned(projectPath string) {
	kept := c.PinnedProjects[:0]
	found := false
	for _, p := range c.PinnedProjects {
		if p == projectPath {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		kept = append(kept, projectPath)
	}
	c.PinnedProjects = kept
}
