package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/wolfeidau/webbundle/internal/assets"
	"github.com/wolfeidau/webbundle/internal/pipeline"
	"gopkg.in/yaml.v3"
)

type Globals struct {
	Debug      bool
	Version    string
	Mode       string
	SourceRoot string
	OutDir     string
	Project    string
}

// Settings are the resolved project settings shared by every command.
type Settings struct {
	Mode       string `yaml:"mode"`
	SourceRoot string `yaml:"sourceRoot"`
	OutDir     string `yaml:"outDir"`
	CSSExports string `yaml:"cssExports"`

	// WorkingDir is the project file's directory, or empty for the
	// process working directory.
	WorkingDir string `yaml:"-"`
}

// Settings merges the project file, when one is given, over the flags.
func (g *Globals) Settings() (Settings, error) {
	settings := Settings{
		Mode:       g.Mode,
		SourceRoot: g.SourceRoot,
		OutDir:     g.OutDir,
	}
	if g.Project == "" {
		return settings, nil
	}

	data, err := os.ReadFile(g.Project)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read project file: %w", err)
	}

	var project Settings
	if err := yaml.Unmarshal(data, &project); err != nil {
		return Settings{}, fmt.Errorf("failed to parse project file %s: %w", g.Project, err)
	}

	if err := mergo.Merge(&settings, project, mergo.WithOverride); err != nil {
		return Settings{}, fmt.Errorf("failed to apply project file: %w", err)
	}

	dir, err := filepath.Abs(filepath.Dir(g.Project))
	if err != nil {
		return Settings{}, err
	}
	settings.WorkingDir = dir
	return settings, nil
}

func (s Settings) Env() assets.Env {
	return assets.Env{Mode: pipeline.Mode(s.Mode), SourceRoot: s.SourceRoot}
}

func (s Settings) BuilderConfig() assets.Config {
	cfg := assets.DefaultConfig()
	cfg.WorkingDir = s.WorkingDir
	if s.OutDir != "" {
		cfg.OutputDir = s.OutDir
	}
	return cfg
}

// path resolves p against the working directory.
func (s Settings) path(p string) string {
	if p == "" || filepath.IsAbs(p) || s.WorkingDir == "" {
		return p
	}
	return filepath.Join(s.WorkingDir, p)
}

// selectTargets returns the configurations named in names, all buildable
// ones when names is empty. The test target takes its entry from entry.
func selectTargets(targets *assets.Targets, names []string, entry string) ([]pipeline.Config, error) {
	if len(names) == 0 {
		names = []string{assets.TargetApp, assets.TargetVendor, assets.TargetPolyfills}
	}

	cfgs := make([]pipeline.Config, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		cfg, err := targets.Lookup(name)
		if err != nil {
			return nil, err
		}
		if name == assets.TargetTest {
			if entry == "" {
				return nil, fmt.Errorf("%w: %s requires --entry", assets.ErrNoEntry, name)
			}
			if cfg, err = pipeline.Derive(cfg, pipeline.Config{Entry: entry}); err != nil {
				return nil, err
			}
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}
