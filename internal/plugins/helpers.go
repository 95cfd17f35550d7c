package plugins

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/gobwas/glob"
)

// workingDir returns the directory relative paths in step options are
// resolved against.
func workingDir(build api.PluginBuild) string {
	if build.InitialOptions != nil && build.InitialOptions.AbsWorkingDir != "" {
		return build.InitialOptions.AbsWorkingDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// relPath returns path relative to wd using forward slashes, or path itself
// when it cannot be made relative.
func relPath(wd, path string) string {
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// failOnStart reports a setup error as a build error.
func failOnStart(build api.PluginBuild, err error) {
	build.OnStart(func() (api.OnStartResult, error) {
		return api.OnStartResult{}, err
	})
}

// matcher implements include/exclude filtering on working directory
// relative paths. An empty include list matches everything.
type matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

func newMatcher(include, exclude []string) (*matcher, error) {
	m := &matcher{}
	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		m.include = append(m.include, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		m.exclude = append(m.exclude, g)
	}
	return m, nil
}

func (m *matcher) Match(rel string) bool {
	for _, g := range m.exclude {
		if g.Match(rel) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
