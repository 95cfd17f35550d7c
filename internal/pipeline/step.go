package pipeline

import (
	"encoding/json"

	"github.com/evanw/esbuild/pkg/api"
)

// Step is a single unit of the build pipeline. Apply mutates the esbuild
// options, usually by appending a plugin. Steps are applied in list order,
// which is also the order esbuild consults their hooks.
type Step interface {
	Name() string
	Apply(opts *api.BuildOptions)
}

// Steps is an ordered pipeline.
type Steps []Step

// Apply applies every step in order.
func (s Steps) Apply(opts *api.BuildOptions) {
	for _, step := range s {
		step.Apply(opts)
	}
}

// Names lists the step names in order.
func (s Steps) Names() []string {
	names := make([]string, 0, len(s))
	for _, step := range s {
		names = append(names, step.Name())
	}
	return names
}

func (s Steps) MarshalYAML() (any, error) {
	return s.Names(), nil
}

// Noop occupies a step slot without changing the build.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Apply(*api.BuildOptions) {}

func (s Steps) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}
