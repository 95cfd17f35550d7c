package pipeline

import (
	"fmt"

	"dario.cat/mergo"
)

// Format is the output module format of a bundle.
type Format string

const (
	FormatDefault Format = ""
	FormatUMD     Format = "umd"
	FormatIIFE    Format = "iife"
	FormatCJS     Format = "cjs"
	FormatESM     Format = "esm"
)

// Config is one build configuration consumed by the bundler.
type Config struct {
	Name      string    `yaml:"name" json:"name"`
	Entry     string    `yaml:"entry,omitempty" json:"entry,omitempty"`
	Context   string    `yaml:"context,omitempty" json:"context,omitempty"`
	SourceMap SourceMap `yaml:"sourceMap,omitempty" json:"sourceMap,omitempty"`
	Format    Format    `yaml:"format,omitempty" json:"format,omitempty"`
	Steps     Steps     `yaml:"steps" json:"steps"`
}

// Derive returns a shallow copy of base with every non-zero field of
// overrides applied. base is never modified and fields that are not
// overridden, including the step list, are shared with it.
func Derive(base, overrides Config) (Config, error) {
	derived := base
	if err := mergo.Merge(&derived, overrides, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("failed to derive config %q from %q: %w", overrides.Name, base.Name, err)
	}
	return derived, nil
}
