package assets

import (
	"fmt"
	"path/filepath"

	"github.com/wolfeidau/webbundle/internal/pipeline"
	"github.com/wolfeidau/webbundle/internal/plugins"
)

const (
	TargetTest      = "test"
	TargetApp       = "app"
	TargetVendor    = "vendor"
	TargetPolyfills = "polyfills"
)

// Env holds the inputs the target configurations are assembled from.
type Env struct {
	Mode       pipeline.Mode
	SourceRoot string
}

// Targets is the set of build configurations for a project.
type Targets struct {
	Test      pipeline.Config
	App       pipeline.Config
	Vendor    pipeline.Config
	Polyfills pipeline.Config

	// Exports holds the scoped class names of the app stylesheets.
	Exports *plugins.ExportMap
}

// NewTargets assembles the four configurations. It performs no I/O.
func NewTargets(env Env) (*Targets, error) {
	root := cond(env.SourceRoot != "", env.SourceRoot, "src")
	steps, exports := AppSteps(env.Mode)

	test := pipeline.Config{
		Name:      TargetTest,
		Context:   "window",
		SourceMap: pipeline.SourceMapInline,
		Format:    pipeline.FormatUMD,
		Steps:     steps,
	}

	app, err := pipeline.Derive(test, pipeline.Config{
		Name:      TargetApp,
		Entry:     filepath.Join(root, "app.js"),
		SourceMap: pipeline.SourceMapBool(env.Mode.IsDev()),
	})
	if err != nil {
		return nil, err
	}

	vendor := pipeline.Config{
		Name:    TargetVendor,
		Entry:   filepath.Join(root, "vendor.js"),
		Context: "window",
		Steps:   VendorSteps(),
	}

	polyfills, err := pipeline.Derive(vendor, pipeline.Config{
		Name:  TargetPolyfills,
		Entry: filepath.Join(root, "polyfills.js"),
	})
	if err != nil {
		return nil, err
	}

	return &Targets{
		Test:      test,
		App:       app,
		Vendor:    vendor,
		Polyfills: polyfills,
		Exports:   exports,
	}, nil
}

// All returns every configuration in a stable order.
func (t *Targets) All() []pipeline.Config {
	return []pipeline.Config{t.Test, t.App, t.Vendor, t.Polyfills}
}

// Lookup returns the configuration named name.
func (t *Targets) Lookup(name string) (pipeline.Config, error) {
	for _, cfg := range t.All() {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return pipeline.Config{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}
