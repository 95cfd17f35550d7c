package assets

import (
	"github.com/wolfeidau/webbundle/internal/pipeline"
	"github.com/wolfeidau/webbundle/internal/plugins"
)

// AppSteps assembles the application pipeline. The final slot is Minify in
// prod mode and Noop otherwise, so the list has the same length in every
// mode. The returned export map is owned by the stylesheet step and is
// populated while the bundle is built.
func AppSteps(mode pipeline.Mode) (pipeline.Steps, *plugins.ExportMap) {
	stylesheet := plugins.NewStylesheet(
		plugins.StageImport,
		plugins.StageLower,
		plugins.StageShorthand,
		plugins.StageScope,
		plugins.StageMinify,
	)
	stylesheet.LineComments = true

	var last pipeline.Step = pipeline.Noop{}
	if mode.IsProd() {
		last = plugins.Minify{}
	}

	return pipeline.Steps{
		plugins.NewMarkup(),
		stylesheet,
		plugins.NewImage(),
		plugins.JSON{},
		plugins.ReactiveX(),
		plugins.Transpile{
			Target:          "es2015",
			ExternalHelpers: true,
			Rewrites:        []string{plugins.RewriteLodash, plugins.RewriteFunctionBind},
			Exclude:         []string{"node_modules/**"},
		},
		plugins.NewNodeGlobals(),
		plugins.NodeBuiltins{},
		plugins.BrowserResolve{JSNext: true, Browser: true},
		plugins.CommonJS{
			Include: []string{"node_modules/**"},
			NamedExports: map[string][]string{
				"node_modules/redux-observable/lib/index.js": {"createEpicMiddleware", "combineEpics"},
			},
		},
		last,
	}, stylesheet.Exports
}

// VendorSteps assembles the pipeline for third-party bundles, which are
// always minified.
func VendorSteps() pipeline.Steps {
	return pipeline.Steps{
		plugins.NewStylesheet(plugins.StageMinify),
		plugins.NewNodeGlobals(),
		plugins.NodeBuiltins{},
		plugins.BrowserResolve{JSNext: true, Browser: true},
		plugins.CommonJS{},
		plugins.SafeEval(),
		plugins.Minify{},
	}
}
