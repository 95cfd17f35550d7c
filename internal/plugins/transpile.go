package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Transpile lowers application source to Target after applying the named
// source rewrites. With ExternalHelpers the syntax lowering happens once for
// the whole bundle so helpers are emitted a single time instead of per file.
type Transpile struct {
	Target          string
	ExternalHelpers bool
	Rewrites        []string
	Include         []string
	Exclude         []string
}

func (t Transpile) Name() string { return "transpile" }

func (t Transpile) Apply(opts *api.BuildOptions) {
	if target, ok := targets[t.Target]; ok && t.ExternalHelpers {
		opts.Target = target
	}
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  t.Name(),
		Setup: t.setup,
	})
}

func (t Transpile) setup(build api.PluginBuild) {
	target, ok := targets[t.Target]
	if !ok {
		failOnStart(build, fmt.Errorf("transpile: unknown target %q", t.Target))
		return
	}
	for _, name := range t.Rewrites {
		if _, ok := rewriters[name]; !ok {
			failOnStart(build, fmt.Errorf("transpile: unknown rewrite %q", name))
			return
		}
	}
	m, err := newMatcher(t.Include, t.Exclude)
	if err != nil {
		failOnStart(build, fmt.Errorf("transpile: %w", err))
		return
	}
	wd := workingDir(build)

	build.OnLoad(api.OnLoadOptions{Filter: `\.(m?js|jsx)$`, Namespace: "file"},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			if !m.Match(relPath(wd, args.Path)) {
				return api.OnLoadResult{}, nil
			}

			src, err := os.ReadFile(args.Path)
			if err != nil {
				return api.OnLoadResult{}, err
			}

			code, err := t.Transform(args.Path, src, target)
			if err != nil {
				return api.OnLoadResult{}, err
			}

			loader := api.LoaderJS
			if strings.HasSuffix(args.Path, ".jsx") {
				loader = api.LoaderJSX
			}
			return api.OnLoadResult{
				Contents:   &code,
				Loader:     loader,
				ResolveDir: filepath.Dir(args.Path),
			}, nil
		})
}

// Transform applies the rewrites to src and, without external helpers,
// lowers it to target.
func (t Transpile) Transform(path string, src []byte, target api.Target) (string, error) {
	var err error
	for _, name := range t.Rewrites {
		rewrite, ok := rewriters[name]
		if !ok {
			return "", fmt.Errorf("unknown rewrite %q", name)
		}
		if src, err = rewrite(src); err != nil {
			return "", fmt.Errorf("%s: %s: %w", path, name, err)
		}
	}

	if t.ExternalHelpers {
		return string(src), nil
	}

	loader := api.LoaderJS
	if strings.HasSuffix(path, ".jsx") {
		loader = api.LoaderJSX
	}
	result := api.Transform(string(src), api.TransformOptions{
		Loader:     loader,
		Target:     target,
		Sourcefile: path,
		Sourcemap:  api.SourceMapInline,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, msg := range result.Errors {
			msgs = append(msgs, msg.Text)
		}
		return "", fmt.Errorf("%s: %w", path, errors.New(strings.Join(msgs, "; ")))
	}
	return string(result.Code), nil
}
