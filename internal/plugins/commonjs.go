package plugins

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/parse/v2/js"
)

const commonjsNamespace = "commonjs-exports"

type commonjsSkip struct{}

// CommonJS exposes named exports for CommonJS modules whose exports
// cannot be detected statically. NamedExports is keyed by the module
// file relative to the working directory.
type CommonJS struct {
	Include      []string
	NamedExports map[string][]string
}

func (c CommonJS) Name() string { return "commonjs" }

// Apply registers nothing without NamedExports: esbuild's own CommonJS
// interop then handles require and module.exports.
func (c CommonJS) Apply(opts *api.BuildOptions) {
	if len(c.NamedExports) == 0 {
		return
	}
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  c.Name(),
		Setup: c.setup,
	})
}

func (c CommonJS) setup(build api.PluginBuild) {
	m, err := newMatcher(c.Include, nil)
	if err != nil {
		failOnStart(build, fmt.Errorf("commonjs: %w", err))
		return
	}
	for file, names := range c.NamedExports {
		for _, name := range names {
			if !js.AsIdentifierName([]byte(name)) {
				failOnStart(build, fmt.Errorf("commonjs: %s: invalid export name %q", file, name))
				return
			}
		}
	}
	wd := workingDir(build)

	build.OnResolve(api.OnResolveOptions{Filter: `^[^./]`},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			if _, skip := args.PluginData.(commonjsSkip); skip || args.Namespace == commonjsNamespace || IsBuiltin(args.Path) {
				return api.OnResolveResult{}, nil
			}
			resolved := build.Resolve(args.Path, api.ResolveOptions{
				Importer:   args.Importer,
				Namespace:  args.Namespace,
				ResolveDir: args.ResolveDir,
				Kind:       args.Kind,
				PluginData: commonjsSkip{},
			})
			if len(resolved.Errors) > 0 || resolved.Path == "" {
				return api.OnResolveResult{}, nil
			}
			rel := relPath(wd, resolved.Path)
			if _, ok := c.NamedExports[rel]; !ok || !m.Match(rel) {
				return api.OnResolveResult{}, nil
			}
			return api.OnResolveResult{
				Path:       resolved.Path,
				Namespace:  commonjsNamespace,
				PluginData: rel,
			}, nil
		})

	build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: commonjsNamespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			rel, _ := args.PluginData.(string)
			code := c.Facade(args.Path, c.NamedExports[rel])
			return api.OnLoadResult{
				Contents:   &code,
				Loader:     api.LoaderJS,
				ResolveDir: filepath.Dir(args.Path),
			}, nil
		})
}

// Facade returns an ES module re-exporting names from the CommonJS module
// at path.
func (c CommonJS) Facade(path string, names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var sb strings.Builder
	fmt.Fprintf(&sb, "import * as m from %s;\n", strconv.Quote(filepath.ToSlash(path)))
	for _, name := range sorted {
		if name == "default" {
			continue
		}
		fmt.Fprintf(&sb, "export var %s = m.%s;\n", name, name)
	}
	sb.WriteString("export default m.default;\n")
	return sb.String()
}
