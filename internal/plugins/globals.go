package plugins

import (
	"encoding/json"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	globalsNamespace = "node-globals"
	globalsModule    = "webbundle:globals"
)

// NodeGlobals provides browser stand-ins for the Node free variables
// process, global, __filename and __dirname.
type NodeGlobals struct {
	Filename string
	Dirname  string
}

func NewNodeGlobals() NodeGlobals {
	return NodeGlobals{Filename: "/index.js", Dirname: "/"}
}

func (g NodeGlobals) Name() string { return "globals" }

func (g NodeGlobals) Apply(opts *api.BuildOptions) {
	if opts.Define == nil {
		opts.Define = map[string]string{}
	}
	opts.Define["__filename"] = jsonString(g.Filename)
	opts.Define["__dirname"] = jsonString(g.Dirname)
	opts.Inject = append(opts.Inject, globalsModule)
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  g.Name(),
		Setup: g.setup,
	})
}

func (g NodeGlobals) setup(build api.PluginBuild) {
	build.OnResolve(api.OnResolveOptions{Filter: "^" + globalsModule + "$"},
		func(api.OnResolveArgs) (api.OnResolveResult, error) {
			return api.OnResolveResult{Path: "globals", Namespace: globalsNamespace}, nil
		})
	build.OnResolve(api.OnResolveOptions{Filter: `^\./process$`, Namespace: globalsNamespace},
		func(api.OnResolveArgs) (api.OnResolveResult, error) {
			return api.OnResolveResult{Path: "process", Namespace: globalsNamespace}, nil
		})
	build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: globalsNamespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			code, err := shim(args.Path)
			if err != nil {
				return api.OnLoadResult{}, err
			}
			return api.OnLoadResult{Contents: &code, Loader: api.LoaderJS}, nil
		})
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
