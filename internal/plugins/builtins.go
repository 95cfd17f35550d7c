package plugins

import (
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const builtinsNamespace = "node-builtin"

var builtinModules = []string{
	"assert", "buffer", "child_process", "cluster", "console", "constants",
	"crypto", "dgram", "dns", "domain", "events", "fs", "http", "https",
	"module", "net", "os", "path", "process", "punycode", "querystring",
	"readline", "repl", "stream", "string_decoder", "sys", "timers", "tls",
	"tty", "url", "util", "vm", "zlib",
}

// builtinShims maps modules with a working browser implementation to
// their shim. Everything else resolves to an empty module.
var builtinShims = map[string]string{
	"events":  "events",
	"path":    "path",
	"process": "process",
	"sys":     "util",
	"util":    "util",
}

var builtinFilter = `^(node:)?(` + strings.Join(builtinModules, "|") + `)$`

// IsBuiltin reports whether id names a Node built-in module.
func IsBuiltin(id string) bool {
	return builtinRegexp.MatchString(id)
}

var builtinRegexp = regexp.MustCompile(builtinFilter)

// NodeBuiltins resolves imports of Node built-in modules to browser shims.
type NodeBuiltins struct{}

func (NodeBuiltins) Name() string { return "builtins" }

func (b NodeBuiltins) Apply(opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  b.Name(),
		Setup: b.setup,
	})
}

func (NodeBuiltins) setup(build api.PluginBuild) {
	build.OnResolve(api.OnResolveOptions{Filter: builtinFilter},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			return api.OnResolveResult{
				Path:      strings.TrimPrefix(args.Path, "node:"),
				Namespace: builtinsNamespace,
			}, nil
		})
	build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: builtinsNamespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			code := "export default {};\n"
			if name, ok := builtinShims[args.Path]; ok {
				var err error
				if code, err = shim(name); err != nil {
					return api.OnLoadResult{}, err
				}
			}
			return api.OnLoadResult{Contents: &code, Loader: api.LoaderJS}, nil
		})
}
