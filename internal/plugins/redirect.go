package plugins

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Redirect rewrites import identifiers under Prefix to a file inside Dir.
// Identifiers without the prefix fall through to normal resolution.
type Redirect struct {
	Prefix string
	Dir    string
	Ext    string
}

// ReactiveX redirects rxjs/* imports to the prebuilt ES2015 distribution.
func ReactiveX() Redirect {
	return Redirect{
		Prefix: "rxjs/",
		Dir:    "node_modules/@reactivex/rxjs/dist/es6/",
		Ext:    ".js",
	}
}

func (r Redirect) Name() string { return "redirect" }

// Resolve returns the rewritten path for id, relative to the working
// directory, and whether id matched.
func (r Redirect) Resolve(id string) (string, bool) {
	if !strings.HasPrefix(id, r.Prefix) {
		return "", false
	}
	return r.Dir + strings.TrimPrefix(id, r.Prefix) + r.Ext, true
}

func (r Redirect) Apply(opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  r.Name(),
		Setup: r.setup,
	})
}

func (r Redirect) setup(build api.PluginBuild) {
	wd := workingDir(build)
	build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(r.Prefix)},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			path, ok := r.Resolve(args.Path)
			if !ok {
				return api.OnResolveResult{}, nil
			}
			if !filepath.IsAbs(path) {
				path = filepath.Join(wd, filepath.FromSlash(path))
			}
			return api.OnResolveResult{Path: path}, nil
		})
}
