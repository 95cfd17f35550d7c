package plugins

import (
	"encoding/json"
	"os"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/minify/v2"
	cssmin "github.com/tdewolff/minify/v2/css"
	htmlmin "github.com/tdewolff/minify/v2/html"
)

// Markup imports .html files as minified strings.
type Markup struct {
	CollapseWhitespace    bool
	RemoveAttributeQuotes bool
	RemoveComments        bool
}

// NewMarkup returns the markup step with every minification enabled.
func NewMarkup() Markup {
	return Markup{
		CollapseWhitespace:    true,
		RemoveAttributeQuotes: true,
		RemoveComments:        true,
	}
}

func (m Markup) Name() string { return "markup" }

func (m Markup) Apply(opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  m.Name(),
		Setup: m.setup,
	})
}

func (m Markup) setup(build api.PluginBuild) {
	build.OnLoad(api.OnLoadOptions{Filter: `\.html?$`, Namespace: "file"},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			src, err := os.ReadFile(args.Path)
			if err != nil {
				return api.OnLoadResult{}, err
			}

			html, err := m.Minify(string(src))
			if err != nil {
				return api.OnLoadResult{}, err
			}

			encoded, err := json.Marshal(html)
			if err != nil {
				return api.OnLoadResult{}, err
			}
			contents := "export default " + string(encoded) + ";\n"

			return api.OnLoadResult{
				Contents: &contents,
				Loader:   api.LoaderJS,
			}, nil
		})
}

// Minify applies the configured HTML minification to src.
func (m Markup) Minify(src string) (string, error) {
	minifier := minify.New()
	minifier.AddFunc("text/css", cssmin.Minify)
	minifier.Add("text/html", &htmlmin.Minifier{
		KeepWhitespace:   !m.CollapseWhitespace,
		KeepQuotes:       !m.RemoveAttributeQuotes,
		KeepComments:     !m.RemoveComments,
		KeepDocumentTags: true,
		KeepEndTags:      true,
	})
	return minifier.String("text/html", src)
}
