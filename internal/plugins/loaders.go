package plugins

import "github.com/evanw/esbuild/pkg/api"

// Image inlines image imports as data URLs.
type Image struct {
	Extensions []string
}

func NewImage() Image {
	return Image{Extensions: []string{".png", ".jpg", ".jpeg", ".gif", ".svg"}}
}

func (i Image) Name() string { return "image" }

func (i Image) Apply(opts *api.BuildOptions) {
	for _, ext := range i.Extensions {
		setLoader(opts, ext, api.LoaderDataURL)
	}
}

// JSON imports .json files as modules.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Apply(opts *api.BuildOptions) {
	setLoader(opts, ".json", api.LoaderJSON)
}

func setLoader(opts *api.BuildOptions, ext string, loader api.Loader) {
	if opts.Loader == nil {
		opts.Loader = make(map[string]api.Loader)
	}
	opts.Loader[ext] = loader
}

// Minify enables esbuild's whitespace, identifier and syntax minification.
type Minify struct{}

func (Minify) Name() string { return "minify" }

func (Minify) Apply(opts *api.BuildOptions) {
	opts.MinifyWhitespace = true
	opts.MinifyIdentifiers = true
	opts.MinifySyntax = true
}

// BrowserResolve prefers browser specific package entry points.
type BrowserResolve struct {
	JSNext  bool
	Browser bool
}

func (BrowserResolve) Name() string { return "resolve" }

func (b BrowserResolve) Apply(opts *api.BuildOptions) {
	var fields []string
	if b.Browser {
		opts.Platform = api.PlatformBrowser
		fields = append(fields, "browser")
	}
	if b.JSNext {
		fields = append(fields, "jsnext:main")
	}
	opts.MainFields = append(fields, "module", "main")
}
