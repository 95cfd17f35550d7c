package plugins

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	cssmin "github.com/tdewolff/minify/v2/css"
)

// Stage is one pass of the stylesheet sub-pipeline.
type Stage string

const (
	StageImport    Stage = "import"
	StageLower     Stage = "lower"
	StageShorthand Stage = "shorthand"
	StageScope     Stage = "scope"
	StageMinify    Stage = "minify"
)

// DefaultEngines are the browsers CSS is lowered and prefixed for.
var DefaultEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "49"},
	{Name: api.EngineEdge, Version: "13"},
	{Name: api.EngineFirefox, Version: "45"},
	{Name: api.EngineIOS, Version: "9"},
	{Name: api.EngineSafari, Version: "9"},
}

// Stylesheet loads .css files through an ordered set of stages and turns
// them into JS modules that inject the styles and export their scoped
// class names.
type Stylesheet struct {
	Stages            []Stage
	LineComments      bool
	WarnForDuplicates bool
	Engines           []api.Engine
	Exports           *ExportMap
}

// Processed is the result of running the stages over one stylesheet.
type Processed struct {
	CSS     string
	Tokens  map[string]string
	Imports []string
}

// NewStylesheet returns a stylesheet step with its own export map.
func NewStylesheet(stages ...Stage) *Stylesheet {
	return &Stylesheet{
		Stages:  stages,
		Engines: DefaultEngines,
		Exports: NewExportMap(),
	}
}

func (s *Stylesheet) Name() string { return "stylesheet" }

func (s *Stylesheet) Apply(opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  s.Name(),
		Setup: s.setup,
	})
}

func (s *Stylesheet) setup(build api.PluginBuild) {
	build.OnLoad(api.OnLoadOptions{Filter: `\.css$`, Namespace: "file"},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			src, err := os.ReadFile(args.Path)
			if err != nil {
				return api.OnLoadResult{}, err
			}

			processed, err := s.Process(args.Path, src)
			if err != nil {
				return api.OnLoadResult{}, err
			}

			if processed.Tokens != nil && s.Exports != nil {
				s.Exports.Record(args.Path, processed.Tokens)
			}

			contents, err := styleModule(processed.CSS, processed.Tokens)
			if err != nil {
				return api.OnLoadResult{}, err
			}

			return api.OnLoadResult{
				Contents:   &contents,
				Loader:     api.LoaderJS,
				ResolveDir: filepath.Dir(args.Path),
				WatchFiles: processed.Imports,
			}, nil
		})
}

// Process runs the configured stages over the stylesheet at path. Tokens
// is nil unless the scope stage ran.
func (s *Stylesheet) Process(path string, src []byte) (Processed, error) {
	var processed Processed
	if s.LineComments {
		src = stripLineComments(src)
	}

	for _, stage := range s.Stages {
		var err error
		switch stage {
		case StageImport:
			inliner := newImportInliner(path)
			src, err = inliner.inline(path, src)
			processed.Imports = inliner.files
		case StageLower:
			src, err = s.lower(path, src)
		case StageShorthand:
			src, err = expandShorthands(src)
		case StageScope:
			src, processed.Tokens, err = scopeClasses(path, src)
		case StageMinify:
			src, err = minifyCSS(src)
		default:
			err = fmt.Errorf("unknown stylesheet stage %q", stage)
		}
		if err != nil {
			return Processed{}, fmt.Errorf("stylesheet %s: %s: %w", path, stage, err)
		}
	}

	processed.CSS = string(src)
	return processed, nil
}

// lower applies esbuild's CSS transform for the configured engines, which
// lowers newer syntax and adds the vendor prefixes those engines need.
func (s *Stylesheet) lower(path string, src []byte) ([]byte, error) {
	// esbuild unwraps :global() itself, hide it so the scope stage still
	// sees which selectors to leave alone
	src = bytes.ReplaceAll(src, []byte(":global("), []byte(globalMarker))
	result := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    s.Engines,
		Sourcefile: path,
		LogLevel:   api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, msg := range result.Errors {
			msgs = append(msgs, msg.Text)
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}

	for _, msg := range result.Warnings {
		if !s.WarnForDuplicates && strings.Contains(strings.ToLower(msg.Text), "duplicate") {
			continue
		}
		log.Warn().Str("file", path).Str("warning", msg.Text).Msg("Stylesheet warning")
	}

	return bytes.ReplaceAll(result.Code, []byte(globalMarker), []byte(":global(")), nil
}

func minifyCSS(src []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/css", cssmin.Minify)
	return m.Bytes("text/css", src)
}

const globalMarker = ":webbundle-global("

const styleModuleTemplate = `var css = %s;
if (typeof document !== "undefined") {
  var style = document.createElement("style");
  style.setAttribute("type", "text/css");
  style.appendChild(document.createTextNode(css));
  document.head.appendChild(style);
}
export var stylesheet = css;
export default %s;
`

// styleModule renders the JS module a stylesheet import resolves to.
func styleModule(css string, tokens map[string]string) (string, error) {
	if tokens == nil {
		tokens = map[string]string{}
	}
	cssJSON, err := json.Marshal(css)
	if err != nil {
		return "", err
	}
	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(styleModuleTemplate, cssJSON, tokensJSON), nil
}
