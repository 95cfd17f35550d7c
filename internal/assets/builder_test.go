package assets

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webbundle/internal/pipeline"
	"github.com/wolfeidau/webbundle/internal/plugins"
)

var fixture = map[string]string{
	"src/app.js": `import { combineEpics } from "redux-observable";
import { map } from "lodash";
import styles from "./button.css";
import template from "./card.html";
import path from "path";

function label() {
  return this.title;
}

export const view = {
  template,
  button: styles.button,
  epics: combineEpics,
  ext: path.extname(__filename),
  env: process.env.NODE_ENV,
  titles: map([{ title: "a" }], (item) => item::label()),
};
`,
	"src/button.css": `@import "./base.css";
// line comment
.button { size: 10px 20px; }
`,
	"src/base.css":  `:global(.root) { margin: 0 }`,
	"src/card.html": "<div class=\"card\">\n  <!-- body -->\n  <p>hello</p>\n</div>\n",
	"src/vendor.js": `import "./legacy";
export var ready = true;
`,
	"src/legacy.js": `var value = eval("1 + 1");
module.exports = value;
`,
	"src/polyfills.js": `export var polyfilled = typeof Promise !== "undefined";
`,
	"node_modules/lodash/map.js": `module.exports = function map(xs, fn) { return xs.map(fn); };
`,
	"node_modules/redux-observable/package.json": `{"name": "redux-observable", "main": "lib/index.js"}`,
	"node_modules/redux-observable/lib/index.js": `"use strict";
Object.defineProperty(exports, "__esModule", { value: true });
var impl = require("./impl");
Object.keys(impl).forEach(function (key) { exports[key] = impl[key]; });
`,
	"node_modules/redux-observable/lib/impl.js": `exports.combineEpics = function combineEpics() { return "combined"; };
exports.createEpicMiddleware = function createEpicMiddleware() {};
`,
}

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range fixture {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return dir
}

func output(t *testing.T, res *Result, suffix string) string {
	t.Helper()
	for _, out := range res.Outputs {
		if strings.HasSuffix(out.Path, suffix) {
			b, err := os.ReadFile(out.Path)
			require.NoError(t, err)
			return string(b)
		}
	}
	require.FailNow(t, "output not found", suffix)
	return ""
}

var sourceMappingURL = regexp.MustCompile(`(?m)^//# sourceMappingURL=.*$`)

// run executes a bundle the way a browser would, with window as the
// global object. goja resolves linked source maps against the process
// directory, so the comment is dropped first.
func run(t *testing.T, js string) *goja.Runtime {
	t.Helper()
	vm := goja.New()
	require.NoError(t, vm.Set("window", vm.GlobalObject()))
	_, err := vm.RunString(sourceMappingURL.ReplaceAllString(js, ""))
	require.NoError(t, err)
	return vm
}

func TestBuild_App(t *testing.T) {
	dir := writeFixture(t)
	targets, err := NewTargets(Env{Mode: pipeline.ModeDev})
	require.NoError(t, err)

	b := New(Config{OutputDir: "dist", WorkingDir: dir, Write: true, GzipSizes: true})
	res, err := b.Build(context.Background(), targets.App)
	require.NoError(t, err)

	require.Equal(t, TargetApp, res.Target)
	require.Equal(t, filepath.Join(dir, "dist", "app.meta.json"), res.Metafile)
	require.FileExists(t, res.Metafile)

	js := output(t, res, "app.js")
	cssPath := filepath.Join(dir, "src", "button.css")
	scoped := plugins.ScopedName(cssPath, "button")
	require.Contains(t, js, scoped)
	require.Contains(t, js, "width:10px")
	require.Contains(t, js, ".root")
	require.NotContains(t, js, "line comment")
	require.Contains(t, js, "<p>hello</p>")
	require.NotContains(t, js, "<!-- body -->")
	require.Contains(t, js, "combineEpics")
	require.Contains(t, js, "label.call(item)")
	require.Contains(t, js, "var app = ")
	require.Contains(t, js, "sourceMappingURL=app.js.map")
	require.NotContains(t, js, "::")

	vm := run(t, js)
	view := vm.Get("app").ToObject(vm).Get("view").ToObject(vm)
	require.Equal(t, scoped, view.Get("button").String())
	require.Equal(t, ".js", view.Get("ext").String())
	require.Contains(t, view.Get("template").String(), "<p>hello</p>")
	epics, ok := goja.AssertFunction(view.Get("epics"))
	require.True(t, ok)
	combined, err := epics(goja.Undefined())
	require.NoError(t, err)
	require.Equal(t, "combined", combined.String())

	tokens, ok := targets.Exports.Get(cssPath)
	require.True(t, ok)
	require.Equal(t, map[string]string{"button": scoped}, tokens)

	for _, out := range res.Outputs {
		require.Positive(t, out.Size)
		require.Positive(t, out.GzipSize)
	}

	scripts, err := b.Scripts(TargetApp)
	require.NoError(t, err)
	require.Equal(t, []string{"/dist/app.js"}, scripts)

	md, ok := b.Metadata(TargetApp)
	require.True(t, ok)
	require.Contains(t, md.Inputs, "src/app.js")
}

func TestBuild_ProdMinifies(t *testing.T) {
	dir := writeFixture(t)

	dev, err := NewTargets(Env{Mode: pipeline.ModeDev})
	require.NoError(t, err)
	prod, err := NewTargets(Env{Mode: pipeline.ModeProd})
	require.NoError(t, err)

	b := New(Config{WorkingDir: dir})
	devRes, err := b.Build(context.Background(), dev.App)
	require.NoError(t, err)
	prodRes, err := b.Build(context.Background(), prod.App)
	require.NoError(t, err)

	require.Empty(t, prodRes.Metafile)
	require.Len(t, prodRes.Outputs, 1)
	require.Len(t, devRes.Outputs, 2)
	require.Less(t, sizeOf(t, prodRes, "app.js"), sizeOf(t, devRes, "app.js"))
}

func sizeOf(t *testing.T, res *Result, suffix string) int {
	t.Helper()
	for _, out := range res.Outputs {
		if strings.HasSuffix(out.Path, suffix) {
			return out.Size
		}
	}
	require.FailNow(t, "output not found", suffix)
	return 0
}

func TestBuild_VendorAndPolyfills(t *testing.T) {
	dir := writeFixture(t)
	targets, err := NewTargets(Env{})
	require.NoError(t, err)

	b := New(Config{OutputDir: filepath.Join(dir, "public"), WorkingDir: dir, Write: true})
	for _, cfg := range []pipeline.Config{targets.Vendor, targets.Polyfills} {
		res, err := b.Build(context.Background(), cfg)
		require.NoError(t, err, cfg.Name)
		require.Len(t, res.Outputs, 1)
		require.Equal(t, filepath.Join(dir, "public", cfg.Name+".js"), res.Outputs[0].Path)
		require.FileExists(t, filepath.Join(dir, "public", cfg.Name+".meta.json"))

		js := output(t, res, cfg.Name+".js")
		require.NotContains(t, js, "\n  ")

		run(t, js)
	}
}

func TestBuild_Errors(t *testing.T) {
	dir := writeFixture(t)
	targets, err := NewTargets(Env{})
	require.NoError(t, err)
	b := New(Config{WorkingDir: dir})

	_, err = b.Build(context.Background(), targets.Test)
	require.ErrorIs(t, err, ErrNoEntry)

	broken, err := pipeline.Derive(targets.App, pipeline.Config{Entry: "src/missing.js"})
	require.NoError(t, err)
	_, err = b.Build(context.Background(), broken)
	require.ErrorIs(t, err, ErrBuildFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Build(ctx, targets.App)
	require.ErrorIs(t, err, context.Canceled)

	_, err = b.Scripts(TargetVendor)
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestOptions(t *testing.T) {
	dir := t.TempDir()
	targets, err := NewTargets(Env{Mode: pipeline.ModeProd})
	require.NoError(t, err)
	b := New(Config{OutputDir: "out", WorkingDir: dir})

	opts, err := b.Options(targets.App)
	require.NoError(t, err)
	require.True(t, opts.Bundle)
	require.Equal(t, []string{filepath.Join("src", "app.js")}, opts.EntryPoints)
	require.Equal(t, filepath.Join(dir, "out", "app.js"), opts.Outfile)
	require.Equal(t, api.FormatIIFE, opts.Format)
	require.Equal(t, "app", opts.GlobalName)
	require.Equal(t, api.SourceMapNone, opts.Sourcemap)
	require.Equal(t, "window", opts.Define["this"])
	require.True(t, opts.MinifyWhitespace)
	require.True(t, opts.Metafile)
	require.Equal(t, api.PlatformBrowser, opts.Platform)

	opts, err = b.Options(targets.Test)
	require.NoError(t, err)
	require.Empty(t, opts.EntryPoints)
	require.Equal(t, api.SourceMapInline, opts.Sourcemap)

	opts, err = b.Options(targets.Vendor)
	require.NoError(t, err)
	require.Equal(t, api.FormatDefault, opts.Format)
	require.Empty(t, opts.GlobalName)

	cjs, err := pipeline.Derive(targets.Vendor, pipeline.Config{Format: pipeline.FormatCJS, SourceMap: pipeline.SourceMapTrue})
	require.NoError(t, err)
	opts, err = b.Options(cjs)
	require.NoError(t, err)
	require.Equal(t, api.FormatCommonJS, opts.Format)
	require.Equal(t, api.SourceMapLinked, opts.Sourcemap)

	_, err = b.Options(pipeline.Config{Name: "x", Format: "amd"})
	require.ErrorIs(t, err, ErrUnknownFormat)
}
