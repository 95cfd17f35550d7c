package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type namedStep string

func (n namedStep) Name() string { return string(n) }

func (n namedStep) Apply(opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{Name: string(n)})
}

func TestDerive(t *testing.T) {
	base := Config{
		Name:      "test",
		Context:   "window",
		SourceMap: SourceMapInline,
		Format:    FormatUMD,
		Steps:     Steps{namedStep("a"), namedStep("b")},
	}

	derived, err := Derive(base, Config{
		Name:      "app",
		Entry:     "src/app.js",
		SourceMap: SourceMapFalse,
	})
	require.NoError(t, err)

	require.Equal(t, "app", derived.Name)
	require.Equal(t, "src/app.js", derived.Entry)
	require.Equal(t, SourceMapFalse, derived.SourceMap)
	require.Equal(t, "window", derived.Context)
	require.Equal(t, FormatUMD, derived.Format)
	require.Same(t, &base.Steps[0], &derived.Steps[0])

	// base is untouched
	require.Equal(t, "test", base.Name)
	require.Empty(t, base.Entry)
	require.Equal(t, SourceMapInline, base.SourceMap)
}

func TestDerive_ZeroOverridesKeepBase(t *testing.T) {
	base := Config{Name: "vendor", Entry: "src/vendor.js", Context: "window"}

	derived, err := Derive(base, Config{})
	require.NoError(t, err)
	require.Equal(t, base, derived)
}

func TestSourceMapBool(t *testing.T) {
	require.Equal(t, SourceMapTrue, SourceMapBool(true))
	require.Equal(t, SourceMapFalse, SourceMapBool(false))
	require.True(t, SourceMapInline.Enabled())
	require.True(t, SourceMapTrue.Enabled())
	require.False(t, SourceMapFalse.Enabled())
	require.False(t, SourceMapUnset.Enabled())
}

func TestSourceMapMarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    SourceMap
		expected string
	}{
		{name: "inline", input: SourceMapInline, expected: `"inline"`},
		{name: "true", input: SourceMapTrue, expected: `true`},
		{name: "explicit false", input: SourceMapFalse, expected: `false`},
		{name: "unset", input: SourceMapUnset, expected: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.input)
			require.NoError(t, err)
			require.JSONEq(t, tt.expected, string(data))

			var back SourceMap
			require.NoError(t, json.Unmarshal(data, &back))
			require.Equal(t, tt.input, back)
		})
	}

	var bad SourceMap
	require.Error(t, json.Unmarshal([]byte(`"external"`), &bad))
}

func TestConfigYAML(t *testing.T) {
	cfg := Config{
		Name:      "app",
		Entry:     "src/app.js",
		SourceMap: SourceMapFalse,
		Steps:     Steps{namedStep("markup"), Noop{}},
	}

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.Contains(t, string(out), "sourceMap: false")
	require.Contains(t, string(out), "- markup")
	require.Contains(t, string(out), "- noop")
}

func TestStepsApply(t *testing.T) {
	steps := Steps{namedStep("a"), Noop{}, namedStep("b")}

	var opts api.BuildOptions
	steps.Apply(&opts)

	require.Len(t, opts.Plugins, 2)
	require.Equal(t, "a", opts.Plugins[0].Name)
	require.Equal(t, "b", opts.Plugins[1].Name)
	require.Equal(t, []string{"a", "noop", "b"}, steps.Names())
}

func TestMode(t *testing.T) {
	require.True(t, ModeProd.IsProd())
	require.False(t, ModeProd.IsDev())
	require.True(t, ModeDev.IsDev())
	require.False(t, Mode("").IsDev())
	require.False(t, Mode("staging").IsProd())
	require.Equal(t, "unset", Mode("").String())
}
