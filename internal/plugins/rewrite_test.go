package plugins

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
)

func TestRewriteLodashImports(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{
			name: "named imports",
			src:  `import { map, filter } from "lodash";`,
			want: `import map from "lodash/map"; import filter from "lodash/filter";`,
		},
		{
			name: "aliased import",
			src:  `import { debounce as d } from 'lodash'`,
			want: `import d from "lodash/debounce";`,
		},
		{
			name: "lodash-es",
			src:  `import {get} from "lodash-es";`,
			want: `import get from "lodash-es/get";`,
		},
		{
			name: "other modules untouched",
			src:  `import { map } from "ramda";`,
			want: `import { map } from "ramda";`,
		},
		{
			name: "line terminator kept",
			src:  "import { map } from 'lodash'\nexport var answer = 42;\n",
			want: "import map from \"lodash/map\";\nexport var answer = 42;\n",
		},
		{
			name: "commented out import",
			src:  "// import { map } from 'lodash'\nexport var answer = 42;\n",
			want: "// import { map } from 'lodash'\nexport var answer = 42;\n",
		},
		{
			name: "block comment",
			src:  "/* import { map } from \"lodash\"; */ var a = 1;",
			want: "/* import { map } from \"lodash\"; */ var a = 1;",
		},
		{
			name: "string literal",
			src:  `var doc = 'import { map } from "lodash"';`,
			want: `var doc = 'import { map } from "lodash"';`,
		},
		{
			name: "default import untouched",
			src:  `import _ from "lodash";`,
			want: `import _ from "lodash";`,
		},
		{
			name:    "unsupported specifier",
			src:     `import { a as b as c } from "lodash";`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rewriteLodashImports([]byte(tt.src))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}

func TestRewriteFunctionBind(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{
			name: "bind",
			src:  "const f = this::handler;",
			want: "const f = handler.bind(this);",
		},
		{
			name: "unary bind",
			src:  "el.onclick = ::this.props.onClick;",
			want: "el.onclick = this.props.onClick.bind(this.props);",
		},
		{
			name: "call with arguments",
			src:  "obj::fn(a, b);",
			want: "fn.call(obj, a, b);",
		},
		{
			name: "call without arguments",
			src:  "obj::fn();",
			want: "fn.call(obj);",
		},
		{
			name: "call result as object",
			src:  "var r = items.map(f)::filter(g);",
			want: "var r = filter.call(items.map(f), g);",
		},
		{
			name: "index as object",
			src:  "var b = rows[0]::format;",
			want: "var b = format.bind(rows[0]);",
		},
		{
			name: "parenthesised object",
			src:  "var b = (a || c)::fn;",
			want: "var b = fn.bind((a || c));",
		},
		{
			name: "chained binds",
			src:  "obj::fn(x)::next();",
			want: "next.call(fn.call(obj, x));",
		},
		{
			name: "unary bind after control statement",
			src:  "if (ok) ::this.save();",
			want: "if (ok) this.save.call(this);",
		},
		{
			name: "unary bind as argument",
			src:  "on(\"click\", ::this.onClick);",
			want: "on(\"click\", this.onClick.bind(this));",
		},
		{
			name: "no bind operator",
			src:  "const a = { b: 1 };",
			want: "const a = { b: 1 };",
		},
		{
			name: "colons in strings are kept",
			src:  `const s = "a::b";`,
			want: `const s = "a::b";`,
		},
		{
			name:    "unary bind without object",
			src:     "::fn;",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rewriteFunctionBind([]byte(tt.src))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}

func TestTranspileTransform(t *testing.T) {
	src := []byte(`import { map } from "lodash";
export const first = (xs) => map(xs, (x) => x ?? 0)[0];
`)

	tr := Transpile{Target: "es2015", Rewrites: []string{RewriteLodash}}
	code, err := tr.Transform("/src/app.js", src, api.ES2015)
	require.NoError(t, err)
	require.Contains(t, code, `from "lodash/map"`)
	require.NotContains(t, code, "??")
	require.Contains(t, code, "sourceMappingURL=data:")

	tr.ExternalHelpers = true
	code, err = tr.Transform("/src/app.js", src, api.ES2015)
	require.NoError(t, err)
	require.Contains(t, code, `from "lodash/map"`)
	require.Contains(t, code, "??")

	tr.Rewrites = []string{"decorators"}
	_, err = tr.Transform("/src/app.js", src, api.ES2015)
	require.ErrorContains(t, err, `unknown rewrite "decorators"`)
}

func TestTranspileTransform_CommentedLodashImport(t *testing.T) {
	src := []byte("// import { map } from 'lodash'\nexport var answer = 42;\n")

	tr := Transpile{Target: "es2015", ExternalHelpers: true, Rewrites: []string{RewriteLodash}}
	code, err := tr.Transform("/src/answer.js", src, api.ES2015)
	require.NoError(t, err)
	require.Contains(t, code, "answer = 42")
	require.NotContains(t, code, "lodash/map")
}

func TestTranspileTransform_SyntaxError(t *testing.T) {
	tr := Transpile{Target: "es2015"}
	_, err := tr.Transform("/src/broken.js", []byte("const = ;"), api.ES2015)
	require.ErrorContains(t, err, "/src/broken.js")
}
