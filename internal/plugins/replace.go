package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/parse/v2/js"
)

// Replace substitutes whole identifiers in module source. Property
// accesses such as obj.eval are left alone.
type Replace struct {
	Values  map[string]string
	Include []string
	Exclude []string
}

// SafeEval turns direct eval calls into indirect ones so they run in
// global scope and stop blocking minification of the surrounding scope.
func SafeEval() Replace {
	return Replace{Values: map[string]string{"eval": "[eval][0]"}}
}

func (r Replace) Name() string { return "replace" }

func (r Replace) Apply(opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name:  r.Name(),
		Setup: r.setup,
	})
}

func (r Replace) pattern() *regexp.Regexp {
	if len(r.Values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// longest first so overlapping keys prefer the longer match
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return regexp.MustCompile(`(^|[^.\w$])(` + strings.Join(keys, "|") + `)`)
}

// Replace returns code with every value substituted and whether anything
// changed. Comments, strings, templates and regular expressions are left
// alone, as is code the lexer cannot read.
func (r Replace) Replace(code string) (string, bool) {
	out, changed, err := r.replace(code)
	if err != nil {
		return code, false
	}
	return out, changed
}

func (r Replace) replace(code string) (string, bool, error) {
	re := r.pattern()
	if re == nil || !re.MatchString(code) {
		return code, false, nil
	}
	tokens, err := lexJS([]byte(code))
	if err != nil {
		return code, false, err
	}

	var sb strings.Builder
	changed := false
	run := 0
	flush := func(end int) {
		text, ok := r.replaceCode(re, joinTokens(tokens[run:end]))
		sb.WriteString(text)
		changed = changed || ok
	}
	for i, t := range tokens {
		if isLiteral(t.tt) {
			flush(i)
			sb.WriteString(t.text)
			run = i + 1
		}
	}
	flush(len(tokens))
	return sb.String(), changed, nil
}

// replaceCode substitutes keys in a stretch of code without literals.
// Matches continuing into a longer identifier and object literal keys
// such as { eval: 1 } are skipped.
func (r Replace) replaceCode(re *regexp.Regexp, code string) (string, bool) {
	var sb strings.Builder
	changed := false
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(code, -1) {
		start, end := loc[4], loc[5]
		if end < len(code) && isIdentByte(code[end]) {
			continue
		}
		if objectKey(code[:start], code[end:]) {
			continue
		}
		sb.WriteString(code[last:start])
		sb.WriteString(r.Values[code[start:end]])
		last = end
		changed = true
	}
	if !changed {
		return code, false
	}
	sb.WriteString(code[last:])
	return sb.String(), true
}

func objectKey(before, after string) bool {
	before = strings.TrimRight(before, " \t\r\n")
	after = strings.TrimLeft(after, " \t\r\n")
	if before == "" || after == "" || after[0] != ':' {
		return false
	}
	prev := before[len(before)-1]
	return prev == '{' || prev == ','
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

func isLiteral(tt js.TokenType) bool {
	switch tt {
	case js.StringToken, js.RegExpToken, js.CommentToken, js.CommentLineTerminatorToken,
		js.TemplateToken, js.TemplateStartToken, js.TemplateMiddleToken, js.TemplateEndToken:
		return true
	}
	return false
}

func (r Replace) setup(build api.PluginBuild) {
	m, err := newMatcher(r.Include, r.Exclude)
	if err != nil {
		failOnStart(build, fmt.Errorf("replace: %w", err))
		return
	}
	wd := workingDir(build)

	build.OnLoad(api.OnLoadOptions{Filter: `\.(m?js|cjs)$`, Namespace: "file"},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			if !m.Match(relPath(wd, args.Path)) {
				return api.OnLoadResult{}, nil
			}
			src, err := os.ReadFile(args.Path)
			if err != nil {
				return api.OnLoadResult{}, err
			}
			code, changed, err := r.replace(string(src))
			if err != nil {
				log.Warn().Str("file", args.Path).Err(err).Msg("Skipping replacements in unreadable source")
				return api.OnLoadResult{}, nil
			}
			if !changed {
				return api.OnLoadResult{}, nil
			}
			return api.OnLoadResult{
				Contents:   &code,
				Loader:     api.LoaderJS,
				ResolveDir: filepath.Dir(args.Path),
			}, nil
		})
}
