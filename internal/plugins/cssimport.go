package plugins

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// importInliner replaces @import rules with the contents of the imported
// stylesheet. Each file is inlined at most once per entry stylesheet.
type importInliner struct {
	seen  map[string]bool
	files []string
}

func newImportInliner(path string) *importInliner {
	return &importInliner{seen: map[string]bool{path: true}}
}

func (in *importInliner) inline(path string, src []byte) ([]byte, error) {
	return walkCSS(src, func(n cssNode, w *bytes.Buffer) error {
		if n.Grammar != css.AtRuleGrammar || !strings.EqualFold(string(n.Data), "@import") {
			n.write(w)
			return nil
		}

		values := significant(n.Values)
		if len(values) == 0 {
			return fmt.Errorf("css: empty @import in %s", path)
		}

		target, ok := importTarget(values[0])
		if !ok || isRemote(target) {
			n.write(w)
			return nil
		}

		resolved, err := resolveStylesheet(filepath.Dir(path), target)
		if err != nil {
			return fmt.Errorf("css: @import %q in %s: %w", target, path, err)
		}
		if in.seen[resolved] {
			return nil
		}
		in.seen[resolved] = true
		in.files = append(in.files, resolved)

		imported, err := os.ReadFile(resolved)
		if err != nil {
			return err
		}
		contents, err := in.inline(resolved, imported)
		if err != nil {
			return err
		}

		media := trimTokens(n.Values[indexOf(n.Values, values[0])+1:])
		if len(media) == 0 {
			w.Write(contents)
			return nil
		}
		w.WriteString("@media ")
		writeTokens(w, media)
		w.WriteByte('{')
		w.Write(contents)
		w.WriteByte('}')
		return nil
	})
}

func importTarget(t css.Token) (string, bool) {
	switch t.TokenType {
	case css.StringToken:
		return unquote(string(t.Data)), true
	case css.URLToken:
		s := string(t.Data)
		if len(s) < 5 {
			return "", false
		}
		s = strings.TrimSuffix(s[4:], ")")
		return unquote(strings.TrimSpace(s)), true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//")
}

// resolveStylesheet resolves target relative to dir, falling back to a
// node_modules lookup in dir and its parents.
func resolveStylesheet(dir, target string) (string, error) {
	candidates := []string{target}
	if filepath.Ext(target) == "" {
		candidates = append(candidates, target+".css")
	}

	for _, candidate := range candidates {
		path := candidate
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, filepath.FromSlash(candidate))
		}
		if fileExists(path) {
			return filepath.Abs(path)
		}
	}

	if strings.HasPrefix(target, ".") || filepath.IsAbs(target) {
		return "", os.ErrNotExist
	}

	for current := dir; ; current = filepath.Dir(current) {
		for _, candidate := range candidates {
			path := filepath.Join(current, "node_modules", filepath.FromSlash(candidate))
			if fileExists(path) {
				return filepath.Abs(path)
			}
		}
		if parent := filepath.Dir(current); parent == current {
			break
		}
	}
	return "", os.ErrNotExist
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func indexOf(tokens []css.Token, t css.Token) int {
	for i := range tokens {
		if tokens[i].TokenType == t.TokenType && bytes.Equal(tokens[i].Data, t.Data) {
			return i
		}
	}
	return len(tokens) - 1
}

func trimTokens(tokens []css.Token) []css.Token {
	start, end := 0, len(tokens)
	for start < end && tokens[start].TokenType == css.WhitespaceToken {
		start++
	}
	for end > start && tokens[end-1].TokenType == css.WhitespaceToken {
		end--
	}
	return tokens[start:end]
}
