package plugins

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tdewolff/parse/v2/css"
)

// scopeClasses rewrites every class selector in src to a name unique to
// path and returns the original to scoped name mapping. Selectors wrapped
// in :global(...) are unwrapped and kept as written.
func scopeClasses(path string, src []byte) ([]byte, map[string]string, error) {
	tokens := map[string]string{}
	out, err := walkCSS(src, func(n cssNode, w *bytes.Buffer) error {
		if n.Grammar != css.BeginRulesetGrammar && n.Grammar != css.QualifiedRuleGrammar {
			n.write(w)
			return nil
		}
		n.Values = scopeSelector(path, n.Values, tokens)
		n.write(w)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, tokens, nil
}

func scopeSelector(path string, selector []css.Token, tokens map[string]string) []css.Token {
	out := make([]css.Token, 0, len(selector))
	global := 0 // paren depth inside :global(...), 0 when not inside
	for i := 0; i < len(selector); i++ {
		t := selector[i]

		if global == 0 && t.TokenType == css.ColonToken && i+1 < len(selector) &&
			selector[i+1].TokenType == css.FunctionToken && strings.EqualFold(string(selector[i+1].Data), "global(") {
			global = 1
			i++
			continue
		}

		if global > 0 {
			switch t.TokenType {
			case css.FunctionToken, css.LeftParenthesisToken:
				global++
			case css.RightParenthesisToken:
				global--
				if global == 0 {
					continue
				}
			}
			out = append(out, t)
			continue
		}

		if t.TokenType == css.DelimToken && bytes.Equal(t.Data, []byte(".")) &&
			i+1 < len(selector) && selector[i+1].TokenType == css.IdentToken {
			class := string(selector[i+1].Data)
			scoped, ok := tokens[class]
			if !ok {
				scoped = ScopedName(path, class)
				tokens[class] = scoped
			}
			out = append(out, t, css.Token{TokenType: css.IdentToken, Data: []byte(scoped)})
			i++
			continue
		}

		out = append(out, t)
	}
	return out
}

// ScopedName returns the scoped class name generated for class in the
// stylesheet at path, in the form <file>__<class>___<hash>.
func ScopedName(path, class string) string {
	hash := fmt.Sprintf("%016x", xxhash.Sum64String(filepath.ToSlash(path)+":"+class))
	return sanitizeIdent(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))) + "__" + class + "___" + hash[:5]
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
