package plugins

import (
	"bytes"
	"fmt"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// cssNode is one grammar unit produced by the tdewolff CSS parser.
type cssNode struct {
	Grammar css.GrammarType
	Data    []byte
	Values  []css.Token
}

// cssVisitor writes the replacement for n to w. Use n.write to keep it.
type cssVisitor func(n cssNode, w *bytes.Buffer) error

// walkCSS parses src and re-serialises every grammar unit through visit.
func walkCSS(src []byte, visit cssVisitor) ([]byte, error) {
	p := css.NewParser(parse.NewInputBytes(src), false)
	var buf bytes.Buffer
	for {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			if p.HasParseError() {
				return nil, fmt.Errorf("css: %w", p.Err())
			}
			break
		}
		n := cssNode{
			Grammar: gt,
			Data:    bytes.Clone(data),
			Values:  cloneTokens(p.Values()),
		}
		if err := visit(n, &buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func cloneTokens(tokens []css.Token) []css.Token {
	out := make([]css.Token, len(tokens))
	for i, t := range tokens {
		out[i] = css.Token{TokenType: t.TokenType, Data: bytes.Clone(t.Data)}
	}
	return out
}

func keepNode(n cssNode, w *bytes.Buffer) error {
	n.write(w)
	return nil
}

func (n cssNode) write(w *bytes.Buffer) {
	switch n.Grammar {
	case css.AtRuleGrammar:
		w.Write(n.Data)
		writeTokens(w, n.Values)
		w.WriteByte(';')
	case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
		w.Write(n.Data)
		writeTokens(w, n.Values)
		w.WriteByte('{')
	case css.QualifiedRuleGrammar:
		w.Write(n.Data)
		writeTokens(w, n.Values)
		w.WriteByte(',')
	case css.EndAtRuleGrammar, css.EndRulesetGrammar:
		w.WriteByte('}')
	case css.DeclarationGrammar, css.CustomPropertyGrammar:
		w.Write(n.Data)
		w.WriteByte(':')
		writeTokens(w, n.Values)
		w.WriteByte(';')
	default:
		w.Write(n.Data)
	}
}

func writeTokens(w *bytes.Buffer, tokens []css.Token) {
	for _, t := range tokens {
		w.Write(t.Data)
	}
}

// significant drops whitespace and comment tokens.
func significant(tokens []css.Token) []css.Token {
	out := make([]css.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken || t.TokenType == css.CommentToken {
			continue
		}
		out = append(out, t)
	}
	return out
}

// stripLineComments removes // comments, which are not valid CSS but are
// accepted in our stylesheets. Strings, block comments and url() arguments
// are left alone.
func stripLineComments(src []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(src))
	var quote byte
	inBlock := false
	inURL := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inBlock:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inBlock = false
				out.WriteString("*/")
				i++
				continue
			}
		case quote != 0:
			if c == '\\' && i+1 < len(src) {
				out.WriteByte(c)
				i++
				c = src[i]
			} else if c == quote {
				quote = 0
			}
		case inURL:
			if c == ')' {
				inURL = false
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			inBlock = true
			out.WriteString("/*")
			i++
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				out.WriteByte('\n')
			}
			continue
		case c == '(' && i >= 3 && bytes.EqualFold(src[i-3:i], []byte("url")):
			inURL = true
		}
		out.WriteByte(c)
	}
	return out.Bytes()
}
