package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

const (
	RewriteLodash       = "lodash"
	RewriteFunctionBind = "function-bind"
)

// rewriters maps rewrite names to source transforms applied before
// transpiling.
var rewriters = map[string]func([]byte) ([]byte, error){
	RewriteLodash:       rewriteLodashImports,
	RewriteFunctionBind: rewriteFunctionBind,
}

// rewriteLodashImports turns named lodash imports into per-method imports
// so only the used methods are bundled:
//
//	import { map, filter as f } from "lodash"
//	import map from "lodash/map"; import f from "lodash/filter";
//
// Imports inside comments, strings and templates are left alone.
func rewriteLodashImports(src []byte) ([]byte, error) {
	if !bytes.Contains(src, []byte("lodash")) {
		return src, nil
	}

	tokens, err := lexJS(src)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for i := 0; i < len(tokens); i++ {
		if tokens[i].tt == js.ImportToken {
			stmt, end, err := lodashImport(tokens, i)
			if err != nil {
				return nil, err
			}
			if end > 0 {
				b.WriteString(stmt)
				i = end
				continue
			}
		}
		b.WriteString(tokens[i].text)
	}
	return []byte(b.String()), nil
}

// lodashImport matches `import { ... } from "lodash"` starting at the
// import token and returns the replacement with the index of the last
// token it consumed, or end 0 when the statement is something else.
func lodashImport(tokens []jsToken, at int) (string, int, error) {
	open := nextToken(tokens, at+1)
	if open >= len(tokens) || tokens[open].tt != js.OpenBraceToken {
		return "", 0, nil
	}
	closing := open + 1
	for closing < len(tokens) && tokens[closing].tt != js.CloseBraceToken {
		if tt := tokens[closing].tt; !isSpace(tt) && tt != js.CommaToken && !js.IsIdentifierName(tt) {
			return "", 0, nil
		}
		closing++
	}
	from := nextToken(tokens, closing+1)
	if from >= len(tokens) || tokens[from].tt != js.FromToken {
		return "", 0, nil
	}
	str := nextToken(tokens, from+1)
	if str >= len(tokens) || tokens[str].tt != js.StringToken {
		return "", 0, nil
	}
	module := tokens[str].text
	module = module[1 : len(module)-1]
	if module != "lodash" && module != "lodash-es" {
		return "", 0, nil
	}

	var imports []string
	var spec []string
	flush := func() error {
		switch {
		case len(spec) == 0:
		case len(spec) == 1:
			imports = append(imports, fmt.Sprintf("import %s from %q;", spec[0], module+"/"+spec[0]))
		case len(spec) == 3 && spec[1] == "as":
			imports = append(imports, fmt.Sprintf("import %s from %q;", spec[2], module+"/"+spec[0]))
		default:
			return fmt.Errorf("unsupported lodash import specifier %q", strings.Join(spec, " "))
		}
		spec = spec[:0]
		return nil
	}
	for _, t := range tokens[open+1 : closing] {
		switch {
		case isSpace(t.tt):
		case t.tt == js.CommaToken:
			if err := flush(); err != nil {
				return "", 0, err
			}
		default:
			spec = append(spec, t.text)
		}
	}
	if err := flush(); err != nil {
		return "", 0, err
	}

	// only a semicolon on the same line belongs to the statement; line
	// terminators are kept for ASI
	end := str
	semi := str + 1
	for semi < len(tokens) && tokens[semi].tt == js.WhitespaceToken {
		semi++
	}
	if semi < len(tokens) && tokens[semi].tt == js.SemicolonToken {
		end = semi
	}
	return strings.Join(imports, " "), end, nil
}

// nextToken returns the index of the first non-space token at or after i.
func nextToken(tokens []jsToken, i int) int {
	for i < len(tokens) && isSpace(tokens[i].tt) {
		i++
	}
	return i
}

type jsToken struct {
	tt   js.TokenType
	text string
}

// rewriteFunctionBind lowers the function bind operator:
//
//	obj::fn      -> fn.bind(obj)
//	::obj.fn     -> obj.fn.bind(obj)
//	obj::fn(a)   -> fn.call(obj, a)
//
// The object may be any member, call or index chain such as
// items.map(f) or rows[0]. The callee must be a plain member chain.
func rewriteFunctionBind(src []byte) ([]byte, error) {
	if !bytes.Contains(src, []byte("::")) {
		return src, nil
	}

	tokens, err := lexJS(src)
	if err != nil {
		return nil, err
	}

	out := make([]jsToken, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if tokens[i].tt != js.ColonToken || i+1 >= len(tokens) || tokens[i+1].tt != js.ColonToken {
			out = append(out, tokens[i])
			continue
		}

		// left operand
		end := len(out)
		for end > 0 && isSpace(out[end-1].tt) {
			end--
		}
		start := leftOperand(out, end)
		object := joinTokens(out[start:end])
		if object != "" {
			out = out[:start]
		}

		// right operand
		k := i + 2
		for k < len(tokens) && isSpace(tokens[k].tt) {
			k++
		}
		calleeStart := k
		for k < len(tokens) && isChain(tokens[k].tt) {
			k++
		}
		callee := joinTokens(tokens[calleeStart:k])
		if callee == "" {
			return nil, errors.New("function bind: expected a member expression after ::")
		}
		if object == "" {
			dot := strings.LastIndex(callee, ".")
			if dot <= 0 {
				return nil, fmt.Errorf("function bind: ::%s needs an object", callee)
			}
			object = callee[:dot]
		}

		if k < len(tokens) && tokens[k].tt == js.OpenParenToken {
			args := k + 1
			for args < len(tokens) && isSpace(tokens[args].tt) {
				args++
			}
			if args < len(tokens) && tokens[args].tt == js.CloseParenToken {
				out = append(out, jsToken{js.IdentifierToken, callee + ".call(" + object + ")"})
				i = args
			} else {
				out = append(out, jsToken{js.OpenParenToken, callee + ".call(" + object + ", "})
				i = k
			}
			continue
		}

		out = append(out, jsToken{js.IdentifierToken, callee + ".bind(" + object + ")"})
		i = k - 1
	}

	return []byte(joinTokens(out)), nil
}

// leftOperand returns the start of the member, call or index chain that
// ends at end. Parenthesised groups following a control keyword such as
// if (x) are not part of an operand.
func leftOperand(tokens []jsToken, end int) int {
	start := end
	for start > 0 {
		tt := tokens[start-1].tt
		switch {
		case isChain(tt):
			start--
		case tt == js.CloseParenToken || tt == js.CloseBracketToken:
			open := matchingOpen(tokens, start-1)
			if open < 0 {
				return end
			}
			if tt == js.CloseParenToken && open > 0 && isControl(tokens[prevToken(tokens, open-1)].tt) {
				return start
			}
			start = open
		default:
			return start
		}
	}
	return start
}

// matchingOpen returns the index of the bracket opening the group closed
// at i, or -1 when it is unbalanced.
func matchingOpen(tokens []jsToken, i int) int {
	depth := 0
	for ; i >= 0; i-- {
		switch tokens[i].tt {
		case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken:
			depth++
		case js.OpenParenToken, js.OpenBracketToken, js.OpenBraceToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// prevToken returns the index of the last non-space token at or before i,
// or i when there is none.
func prevToken(tokens []jsToken, i int) int {
	for j := i; j >= 0; j-- {
		if !isSpace(tokens[j].tt) {
			return j
		}
	}
	return i
}

func isControl(tt js.TokenType) bool {
	switch tt {
	case js.IfToken, js.WhileToken, js.ForToken, js.WithToken, js.SwitchToken, js.CatchToken:
		return true
	}
	return false
}

func lexJS(src []byte) ([]jsToken, error) {
	l := js.NewLexer(parse.NewInputBytes(src))
	var tokens []jsToken
	prev := js.ErrorToken
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return tokens, nil
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && !endsExpression(prev) {
			tt, data = l.RegExp()
			if tt == js.ErrorToken {
				return nil, l.Err()
			}
		}
		tokens = append(tokens, jsToken{tt, string(data)})
		if !isSpace(tt) {
			prev = tt
		}
	}
}

func endsExpression(tt js.TokenType) bool {
	switch tt {
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.StringToken, js.TemplateToken, js.TemplateEndToken, js.RegExpToken,
		js.ThisToken, js.SuperToken, js.TrueToken, js.FalseToken, js.NullToken,
		js.PrivateIdentifierToken, js.IncrToken, js.DecrToken:
		return true
	}
	return js.IsNumeric(tt) || js.IsIdentifier(tt)
}

func isSpace(tt js.TokenType) bool {
	switch tt {
	case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		return true
	}
	return false
}

func isChain(tt js.TokenType) bool {
	return tt == js.DotToken || tt == js.ThisToken || tt == js.PrivateIdentifierToken || js.IsIdentifier(tt)
}

func joinTokens(tokens []jsToken) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.text)
	}
	return b.String()
}
