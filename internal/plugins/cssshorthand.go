package plugins

import (
	"bytes"

	"github.com/tdewolff/parse/v2/css"
)

var positionKinds = map[string]bool{
	"static":   true,
	"relative": true,
	"absolute": true,
	"fixed":    true,
	"sticky":   true,
}

type declaration struct {
	property string
	value    []css.Token
}

// expandShorthands rewrites the size and position shorthands:
//
//	size: 10px 20px          -> width: 10px; height: 20px
//	position: absolute 0 5px -> position: absolute; top: 0; right: 5px; bottom: 0; left: 5px
func expandShorthands(src []byte) ([]byte, error) {
	return walkCSS(src, func(n cssNode, w *bytes.Buffer) error {
		if n.Grammar != css.DeclarationGrammar || isImportant(n.Values) {
			n.write(w)
			return nil
		}

		var decls []declaration
		switch string(n.Data) {
		case "size":
			decls = expandSize(splitValues(n.Values))
		case "position":
			decls = expandPosition(splitValues(n.Values))
		}
		if decls == nil {
			n.write(w)
			return nil
		}

		for _, d := range decls {
			w.WriteString(d.property)
			w.WriteByte(':')
			writeTokens(w, d.value)
			w.WriteByte(';')
		}
		return nil
	})
}

func expandSize(values [][]css.Token) []declaration {
	switch len(values) {
	case 1:
		return []declaration{{"width", values[0]}, {"height", values[0]}}
	case 2:
		return []declaration{{"width", values[0]}, {"height", values[1]}}
	}
	return nil
}

func expandPosition(values [][]css.Token) []declaration {
	if len(values) < 2 || len(values) > 5 {
		return nil
	}
	kind := values[0]
	if len(kind) != 1 || kind[0].TokenType != css.IdentToken || !positionKinds[string(kind[0].Data)] {
		return nil
	}

	box := values[1:]
	var top, right, bottom, left []css.Token
	switch len(box) {
	case 1:
		top, right, bottom, left = box[0], box[0], box[0], box[0]
	case 2:
		top, right, bottom, left = box[0], box[1], box[0], box[1]
	case 3:
		top, right, bottom, left = box[0], box[1], box[2], box[1]
	case 4:
		top, right, bottom, left = box[0], box[1], box[2], box[3]
	}

	return []declaration{
		{"position", kind},
		{"top", top},
		{"right", right},
		{"bottom", bottom},
		{"left", left},
	}
}

// splitValues splits a declaration value on top level whitespace.
func splitValues(tokens []css.Token) [][]css.Token {
	var values [][]css.Token
	var current []css.Token
	depth := 0
	for _, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.WhitespaceToken, css.CommentToken:
			if depth == 0 {
				if len(current) > 0 {
					values = append(values, current)
					current = nil
				}
				continue
			}
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		values = append(values, current)
	}
	return values
}

func isImportant(tokens []css.Token) bool {
	for _, t := range tokens {
		if t.TokenType == css.DelimToken && bytes.Equal(t.Data, []byte("!")) {
			return true
		}
	}
	return false
}
