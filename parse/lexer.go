// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/askamago/askama/ast"
)

// TokKind enumerates the token kinds produced by the expression tokenizer.
type TokKind int

const (
	TokEOF TokKind = iota
	TokIdent
	TokInt
	TokString
	TokPunct
)

// Token is one lexical unit of an expression, with enough position info to
// decide filter-vs-bitwise-or adjacency (spec.md §9) and to report
// ParseErrors at a byte offset.
type Token struct {
	Kind        TokKind
	Text        string
	Start, End  int
	SpaceBefore bool
}

// multiCharPuncts must be tried longest-first.
var multiCharPuncts = []string{"..=", "::", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>", ".."}

// tokenize turns an expression substring into a token stream. offset is
// added to every position so errors report the right byte in the original
// template source.
func tokenize(src string, offset int) ([]Token, error) {
	var toks []Token
	i := 0
	spaceBefore := false
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if unicode.IsSpace(r) {
			i += size
			spaceBefore = true
			continue
		}
		start := i
		switch {
		case r == '"' || r == '\'':
			s, n, err := scanQuoted(src[i:], r)
			if err != nil {
				return nil, errSyntax("", offset+i, err.Error())
			}
			toks = append(toks, Token{Kind: TokString, Text: s, Start: offset + start, End: offset + i + n, SpaceBefore: spaceBefore})
			i += n
		case unicode.IsDigit(r):
			n := scanNumber(src[i:])
			toks = append(toks, Token{Kind: TokInt, Text: src[i : i+n], Start: offset + start, End: offset + i + n, SpaceBefore: spaceBefore})
			i += n
		case isIdentStart(r):
			n := scanIdent(src[i:])
			toks = append(toks, Token{Kind: TokIdent, Text: src[i : i+n], Start: offset + start, End: offset + i + n, SpaceBefore: spaceBefore})
			i += n
		default:
			matched := ""
			for _, p := range multiCharPuncts {
				if strings.HasPrefix(src[i:], p) {
					matched = p
					break
				}
			}
			if matched == "" {
				matched = string(r)
			}
			toks = append(toks, Token{Kind: TokPunct, Text: matched, Start: offset + start, End: offset + start + len(matched), SpaceBefore: spaceBefore})
			i += len(matched)
		}
		spaceBefore = false
	}
	toks = append(toks, Token{Kind: TokEOF, Start: offset + len(src), End: offset + len(src), SpaceBefore: spaceBefore})
	return toks, nil
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func scanIdent(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if n == 0 {
			if !isIdentStart(r) {
				break
			}
		} else if !isIdentCont(r) {
			break
		}
		n += size
	}
	return n
}

func scanNumber(s string) int {
	n := 0
	for n < len(s) && (unicode.IsDigit(rune(s[n])) || s[n] == '_') {
		n++
	}
	return n
}

func scanQuoted(s string, quote rune) (string, int, error) {
	var b strings.Builder
	i := utf8.RuneLen(quote)
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '\\' && i+size < len(s) {
			esc, escSize := utf8.DecodeRuneInString(s[i+size:])
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '"', '\'':
				b.WriteRune(esc)
			default:
				b.WriteRune(esc)
			}
			i += size + escSize
			continue
		}
		if r == quote {
			return b.String(), i + size, nil
		}
		b.WriteRune(r)
		i += size
	}
	return "", i, errSyntax("", 0, "unterminated string literal")
}

func parseIntLiteral(text string) (int64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	return strconv.ParseInt(clean, 10, 64)
}

func posAt(offset int) *ast.Position {
	return &ast.Position{Start: offset, End: offset}
}
