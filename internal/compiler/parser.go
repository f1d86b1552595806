package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrSyntax is returned for statements the parser cannot accept.
var ErrSyntax = errors.New("syntax error")

// Parse parses one SIMULATE statement. Keywords are case-insensitive;
// column and table names keep their case. String literals use single
// quotes; a trailing semicolon is allowed.
func Parse(query string) (*SimulateStatement, error) {
	toks, err := tokenize(query)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	stmt := &SimulateStatement{}

	if p.peekKeyword("CREATE") {
		into, err := p.parseCreate()
		if err != nil {
			return nil, err
		}
		stmt.Into = into
	}

	if err := p.expectKeyword("SIMULATE"); err != nil {
		return nil, err
	}
	targets, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	stmt.Targets = targets

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	modelSet, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt.ModelSet = modelSet

	if p.peekKeyword("GIVEN") {
		p.next()
		given, err := p.parseGivenList()
		if err != nil {
			return nil, err
		}
		stmt.Given = given
	}

	if err := p.expectKeyword("LIMIT"); err != nil {
		return nil, err
	}
	limit, err := p.expectInt()
	if err != nil {
		return nil, err
	}
	stmt.Limit = limit

	if p.peekKeyword("USING") {
		p.next()
		if err := p.expectKeyword("SEED"); err != nil {
			return nil, err
		}
		seedTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		seed, err := strconv.ParseUint(seedTok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: seed %q is not an unsigned integer", ErrSyntax, seedTok)
		}
		stmt.Seed = seed
		stmt.HasSeed = true
	}

	if !p.done() {
		return nil, fmt.Errorf("%w: unexpected %q after statement", ErrSyntax, p.peek().text)
	}
	return stmt, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(query string) ([]token, error) {
	var toks []token
	runes := []rune(query)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ';':
			// Statement terminator; anything after it is rejected later.
			i++
		case r == ',' || r == '=':
			toks = append(toks, token{kind: tokPunct, text: string(r)})
			i++
		case r == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != '\'' {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("%w: unterminated string literal", ErrSyntax)
			}
			toks = append(toks, token{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == '+':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '-' || runes[j] == '.' || runes[j] == '+') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, string(r))
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) peekKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) expectKeyword(kw string) error {
	if !p.peekKeyword(kw) {
		if p.done() {
			return fmt.Errorf("%w: expected %s at end of statement", ErrSyntax, kw)
		}
		return fmt.Errorf("%w: expected %s, got %q", ErrSyntax, kw, p.peek().text)
	}
	p.next()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", fmt.Errorf("%w: expected identifier, got %q", ErrSyntax, t.text)
	}
	p.next()
	return t.text, nil
}

func (p *parser) expectInt() (int, error) {
	t, err := p.expectIdent()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrSyntax, t)
	}
	return n, nil
}

func (p *parser) parseCreate() (*DestinationClause, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	clause := &DestinationClause{}
	if p.peekKeyword("TEMP") || p.peekKeyword("TEMPORARY") {
		p.next()
		clause.Temporary = true
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	clause.Name = name
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	return clause, nil
}

func (p *parser) parseNameList() ([]string, error) {
	var names []string
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.next()
			continue
		}
		return names, nil
	}
}

func (p *parser) parseGivenList() ([]GivenClause, error) {
	var given []GivenClause
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokPunct || p.peek().text != "=" {
			return nil, fmt.Errorf("%w: expected = after %q", ErrSyntax, col)
		}
		p.next()
		val := p.peek()
		if val.kind != tokIdent && val.kind != tokString {
			return nil, fmt.Errorf("%w: expected literal after %q =", ErrSyntax, col)
		}
		p.next()
		given = append(given, GivenClause{Column: col, Literal: val.text})
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.next()
			continue
		}
		return given, nil
	}
}
