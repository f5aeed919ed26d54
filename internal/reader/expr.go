package reader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// identValue resolves an identifier during evaluation.
type identValue func(name string) (float64, error)

// evaluate computes a C++ constant expression made of numeric literals,
// identifiers, casts, a few math functions and + - * / with the usual
// precedence and left associativity.
func evaluate(src string, lookup identValue) (float64, error) {
	toks, err := tokenize(src)
	if err != nil {
		return 0, err
	}
	p := &exprParser{toks: toks, lookup: lookup}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, fmt.Errorf("unexpected %q in %q", t.text, src)
	}
	return v, nil
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			n, width, err := scanNumber(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, text: src[i : i+width], num: n})
			i += width
		case isIdentStart(c) || (c == ':' && strings.HasPrefix(src[i:], "::")):
			name, width := scanIdent(src[i:])
			if name == "" {
				return nil, fmt.Errorf("bad identifier at %q", src[i:])
			}
			toks = append(toks, token{kind: tokIdent, text: name})
			i += width
		case strings.IndexByte("+-*/(),<>", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q in %q", c, src)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// scanNumber reads a floating literal such as 1.e25, .5, 3e-8 or 2.0f.
func scanNumber(s string) (float64, int, error) {
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	lit := s[:i]
	for i < len(s) && strings.IndexByte("fFlLuU", s[i]) >= 0 {
		i++
	}
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q", s[:i])
	}
	return n, i, nil
}

// scanIdent reads a possibly qualified name and returns its last segment,
// so pmacc::math::sqrt yields sqrt.
func scanIdent(s string) (string, int) {
	i := 0
	last := ""
	for {
		if strings.HasPrefix(s[i:], "::") {
			i += 2
		}
		start := i
		if i >= len(s) || !isIdentStart(s[i]) {
			return last, start
		}
		for i < len(s) && isIdentPart(s[i]) {
			i++
		}
		last = s[start:i]
		if !strings.HasPrefix(s[i:], "::") {
			return last, i
		}
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || unicode.IsLetter(rune(c)) }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

var (
	floatCasts = map[string]bool{
		"float_X": true, "float_32": true, "float_64": true, "float_T": true,
		"float": true, "double": true,
	}
	intCasts = map[string]bool{
		"int": true, "long": true, "unsigned": true, "size_t": true,
		"int32_t": true, "int64_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
	}
	functions = map[string]func(args []float64) (float64, error){
		"sqrt":  unary(math.Sqrt),
		"exp":   unary(math.Exp),
		"log":   unary(math.Log),
		"abs":   unary(math.Abs),
		"fabs":  unary(math.Abs),
		"pow":   binary(math.Pow),
		"min":   binary(math.Min),
		"max":   binary(math.Max),
		"floor": unary(math.Floor),
		"ceil":  unary(math.Ceil),
	}
)

func unary(f func(float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return f(args[0]), nil
	}
}

func binary(f func(float64, float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if len(args) != 2 {
			return 0, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		return f(args[0], args[1]), nil
	}
}

type exprParser struct {
	toks   []token
	pos    int
	lookup identValue
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) accept(op string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) expect(op string) error {
	if !p.accept(op) {
		return fmt.Errorf("expected %q, got %q", op, p.peek().text)
	}
	return nil
}

func (p *exprParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept("+"):
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case p.accept("-"):
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept("*"):
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case p.accept("/"):
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) unary() (float64, error) {
	switch {
	case p.accept("-"):
		v, err := p.unary()
		return -v, err
	case p.accept("+"):
		return p.unary()
	}
	return p.primary()
}

func (p *exprParser) primary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokOp:
		if t.text != "(" {
			return 0, fmt.Errorf("unexpected %q", t.text)
		}
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		return v, p.expect(")")
	case tokIdent:
		if t.text == "static_cast" {
			return p.staticCast()
		}
		if p.accept("(") {
			return p.call(t.text)
		}
		return p.lookup(t.text)
	}
	return 0, fmt.Errorf("unexpected end of expression")
}

// staticCast parses static_cast<T>(expr) after the keyword.
func (p *exprParser) staticCast() (float64, error) {
	if err := p.expect("<"); err != nil {
		return 0, err
	}
	typ := p.next()
	if typ.kind != tokIdent {
		return 0, fmt.Errorf("static_cast: expected type, got %q", typ.text)
	}
	if err := p.expect(">"); err != nil {
		return 0, err
	}
	if err := p.expect("("); err != nil {
		return 0, err
	}
	return p.call(typ.text)
}

// call parses the argument list after name( and applies a cast or function.
func (p *exprParser) call(name string) (float64, error) {
	var args []float64
	if !p.accept(")") {
		for {
			v, err := p.expr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.accept(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return 0, err
			}
		}
	}

	switch {
	case floatCasts[name], intCasts[name]:
		if len(args) != 1 {
			return 0, fmt.Errorf("cast to %s: expected 1 argument, got %d", name, len(args))
		}
		if intCasts[name] {
			return math.Trunc(args[0]), nil
		}
		return args[0], nil
	case functions[name] != nil:
		v, err := functions[name](args)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("unknown function %s", name)
}
