package conditions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The response mini-language recognizes four tests over the last user
// input, composed with "and" and "or":
//
//	expr    := andExpr ("or" andExpr)*
//	andExpr := test ("and" test)*
//	test    := "result" "contains" quoted
//	         | "result" "is" ("text" | "number" | "file")
//
// "and" binds tighter than "or"; there is no negation and no grouping.
// Keywords are case-insensitive, literals are single-quoted with no
// escapes. The expression is parsed into an AST and evaluated directly,
// never templated into executable code.

// ErrBadExpression is returned when an expression does not match the
// grammar.
var ErrBadExpression = errors.New("malformed response expression")

// Expression is a compiled response expression.
type Expression interface {
	Eval(input string) bool
}

type orNode struct {
	left, right Expression
}

func (n orNode) Eval(input string) bool {
	return n.left.Eval(input) || n.right.Eval(input)
}

type andNode struct {
	left, right Expression
}

func (n andNode) Eval(input string) bool {
	return n.left.Eval(input) && n.right.Eval(input)
}

type containsNode struct {
	literal string
}

func (n containsNode) Eval(input string) bool {
	return strings.Contains(strings.ToLower(input), strings.ToLower(n.literal))
}

type isTextNode struct{}

func (isTextNode) Eval(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	_, err := strconv.ParseFloat(trimmed, 64)

	return err != nil
}

type isNumberNode struct{}

func (isNumberNode) Eval(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	_, err := strconv.ParseFloat(trimmed, 64)

	return err == nil
}

// fileExtensions is the fixed set of extensions recognized by "result is
// file".
var fileExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".csv",
	".mp3", ".ogg", ".wav", ".mp4", ".avi", ".mov", ".webm",
	".zip", ".rar",
}

type isFileNode struct{}

func (isFileNode) Eval(input string) bool {
	lowered := strings.ToLower(strings.TrimSpace(input))
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}

	return false
}

// ParseExpression compiles a response expression into an evaluable AST.
func ParseExpression(expression string) (Expression, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, err
	}

	parser := &exprParser{tokens: tokens}

	node, err := parser.parseOr()
	if err != nil {
		return nil, err
	}

	if !parser.done() {
		return nil, fmt.Errorf("%w: unexpected %q", ErrBadExpression, parser.peek())
	}

	return node, nil
}

type token struct {
	kind  string // "word" or "literal"
	value string
}

func tokenize(expression string) ([]token, error) {
	var tokens []token

	rest := strings.TrimSpace(expression)
	for rest != "" {
		if rest[0] == '\'' {
			end := strings.IndexByte(rest[1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated literal", ErrBadExpression)
			}

			tokens = append(tokens, token{kind: "literal", value: rest[1 : end+1]})
			rest = strings.TrimSpace(rest[end+2:])

			continue
		}

		space := strings.IndexAny(rest, " \t'")
		if space < 0 {
			tokens = append(tokens, token{kind: "word", value: strings.ToLower(rest)})

			break
		}

		if rest[space] == '\'' {
			tokens = append(tokens, token{kind: "word", value: strings.ToLower(rest[:space])})
			rest = rest[space:]

			continue
		}

		tokens = append(tokens, token{kind: "word", value: strings.ToLower(rest[:space])})
		rest = strings.TrimSpace(rest[space:])
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrBadExpression)
	}

	return tokens, nil
}

type exprParser struct {
	tokens []token
	pos    int
}

func (p *exprParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *exprParser) peek() string {
	if p.done() {
		return ""
	}

	return p.tokens[p.pos].value
}

func (p *exprParser) nextWord() (string, bool) {
	if p.done() || p.tokens[p.pos].kind != "word" {
		return "", false
	}

	word := p.tokens[p.pos].value
	p.pos++

	return word, true
}

func (p *exprParser) nextLiteral() (string, bool) {
	if p.done() || p.tokens[p.pos].kind != "literal" {
		return "", false
	}

	literal := p.tokens[p.pos].value
	p.pos++

	return literal, true
}

func (p *exprParser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.peek() == "or" {
		p.pos++

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = orNode{left: left, right: right}
	}

	return left, nil
}

func (p *exprParser) parseAnd() (Expression, error) {
	left, err := p.parseTest()
	if err != nil {
		return nil, err
	}

	for p.peek() == "and" {
		p.pos++

		right, err := p.parseTest()
		if err != nil {
			return nil, err
		}

		left = andNode{left: left, right: right}
	}

	return left, nil
}

func (p *exprParser) parseTest() (Expression, error) {
	word, ok := p.nextWord()
	if !ok || word != "result" {
		return nil, fmt.Errorf("%w: expected 'result', got %q", ErrBadExpression, p.peek())
	}

	word, ok = p.nextWord()
	if !ok {
		return nil, fmt.Errorf("%w: expected 'contains' or 'is' after 'result'", ErrBadExpression)
	}

	switch word {
	case "contains":
		literal, ok := p.nextLiteral()
		if !ok {
			return nil, fmt.Errorf("%w: expected quoted literal after 'contains'", ErrBadExpression)
		}

		return containsNode{literal: literal}, nil
	case "is":
		kind, ok := p.nextWord()
		if !ok {
			return nil, fmt.Errorf("%w: expected kind after 'is'", ErrBadExpression)
		}

		switch kind {
		case "text":
			return isTextNode{}, nil
		case "number":
			return isNumberNode{}, nil
		case "file":
			return isFileNode{}, nil
		default:
			return nil, fmt.Errorf("%w: unknown kind %q", ErrBadExpression, kind)
		}
	default:
		return nil, fmt.Errorf("%w: expected 'contains' or 'is', got %q", ErrBadExpression, word)
	}
}
