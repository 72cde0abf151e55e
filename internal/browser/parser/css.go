// internal/browser/parser/css.go
package parser

import (
	"strings"
)

// Property represents a CSS property name (e.g. "cursor").
type Property string

// Value represents a raw CSS value (e.g. "pointer").
type Value string

// Declaration is a single property: value pair.
type Declaration struct {
	Property  Property
	Value     Value
	Important bool
}

// AttributeSelector matches on an attribute, e.g. [type="text"] or [disabled].
type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "^=", "$=", "*=", "~="
	Value    string
}

// SimpleSelector is one compound step: tag, ID, classes and attribute tests
// that must all match a single element.
type SimpleSelector struct {
	TagName    string
	ID         string
	Classes    []string
	Attributes []AttributeSelector
}

// IsValid reports whether the selector has at least one component.
func (s SimpleSelector) IsValid() bool {
	return s.TagName != "" || s.ID != "" || len(s.Classes) > 0 || len(s.Attributes) > 0
}

// Specificity returns the (id, class+attr, tag) counts for cascade ordering.
func (s SimpleSelector) Specificity() (a, b, c int) {
	if s.ID != "" {
		a = 1
	}
	b = len(s.Classes) + len(s.Attributes)
	if s.TagName != "" && s.TagName != "*" {
		c = 1
	}
	return a, b, c
}

// Combinator relates a compound step to the one before it.
type Combinator int

const (
	CombinatorNone       Combinator = iota // first step
	CombinatorDescendant                   // whitespace
	CombinatorChild                        // >
)

// SelectorStep pairs a simple selector with its preceding combinator.
type SelectorStep struct {
	Combinator Combinator
	Simple     SimpleSelector
}

// ComplexSelector is a sequence of steps, e.g. "form > input.search".
type ComplexSelector struct {
	Steps []SelectorStep
}

// Specificity sums the specificity of every step.
func (cs ComplexSelector) Specificity() (a, b, c int) {
	for _, step := range cs.Steps {
		sa, sb, sc := step.Simple.Specificity()
		a += sa
		b += sb
		c += sc
	}
	return a, b, c
}

// RuleSet is a comma-separated selector list sharing one declaration block.
type RuleSet struct {
	Selectors    []ComplexSelector
	Declarations []Declaration
}

// StyleSheet is the parsed CSSOM.
type StyleSheet struct {
	Rules []RuleSet
}

// Parser holds the scanning state over one stylesheet.
type Parser struct {
	input string
	pos   int
}

func NewParser(input string) *Parser {
	return &Parser{input: input}
}

// Parse consumes the whole input and returns the stylesheet. Unparseable
// constructs (at-rules, pseudo selectors, malformed blocks) are skipped, never
// fatal: style information is advisory for perception, not rendering-critical.
func (p *Parser) Parse() StyleSheet {
	var rules []RuleSet
	for {
		p.skipWhitespaceAndComments()
		if p.eof() {
			break
		}
		if p.peek() == '@' {
			p.skipAtRule()
			continue
		}

		selectors := p.parseSelectorList()
		if len(selectors) == 0 {
			// Recover by discarding up to and including the next block.
			p.skipTo('{')
			p.skipBlock()
			continue
		}

		decls := p.parseDeclarationBlock()
		if len(decls) > 0 {
			rules = append(rules, RuleSet{Selectors: selectors, Declarations: decls})
		}
	}
	return StyleSheet{Rules: rules}
}

// parseSelectorList parses the comma-separated selector list before '{'.
func (p *Parser) parseSelectorList() []ComplexSelector {
	var selectors []ComplexSelector
	for {
		p.skipWhitespaceAndComments()
		if p.eof() || p.peek() == '{' {
			break
		}
		complexSel := p.parseComplexSelector()
		if len(complexSel.Steps) > 0 {
			selectors = append(selectors, complexSel)
		}
		p.skipWhitespaceAndComments()
		if !p.eof() && p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	return selectors
}

func (p *Parser) parseComplexSelector() ComplexSelector {
	var cs ComplexSelector
	combinator := CombinatorNone

	for {
		sawSpace := p.skipWhitespaceAndComments()
		if p.eof() || p.peek() == '{' || p.peek() == ',' {
			break
		}
		if p.peek() == '>' {
			p.pos++
			combinator = CombinatorChild
			continue
		}
		if sawSpace && len(cs.Steps) > 0 && combinator == CombinatorNone {
			combinator = CombinatorDescendant
		}

		simple, ok := p.parseSimpleSelector()
		if !ok {
			// Unsupported syntax (pseudo classes, etc.): drop the whole selector.
			p.skipToAny(",{")
			return ComplexSelector{}
		}
		cs.Steps = append(cs.Steps, SelectorStep{Combinator: combinator, Simple: simple})
		combinator = CombinatorNone
	}
	return cs
}

func (p *Parser) parseSimpleSelector() (SimpleSelector, bool) {
	var sel SimpleSelector
	for !p.eof() {
		switch ch := p.peek(); {
		case ch == '*':
			p.pos++
			sel.TagName = "*"
		case ch == '#':
			p.pos++
			sel.ID = p.parseIdent()
		case ch == '.':
			p.pos++
			sel.Classes = append(sel.Classes, p.parseIdent())
		case ch == '[':
			attr, ok := p.parseAttributeSelector()
			if !ok {
				return SimpleSelector{}, false
			}
			sel.Attributes = append(sel.Attributes, attr)
		case ch == ':':
			// Pseudo classes and elements are unsupported.
			return SimpleSelector{}, false
		case isIdentChar(ch):
			sel.TagName = strings.ToLower(p.parseIdent())
		default:
			return sel, sel.IsValid()
		}
	}
	return sel, sel.IsValid()
}

func (p *Parser) parseAttributeSelector() (AttributeSelector, bool) {
	// Caller guarantees the current char is '['.
	p.pos++
	var attr AttributeSelector
	attr.Name = strings.ToLower(p.parseIdent())
	if attr.Name == "" {
		p.skipTo(']')
		if !p.eof() {
			p.pos++
		}
		return AttributeSelector{}, false
	}

	for _, op := range []string{"^=", "$=", "*=", "~=", "="} {
		if strings.HasPrefix(p.input[p.pos:], op) {
			attr.Operator = op
			p.pos += len(op)
			break
		}
	}
	if attr.Operator != "" {
		if !p.eof() && (p.peek() == '"' || p.peek() == '\'') {
			quote := p.peek()
			p.pos++
			start := p.pos
			p.skipTo(quote)
			attr.Value = p.input[start:p.pos]
			if !p.eof() {
				p.pos++
			}
		} else {
			attr.Value = p.parseIdent()
		}
	}
	if p.eof() || p.peek() != ']' {
		return AttributeSelector{}, false
	}
	p.pos++
	return attr, true
}

// parseDeclarationBlock parses "{ prop: value; ... }".
func (p *Parser) parseDeclarationBlock() []Declaration {
	p.skipWhitespaceAndComments()
	if p.eof() || p.peek() != '{' {
		return nil
	}
	p.pos++

	var decls []Declaration
	for {
		p.skipWhitespaceAndComments()
		if p.eof() {
			break
		}
		if p.peek() == '}' {
			p.pos++
			break
		}

		prop := strings.ToLower(strings.TrimSpace(p.parseUntilAny(":;}")))
		if p.eof() || p.peek() != ':' {
			// Malformed declaration: resynchronize at the next boundary.
			if !p.eof() && p.peek() == ';' {
				p.pos++
			}
			continue
		}
		p.pos++

		rawValue := strings.TrimSpace(p.parseUntilAny(";}"))
		if !p.eof() && p.peek() == ';' {
			p.pos++
		}

		important := false
		if lowered := strings.ToLower(rawValue); strings.HasSuffix(lowered, "!important") {
			important = true
			rawValue = strings.TrimSpace(rawValue[:len(rawValue)-len("!important")])
		}

		if prop != "" && rawValue != "" {
			decls = append(decls, Declaration{
				Property:  Property(prop),
				Value:     Value(rawValue),
				Important: important,
			})
		}
	}
	return decls
}

// ParseInline parses the contents of a style="" attribute.
func ParseInline(input string) []Declaration {
	p := NewParser("{" + input + "}")
	return p.parseDeclarationBlock()
}

// -- Scanning helpers --

func (p *Parser) eof() bool { return p.pos >= len(p.input) }

func (p *Parser) peek() byte { return p.input[p.pos] }

func isIdentChar(ch byte) bool {
	return ch == '-' || ch == '_' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func (p *Parser) parseIdent() string {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *Parser) parseUntilAny(stops string) string {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(stops, rune(p.peek())) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// skipWhitespaceAndComments reports whether any whitespace was consumed,
// which the selector parser uses to detect descendant combinators.
func (p *Parser) skipWhitespaceAndComments() bool {
	sawSpace := false
	for !p.eof() {
		switch ch := p.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			sawSpace = true
			p.pos++
		case strings.HasPrefix(p.input[p.pos:], "/*"):
			end := strings.Index(p.input[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.input)
				return sawSpace
			}
			p.pos += 2 + end + 2
		default:
			return sawSpace
		}
	}
	return sawSpace
}

func (p *Parser) skipTo(stop byte) {
	for !p.eof() && p.peek() != stop {
		p.pos++
	}
}

func (p *Parser) skipToAny(stops string) {
	for !p.eof() && !strings.ContainsRune(stops, rune(p.peek())) {
		p.pos++
	}
}

// skipBlock consumes a balanced {...} block, assuming pos is at '{'.
func (p *Parser) skipBlock() {
	if p.eof() || p.peek() != '{' {
		return
	}
	depth := 0
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				return
			}
		}
		p.pos++
	}
}

// skipAtRule consumes "@media {...}"-style rules entirely, or simple
// "@import ...;" statements up to the semicolon.
func (p *Parser) skipAtRule() {
	for !p.eof() {
		switch p.peek() {
		case ';':
			p.pos++
			return
		case '{':
			p.skipBlock()
			return
		}
		p.pos++
	}
}
