package parser

import "github.com/hdlkit/verilog-go/internal/language"

// Observer receives structural events from a Parser scan. Implementations
// that only care about a few events can embed NopObserver.
type Observer interface {
	ModuleBegin(name string, line int)
	ModuleEnd()
	PortDeclaration(direction, name string, line int)
	NetDeclaration(kind, name string, line int)
	ParameterDeclaration(name string, line int)
	InstanceDeclaration(moduleName, instanceName string, line int)
	PinConnection(instanceName, pinName, netName string)
	AlwaysBegin(line int)
	Assign(line int)
	Directive(text string, line, col int)
	Identifier(text string, line, col int)
}

// NopObserver implements Observer with no-ops for embedding.
type NopObserver struct{}

func (NopObserver) ModuleBegin(string, int)                {}
func (NopObserver) ModuleEnd()                             {}
func (NopObserver) PortDeclaration(string, string, int)    {}
func (NopObserver) NetDeclaration(string, string, int)     {}
func (NopObserver) ParameterDeclaration(string, int)       {}
func (NopObserver) InstanceDeclaration(string, string, int) {}
func (NopObserver) PinConnection(string, string, string)   {}
func (NopObserver) AlwaysBegin(int)                        {}
func (NopObserver) Assign(int)                             {}
func (NopObserver) Directive(string, int, int)             {}
func (NopObserver) Identifier(string, int, int)            {}

// Parser performs a single left-to-right scan over the token stream,
// dispatching on keywords to small construct handlers and raising events on
// the observer. It is a structural scanner, not a grammar parser: each
// declaration handler takes the next identifier as the declared name, so
// multi-name declarations are only partially captured.
type Parser struct {
	lexer    *Lexer
	observer Observer

	tokens []Token
	cur    int
	depth  int // open module blocks
}

// NewParser creates a Parser delivering events to obs. A nil observer
// discards all events. standard selects the keyword set (empty for all).
func NewParser(obs Observer, standard string) *Parser {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Parser{lexer: NewLexer(standard), observer: obs}
}

// Tokens returns the token stream from the most recent Parse or Tokenize.
func (p *Parser) Tokens() []Token {
	return p.tokens
}

// Tokenize lexes text without scanning it.
func (p *Parser) Tokenize(text string) []Token {
	p.tokens = p.lexer.Tokenize(text)
	p.cur = 0
	return p.tokens
}

// Parse tokenizes text and performs the structural scan, raising observer
// events in source order. The cursor advances by at least one token per
// dispatch step, so the scan terminates on any input.
func (p *Parser) Parse(text string) {
	p.Tokenize(text)
	p.depth = 0

	for p.cur < len(p.tokens) {
		tok := p.tokens[p.cur]
		if tok.Type == EOF {
			break
		}

		switch tok.Type {
		case KEYWORD:
			// Gate primitives instantiate like modules but lex as
			// keywords, so they get their own shot at the instance
			// pattern before keyword dispatch.
			if p.depth > 0 && language.IsGatePrim(tok.Value) && p.tryInstance(tok) {
				continue
			}
			p.handleKeyword(tok)
		case DIRECTIVE:
			p.observer.Directive(tok.Value[1:], tok.Line, tok.Column)
		case IDENTIFIER:
			p.observer.Identifier(tok.Value, tok.Line, tok.Column)
			if p.depth > 0 {
				if p.tryInstance(tok) {
					continue
				}
			}
		}
		p.cur++
	}
}

func (p *Parser) handleKeyword(tok Token) {
	switch tok.Value {
	case "module", "macromodule":
		if name, nameTok, ok := p.nextIdentifier(); ok {
			p.depth++
			p.observer.ModuleBegin(name, nameTok.Line)
		}
	case "endmodule":
		if p.depth > 0 {
			p.depth--
		}
		p.observer.ModuleEnd()
	case "input", "output", "inout":
		if name, _, ok := p.nextIdentifier(); ok {
			p.observer.PortDeclaration(tok.Value, name, tok.Line)
		}
	case "wire", "reg", "tri", "logic":
		if name, _, ok := p.nextIdentifier(); ok {
			p.observer.NetDeclaration(tok.Value, name, tok.Line)
		}
	case "parameter", "localparam":
		if name, nameTok, ok := p.nextIdentifier(); ok {
			p.observer.ParameterDeclaration(name, nameTok.Line)
		}
	case "always", "always_comb", "always_ff", "always_latch", "initial":
		p.observer.AlwaysBegin(tok.Line)
	case "assign":
		p.observer.Assign(tok.Line)
	}
}

// nextIdentifier advances the cursor to the next identifier token, skipping
// anything in between (range brackets, keywords like signed, comments), and
// leaves the cursor on it. The single-identifier approximation of the
// declaration grammar lives here.
func (p *Parser) nextIdentifier() (string, Token, bool) {
	for p.cur < len(p.tokens) && p.tokens[p.cur].Type != IDENTIFIER {
		if p.tokens[p.cur].Type == EOF {
			return "", Token{}, false
		}
		p.cur++
	}
	if p.cur >= len(p.tokens) {
		return "", Token{}, false
	}
	tok := p.tokens[p.cur]
	return tok.Value, tok, true
}

// tryInstance recognizes a module instantiation at module scope:
// identifier identifier ( ... ) with optional .pin(net) named connections.
// Returns true if the cursor consumed an instantiation.
func (p *Parser) tryInstance(tok Token) bool {
	instIdx, ok := p.peekSignificant(p.cur + 1)
	if !ok || p.tokens[instIdx].Type != IDENTIFIER {
		return false
	}
	parenIdx, ok := p.peekSignificant(instIdx + 1)
	if !ok || !isDelimiter(p.tokens[parenIdx], "(") {
		return false
	}

	instanceName := p.tokens[instIdx].Value
	p.observer.InstanceDeclaration(tok.Value, instanceName, tok.Line)

	// Scan the connection list for .pin(net) pairs, tolerating positional
	// and empty connections, until the matching close paren.
	i := parenIdx + 1
	depth := 1
	for i < len(p.tokens) && depth > 0 {
		t := p.tokens[i]
		if t.Type == EOF {
			break
		}
		switch {
		case isDelimiter(t, "("):
			depth++
		case isDelimiter(t, ")"):
			depth--
		case isDelimiter(t, ".") && depth == 1:
			pin, net, next, ok := p.scanPin(i)
			if ok {
				p.observer.PinConnection(instanceName, pin, net)
				i = next
				continue
			}
		}
		i++
	}
	p.cur = i
	return true
}

// scanPin parses .name(net) starting at the dot token. Returns the index
// just past the closing paren.
func (p *Parser) scanPin(dot int) (pin, net string, next int, ok bool) {
	i, ok := p.peekSignificant(dot + 1)
	if !ok || p.tokens[i].Type != IDENTIFIER {
		return "", "", 0, false
	}
	pin = p.tokens[i].Value
	open, ok := p.peekSignificant(i + 1)
	if !ok || !isDelimiter(p.tokens[open], "(") {
		return "", "", 0, false
	}
	j, ok := p.peekSignificant(open + 1)
	if !ok {
		return "", "", 0, false
	}
	if p.tokens[j].Type == IDENTIFIER {
		net = p.tokens[j].Value
		j++
	}
	// Skip to the pin's closing paren (covers bit selects like .a(x[3])).
	depth := 1
	for j < len(p.tokens) && p.tokens[j].Type != EOF {
		if isDelimiter(p.tokens[j], "(") {
			depth++
		} else if isDelimiter(p.tokens[j], ")") {
			depth--
			if depth == 0 {
				return pin, net, j + 1, true
			}
		}
		j++
	}
	return "", "", 0, false
}

// peekSignificant returns the index of the first token at or after i that
// is not whitespace, a newline, or a comment.
func (p *Parser) peekSignificant(i int) (int, bool) {
	for ; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case WHITESPACE, NEWLINE, COMMENT:
			continue
		case EOF:
			return i, false
		default:
			return i, true
		}
	}
	return i, false
}

func isDelimiter(t Token, v string) bool {
	return t.Type == DELIMITER && t.Value == v
}
