// package parser turns surface syntax into expression trees.
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"hovm.run/hovm/hovmexpr"
	"hovm.run/hovm/hovml/lexer"
	"hovm.run/hovm/internal/ringbuf"
	"hovm.run/hovm/spec"
)

type Token = lexer.Token

// Definition is a named top-level term.  Alias definitions expand at
// most once and are shared between their use sites.
type Definition struct {
	Name  string
	Alias bool
	Body  *hovmexpr.Expr
}

// Program is a parsed source file.  Main is nil when the file only
// holds definitions.
type Program struct {
	Defs []Definition
	Main *hovmexpr.Expr
}

type Parser struct {
	lex   *lexer.Lexer
	inBuf ringbuf.RingBuf[Token]
}

func NewParser(r io.RuneReader) *Parser {
	return &Parser{
		lex:   lexer.NewLexer(r),
		inBuf: ringbuf.New[Token](2),
	}
}

// Parse reads a whole program from src.
func Parse(src string) (*Program, error) {
	return NewParser(strings.NewReader(src)).ParseProgram()
}

// ParseProgram parses definitions and at most one main expression.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for {
		tok, err := p.peekAt(0)
		if err != nil {
			return nil, err
		}
		if tok.IsEOF() {
			return prog, nil
		}
		if tok.Type() == lexer.RefName || tok.Type() == lexer.AloName {
			next, err := p.peekAt(1)
			if err != nil {
				return nil, err
			}
			if next.Type() == lexer.Assign {
				def, err := p.parseDef()
				if err != nil {
					return nil, err
				}
				prog.Defs = append(prog.Defs, def)
				continue
			}
		}
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if prog.Main != nil {
			return nil, fmt.Errorf("second main expression at offset %d", tok.Span().Begin)
		}
		prog.Main = e
	}
}

func (p *Parser) parseDef() (Definition, error) {
	tok, err := p.next()
	if err != nil {
		return Definition{}, err
	}
	var def Definition
	switch tok.Type() {
	case lexer.RefName:
		def.Name = tok.Text()[1:]
	case lexer.AloName:
		def.Name = tok.Text()[2:]
		def.Alias = true
	default:
		return Definition{}, fmt.Errorf("expected definition name, got %v", tok)
	}
	if _, err := p.expect(lexer.Assign); err != nil {
		return Definition{}, err
	}
	body, err := p.ParseExpr()
	if err != nil {
		return Definition{}, err
	}
	def.Body = body
	return def, nil
}

// ParseExpr parses one expression.
func (p *Parser) ParseExpr() (*hovmexpr.Expr, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type() {
	case lexer.Num:
		n, err := parseU32(tok.Text()[1:])
		if err != nil {
			return nil, err
		}
		return hovmexpr.Num(n), nil
	case lexer.Char:
		return parseChar(tok)
	case lexer.Star:
		return hovmexpr.Era(), nil
	case lexer.Symbol:
		return hovmexpr.Var(tok.Text()), nil
	case lexer.RefName:
		return hovmexpr.Ref(tok.Text()[1:]), nil
	case lexer.AloName:
		return hovmexpr.Alo(tok.Text()[2:]), nil
	case lexer.CtorName:
		return p.parseCtr(tok)
	case lexer.Lambda:
		return p.parseLam()
	case lexer.Amp:
		return p.parseSup()
	case lexer.Bang:
		return p.parseDupOrUse()
	case lexer.LBrace:
		return p.parseAnn()
	case lexer.Tilde:
		return p.parseMat()
	case lexer.LParen:
		return p.parseSExpr()
	default:
		return nil, fmt.Errorf("unexpected token %v at offset %d", tok, tok.Span().Begin)
	}
}

func (p *Parser) parseCtr(tok Token) (*hovmexpr.Expr, error) {
	name := tok.Text()[1:]
	next, err := p.peekAt(0)
	if err != nil {
		return nil, err
	}
	if next.Type() != lexer.LBrace {
		return hovmexpr.Ctr(name), nil
	}
	p.inBuf.PopFront()
	fields, err := p.parseUntil(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	return hovmexpr.Ctr(name, fields...), nil
}

func (p *Parser) parseLam() (*hovmexpr.Expr, error) {
	name, err := p.expect(lexer.Symbol)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Dot); err != nil {
		return nil, err
	}
	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return hovmexpr.Lam(name.Text(), body), nil
}

func (p *Parser) parseSup() (*hovmexpr.Expr, error) {
	lab, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	left, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Comma); err != nil {
		return nil, err
	}
	right, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return hovmexpr.Sup(lab, left, right), nil
}

func (p *Parser) parseDupOrUse() (*hovmexpr.Expr, error) {
	tok, err := p.peekAt(0)
	if err != nil {
		return nil, err
	}
	if tok.Type() != lexer.Amp {
		// !expr;cont forces expr before continuing with cont.
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Semi); err != nil {
			return nil, err
		}
		k, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		return hovmexpr.Use(e, k), nil
	}
	p.inBuf.PopFront()
	lab, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	x, err := p.expect(lexer.Symbol)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Comma); err != nil {
		return nil, err
	}
	y, err := p.expect(lexer.Symbol)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}
	v, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	k, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return hovmexpr.Dup(lab, x.Text(), y.Text(), v, k), nil
}

func (p *Parser) parseAnn() (*hovmexpr.Expr, error) {
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	ty, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return hovmexpr.Ann(e, ty), nil
}

func (p *Parser) parseMat() (*hovmexpr.Expr, error) {
	scrut, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	branches, err := p.parseUntil(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("match needs at least one branch")
	}
	return hovmexpr.Mat(scrut, branches...), nil
}

// parseSExpr parses the body of a parenthesized form: an operator
// application, a number switch, structural equality, or an application
// spine.
func (p *Parser) parseSExpr() (*hovmexpr.Expr, error) {
	head, err := p.next()
	if err != nil {
		return nil, err
	}
	switch head.Type() {
	case lexer.Question:
		args, err := p.parseUntil(lexer.RParen)
		if err != nil {
			return nil, err
		}
		if len(args) != 3 {
			return nil, fmt.Errorf("? takes 3 arguments, got %d", len(args))
		}
		return hovmexpr.Swi(args[0], args[1], args[2]), nil
	case lexer.OpSym, lexer.Star, lexer.Tilde:
		sym := head.Text()
		if sym == "===" {
			args, err := p.parseUntil(lexer.RParen)
			if err != nil {
				return nil, err
			}
			if len(args) != 2 {
				return nil, fmt.Errorf("=== takes 2 arguments, got %d", len(args))
			}
			return hovmexpr.Eql(args[0], args[1]), nil
		}
		op, ok := spec.OpBySymbol(sym)
		if !ok {
			return nil, fmt.Errorf("unknown operator %q", sym)
		}
		args, err := p.parseUntil(lexer.RParen)
		if err != nil {
			return nil, err
		}
		if len(args) != op.Arity() {
			return nil, fmt.Errorf("%v takes %d arguments, got %d", op, op.Arity(), len(args))
		}
		return hovmexpr.Prim(op, args...), nil
	case lexer.Amp:
		// A label after & means a superposition in function position.
		next, err := p.peekAt(0)
		if err != nil {
			return nil, err
		}
		if next.Type() != lexer.Int {
			args, err := p.parseUntil(lexer.RParen)
			if err != nil {
				return nil, err
			}
			if len(args) != 2 {
				return nil, fmt.Errorf("& takes 2 arguments, got %d", len(args))
			}
			return hovmexpr.Prim(spec.AND, args...), nil
		}
		fn, err := p.parseSup()
		if err != nil {
			return nil, err
		}
		return p.parseAppTail(fn)
	default:
		p.back(head)
		fn, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		return p.parseAppTail(fn)
	}
}

func (p *Parser) parseAppTail(fn *hovmexpr.Expr) (*hovmexpr.Expr, error) {
	args, err := p.parseUntil(lexer.RParen)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return fn, nil
	}
	return hovmexpr.AppN(fn, args...), nil
}

// parseUntil parses expressions up to the closing token, ignoring
// commas between them.
func (p *Parser) parseUntil(end lexer.TokenType) ([]*hovmexpr.Expr, error) {
	var out []*hovmexpr.Expr
	for {
		tok, err := p.peekAt(0)
		if err != nil {
			return nil, err
		}
		switch tok.Type() {
		case end:
			p.inBuf.PopFront()
			return out, nil
		case lexer.EOF:
			return nil, fmt.Errorf("unexpected EOF, wanted %v", end)
		case lexer.Comma:
			p.inBuf.PopFront()
			continue
		}
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func (p *Parser) parseLabel() (uint32, error) {
	tok, err := p.expect(lexer.Int)
	if err != nil {
		return 0, err
	}
	lab, err := parseU32(tok.Text())
	if err != nil {
		return 0, err
	}
	if lab >= spec.AutoLabelBase {
		return 0, fmt.Errorf("label %d is in the reserved space", lab)
	}
	return lab, nil
}

func parseU32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseChar(tok Token) (*hovmexpr.Expr, error) {
	body := tok.Text()
	body = body[1 : len(body)-1]
	r := []rune(body)
	if r[0] == '\\' {
		switch r[1] {
		case 'n':
			return hovmexpr.Num('\n'), nil
		case 'r':
			return hovmexpr.Num('\r'), nil
		case 't':
			return hovmexpr.Num('\t'), nil
		case '0':
			return hovmexpr.Num(0), nil
		case '\\', '\'':
			return hovmexpr.Num(uint32(r[1])), nil
		}
		return nil, fmt.Errorf("unknown escape in %v", tok)
	}
	return hovmexpr.Num(uint32(r[0])), nil
}

func (p *Parser) expect(ty lexer.TokenType) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return Token{}, err
	}
	if tok.Type() != ty {
		return Token{}, fmt.Errorf("unexpected token %v at offset %d", tok, tok.Span().Begin)
	}
	return tok, nil
}

func (p *Parser) fill(n int) error {
	for p.inBuf.Len() < n {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		if tok.Type() == lexer.Comment {
			continue
		}
		p.inBuf.PushBack(tok)
		if tok.Type() == lexer.EOF {
			break
		}
	}
	return nil
}

func (p *Parser) next() (ret Token, _ error) {
	if err := p.fill(1); err != nil {
		return Token{}, err
	}
	return p.inBuf.PopFront(), nil
}

func (p *Parser) peekAt(i int) (Token, error) {
	if err := p.fill(i + 1); err != nil {
		return Token{}, err
	}
	if p.inBuf.Len() <= i {
		return Token{}, fmt.Errorf("unexpected end of input")
	}
	return p.inBuf.At(i), nil
}

func (p *Parser) back(tok Token) {
	p.inBuf.PushFront(tok)
}
