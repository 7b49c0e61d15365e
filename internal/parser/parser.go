// Package parser builds syntax trees from token streams by recursive
// descent with one token of lookahead. Two entry points exist: a whole
// simulation file (a sequence of script blocks) and a free-standing
// interpreter block (statements only, as typed at the REPL).
package parser

import (
	"fmt"
	"io"

	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/token"
)

// Config holds parser options.
type Config struct {
	// LogAST dumps the finished tree to Log.
	LogAST bool
	Log    io.Writer
}

// Parser consumes a token stream produced by the scanner. The stream must
// be terminated by an EOF token.
type Parser struct {
	toks []token.Token
	pos  int
	cfg  Config
}

// New creates a parser over a token stream.
func New(toks []token.Token, cfg Config) *Parser {
	return &Parser{toks: toks, cfg: cfg}
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, p.unexpected(fmt.Sprintf("expected %q", k.String()))
	}
	return p.advance(), nil
}

func (p *Parser) unexpected(context string) error {
	t := p.cur()
	return core.Errf(core.ErrSyntax, "Parse", t.Start, t.End,
		"unexpected token %q; %s", t.String(), context)
}

func (p *Parser) finish(root *ast.Node) *ast.Node {
	if p.cfg.LogAST && p.cfg.Log != nil {
		root.Dump(p.cfg.Log, 0)
	}
	return root
}

// ParseInterpreterBlock parses `statement* EOF` and wraps the result in a
// synthetic container node whose virtual token spans the whole input.
func (p *Parser) ParseInterpreterBlock() (*ast.Node, error) {
	end := p.toks[len(p.toks)-1].Start
	root := ast.NewVirtual(token.InterpreterBlock, "<interpreter-block>", 0, end)
	for p.cur().Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		root.AddChild(stmt)
	}
	return p.finish(root), nil
}

// ParseSimulationFile parses a sequence of script blocks terminated by EOF.
// Each block is `string_id? (number (':' number)?)? callback_spec?
// compound_statement`; block identity, tick range, and callback spec are
// all optional, but a block must carry its compound statement.
func (p *Parser) ParseSimulationFile() (*ast.Node, error) {
	end := p.toks[len(p.toks)-1].Start
	root := ast.NewVirtual(token.File, "<file>", 0, end)
	for p.cur().Kind != token.EOF {
		blk, err := p.parseScriptBlock()
		if err != nil {
			return nil, err
		}
		root.AddChild(blk)
	}
	return p.finish(root), nil
}

func (p *Parser) parseScriptBlock() (*ast.Node, error) {
	start := p.cur().Start
	blk := ast.NewVirtual(token.ScriptBlock, "<script-block>", start, start)

	if p.cur().Kind == token.String {
		blk.AddChild(ast.New(p.advance()))
	}
	if p.cur().Kind == token.Number {
		blk.AddChild(ast.New(p.advance()))
		if p.cur().Kind == token.Colon {
			p.advance()
			endTok, err := p.expect(token.Number)
			if err != nil {
				return nil, err
			}
			blk.AddChild(ast.New(endTok))
		}
	}

	switch p.cur().Kind {
	case token.Fitness, token.MateChoice, token.ModifyChild:
		cb, err := p.parseCallbackSpec()
		if err != nil {
			return nil, err
		}
		blk.AddChild(cb)
	}

	body, err := p.parseCompound()
	if err != nil {
		return nil, err
	}
	blk.AddChild(body)
	blk.Token.End = body.Token.End
	return blk, nil
}

// parseCallbackSpec recognizes the three callback headers:
//
//	fitness(mutTypeID [, subpopID])
//	mateChoice([subpopID])
//	modifyChild([subpopID])
func (p *Parser) parseCallbackSpec() (*ast.Node, error) {
	kw := p.advance()
	node := ast.New(kw)
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	switch kw.Kind {
	case token.Fitness:
		mutType, err := p.expect(token.Identifier)
		if err != nil {
			t := p.cur()
			return nil, core.Errf(core.ErrSyntax, "Parse", t.Start, t.End,
				"fitness() callback requires a mutation type identifier")
		}
		node.AddChild(ast.New(mutType))
		if p.cur().Kind == token.Comma {
			p.advance()
			subpop, err := p.expect(token.Identifier)
			if err != nil {
				return nil, err
			}
			node.AddChild(ast.New(subpop))
		}
	case token.MateChoice, token.ModifyChild:
		if p.cur().Kind == token.Identifier {
			node.AddChild(ast.New(p.advance()))
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return node, nil
}

// ---------------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() (*ast.Node, error) {
	switch p.cur().Kind {
	case token.LBrace:
		return p.parseCompound()
	case token.If:
		return p.parseIf()
	case token.Do:
		return p.parseDoWhile()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Next:
		node := ast.New(p.advance())
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return node, nil
	case token.Break:
		node := ast.New(p.advance())
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return node, nil
	case token.Return:
		node := ast.New(p.advance())
		if p.cur().Kind != token.Semicolon {
			expr, err := p.parseAssignmentExpr()
			if err != nil {
				return nil, err
			}
			node.AddChild(expr)
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return node, nil
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseCompound() (*ast.Node, error) {
	open, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	node := ast.NewVirtual(token.LBrace, "{", open.Start, open.End)
	for p.cur().Kind != token.RBrace {
		if p.cur().Kind == token.EOF {
			return nil, p.unexpected("unbalanced block: missing '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		node.AddChild(stmt)
	}
	closing := p.advance()
	node.Token.End = closing.End
	return node, nil
}

func (p *Parser) parseIf() (*ast.Node, error) {
	node := ast.New(p.advance())
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseAssignmentExpr()
	if err != nil {
		return nil, err
	}
	node.AddChild(cond)
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node.AddChild(then)
	if p.cur().Kind == token.Else {
		p.advance()
		alt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		node.AddChild(alt)
	}
	return node, nil
}

func (p *Parser) parseDoWhile() (*ast.Node, error) {
	node := ast.New(p.advance())
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node.AddChild(body)
	if _, err := p.expect(token.While); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseAssignmentExpr()
	if err != nil {
		return nil, err
	}
	node.AddChild(cond)
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	node := ast.New(p.advance())
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseAssignmentExpr()
	if err != nil {
		return nil, err
	}
	node.AddChild(cond)
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node.AddChild(body)
	return node, nil
}

func (p *Parser) parseFor() (*ast.Node, error) {
	node := ast.New(p.advance())
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	ident, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	node.AddChild(ast.New(ident))
	if _, err := p.expect(token.In); err != nil {
		return nil, err
	}
	rangeExpr, err := p.parseAssignmentExpr()
	if err != nil {
		return nil, err
	}
	node.AddChild(rangeExpr)
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node.AddChild(body)
	return node, nil
}

// parseExprStatement handles `[assignment_expr] ;`; a bare semicolon is an
// empty statement, represented by the semicolon token itself.
func (p *Parser) parseExprStatement() (*ast.Node, error) {
	if p.cur().Kind == token.Semicolon {
		return ast.New(p.advance()), nil
	}
	expr, err := p.parseAssignmentExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return expr, nil
}

// ---------------------------------------------------------------------------
// expressions, lowest precedence first
// ---------------------------------------------------------------------------

// parseAssignmentExpr handles `=` as a single right-hand step; assignment
// does not chain and never yields a usable value.
func (p *Parser) parseAssignmentExpr() (*ast.Node, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.Assign {
		node := ast.New(p.advance())
		right, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		node.AddChild(left)
		node.AddChild(right)
		return node, nil
	}
	return left, nil
}

func (p *Parser) parseLogicalOr() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseLogicalAnd, token.Or)
}

func (p *Parser) parseLogicalAnd() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseEquality, token.And)
}

func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseRelational, token.Eq, token.NotEq)
}

func (p *Parser) parseRelational() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseAdditive, token.Lt, token.LtEq, token.Gt, token.GtEq)
}

func (p *Parser) parseAdditive() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseMultiplicative, token.Plus, token.Minus)
}

func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseRange, token.Mul, token.Div, token.Mod)
}

// parseRange handles the non-associative single-step `:` operator.
func (p *Parser) parseRange() (*ast.Node, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.Colon {
		node := ast.New(p.advance())
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		node.AddChild(left)
		node.AddChild(right)
		return node, nil
	}
	return left, nil
}

func (p *Parser) parseExponent() (*ast.Node, error) {
	return p.parseBinaryLeft(p.parseUnary, token.Exp)
}

func (p *Parser) parseBinaryLeft(sub func() (*ast.Node, error), kinds ...token.Kind) (*ast.Node, error) {
	left, err := sub()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, k := range kinds {
			if p.cur().Kind == k {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
		node := ast.New(p.advance())
		right, err := sub()
		if err != nil {
			return nil, err
		}
		node.AddChild(left)
		node.AddChild(right)
		left = node
	}
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	switch p.cur().Kind {
	case token.Plus, token.Minus, token.Not:
		node := ast.New(p.advance())
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node.AddChild(operand)
		return node, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles subscript, call, and member access, composable
// repeatedly: `a.b[0](x).c`.
func (p *Parser) parsePostfix() (*ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.LBracket:
			node := ast.New(p.advance())
			index, err := p.parseAssignmentExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			node.AddChild(expr)
			node.AddChild(index)
			expr = node
		case token.LParen:
			node := ast.New(p.advance())
			node.AddChild(expr)
			if p.cur().Kind != token.RParen {
				for {
					arg, err := p.parseAssignmentExpr()
					if err != nil {
						return nil, err
					}
					node.AddChild(arg)
					if p.cur().Kind != token.Comma {
						break
					}
					p.advance()
				}
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			expr = node
		case token.Dot:
			node := ast.New(p.advance())
			member, err := p.expect(token.Identifier)
			if err != nil {
				return nil, err
			}
			node.AddChild(expr)
			node.AddChild(ast.New(member))
			expr = node
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	switch p.cur().Kind {
	case token.Number, token.String, token.Identifier:
		return ast.New(p.advance()), nil
	case token.LParen:
		p.advance()
		expr, err := p.parseAssignmentExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.unexpected("expected a literal, identifier, or parenthesized expression")
}
