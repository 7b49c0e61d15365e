// Package block turns parsed script-block nodes into scheduling metadata:
// the block's tick range, its callback kind and filters, and a pre-scan
// summary of which identifiers it references.
package block

import (
	"strconv"

	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/token"
)

// Kind is a script block's trigger kind.
type Kind string

const (
	KindEvent       Kind = "event"
	KindFitness     Kind = "fitness"
	KindMateChoice  Kind = "mateChoice"
	KindModifyChild Kind = "modifyChild"
)

// ScriptBlock is one parsed block with its scheduling metadata. A block
// with no explicit end tick runs only at its start tick; a block with no
// tick range at all fires whenever its callback triggers.
type ScriptBlock struct {
	ID        string
	Kind      Kind
	StartTick int64
	EndTick   int64
	HasRange  bool

	// MutTypeFilter restricts a fitness callback to one mutation type;
	// SubpopFilter restricts any callback to one subpopulation.
	MutTypeFilter string
	SubpopFilter  string

	Root     *ast.Node
	Compound *ast.Node
	Active   bool

	Usage UsageSummary
}

// FromNode extracts a ScriptBlock from a parser script-block node and
// runs the identifier pre-scan over its compound statement.
func FromNode(node *ast.Node) (*ScriptBlock, error) {
	if node.Token.Kind != token.ScriptBlock {
		return nil, core.Errf(core.ErrInvariant, "FromNode", node.Token.Start, node.Token.End,
			"node is %s, not a script block", node.Token.Kind)
	}
	b := &ScriptBlock{Kind: KindEvent, Root: node, Active: true}

	children := node.Children
	if len(children) > 0 && children[0].Token.Kind == token.String {
		b.ID = children[0].Token.Lexeme
		children = children[1:]
	}
	if len(children) > 0 && children[0].Token.Kind == token.Number {
		start, err := strconv.ParseInt(children[0].Token.Lexeme, 10, 64)
		if err != nil {
			return nil, core.Errf(core.ErrSyntax, "FromNode",
				children[0].Token.Start, children[0].Token.End, "bad tick %q", children[0].Token.Lexeme)
		}
		b.StartTick, b.EndTick, b.HasRange = start, start, true
		children = children[1:]
		if len(children) > 0 && children[0].Token.Kind == token.Number {
			end, err := strconv.ParseInt(children[0].Token.Lexeme, 10, 64)
			if err != nil {
				return nil, core.Errf(core.ErrSyntax, "FromNode",
					children[0].Token.Start, children[0].Token.End, "bad tick %q", children[0].Token.Lexeme)
			}
			b.EndTick = end
			children = children[1:]
		}
	}

	if len(children) > 0 {
		switch cb := children[0]; cb.Token.Kind {
		case token.Fitness:
			b.Kind = KindFitness
			b.MutTypeFilter = cb.Children[0].Token.Lexeme
			if len(cb.Children) > 1 {
				b.SubpopFilter = cb.Children[1].Token.Lexeme
			}
			children = children[1:]
		case token.MateChoice:
			b.Kind = KindMateChoice
			if len(cb.Children) > 0 {
				b.SubpopFilter = cb.Children[0].Token.Lexeme
			}
			children = children[1:]
		case token.ModifyChild:
			b.Kind = KindModifyChild
			if len(cb.Children) > 0 {
				b.SubpopFilter = cb.Children[0].Token.Lexeme
			}
			children = children[1:]
		}
	}

	if len(children) != 1 || children[0].Token.Kind != token.LBrace {
		return nil, core.Errf(core.ErrSyntax, "FromNode", node.Token.Start, node.Token.End,
			"script block is missing its compound statement")
	}
	b.Compound = children[0]
	b.Usage = ScanUsage(b.Compound)
	return b, nil
}

// AppliesAtTick reports whether the block is eligible at a tick.
func (b *ScriptBlock) AppliesAtTick(tick int64) bool {
	if !b.Active {
		return false
	}
	if !b.HasRange {
		return b.Kind != KindEvent
	}
	return tick >= b.StartTick && tick <= b.EndTick
}

// BlocksFromFile extracts every script block from a parsed simulation
// file node.
func BlocksFromFile(file *ast.Node) ([]*ScriptBlock, error) {
	blocks := make([]*ScriptBlock, 0, len(file.Children))
	for _, child := range file.Children {
		b, err := FromNode(child)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
