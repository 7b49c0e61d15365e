// Package ast defines the syntax tree produced by the parser. Every node
// owns its token unconditionally; tokens copied out of the scanner stream
// and virtual tokens synthesized by the parser are treated identically.
package ast

import (
	"fmt"
	"io"

	"github.com/oxhq/driftsim/internal/token"
)

// Node is one vertex of the syntax tree. The subtree below a node is a
// strict tree: no shared subnodes, no cycles.
type Node struct {
	Token    token.Token
	Children []*Node

	// Cached holds a pre-evaluated constant for literal nodes, stored as
	// an opaque value so this package stays below the value system in the
	// dependency order. The interpreter populates and consumes it.
	Cached any
}

// New creates a node for a token taken from the scanner stream.
func New(tok token.Token) *Node {
	return &Node{Token: tok}
}

// NewVirtual creates a node with a synthesized container token whose
// lexeme summarizes the source range it spans.
func NewVirtual(kind token.Kind, lexeme string, start, end int) *Node {
	return &Node{Token: token.Token{Kind: kind, Lexeme: lexeme, Start: start, End: end}}
}

// AddChild appends a child, returning the receiver for chaining.
func (n *Node) AddChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	return n
}

// Visit walks the subtree depth-first, pre-order.
func (n *Node) Visit(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Visit(fn)
	}
}

// Dump writes an indented rendering of the subtree, used by the AST log
// toggle and the check command.
func (n *Node) Dump(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, "  ")
	}
	fmt.Fprintf(w, "%s", n.Token.Kind)
	switch n.Token.Kind {
	case token.Number, token.String, token.Identifier:
		fmt.Fprintf(w, " %s", n.Token)
	}
	io.WriteString(w, "\n")
	for _, c := range n.Children {
		c.Dump(w, depth+1)
	}
}
