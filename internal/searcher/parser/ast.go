package parser

import "strings"

// Op tags an AST node.
type Op int

const (
	OpTerm Op = iota
	OpAnd
	OpOr
	OpAndNot
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return KeywordAnd
	case OpOr:
		return KeywordOr
	case OpAndNot:
		return KeywordAndNot
	default:
		return "TERM"
	}
}

// Node is one node of a parsed boolean query. A term node carries Word and
// has no children; an operator node always has both children.
type Node struct {
	Op    Op
	Word  string
	Left  *Node
	Right *Node
}

func term(word string) *Node {
	return &Node{Op: OpTerm, Word: word}
}

func binary(op Op, left, right *Node) *Node {
	return &Node{Op: op, Left: left, Right: right}
}

func (n *Node) IsTerm() bool {
	return n.Op == OpTerm
}

// Terms returns the words of every term leaf, left to right.
func (n *Node) Terms() []string {
	var words []string
	var walk func(*Node)
	walk = func(node *Node) {
		if node == nil {
			return
		}
		if node.IsTerm() {
			words = append(words, node.Word)
			return
		}
		walk(node.Left)
		walk(node.Right)
	}
	walk(n)
	return words
}

// String renders the tree fully parenthesised, e.g. "((a OR b) AND c)".
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n == nil {
		return
	}
	if n.IsTerm() {
		sb.WriteString(n.Word)
		return
	}
	sb.WriteByte('(')
	n.Left.write(sb)
	sb.WriteByte(' ')
	sb.WriteString(n.Op.String())
	sb.WriteByte(' ')
	n.Right.write(sb)
	sb.WriteByte(')')
}
