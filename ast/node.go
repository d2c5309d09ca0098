// Package ast implements the tree model (§3.1): a single tagged node type
// shared by every construct the front-end can produce, explicit reference
// counting in place of the garbage collector so the canonicalizer's sharing
// semantics stay faithful to spec.md, and a deterministic pre-order dump.
package ast

import (
	"fmt"
	"io"
	"strings"
)

// Kind tags the single node type with the construct it represents.
type Kind string

const (
	KindEnd           Kind = "END"
	KindIdent         Kind = "Ident"
	KindStrLit        Kind = "StrLit"
	KindRegex         Kind = "Regex"
	KindBinData       Kind = "BinData"
	KindBinField      Kind = "BinField"
	KindBinFieldCount Kind = "BinFieldCount"
	KindBinFieldTimes Kind = "BinFieldTimes"
	KindBracketExpr   Kind = "BracketExpr"
	KindBraceExpr     Kind = "BraceExpr"
	KindAndExpr       Kind = "AndExpr"
	KindOrExpr        Kind = "OrExpr"
	KindExpr          Kind = "Expr"
	KindProduction    Kind = "Production"
	KindProdList      Kind = "ProdList"
)

// exportableKinds is the taxonomy from §4.6: only these kinds receive an id,
// an export_ident, and a row in the emitted parsing table.
var exportableKinds = map[Kind]bool{
	KindProduction:    true,
	KindStrLit:        true,
	KindRegex:         true,
	KindBinData:       true,
	KindBinField:      true,
	KindBinFieldCount: true,
	KindBinFieldTimes: true,
	KindAndExpr:       true,
	KindOrExpr:        true,
	KindBracketExpr:   true,
	KindBraceExpr:     true,
}

// GenericNodeTypeEnum is the sentinel node_type_enum shared by every
// exportable node whose kind has no more specific enumeration tag.
const GenericNodeTypeEnum = "_NT_GENERIC"

// Node is the single tagged record spec.md §3.1 describes.
type Node struct {
	Kind     Kind
	Text     string
	Branches []*Node

	// IsToken preserves the leading TOKEN keyword on a Production node. The
	// source grammar never distinguished it in the tree; this repository's
	// Open Question decision (SPEC_FULL.md §9) is to keep the information
	// around instead of discarding it.
	IsToken bool

	ExportIdent  string
	NodeTypeEnum string
	ID           int
	BranchesIx   int

	refcnt int
}

// New creates a node with refcnt 1, id -1, and branches_ix -1, per §3.1's
// lifecycle description.
func New(kind Kind, text string) *Node {
	return &Node{
		Kind:       kind,
		Text:       text,
		ID:         -1,
		BranchesIx: -1,
		refcnt:     1,
	}
}

// AddBranch appends child to n's ordered branch list. Branch order is
// semantic (§3.1).
func (n *Node) AddBranch(child *Node) {
	n.Branches = append(n.Branches, child)
}

// IsExportable reports whether n's kind receives a table row per §4.6.
func (n *Node) IsExportable() bool {
	return exportableKinds[n.Kind]
}

// Refcnt returns the node's current reference count.
func (n *Node) Refcnt() int {
	return n.refcnt
}

// Retain increments n's reference count, for example when the
// canonicalizer redirects another branch slot onto n.
func (n *Node) Retain() {
	n.refcnt++
}

// Release decrements n's reference count and reports whether it reached
// zero. A node at zero is no longer reachable from any retained slot; the
// caller must not dereference it afterward.
func (n *Node) Release() bool {
	n.refcnt--
	return n.refcnt <= 0
}

// Dump writes a deterministic, pre-order, indented rendering of the tree
// rooted at n. It is the implementation behind the --tree CLI flag and
// never depends on anything but n itself, satisfying the invariant that
// --tree output is a pure function of the parsed input.
func Dump(w io.Writer, root *Node) error {
	return dump(w, root, 0)
}

func dump(w io.Writer, n *Node, depth int) error {
	if n == nil {
		return nil
	}
	indent := strings.Repeat("  ", depth)
	if n.Text != "" {
		if _, err := fmt.Fprintf(w, "%s%s %q\n", indent, n.Kind, n.Text); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, n.Kind); err != nil {
			return err
		}
	}
	for _, b := range n.Branches {
		if err := dump(w, b, depth+1); err != nil {
			return err
		}
	}
	return nil
}
