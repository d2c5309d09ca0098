// Package canon implements the canonicalizer (§4.7): a single traversal that
// redirects duplicate StrLit/Regex branch slots onto one shared node each,
// the way grammar.go's genSymbolTableAndLexSpec dedups lexical specs by name
// before registering them.
package canon

import "github.com/ebnfcomp/ebnfcomp/ast"

// Canonicalize walks the tree rooted at root and, for every StrLit or Regex
// branch slot, redirects it onto the first node of that kind with
// byte-equal text seen earlier in the walk. The redirected-to node's refcnt
// is incremented and the slot's original node is released.
func Canonicalize(root *ast.Node) {
	var seen []*ast.Node
	canonicalizeChildren(root, &seen)
}

func canonicalizeChildren(n *ast.Node, seen *[]*ast.Node) {
	for i, b := range n.Branches {
		if !isLiteral(b.Kind) {
			canonicalizeChildren(b, seen)
			continue
		}
		if existing := findLiteral(*seen, b); existing != nil {
			existing.Retain()
			b.Release()
			n.Branches[i] = existing
			continue
		}
		*seen = append(*seen, b)
	}
}

func isLiteral(k ast.Kind) bool {
	return k == ast.KindStrLit || k == ast.KindRegex
}

func findLiteral(seen []*ast.Node, target *ast.Node) *ast.Node {
	for _, s := range seen {
		if s.Kind == target.Kind && s.Text == target.Text {
			return s
		}
	}
	return nil
}
