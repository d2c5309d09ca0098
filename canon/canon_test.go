package canon

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ebnfcomp/ebnfcomp/ast"
)

func TestCanonicalize_DedupesEqualStrLits(t *testing.T) {
	root := ast.New(ast.KindProdList, "")
	a := ast.New(ast.KindProduction, "a")
	a.AddBranch(ast.New(ast.KindStrLit, "x"))
	b := ast.New(ast.KindProduction, "b")
	b.AddBranch(ast.New(ast.KindStrLit, "x"))
	root.AddBranch(a)
	root.AddBranch(b)

	Canonicalize(root)

	if a.Branches[0] != b.Branches[0] {
		t.Fatal("equal StrLit nodes must become the same instance")
	}
	if got := a.Branches[0].Refcnt(); got != 2 {
		t.Fatalf("got refcnt %d, want 2", got)
	}
}

func TestCanonicalize_DistinctTextNotMerged(t *testing.T) {
	root := ast.New(ast.KindProdList, "")
	a := ast.New(ast.KindProduction, "a")
	a.AddBranch(ast.New(ast.KindStrLit, "x"))
	b := ast.New(ast.KindProduction, "b")
	b.AddBranch(ast.New(ast.KindStrLit, "y"))
	root.AddBranch(a)
	root.AddBranch(b)

	Canonicalize(root)

	if a.Branches[0] == b.Branches[0] {
		t.Fatal("distinct text must not be merged")
	}
}

func TestCanonicalize_DifferentKindsNotMerged(t *testing.T) {
	root := ast.New(ast.KindProdList, "")
	a := ast.New(ast.KindProduction, "a")
	a.AddBranch(ast.New(ast.KindStrLit, "x"))
	b := ast.New(ast.KindProduction, "b")
	b.AddBranch(ast.New(ast.KindRegex, "x"))
	root.AddBranch(a)
	root.AddBranch(b)

	Canonicalize(root)

	if a.Branches[0] == b.Branches[0] {
		t.Fatal("a StrLit and a Regex with the same text must not be merged")
	}
}

func TestCanonicalize_IdentsAreUntouched(t *testing.T) {
	root := ast.New(ast.KindProdList, "")
	a := ast.New(ast.KindProduction, "a")
	a.AddBranch(ast.New(ast.KindIdent, "x"))
	b := ast.New(ast.KindProduction, "b")
	b.AddBranch(ast.New(ast.KindIdent, "x"))
	root.AddBranch(a)
	root.AddBranch(b)

	Canonicalize(root)

	if a.Branches[0] == b.Branches[0] {
		t.Fatal("Ident nodes are not in the canonicalizer's scope and must stay distinct instances")
	}
	opts := cmpopts.IgnoreUnexported(ast.Node{})
	if diff := cmp.Diff(a.Branches[0], b.Branches[0], opts); diff != "" {
		t.Fatalf("structurally equal Ident nodes should still compare equal (-got +want):\n%s", diff)
	}
}

func TestCanonicalize_ThreeWayShare(t *testing.T) {
	root := ast.New(ast.KindProdList, "")
	for _, name := range []string{"a", "b", "c"} {
		p := ast.New(ast.KindProduction, name)
		p.AddBranch(ast.New(ast.KindStrLit, "x"))
		root.AddBranch(p)
	}

	Canonicalize(root)

	shared := root.Branches[0].Branches[0]
	for _, p := range root.Branches {
		if p.Branches[0] != shared {
			t.Fatal("all three productions must share the same StrLit node")
		}
	}
	if got := shared.Refcnt(); got != 3 {
		t.Fatalf("got refcnt %d, want 3", got)
	}
}

func TestCanonicalize_NestedUnderExprWrappers(t *testing.T) {
	root := ast.New(ast.KindProdList, "")
	a := ast.New(ast.KindProduction, "a")
	or := ast.New(ast.KindOrExpr, "")
	or.AddBranch(ast.New(ast.KindStrLit, "x"))
	or.AddBranch(ast.New(ast.KindStrLit, "y"))
	a.AddBranch(or)
	b := ast.New(ast.KindProduction, "b")
	b.AddBranch(ast.New(ast.KindStrLit, "x"))
	root.AddBranch(a)
	root.AddBranch(b)

	Canonicalize(root)

	if or.Branches[0] != b.Branches[0] {
		t.Fatal("a duplicate nested two levels deep must still be found and merged")
	}
	if or.Branches[1] == b.Branches[0] {
		t.Fatal("distinct text nested in the same wrapper must not be merged")
	}
}
