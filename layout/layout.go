// Package layout implements the two-pass numbering and layout algorithm
// (§4.8): a pre-order enumerate walk that assigns ids and node_type_enum
// tags, followed by a pre-order name-and-lay-out walk that assigns
// export_ident and flattens every exportable node's branches into one
// global array. Both walks stop descending into a node they find already
// numbered/named, so a shared node gets exactly one id and one row no
// matter how many parents reference it — the same "symbol already
// registered" discipline grammar.go's genSymbolTableAndLexSpec uses for its
// own dedup-by-name pass.
package layout

import (
	"fmt"
	"strings"

	"github.com/ebnfcomp/ebnfcomp/ast"
	cerr "github.com/ebnfcomp/ebnfcomp/error"
	"github.com/ebnfcomp/ebnfcomp/token"
)

// operatorLabels implements the recognized-operator-string table (§6.3).
var operatorLabels = map[string]string{
	"=": "EQ", "==": "DEQ", "<>": "NE", "!=": "CNE", "<": "LT", ">": "GT",
	"<=": "LE", ">=": "GE", "&": "AND", "&&": "LOGAND", "|": "OR", "||": "LOGOR",
	"^": "XOR", "^^": "LOGXOR", ";": "SEMIC", ",": "COMMA", ":": "COLON",
	"(": "LPAREN", ")": "RPAREN", "[": "LBRACK", "]": "RBRACK", "{": "LBRACE", "}": "RBRACE",
	"*": "STAR", "**": "DBLSTAR", "/": "SLASH", "+": "PLUS", "-": "MINUS",
	":=": "ASSIGN", "::=": "ASSIGN2", "~=": "APPLY", "++": "PLUSPLUS", "--": "MINUSMINUS",
	"+=": "PLUSEQ", "-=": "MINUSEQ", "*=": "STAREQ", "/=": "SLASHEQ", "&=": "ANDEQ",
	"|=": "OREQ", "^=": "XOREQ", "%": "MODULO", "%=": "MODULOEQ", ".": "DOT",
	"!": "EXCLAM", "<<": "LSHIFT", ">>": "RSHIFT", "..": "RANGE", "...": "ELLIPSIS",
}

// Result is the flattened output of the numbering and layout passes: every
// exportable node in id order, the distinct node_type_enum tags in
// first-seen order (with the fixed "_NT_GENERIC" prelude), and the global
// branch-index array.
type Result struct {
	Nodes    []*ast.Node
	Tags     []string
	Branches []int
}

// Layout runs both passes over the DAG reachable from root. prods is the
// production name lookup Parse returned, used to resolve Ident branch slots
// against declared productions.
func Layout(root *ast.Node, prods map[string]*ast.Node) (result *Result, retErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			se, ok := rec.(*cerr.SemanticError)
			if !ok {
				panic(rec)
			}
			retErr = se
		}
	}()

	var nodes []*ast.Node
	tags := []string{ast.GenericNodeTypeEnum}
	tagSeen := map[string]bool{ast.GenericNodeTypeEnum: true}
	enumerate(root, &nodes, &tags, tagSeen)

	l := &layoutState{prods: prods}
	var branches []int
	l.nameAndLayout(root, &branches)

	return &Result{Nodes: nodes, Tags: tags, Branches: branches}, nil
}

// enumerate is the first DFS: assign ids in pre-order, skipping any node
// already numbered so shared nodes are counted once.
func enumerate(n *ast.Node, nodes *[]*ast.Node, tags *[]string, tagSeen map[string]bool) {
	for _, b := range n.Branches {
		if !b.IsExportable() {
			enumerate(b, nodes, tags, tagSeen)
			continue
		}
		if b.ID != -1 {
			continue
		}
		b.ID = len(*nodes)
		*nodes = append(*nodes, b)
		b.NodeTypeEnum = computeNodeTypeEnum(b)
		if !tagSeen[b.NodeTypeEnum] {
			tagSeen[b.NodeTypeEnum] = true
			*tags = append(*tags, b.NodeTypeEnum)
		}
		enumerate(b, nodes, tags, tagSeen)
	}
}

func computeNodeTypeEnum(n *ast.Node) string {
	switch n.Kind {
	case ast.KindProduction:
		return "NT_" + strings.ToUpper(strings.ReplaceAll(n.Text, "-", "_"))
	case ast.KindStrLit, ast.KindRegex:
		// Bare-identifier text is checked before the operator-label table
		// (spec.md 4.8), which only matters for "-" and "--": both are bare
		// identifiers per token.IsIdent AND operator-label entries
		// (MINUS/MINUSMINUS). The bare-identifier branch wins for those,
		// per the spec's literal order.
		if token.IsIdent(n.Text) {
			return "NT_TERMINAL_" + strings.ToUpper(n.Text)
		}
		if label, ok := operatorLabels[n.Text]; ok {
			return "NT_TERMINAL_" + label
		}
		return fmt.Sprintf("NT_TERMINAL_%d", n.ID)
	default:
		return ast.GenericNodeTypeEnum
	}
}

type layoutState struct {
	prods map[string]*ast.Node
}

// nameAndLayout is the second DFS: assign export_ident and branches_ix in
// pre-order, again skipping any node already named, and append each newly
// laid-out node's resolved branch slots to the flat array as it goes.
func (l *layoutState) nameAndLayout(n *ast.Node, branches *[]int) {
	for _, b := range n.Branches {
		if !b.IsExportable() {
			l.nameAndLayout(b, branches)
			continue
		}
		if b.ExportIdent != "" {
			continue
		}
		b.ExportIdent = computeExportIdent(b)
		if len(b.Branches) > 0 {
			b.BranchesIx = len(*branches)
			binary := isBinaryMatchKind(b.Kind)
			for _, child := range b.Branches {
				*branches = append(*branches, l.resolveSlot(child, binary))
			}
		}
		l.nameAndLayout(b, branches)
	}
}

func computeExportIdent(n *ast.Node) string {
	switch n.Kind {
	case ast.KindProduction:
		return "production_" + n.Text
	case ast.KindStrLit:
		return fmt.Sprintf("string_terminal_%d", n.ID)
	case ast.KindRegex:
		return fmt.Sprintf("regex_terminal_%d", n.ID)
	case ast.KindAndExpr:
		return fmt.Sprintf("mandatory_expr_%d", n.ID)
	case ast.KindOrExpr:
		return fmt.Sprintf("alternative_expr_%d", n.ID)
	case ast.KindBracketExpr:
		return fmt.Sprintf("optional_expr_%d", n.ID)
	case ast.KindBraceExpr:
		return fmt.Sprintf("optional_repetitive_expr_%d", n.ID)
	default:
		// BinData/BinField*: spec.md's export_ident table omits these
		// kinds outright. Absent direction, they get the same
		// "<role>_terminal_<id>" shape as the other terminal kinds.
		return fmt.Sprintf("binary_terminal_%d", n.ID)
	}
}

func isBinaryMatchKind(k ast.Kind) bool {
	return k == ast.KindBinField || k == ast.KindBinFieldCount || k == ast.KindBinFieldTimes
}

// resolveSlot implements the branch-array write rule from §4.9 step 2.
func (l *layoutState) resolveSlot(child *ast.Node, parentIsBinaryMatch bool) int {
	if child.ID >= 0 {
		return child.ID
	}
	// The only non-exportable kind that can reach here is Ident: every
	// other node kind the parser builds is exportable (§4.6).
	if prod, ok := l.prods[child.Text]; ok {
		return prod.ID
	}
	if parentIsBinaryMatch {
		return -2
	}
	panic(&cerr.SemanticError{Name: child.Text})
}
