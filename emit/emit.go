// Package emit holds the back-end-agnostic half of the emission algorithm
// (§4.9 step 3): deriving each row's nodeClass/termType/raw payload bytes
// from the laid-out DAG. The tag list and the flat branch-index array come
// ready-made from layout.Result. The C and NASM back ends (emit/cemit, emit/nasmemit) each take a []Row and render it
// through their own text/template, the way driver/template.go renders
// *spec.CompiledGrammar through Go source templates.
package emit

import (
	"encoding/hex"
	"fmt"

	"github.com/ebnfcomp/ebnfcomp/ast"
	"github.com/ebnfcomp/ebnfcomp/layout"
)

// Node class tags (§4.9 table).
const (
	NCTerminal           = "NC_TERMINAL"
	NCProduction         = "NC_PRODUCTION"
	NCMandatory          = "NC_MANDATORY"
	NCAlternative        = "NC_ALTERNATIVE"
	NCOptional           = "NC_OPTIONAL"
	NCOptionalRepetitive = "NC_OPTIONAL_REPETITIVE"
)

// Terminal type tags (§4.9 table).
const (
	TTString = "TT_STRING"
	TTRegex  = "TT_REGEX"
	TTBinary = "TT_BINARY"
	TTUndef  = "TT_UNDEF"
)

// Binary-field bit constants (§6.4), shared verbatim by both back ends.
const (
	TBUndef  = 0x00
	TBData   = 0x01
	TBByte   = 0x02
	TBWord   = 0x03
	TBDword  = 0x04
	TBQword  = 0x05
	TBFParam = 0x10
	TBFWrite = 0x20
)

var widthNibble = map[string]byte{
	"BYTE":  TBByte,
	"WORD":  TBWord,
	"DWORD": TBDword,
	"QWORD": TBQword,
}

// Row is one parsing-table entry, in the shape both back ends render.
type Row struct {
	ID           int
	ExportIdent  string
	NodeTypeEnum string
	NodeClass    string
	TermType     string
	// Kind is the originating ast.Kind, carried through so a back end can
	// tell a one-byte BinData payload apart from a BinField* control byte
	// without guessing from RawBytes' length.
	Kind ast.Kind
	// RawBytes is the row's undecorated payload: the literal text bytes for
	// StrLit/Regex, the decoded byte string for BinData, or the single
	// control byte for BinField*. Each back end applies its own escaping.
	RawBytes    []byte
	NumBranches int
	BranchesIx  int
}

// BuildRows derives one Row per node in result.Nodes, preserving id order.
func BuildRows(result *layout.Result) ([]Row, error) {
	rows := make([]Row, len(result.Nodes))
	for i, n := range result.Nodes {
		raw, err := rawBytes(n)
		if err != nil {
			return nil, err
		}
		rows[i] = Row{
			ID:           n.ID,
			ExportIdent:  n.ExportIdent,
			NodeTypeEnum: n.NodeTypeEnum,
			NodeClass:    nodeClass(n.Kind),
			TermType:     termType(n.Kind),
			Kind:         n.Kind,
			RawBytes:     raw,
			NumBranches:  len(n.Branches),
			BranchesIx:   n.BranchesIx,
		}
	}
	return rows, nil
}

func nodeClass(k ast.Kind) string {
	switch k {
	case ast.KindProduction:
		return NCProduction
	case ast.KindAndExpr:
		return NCMandatory
	case ast.KindOrExpr:
		return NCAlternative
	case ast.KindBracketExpr:
		return NCOptional
	case ast.KindBraceExpr:
		return NCOptionalRepetitive
	default:
		// StrLit, Regex, BinData, BinField, BinFieldCount, BinFieldTimes.
		return NCTerminal
	}
}

func termType(k ast.Kind) string {
	switch k {
	case ast.KindStrLit:
		return TTString
	case ast.KindRegex:
		return TTRegex
	case ast.KindBinData, ast.KindBinField, ast.KindBinFieldCount, ast.KindBinFieldTimes:
		return TTBinary
	default:
		return TTUndef
	}
}

func rawBytes(n *ast.Node) ([]byte, error) {
	switch n.Kind {
	case ast.KindStrLit, ast.KindRegex:
		return []byte(n.Text), nil
	case ast.KindBinData:
		b, err := hex.DecodeString(n.Text)
		if err != nil {
			return nil, fmt.Errorf("emit: malformed hex literal %q: %w", n.Text, err)
		}
		return b, nil
	case ast.KindBinField, ast.KindBinFieldCount, ast.KindBinFieldTimes:
		ctl := widthNibble[n.Text]
		if len(n.Branches) > 0 {
			ctl |= TBFParam
		}
		if n.Kind == ast.KindBinFieldCount {
			ctl |= TBFWrite
		}
		return []byte{ctl}, nil
	default:
		return nil, nil
	}
}
