// Package cemit is the C back end (§4.9 "C back end"): a header carrying
// the enumerations, shared type definitions, and extern declarations, and
// an implementation file with the two objects' initializers. It renders
// through text/template with a FuncMap the way driver/template.go's
// genGrammarTemplateFuncs does, building each generated array body by hand
// instead of relying on text/template range formatting, so long tables wrap
// at a fixed width.
package cemit

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ebnfcomp/ebnfcomp/emit"
	"github.com/ebnfcomp/ebnfcomp/layout"
)

const headerTmpl = `#ifndef {{ .guard }}
#define {{ .guard }}

typedef enum {
{{ .nodeTypes }}
} nodetype_t;

typedef enum {
	NC_TERMINAL,
	NC_PRODUCTION,
	NC_MANDATORY,
	NC_ALTERNATIVE,
	NC_OPTIONAL,
	NC_OPTIONAL_REPETITIVE
} nodeclass_t;

typedef enum {
	TT_STRING,
	TT_REGEX,
	TT_BINARY,
	TT_UNDEF
} terminaltype_t;

#define TB_UNDEF  0x00
#define TB_DATA   0x01
#define TB_BYTE   0x02
#define TB_WORD   0x03
#define TB_DWORD  0x04
#define TB_QWORD  0x05
#define TBF_PARAM 0x10
#define TBF_WRITE 0x20

typedef struct {
	nodeclass_t nodeClass;
	nodetype_t nodeType;
	terminaltype_t termType;
	const char *text;
	int numBranches;
	int branches;
} parsingnode_t;

extern const int {{ .stem }}_branches[{{ .branchCount }}];
extern const parsingnode_t {{ .stem }}_parsingTable[{{ .nodeCount }}];

#endif
`

const sourceTmpl = `#include "{{ .stem }}.h"

const int {{ .stem }}_branches[{{ .branchCount }}] = {
{{ .branches }}
};

const parsingnode_t {{ .stem }}_parsingTable[{{ .nodeCount }}] = {
{{ .rows }}
};
`

// Generate renders the header and source file contents for stem.
func Generate(stem string, result *layout.Result, rows []emit.Row) (header []byte, source []byte, err error) {
	data := map[string]interface{}{
		"guard":       strings.ToUpper(stem) + "_H",
		"stem":        stem,
		"nodeCount":   max1(len(rows)),
		"branchCount": max1(len(result.Branches)),
		"nodeTypes":   genNodeTypes(result.Tags),
	}

	h, err := render(headerTmpl, data)
	if err != nil {
		return nil, nil, err
	}

	data["branches"] = genBranches(result.Branches)
	data["rows"] = genRows(rows)
	s, err := render(sourceTmpl, data)
	if err != nil {
		return nil, nil, err
	}
	return h, s, nil
}

func render(tmpl string, data map[string]interface{}) ([]byte, error) {
	t, err := template.New("").Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func genNodeTypes(tags []string) string {
	var b strings.Builder
	for i, tag := range tags {
		sep := ","
		if i == len(tags)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "\t%s%s\n", tag, sep)
	}
	return strings.TrimRight(b.String(), "\n")
}

func genBranches(branches []int) string {
	if len(branches) == 0 {
		return "\t0"
	}
	var b strings.Builder
	for i, v := range branches {
		fmt.Fprintf(&b, "%d, ", v)
		if (i+1)%10 == 0 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), " \n,")
}

func genRows(rows []emit.Row) string {
	if len(rows) == 0 {
		return "\t{ NC_TERMINAL, _NT_GENERIC, TT_UNDEF, 0, 0, -1 }"
	}
	var b strings.Builder
	for _, r := range rows {
		text := "0"
		if r.TermType != emit.TTUndef {
			text = fmt.Sprintf("\"%s\"", cEscape(r.RawBytes))
		}
		fmt.Fprintf(&b, "\t{ %s, %s, %s, %s, %d, %d },\n",
			r.NodeClass, r.NodeTypeEnum, r.TermType, text, r.NumBranches, r.BranchesIx)
	}
	return strings.TrimRight(b.String(), "\n")
}

// max1 keeps generated array sizes at least 1, since a zero-length array
// with a non-empty initializer is invalid in standard C — the empty-grammar
// input (§8 "an empty input ... exits 0") still needs to emit compilable
// files.
func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// cEscape implements the StrLit/Regex/BinData terminal text encoding rule
// (§4.9): quotes and backslashes escaped, and control bytes (below 0x20)
// written as \xHH.
func cEscape(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		switch {
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\':
			b.WriteString(`\\`)
		case c < 0x20:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
