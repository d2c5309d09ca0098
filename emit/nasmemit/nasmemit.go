// Package nasmemit is the NASM back end (§4.9 "NASM back end"): an include
// file with the equ enumeration and a parsingnode struc, and a source file
// declaring the branch array and parsing table in a read-only data section.
// Terminal text is written quote-safe — single-quoted, double-quoted, or
// comma-separated hex, whichever the body doesn't itself contain — the same
// decision NASM's own string-literal syntax forces on any assembler emitting
// arbitrary bytes as source text.
package nasmemit

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ebnfcomp/ebnfcomp/ast"
	"github.com/ebnfcomp/ebnfcomp/emit"
	"github.com/ebnfcomp/ebnfcomp/layout"
)

const incTmpl = `; Code generated by ebnfcomp. DO NOT EDIT.

%define _NT_GENERIC 0
{{ .nodeTypeEqus }}

NC_TERMINAL             equ 0
NC_PRODUCTION            equ 1
NC_MANDATORY             equ 2
NC_ALTERNATIVE           equ 3
NC_OPTIONAL              equ 4
NC_OPTIONAL_REPETITIVE   equ 5

TT_STRING equ 0
TT_REGEX  equ 1
TT_BINARY equ 2
TT_UNDEF  equ 3

TB_UNDEF  equ 0x00
TB_DATA   equ 0x01
TB_BYTE   equ 0x02
TB_WORD   equ 0x03
TB_DWORD  equ 0x04
TB_QWORD  equ 0x05
TBF_PARAM equ 0x10
TBF_WRITE equ 0x20

struc parsingnode
	.nodeClass:   resd 1
	.nodeType:    resd 1
	.termType:    resd 1
	.text:        resd 1
	.numBranches: resd 1
	.branches:    resd 1
endstruc

extern {{ .stem }}_branches
extern {{ .stem }}_parsingTable
`

const srcTmpl = `; Code generated by ebnfcomp. DO NOT EDIT.
%include "{{ .stem }}.inc"

section .rodata

{{ .termData }}
{{ .stem }}_branches:
	dd {{ .branches }}

{{ .stem }}_parsingTable:
{{ .rows }}
`

// Generate renders the include and source file contents for stem.
func Generate(stem string, result *layout.Result, rows []emit.Row) (inc []byte, src []byte, err error) {
	incData := map[string]interface{}{
		"stem":         stem,
		"nodeTypeEqus": genNodeTypeEqus(result.Tags),
	}
	incBytes, err := render(incTmpl, incData)
	if err != nil {
		return nil, nil, err
	}

	termData, termLabels := genTermData(stem, rows)
	srcData := map[string]interface{}{
		"stem":     stem,
		"termData": termData,
		"branches": genBranches(result.Branches),
		"rows":     genRows(rows, termLabels),
	}
	srcBytes, err := render(srcTmpl, srcData)
	if err != nil {
		return nil, nil, err
	}
	return incBytes, srcBytes, nil
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

func genNodeTypeEqus(tags []string) string {
	var b strings.Builder
	for i, tag := range tags {
		if tag == "_NT_GENERIC" {
			continue
		}
		fmt.Fprintf(&b, "%s equ %d\n", tag, i)
	}
	return strings.TrimRight(b.String(), "\n")
}

func genBranches(branches []int) string {
	if len(branches) == 0 {
		return "0"
	}
	parts := make([]string, len(branches))
	for i, v := range branches {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

// genTermData declares one label per terminal row holding its quote-safe
// encoded byte data, and returns the label name for each row index (empty
// for non-terminal rows).
func genTermData(stem string, rows []emit.Row) (string, []string) {
	var b strings.Builder
	labels := make([]string, len(rows))
	for i, r := range rows {
		if r.TermType == emit.TTUndef {
			continue
		}
		label := fmt.Sprintf("%s_t%d", stem, r.ID)
		labels[i] = label
		fmt.Fprintf(&b, "%s:\n\tdb %s\n", label, encodeTermBytes(r))
	}
	return strings.TrimRight(b.String(), "\n"), labels
}

func encodeTermBytes(r emit.Row) string {
	switch {
	case r.Kind == ast.KindBinData:
		return fmt.Sprintf("TB_DATA, %d%s", len(r.RawBytes), commaHexSuffix(r.RawBytes))
	case r.TermType == emit.TTBinary:
		// BinField*: a single already-encoded control byte.
		return fmt.Sprintf("0x%02x", r.RawBytes[0])
	default:
		return quoteSafe(r.RawBytes)
	}
}

func commaHexSuffix(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range raw {
		fmt.Fprintf(&b, ", 0x%02x", c)
	}
	return b.String()
}

// quoteSafe picks single-quoted, double-quoted, or comma-separated hex for
// raw, whichever NASM string-literal style raw's bytes don't defeat.
func quoteSafe(raw []byte) string {
	s := string(raw)
	switch {
	case !strings.ContainsRune(s, '\''):
		return "'" + s + "'"
	case !strings.ContainsRune(s, '"'):
		return `"` + s + `"`
	default:
		if len(raw) == 0 {
			return "0"
		}
		parts := make([]string, len(raw))
		for i, c := range raw {
			parts[i] = fmt.Sprintf("0x%02x", c)
		}
		return strings.Join(parts, ", ")
	}
}

func genRows(rows []emit.Row, labels []string) string {
	if len(rows) == 0 {
		return "\tistruc parsingnode\n\tat parsingnode.nodeClass, dd NC_TERMINAL\n\tat parsingnode.nodeType, dd _NT_GENERIC\n\tat parsingnode.termType, dd TT_UNDEF\n\tat parsingnode.text, dd 0\n\tat parsingnode.numBranches, dd 0\n\tat parsingnode.branches, dd -1\n\tiend"
	}
	var b strings.Builder
	for i, r := range rows {
		textRef := "0"
		if labels[i] != "" {
			textRef = labels[i]
		}
		fmt.Fprintf(&b, "\tistruc parsingnode\n")
		fmt.Fprintf(&b, "\tat parsingnode.nodeClass, dd %s\n", r.NodeClass)
		fmt.Fprintf(&b, "\tat parsingnode.nodeType, dd %s\n", r.NodeTypeEnum)
		fmt.Fprintf(&b, "\tat parsingnode.termType, dd %s\n", r.TermType)
		fmt.Fprintf(&b, "\tat parsingnode.text, dd %s\n", textRef)
		fmt.Fprintf(&b, "\tat parsingnode.numBranches, dd %d\n", r.NumBranches)
		fmt.Fprintf(&b, "\tat parsingnode.branches, dd %d\n", r.BranchesIx)
		b.WriteString("\tiend\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
