package compiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompile_CBackEndDefault(t *testing.T) {
	result, err := Compile(strings.NewReader(`a := 'x' | 'y' .`), "mygrammar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HeaderName != "mygrammar.h" || result.SourceName != "mygrammar.c" {
		t.Fatalf("got %s/%s, want mygrammar.h/mygrammar.c", result.HeaderName, result.SourceName)
	}
	if !strings.Contains(string(result.Header), "#ifndef MYGRAMMAR_H") {
		t.Fatalf("header missing include guard:\n%s", result.Header)
	}
	if !strings.Contains(string(result.Source), `#include "mygrammar.h"`) {
		t.Fatalf("source missing include:\n%s", result.Source)
	}
}

func TestCompile_WithAssembly(t *testing.T) {
	result, err := Compile(strings.NewReader(`a := 'x' .`), "mygrammar", WithAssembly())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HeaderName != "mygrammar.inc" || result.SourceName != "mygrammar.nasm" {
		t.Fatalf("got %s/%s, want mygrammar.inc/mygrammar.nasm", result.HeaderName, result.SourceName)
	}
	if !strings.Contains(string(result.Source), `%include "mygrammar.inc"`) {
		t.Fatalf("source missing %%include:\n%s", result.Source)
	}
}

func TestCompile_WithTreeDumpSkipsEmission(t *testing.T) {
	var buf bytes.Buffer
	result, err := Compile(strings.NewReader(`a := 'x' .`), "mygrammar", WithTreeDump(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("want a nil result when dumping the tree, got %+v", result)
	}
	got := buf.String()
	if !strings.Contains(got, `Production "a"`) || !strings.Contains(got, `StrLit "x"`) {
		t.Fatalf("unexpected tree dump:\n%s", got)
	}
}

func TestCompile_ParseErrorPropagates(t *testing.T) {
	_, err := Compile(strings.NewReader(`a := .`), "mygrammar")
	if err == nil {
		t.Fatal("want a parse error for an empty alternative")
	}
}

func TestCompile_UnresolvedProductionIsSemanticError(t *testing.T) {
	_, err := Compile(strings.NewReader(`a := b .`), "mygrammar")
	if err == nil {
		t.Fatal("want a semantic error for an undeclared production reference")
	}
}

func TestCompile_CanonicalizesSharedLiterals(t *testing.T) {
	result, err := Compile(strings.NewReader(`a := 'x' | 'x' .`), "mygrammar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(string(result.Source), `"x"`) != 1 {
		t.Fatalf("want the two equal StrLit nodes canonicalized to one row, got:\n%s", result.Source)
	}
}
