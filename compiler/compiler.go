// Package compiler drives the full pipeline (§4) — parse, canonicalize,
// number and lay out, emit — behind a single entry point, the way
// grammar.GrammarBuilder.Build + grammar.Compile is the only thing
// cmd/vartan/compile.go calls. There are no process-globals: the reader
// state, the tree root and the id/branch counters all live in values local
// to one Compile call (the parser's source.Reader, the tree ebnf.Parse
// returns, and layout.Layout's own locals). A Context carries only the
// options, set through functional options exactly as grammar.Compile takes
// grammar.CompileOption.
package compiler

import (
	"errors"
	"io"

	"github.com/ebnfcomp/ebnfcomp/ast"
	"github.com/ebnfcomp/ebnfcomp/canon"
	"github.com/ebnfcomp/ebnfcomp/ebnf"
	"github.com/ebnfcomp/ebnfcomp/emit"
	"github.com/ebnfcomp/ebnfcomp/emit/cemit"
	"github.com/ebnfcomp/ebnfcomp/emit/nasmemit"
	"github.com/ebnfcomp/ebnfcomp/layout"
)

// ErrOutOfMemory is the fixed out-of-memory sentinel. No code path in this
// repository raises it. Compile recovers any error value a pipeline stage
// panics with and returns it as a plain error; cmd/ebnfcomp's main prints
// that error and exits with status 1.
var ErrOutOfMemory = errors.New("compiler: out of memory")

// Context holds the options of one Compile call.
type Context struct {
	stem     string
	assembly bool
	treeDump io.Writer
}

// Option configures a Context.
type Option func(*Context)

// WithAssembly selects the NASM back end in place of the default C back end.
func WithAssembly() Option {
	return func(c *Context) { c.assembly = true }
}

// WithTreeDump makes Compile write a deterministic AST dump to w instead of
// emitting code, mirroring the --tree CLI flag (§6.1).
func WithTreeDump(w io.Writer) Option {
	return func(c *Context) { c.treeDump = w }
}

// Result is the pair of generated files Compile produces, named the way
// §6.4 requires: <stem>.h/<stem>.c for the C back end, <stem>.inc/<stem>.nasm
// for the NASM back end.
type Result struct {
	// HeaderName and SourceName are the output file names for whichever back
	// end ran.
	HeaderName string
	SourceName string
	Header     []byte
	Source     []byte
}

// Compile runs the grammar in src through the full pipeline and returns the
// generated file pair. If a tree dump was requested it returns a nil Result
// and a nil error on success (the AST dump has already been written to the
// configured writer and there is nothing further to emit).
func Compile(src io.Reader, stem string, opts ...Option) (result *Result, retErr error) {
	ctx := &Context{stem: stem}
	for _, opt := range opts {
		opt(ctx)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				panic(rec)
			}
			retErr = err
		}
	}()

	root, prods, err := ebnf.Parse(src)
	if err != nil {
		return nil, err
	}

	canon.Canonicalize(root)

	if ctx.treeDump != nil {
		if err := ast.Dump(ctx.treeDump, root); err != nil {
			return nil, err
		}
		return nil, nil
	}

	laidOut, err := layout.Layout(root, prods)
	if err != nil {
		return nil, err
	}

	rows, err := emit.BuildRows(laidOut)
	if err != nil {
		return nil, err
	}

	if ctx.assembly {
		inc, nasmSrc, err := nasmemit.Generate(stem, laidOut, rows)
		if err != nil {
			return nil, err
		}
		return &Result{
			HeaderName: stem + ".inc",
			SourceName: stem + ".nasm",
			Header:     inc,
			Source:     nasmSrc,
		}, nil
	}

	header, cSrc, err := cemit.Generate(stem, laidOut, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		HeaderName: stem + ".h",
		SourceName: stem + ".c",
		Header:     header,
		Source:     cSrc,
	}, nil
}
