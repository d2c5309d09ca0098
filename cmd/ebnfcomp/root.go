package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ebnfcomp/ebnfcomp/compiler"
)

var flags = struct {
	tree *bool
	asm  *bool
}{}

var rootCmd = &cobra.Command{
	Use:   "ebnfcomp <file-stem>",
	Short: "Compile an EBNF grammar into a table-driven parsing specification",
	Long: `ebnfcomp reads a grammar in a variant of EBNF from standard input and
emits a table-driven parsing specification, as a C source/header pair or a
NASM assembly source/include pair, under the given file-stem.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

func init() {
	flags.tree = rootCmd.Flags().BoolP("tree", "t", false, "dump the parsed AST to stdout and exit")
	flags.asm = rootCmd.Flags().BoolP("asm", "a", false, "emit a NASM assembly source/include pair instead of C")
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if *flags.tree {
		return compileTree(os.Stdin, os.Stdout)
	}

	if len(args) == 0 {
		return fmt.Errorf("a file-stem argument is required")
	}
	return compileCode(os.Stdin, args[0], *flags.asm)
}

func compileTree(src io.Reader, out io.Writer) error {
	_, err := compiler.Compile(src, "", compiler.WithTreeDump(out))
	return err
}

func compileCode(src io.Reader, stem string, asm bool) error {
	var opts []compiler.Option
	if asm {
		opts = append(opts, compiler.WithAssembly())
	}

	result, err := compiler.Compile(src, stem, opts...)
	if err != nil {
		return err
	}

	if err := writeGeneratedFile(result.HeaderName, result.Header); err != nil {
		return fmt.Errorf("cannot write %s: %w", result.HeaderName, err)
	}
	if err := writeGeneratedFile(result.SourceName, result.Source); err != nil {
		return fmt.Errorf("cannot write %s: %w", result.SourceName, err)
	}
	return nil
}

func writeGeneratedFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
