// Package token implements the lexical helpers layered on top of source.Reader:
// identifiers, string literals, hex literals, and the greedy-then-pushback
// keyword recognizers for TOKEN and the binary-match width keywords.
package token

import (
	"strings"

	cerr "github.com/ebnfcomp/ebnfcomp/error"
	"github.com/ebnfcomp/ebnfcomp/source"
)

const maxIdentLen = 255

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '-'
}

// ScanIdent reads [a-z0-9-]+ greedily, up to 255 bytes. It returns ok=false
// without consuming input if the next byte does not start an identifier.
func ScanIdent(r *source.Reader) (text string, ok bool, err error) {
	var b strings.Builder
	for b.Len() < maxIdentLen {
		c, eof, err := r.Next()
		if err != nil {
			return "", false, err
		}
		if eof {
			break
		}
		if !isIdentByte(c) {
			if err := r.Unread(c); err != nil {
				return "", false, err
			}
			break
		}
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "", false, nil
	}
	return b.String(), true, nil
}

// ScanStringLit reads the body of a string literal whose opening quote byte
// the caller has already consumed. It also consumes the matching closing
// quote; the returned text excludes both quotes.
func ScanStringLit(r *source.Reader, quote byte) (string, error) {
	var b strings.Builder
	for {
		c, eof, err := r.Next()
		if err != nil {
			return "", err
		}
		if eof {
			return "", cerr.ErrUnclosedStringLit
		}
		if c == quote {
			break
		}
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "", cerr.ErrEmptyStringLit
	}
	return b.String(), nil
}

// ScanHexLit reads the digits of a hex literal following the '$' the caller
// has already consumed. The result is lowercased, and a leading '0' is
// prepended if the digit count is odd.
func ScanHexLit(r *source.Reader) (string, error) {
	var b strings.Builder
	for {
		c, eof, err := r.Next()
		if err != nil {
			return "", err
		}
		if eof {
			break
		}
		if !isHexDigit(c) {
			if err := r.Unread(c); err != nil {
				return "", err
			}
			break
		}
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "", cerr.ErrEmptyHexLit
	}
	hex := strings.ToLower(b.String())
	if len(hex)%2 != 0 {
		hex = "0" + hex
	}
	return hex, nil
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// IsIdent reports whether s is non-empty and consists entirely of
// identifier bytes, the test the layout pass uses to decide whether a
// StrLit/Regex terminal's text names its own node_type_enum tag.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

const maxKeywordLen = 5

// TryKeyword greedily reads up to 5 uppercase letters and compares them to
// kw. On a mismatch every byte read (plus the non-uppercase lookahead byte,
// if any) is pushed back so the caller can try the next alternative or fall
// through to ordinary identifier scanning.
func TryKeyword(r *source.Reader, kw string) (bool, error) {
	var buf []byte
	for len(buf) < maxKeywordLen {
		c, eof, err := r.Next()
		if err != nil {
			return false, err
		}
		if eof {
			break
		}
		if c < 'A' || c > 'Z' {
			if err := r.Unread(c); err != nil {
				return false, err
			}
			break
		}
		buf = append(buf, c)
	}
	if string(buf) == kw {
		return true, nil
	}
	for i := len(buf) - 1; i >= 0; i-- {
		if err := r.Unread(buf[i]); err != nil {
			return false, err
		}
	}
	return false, nil
}

// BinaryWidthKeywords lists the four binary-match field widths, longest
// first so DWORD/QWORD are tried before their WORD/BYTE prefixes could ever
// cause ambiguity (they can't in practice, since TryKeyword requires an
// exact match, but trying widest-first keeps a stable scan order).
var BinaryWidthKeywords = []string{"DWORD", "QWORD", "WORD", "BYTE"}

// TryWidthKeyword tries each of BYTE/WORD/DWORD/QWORD in turn.
func TryWidthKeyword(r *source.Reader) (string, bool, error) {
	for _, kw := range BinaryWidthKeywords {
		ok, err := TryKeyword(r, kw)
		if err != nil {
			return "", false, err
		}
		if ok {
			return kw, true, nil
		}
	}
	return "", false, nil
}
