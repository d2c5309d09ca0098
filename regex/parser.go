// Package regex implements the embedded regular-expression sub-grammar
// (§4.3). It does not build a structural tree — the entire matched text is
// validated for well-formedness and copied verbatim into a single flat
// buffer, which becomes the text of a Regex node. The downstream
// interpreter re-parses that text if it needs to.
package regex

import (
	cerr "github.com/ebnfcomp/ebnfcomp/error"
	"github.com/ebnfcomp/ebnfcomp/source"
)

// maxBodyLen is the 255-byte cap on a regex body; bodies longer than this
// are truncated silently, per §8's documented boundary behavior.
const maxBodyLen = 255

type parser struct {
	r   *source.Reader
	buf []byte
}

// next reads one byte through the parser's reader and records it in the
// verbatim text buffer.
func (p *parser) next() (byte, bool, error) {
	c, eof, err := p.r.Next()
	if err != nil || eof {
		return 0, eof, err
	}
	p.buf = append(p.buf, c)
	return c, false, nil
}

// unread pushes c back and removes it from the tail of the text buffer,
// since it will be re-appended when some later call reads it again.
func (p *parser) unread(c byte) error {
	if err := p.r.Unread(c); err != nil {
		return err
	}
	if n := len(p.buf); n > 0 && p.buf[n-1] == c {
		p.buf = p.buf[:n-1]
	}
	return nil
}

// Parse reads a regular expression body following an opening '/' that the
// caller has already consumed, through (and including) the closing '/',
// which is not included in the returned text.
func Parse(r *source.Reader) (string, error) {
	p := &parser{r: r}
	if err := p.parseOr(); err != nil {
		return "", err
	}

	c, eof, err := p.r.Next()
	if err != nil {
		return "", err
	}
	if eof || c != '/' {
		return "", cerr.ErrUnclosedRegex
	}

	if len(p.buf) == 0 {
		return "", cerr.ErrEmptyRegex
	}
	text := p.buf
	if len(text) > maxBodyLen {
		text = text[:maxBodyLen]
	}
	return string(text), nil
}

// parseOr implements re-or := re-and { '|' re-and }.
func (p *parser) parseOr() error {
	if err := p.parseAnd(); err != nil {
		return err
	}
	for {
		c, eof, err := p.next()
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
		if c != '|' {
			return p.unread(c)
		}
		if err := p.parseAnd(); err != nil {
			return err
		}
	}
}

// parseAnd implements re-and := re-repeat+.
func (p *parser) parseAnd() error {
	n := 0
	for {
		ok, err := p.tryRepeat()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n++
	}
	if n == 0 {
		return cerr.ErrEmptyRegex
	}
	return nil
}

// tryRepeat implements re-repeat := re-base [ '+' | '*' | '?' ]. It reports
// ok=false without consuming input when no re-base is present here.
func (p *parser) tryRepeat() (bool, error) {
	ok, err := p.parseBase()
	if err != nil || !ok {
		return ok, err
	}

	c, eof, err := p.next()
	if err != nil {
		return false, err
	}
	if eof {
		return true, nil
	}
	switch c {
	case '+', '*', '?':
		return true, nil
	default:
		return true, p.unread(c)
	}
}

// parseBase implements re-base := re-cc | re-chr | re-any | '(' re-expr ')'.
func (p *parser) parseBase() (bool, error) {
	c, eof, err := p.next()
	if err != nil {
		return false, err
	}
	if eof {
		return false, nil
	}

	switch c {
	case '|', ')', '/':
		return false, p.unread(c)
	case '.':
		return true, nil
	case '(':
		if err := p.parseOr(); err != nil {
			return false, err
		}
		c2, eof2, err := p.next()
		if err != nil {
			return false, err
		}
		if eof2 || c2 != ')' {
			return false, cerr.ErrUnclosedParen
		}
		return true, nil
	case '[':
		if err := p.parseCharClass(); err != nil {
			return false, err
		}
		return true, nil
	case '\\':
		_, eof2, err := p.next()
		if err != nil {
			return false, err
		}
		if eof2 {
			return false, cerr.ErrUnexpectedEOF
		}
		return true, nil
	case '*', '?', '+':
		return false, cerr.ErrUnexpectedChar
	default:
		return true, nil
	}
}

// parseCharClass implements re-cc := '[' [ '^' ] re-cc-item+ ']', where
// re-cc-item := re-cc-chr [ '-' re-cc-chr ]. The leading '[' has already
// been consumed by parseBase.
func (p *parser) parseCharClass() error {
	c, eof, err := p.next()
	if err != nil {
		return err
	}
	if eof {
		return cerr.ErrInvalidCharClass
	}
	if c == '^' {
		c, eof, err = p.next()
		if err != nil {
			return err
		}
		if eof {
			return cerr.ErrInvalidCharClass
		}
	}

	items := 0
	for {
		if c == ']' {
			if items == 0 {
				return cerr.ErrInvalidCharClass
			}
			return nil
		}

		from, err := p.resolveClassAtom(c)
		if err != nil {
			return err
		}
		items++

		c, eof, err = p.next()
		if err != nil {
			return err
		}
		if eof {
			return cerr.ErrInvalidCharClass
		}
		if c != '-' {
			continue
		}

		c2, eof2, err := p.next()
		if err != nil {
			return err
		}
		if eof2 {
			return cerr.ErrInvalidCharClass
		}
		if c2 == ']' {
			// A trailing '-' immediately before the close is a literal
			// member, not a range, and ends the class.
			items++
			return nil
		}
		to, err := p.resolveClassAtom(c2)
		if err != nil {
			return err
		}
		if to < from {
			return cerr.ErrInvalidCharRange
		}

		c, eof, err = p.next()
		if err != nil {
			return err
		}
		if eof {
			return cerr.ErrInvalidCharClass
		}
	}
}

// resolveClassAtom implements re-cc-chr := '\' <any> | [^\]] for a byte c
// already read by the caller.
func (p *parser) resolveClassAtom(c byte) (byte, error) {
	if c != '\\' {
		return c, nil
	}
	c2, eof, err := p.next()
	if err != nil {
		return 0, err
	}
	if eof {
		return 0, cerr.ErrUnexpectedEOF
	}
	return c2, nil
}
