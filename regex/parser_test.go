package regex

import (
	"strings"
	"testing"

	cerr "github.com/ebnfcomp/ebnfcomp/error"
	"github.com/ebnfcomp/ebnfcomp/source"
)

func parse(t *testing.T, body string) (string, error) {
	t.Helper()
	r := source.NewReader(strings.NewReader(body + "/"))
	return Parse(r)
}

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		caption string
		body    string
	}{
		{"single char", "a"},
		{"concatenation", "abc"},
		{"alternation", "a|b|c"},
		{"repeat star", "a*"},
		{"repeat plus", "a+"},
		{"repeat option", "a?"},
		{"any char", "."},
		{"group", "(ab)+"},
		{"nested group", "(a(b|c))"},
		{"escaped char", `a\.b`},
		{"char class", "[abc]"},
		{"negated char class", "[^abc]"},
		{"char class range", "[a-z]"},
		{"char class trailing dash", "[a-]"},
		{"char class escaped member", `[\]a]`},
	}
	for _, test := range tests {
		t.Run(test.caption, func(t *testing.T) {
			got, err := parse(t, test.body)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.body {
				t.Fatalf("got %q, want %q", got, test.body)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		caption string
		body    string
		want    error
	}{
		{"empty regex", "", cerr.ErrEmptyRegex},
		{"empty group", "()", cerr.ErrEmptyRegex},
		{"unclosed group", "(a", cerr.ErrUnclosedParen},
		{"repeat with no base", "*a", cerr.ErrUnexpectedChar},
		{"double repeat", "a++", cerr.ErrUnexpectedChar},
		{"empty char class", "[]", cerr.ErrInvalidCharClass},
		{"reversed range", "[z-a]", cerr.ErrInvalidCharRange},
	}
	for _, test := range tests {
		t.Run(test.caption, func(t *testing.T) {
			_, err := parse(t, test.body)
			if err != test.want {
				t.Fatalf("got %v, want %v", err, test.want)
			}
		})
	}
}

func TestParse_Truncation(t *testing.T) {
	body := strings.Repeat("a", 300)
	got, err := parse(t, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != maxBodyLen {
		t.Fatalf("got length %d, want %d", len(got), maxBodyLen)
	}
}

func TestParse_UnclosedRegex(t *testing.T) {
	r := source.NewReader(strings.NewReader("abc"))
	_, err := Parse(r)
	if err != cerr.ErrUnclosedRegex {
		t.Fatalf("got %v, want ErrUnclosedRegex", err)
	}
}

func TestParse_IncompleteEscape(t *testing.T) {
	// No trailing '/': the backslash has truly nothing following it.
	r := source.NewReader(strings.NewReader(`a\`))
	_, err := Parse(r)
	if err != cerr.ErrUnexpectedEOF {
		t.Fatalf("got %v, want ErrUnexpectedEOF", err)
	}
}
