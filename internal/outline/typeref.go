package outline

import (
	"strings"

	"github.com/dartfront/dartfront/pkg/core"
)

// parseTypeRef parses a textual type annotation of the form
// "Name", "prefix.Name", or "Name<Arg, Arg>" with arbitrary nesting.
// Malformed text degrades to a reference carrying the raw text, which the
// resolver will report as not found.
func parseTypeRef(text, uri string, offset int) *core.TypeRef {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '<')
	if open < 0 || !strings.HasSuffix(text, ">") {
		return &core.TypeRef{Name: text, URI: uri, Offset: offset}
	}
	head := strings.TrimSpace(text[:open])
	ref := &core.TypeRef{Name: head, URI: uri, Offset: offset}
	for _, arg := range splitArguments(text[open+1 : len(text)-1]) {
		ref.Arguments = append(ref.Arguments, parseTypeRef(arg, uri, offset))
	}
	return ref
}

// splitArguments splits a type-argument list on commas at nesting depth
// zero.
func splitArguments(text string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, text[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, text[start:])
	}
	return out
}
