package builder

import (
	"errors"
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
	"github.com/dartfront/dartfront/pkg/uris"
)

// Combinator is one show or hide filter on an import or export directive.
// Combinators apply in source order.
type Combinator struct {
	IsShow bool
	Names  []string
	Offset int
}

// Allows applies a combinator sequence to a name.
func Allows(combinators []Combinator, name string) bool {
	for _, c := range combinators {
		listed := false
		for _, n := range c.Names {
			if n == name {
				listed = true
				break
			}
		}
		if c.IsShow && !listed {
			return false
		}
		if !c.IsShow && listed {
			return false
		}
	}
	return true
}

// Import is a resolved import directive. Target is nil for native
// extensions, which contribute a native path instead of an import edge.
type Import struct {
	URI         string
	Target      *LibraryBuilder
	Prefix      *core.Declaration
	PrefixName  string
	Deferred    bool
	Combinators []Combinator
	Conditions  []uris.Condition
	Offset      int
	NativePath  string
}

// Export is a resolved export directive.
type Export struct {
	URI         string
	Target      *LibraryBuilder
	Combinators []Combinator
	Conditions  []uris.Condition
	Offset      int

	partReported bool
}

// Part is a part directive.
type Part struct {
	URI    string
	Target *LibraryBuilder
	Offset int
}

// ImportSpec carries a parsed import directive.
type ImportSpec struct {
	URI          string
	Conditions   []uris.Condition
	Prefix       string
	Deferred     bool
	Combinators  []Combinator
	Offset       int
	URIOffset    int
	PrefixOffset int
}

// AddImport resolves the directive's effective URI, reads the target
// library, and binds the prefix, if any, through the normal conflict path.
func (l *LibraryBuilder) AddImport(spec ImportSpec) *Import {
	l.ensureConstructing()
	effective := l.effectiveURI(spec.URI, spec.Conditions, spec.URIOffset)

	imp := &Import{
		URI:         effective,
		PrefixName:  spec.Prefix,
		Deferred:    spec.Deferred,
		Combinators: spec.Combinators,
		Conditions:  spec.Conditions,
		Offset:      spec.Offset,
	}

	if uris.IsNative(effective) {
		imp.NativePath = uris.NativePath(effective)
	} else {
		resolved := l.resolveDirectiveURI(effective, spec.URIOffset)
		imp.URI = resolved
		imp.Target = l.reader.Read(resolved, spec.Offset, l, "")
	}

	if spec.Prefix != "" {
		prefix := &core.Declaration{
			Kind:     core.KindPrefix,
			Name:     spec.Prefix,
			URI:      l.fileOrURI(),
			Offset:   spec.PrefixOffset,
			Deferred: spec.Deferred,
			Exports:  core.NewScope(nil, "prefix "+spec.Prefix),
		}
		imp.Prefix = l.bindDeclaration(spec.Prefix, prefix)
	}

	l.imports = append(l.imports, imp)
	return imp
}

// ExportSpec carries a parsed export directive.
type ExportSpec struct {
	URI         string
	Conditions  []uris.Condition
	Combinators []Combinator
	Offset      int
	URIOffset   int
}

// AddExport resolves the directive's effective URI and reads the target.
func (l *LibraryBuilder) AddExport(spec ExportSpec) *Export {
	l.ensureConstructing()
	effective := l.effectiveURI(spec.URI, spec.Conditions, spec.URIOffset)
	resolved := l.resolveDirectiveURI(effective, spec.URIOffset)

	exp := &Export{
		URI:         resolved,
		Target:      l.reader.Read(resolved, spec.Offset, l, ""),
		Combinators: spec.Combinators,
		Conditions:  spec.Conditions,
		Offset:      spec.Offset,
	}
	l.exports = append(l.exports, exp)
	return exp
}

// AddPart resolves a part reference and reads the part's builder. Part
// URIs of libraries under the protected scheme resolve under same-origin
// rules.
func (l *LibraryBuilder) AddPart(uri string, offset, uriOffset int) *Part {
	l.ensureConstructing()
	if uri == "" {
		l.report(problems.CodeMissingURI, problems.SeverityError, "part directive is missing a URI", uriOffset, 1)
		uri = uris.Sentinel("")
	}
	resolved, err := uris.ResolvePart(l.URI, uri)
	if err != nil {
		l.reportInvalidURI(err, uriOffset)
	}
	part := &Part{
		URI:    resolved,
		Target: l.reader.Read(resolved, offset, l, ""),
		Offset: offset,
	}
	l.parts = append(l.parts, part)
	return part
}

// effectiveURI applies conditional directive selection, reporting a
// missing URI literal.
func (l *LibraryBuilder) effectiveURI(uri string, conditions []uris.Condition, uriOffset int) string {
	if uri == "" {
		l.report(problems.CodeMissingURI, problems.SeverityError, "directive is missing a URI", uriOffset, 1)
		return uris.Sentinel("")
	}
	return uris.SelectURI(uri, conditions, l.reader.IsLibrarySupported)
}

// resolveDirectiveURI resolves against the library URI, reporting the
// offending character of an invalid reference.
func (l *LibraryBuilder) resolveDirectiveURI(uri string, uriOffset int) string {
	if uris.IsSentinel(uri) {
		return uri
	}
	resolved, err := uris.Resolve(l.URI, uri)
	if err != nil {
		l.reportInvalidURI(err, uriOffset)
	}
	return resolved
}

func (l *LibraryBuilder) reportInvalidURI(err error, uriOffset int) {
	var invalid *uris.InvalidError
	if errors.As(err, &invalid) {
		l.report(problems.CodeMalformedURI, problems.SeverityError,
			fmt.Sprintf("invalid URI %q", invalid.Text), uriOffset+invalid.Index, 1)
		return
	}
	l.report(problems.CodeMalformedURI, problems.SeverityError, err.Error(), uriOffset, 1)
}
