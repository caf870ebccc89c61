// Package builder constructs a library's namespace from parser-driven
// declaration events, merges part files, resolves imports and exports,
// binds deferred type references, and hands finished declarations to a
// downstream materialization callback. It is the core of the front end.
package builder

import (
	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// Reader is the loader-side collaborator a builder uses to reach other
// libraries and platform facts.
type Reader interface {
	// Read returns the cached builder for uri, creating it on first use.
	// The returned builder may still be under construction when imports
	// are circular; callers must tolerate any pipeline state.
	Read(uri string, offset int, accessor *LibraryBuilder, fileURI string) *LibraryBuilder

	// CoreURI returns the platform core library URI, or "" when no core
	// library is configured.
	CoreURI() string

	// IsLibrarySupported reports platform support for a dart: library name.
	IsLibrarySupported(name string) bool

	// StrongMode selects strict type well-formedness checking.
	StrongMode() bool

	// Reporter is the single sink for user-visible problems.
	Reporter() problems.Reporter
}

// Access records one reference to a library: who referenced it and where.
type Access struct {
	URI    string
	Offset int
	Length int
}

// ConstructorReference is a parsed reference to a constructor, resolved
// after types.
type ConstructorReference struct {
	Class  string
	Suffix string
	URI    string
	Offset int

	// Target is filled during resolution when the lookup succeeds.
	Target *core.Declaration
}

// LibraryBuilder owns one compilation unit's namespace while it is being
// constructed. One builder exists per distinct resolved URI for the life
// of the process.
type LibraryBuilder struct {
	URI     string
	FileURI string
	Name    string

	PartOfName string
	PartOfURI  string
	hasPartOf  bool

	Documentation string
	Metadata      []string

	state  State
	reader Reader

	importScope *core.Scope
	scope       *core.Scope
	exportScope *core.Scope

	imports         []*Import
	exports         []*Export
	parts           []*Part
	constructorRefs []*ConstructorReference

	frame      *declarationFrame
	unresolved []*core.TypeRef

	// AccessProblem marks a library whose own load failed. Every later
	// reference to the library surfaces this one problem.
	AccessProblem *problems.Problem
	accessors     []Access

	// owner is set when a part file is claimed by its library.
	owner *LibraryBuilder

	building  bool
	implQueue []*core.Declaration
}

// NewLibraryBuilder creates a builder in the CONSTRUCTING state.
func NewLibraryBuilder(uri, fileURI string, reader Reader) *LibraryBuilder {
	l := &LibraryBuilder{
		URI:     uri,
		FileURI: fileURI,
		reader:  reader,
	}
	l.importScope = core.NewScope(nil, "imports of "+uri)
	l.scope = core.NewScope(l.importScope, uri)
	l.exportScope = core.NewScope(nil, "exports of "+uri)
	return l
}

// State returns the pipeline state reached so far.
func (l *LibraryBuilder) State() State { return l.state }

// Scope returns the library's declaration scope. Its parent is the import
// scope.
func (l *LibraryBuilder) Scope() *core.Scope { return l.scope }

// ExportScope returns the library's export scope.
func (l *LibraryBuilder) ExportScope() *core.Scope { return l.exportScope }

// ImportScope returns the scope holding imported names.
func (l *LibraryBuilder) ImportScope() *core.Scope { return l.importScope }

// Imports returns the import directives in source order.
func (l *LibraryBuilder) Imports() []*Import { return l.imports }

// Exports returns the export directives in source order.
func (l *LibraryBuilder) Exports() []*Export { return l.exports }

// Parts returns the part directives in source order.
func (l *LibraryBuilder) Parts() []*Part { return l.parts }

// ConstructorReferences returns the recorded constructor references,
// including those moved here from included parts.
func (l *LibraryBuilder) ConstructorReferences() []*ConstructorReference { return l.constructorRefs }

// IsPart reports whether this unit declared itself a part of some library.
func (l *LibraryBuilder) IsPart() bool { return l.hasPartOf }

// Owner returns the library that claimed this part, or nil.
func (l *LibraryBuilder) Owner() *LibraryBuilder { return l.owner }

// IsSynthetic reports whether the library failed to load and exists only
// to carry its access problem.
func (l *LibraryBuilder) IsSynthetic() bool { return l.AccessProblem != nil }

// Accessors returns every recorded reference to this library.
func (l *LibraryBuilder) Accessors() []Access { return l.accessors }

// RecordAccess notes a reference to this library for access-problem
// propagation.
func (l *LibraryBuilder) RecordAccess(uri string, offset, length int) {
	l.accessors = append(l.accessors, Access{URI: uri, Offset: offset, Length: length})
}

// SetAccessProblem marks the library synthetic. The first problem wins.
func (l *LibraryBuilder) SetAccessProblem(p problems.Problem) {
	if l.AccessProblem == nil {
		l.AccessProblem = &p
	}
}

// SetName records the library directive's name.
func (l *LibraryBuilder) SetName(name string) {
	l.ensureConstructing()
	l.Name = name
}

// SetPartOf records a part-of directive. The URI form is resolved against
// the part's own URI so later identity checks compare resolved values.
func (l *LibraryBuilder) SetPartOf(name, uri string) {
	l.ensureConstructing()
	l.PartOfName = name
	l.PartOfURI = uri
	l.hasPartOf = name != "" || uri != ""
}

// SetDocumentation records the library documentation comment.
func (l *LibraryBuilder) SetDocumentation(doc string) {
	l.ensureConstructing()
	l.Documentation = doc
}

// AddMetadata records a metadata annotation on the library directive.
func (l *LibraryBuilder) AddMetadata(annotation string) {
	l.ensureConstructing()
	l.Metadata = append(l.Metadata, annotation)
}

// AddConstructorReference records a constructor reference for resolution
// after types are bound.
func (l *LibraryBuilder) AddConstructorReference(class, suffix string, offset int) {
	l.ensureConstructing()
	l.constructorRefs = append(l.constructorRefs, &ConstructorReference{
		Class:  class,
		Suffix: suffix,
		URI:    l.fileOrURI(),
		Offset: offset,
	})
}

// fileOrURI returns the best location URI for diagnostics.
func (l *LibraryBuilder) fileOrURI() string {
	if l.FileURI != "" {
		return l.FileURI
	}
	return l.URI
}

func (l *LibraryBuilder) report(code problems.Code, severity problems.Severity, message string, offset, length int, context ...problems.Related) {
	l.reportAt(l.fileOrURI(), offset, length, code, severity, message, context...)
}

func (l *LibraryBuilder) reportAt(uri string, offset, length int, code problems.Code, severity problems.Severity, message string, context ...problems.Related) {
	l.reader.Reporter().Report(problems.Problem{
		Code:     code,
		Severity: severity,
		Message:  message,
		URI:      uri,
		Offset:   offset,
		Length:   length,
		Context:  context,
	})
}
