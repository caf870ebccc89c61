package builder

import (
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// declarationFrame holds the namespace of a declaration under active
// construction. Frames form an explicit parent-linked stack so behavior
// does not depend on the driving parser's own call structure. A frame
// exists only between BeginNestedDeclaration and the Add* call that closes
// it; closing folds the maps into the finished declaration's scopes.
type declarationFrame struct {
	name         string
	parent       *declarationFrame
	members      *core.Scope
	constructors *core.Scope
	unresolved   []*core.TypeRef
}

// BeginNestedDeclaration pushes a frame for a declaration whose members
// are about to be parsed.
func (l *LibraryBuilder) BeginNestedDeclaration(name string) {
	l.ensureConstructing()
	l.frame = &declarationFrame{
		name:         name,
		parent:       l.frame,
		members:      core.NewScope(nil, name),
		constructors: core.NewScope(nil, name+" constructors"),
	}
}

// endNestedDeclaration pops the active frame, asserting the name matches.
// A mismatch is a driver bug, not a user error.
//
// Pending type references are resolved against the closing declaration's
// type variables: a hit binds immediately, a qualified name whose
// qualifier hits a type variable is a not-a-prefix error, and a miss
// forwards the reference to the parent frame. With no type variables in
// scope every pending reference forwards unconditionally. This is how
// type parameters are captured across nesting levels without a pre-pass.
func (l *LibraryBuilder) endNestedDeclaration(name string, typeVariables []*core.TypeVariable) *declarationFrame {
	frame := l.frame
	if frame == nil {
		panic(fmt.Sprintf("library %s: closing declaration %q with no open frame", l.URI, name))
	}
	if frame.name != name {
		panic(fmt.Sprintf("library %s: closing declaration %q, active frame is %q", l.URI, name, frame.name))
	}
	l.frame = frame.parent

	if len(typeVariables) == 0 {
		l.forwardPending(frame.unresolved)
		return frame
	}
	for _, t := range frame.unresolved {
		qualifier, rest, qualified := t.Qualifier()
		head := rest
		if qualified {
			head = qualifier
		}
		tv := findTypeVariable(typeVariables, head)
		if tv == nil {
			l.forwardPending([]*core.TypeRef{t})
			continue
		}
		if qualified {
			l.reportAt(t.URI, t.Offset, len(t.Name), problems.CodeNotAPrefix, problems.SeverityError,
				fmt.Sprintf("type variable %q cannot be used as a prefix", head))
			t.Bind(&core.InvalidType{})
			continue
		}
		t.Bind(&core.TypeVariableType{Variable: tv})
	}
	return frame
}

// forwardPending hands unresolved references to the enclosing frame, or to
// the library's own pending list at the top level.
func (l *LibraryBuilder) forwardPending(refs []*core.TypeRef) {
	if len(refs) == 0 {
		return
	}
	if l.frame != nil {
		l.frame.unresolved = append(l.frame.unresolved, refs...)
		return
	}
	l.unresolved = append(l.unresolved, refs...)
}

// AddType registers a parsed type annotation for deferred resolution in
// the frame under construction.
func (l *LibraryBuilder) AddType(t *core.TypeRef) {
	l.ensureConstructing()
	if l.frame != nil {
		l.frame.unresolved = append(l.frame.unresolved, t)
		return
	}
	l.unresolved = append(l.unresolved, t)
}

func findTypeVariable(typeVariables []*core.TypeVariable, name string) *core.TypeVariable {
	for _, tv := range typeVariables {
		if tv.Name == name {
			return tv
		}
	}
	return nil
}
