package core

import "strings"

// Type is a resolved type.
type Type interface {
	typeNode()
	String() string
}

// NamedType refers to a resolved type declaration.
type NamedType struct {
	Declaration *Declaration
	Arguments   []Type
}

func (*NamedType) typeNode() {}

func (t *NamedType) String() string {
	if len(t.Arguments) == 0 {
		return t.Declaration.Name
	}
	parts := make([]string, len(t.Arguments))
	for i, a := range t.Arguments {
		parts[i] = a.String()
	}
	return t.Declaration.Name + "<" + strings.Join(parts, ", ") + ">"
}

// TypeVariableType refers to a type parameter captured from an enclosing
// declaration.
type TypeVariableType struct {
	Variable *TypeVariable
}

func (*TypeVariableType) typeNode() {}

func (t *TypeVariableType) String() string { return t.Variable.Name }

// BuiltinType covers names like void and dynamic that resolve without a
// scope lookup.
type BuiltinType struct {
	Name string
}

func (*BuiltinType) typeNode() {}

func (t *BuiltinType) String() string { return t.Name }

// InvalidType is the placeholder bound when resolution fails. The problem
// has already been reported by the time it appears.
type InvalidType struct{}

func (*InvalidType) typeNode() {}

func (*InvalidType) String() string { return "<invalid>" }

// TypeRef is a parsed type annotation. It starts unresolved and is bound
// in place exactly once, either to the declaration it names or to an
// invalid-type placeholder.
type TypeRef struct {
	Name      string // possibly qualified, "prefix.Name"
	URI       string
	Offset    int
	Arguments []*TypeRef

	resolved Type
}

// Qualifier splits a qualified name, returning the qualifier and the rest.
// ok is false for unqualified names.
func (t *TypeRef) Qualifier() (qualifier, rest string, ok bool) {
	i := strings.IndexByte(t.Name, '.')
	if i < 0 {
		return "", t.Name, false
	}
	return t.Name[:i], t.Name[i+1:], true
}

// IsResolved reports whether the reference has been bound.
func (t *TypeRef) IsResolved() bool { return t.resolved != nil }

// Resolved returns the bound type, or nil while pending.
func (t *TypeRef) Resolved() Type { return t.resolved }

// Bind resolves the reference in place. Binding twice is a driver bug.
func (t *TypeRef) Bind(resolved Type) {
	if t.resolved != nil {
		panic("type reference bound twice: " + t.Name)
	}
	t.resolved = resolved
}
