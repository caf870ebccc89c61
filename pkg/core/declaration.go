package core

// Kind classifies a declaration.
type Kind int

// Declaration kinds.
const (
	KindClass Kind = iota
	KindMixin
	KindEnum
	KindTypedef
	KindField
	KindProcedure
	KindGetter
	KindSetter
	KindConstructor
	KindFactory
	KindPrefix
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMixin:
		return "mixin"
	case KindEnum:
		return "enum"
	case KindTypedef:
		return "typedef"
	case KindField:
		return "field"
	case KindProcedure:
		return "procedure"
	case KindGetter:
		return "getter"
	case KindSetter:
		return "setter"
	case KindConstructor:
		return "constructor"
	case KindFactory:
		return "factory"
	case KindPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// IsTypeDeclaration reports whether the kind introduces a type name.
func (k Kind) IsTypeDeclaration() bool {
	switch k {
	case KindClass, KindMixin, KindEnum, KindTypedef:
		return true
	}
	return false
}

// IsConstructor reports whether the kind names a constructor or factory.
func (k Kind) IsConstructor() bool {
	return k == KindConstructor || k == KindFactory
}

// Modifier is a bit set of declaration modifiers.
type Modifier uint

// Declaration modifiers.
const (
	ModifierFinal Modifier = 1 << iota
	ModifierConst
	ModifierStatic
	ModifierAbstract
	ModifierExternal
)

// Has reports whether all bits of m2 are set.
func (m Modifier) Has(m2 Modifier) bool { return m&m2 == m2 }

// TypeVariable is a declared type parameter.
type TypeVariable struct {
	Name   string
	Offset int
	Bound  *TypeRef
}

// Declaration is a single named entity: a member (field, procedure,
// getter, setter, constructor), a type declaration (class, mixin, enum,
// typedef), or an import prefix. Duplicate-name handling is external to
// the declaration; see Chain.
type Declaration struct {
	Kind      Kind
	Name      string
	URI       string
	Offset    int
	Modifiers Modifier

	Documentation string
	Metadata      []string

	// Type declarations.
	TypeVariables []*TypeVariable
	Supertype     *TypeRef
	Interfaces    []*TypeRef
	Members       *Scope
	Constructors  *Scope

	// True for synthesized mixin-application classes. Several of these
	// may legally share one name.
	IsMixinApplication bool

	// Members and typedefs.
	Type *TypeRef

	// Import prefixes.
	Deferred bool
	Exports  *Scope
}

// IsType reports whether the declaration introduces a type name.
func (d *Declaration) IsType() bool { return d.Kind.IsTypeDeclaration() }

// Constructor returns the constructor or factory registered under the
// given suffix, or nil. The unnamed constructor uses the empty suffix.
func (d *Declaration) Constructor(suffix string) *Declaration {
	if d.Constructors == nil {
		return nil
	}
	return d.Constructors.LookupLocal(suffix)
}
