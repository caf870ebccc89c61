package builder

import (
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// TypeDeclSpec carries the parsed pieces of a class, mixin, or enum
// declaration. The Add* call closes the frame opened by
// BeginNestedDeclaration.
type TypeDeclSpec struct {
	Name          string
	TypeVariables []*core.TypeVariable
	Supertype     *core.TypeRef
	Interfaces    []*core.TypeRef
	Offset        int
	Modifiers     core.Modifier
	Documentation string
	Metadata      []string

	// IsMixinApplication marks a synthesized mixin-application class.
	IsMixinApplication bool
}

// AddClass closes the active frame and binds the finished class.
func (l *LibraryBuilder) AddClass(spec TypeDeclSpec) *core.Declaration {
	return l.addTypeDeclaration(core.KindClass, spec)
}

// AddMixin closes the active frame and binds the finished mixin.
func (l *LibraryBuilder) AddMixin(spec TypeDeclSpec) *core.Declaration {
	return l.addTypeDeclaration(core.KindMixin, spec)
}

func (l *LibraryBuilder) addTypeDeclaration(kind core.Kind, spec TypeDeclSpec) *core.Declaration {
	l.ensureConstructing()
	frame := l.endNestedDeclaration(spec.Name, spec.TypeVariables)
	d := &core.Declaration{
		Kind:               kind,
		Name:               spec.Name,
		URI:                l.fileOrURI(),
		Offset:             spec.Offset,
		Modifiers:          spec.Modifiers,
		Documentation:      spec.Documentation,
		Metadata:           spec.Metadata,
		TypeVariables:      spec.TypeVariables,
		Supertype:          spec.Supertype,
		Interfaces:         spec.Interfaces,
		Members:            frame.members,
		Constructors:       frame.constructors,
		IsMixinApplication: spec.IsMixinApplication,
	}
	frame.members.SetParent(l.scope)
	frame.members.Seal()
	frame.constructors.Seal()
	return l.bindDeclaration(spec.Name, d)
}

// EnumSpec describes an enum declaration. Enums carry no type variables,
// so they need no surrounding frame; the builder folds the values into a
// member scope itself.
type EnumSpec struct {
	Name          string
	Values        []string
	Offset        int
	Documentation string
	Metadata      []string
}

// AddEnum binds an enum declaration whose values become const fields.
func (l *LibraryBuilder) AddEnum(spec EnumSpec) *core.Declaration {
	l.ensureConstructing()
	members := core.NewScope(l.scope, spec.Name)
	for _, value := range spec.Values {
		members.Extend(value, &core.Declaration{
			Kind:      core.KindField,
			Name:      value,
			URI:       l.fileOrURI(),
			Offset:    spec.Offset,
			Modifiers: core.ModifierConst | core.ModifierStatic | core.ModifierFinal,
		})
	}
	members.Seal()
	d := &core.Declaration{
		Kind:          core.KindEnum,
		Name:          spec.Name,
		URI:           l.fileOrURI(),
		Offset:        spec.Offset,
		Documentation: spec.Documentation,
		Metadata:      spec.Metadata,
		Members:       members,
		Constructors:  core.NewScope(nil, spec.Name+" constructors"),
	}
	d.Constructors.Seal()
	return l.bindDeclaration(spec.Name, d)
}

// TypedefSpec describes a typedef declaration.
type TypedefSpec struct {
	Name          string
	TypeVariables []*core.TypeVariable
	Type          *core.TypeRef
	Offset        int
	Documentation string
	Metadata      []string
}

// AddTypedef closes the active frame and binds the finished typedef.
func (l *LibraryBuilder) AddTypedef(spec TypedefSpec) *core.Declaration {
	l.ensureConstructing()
	l.endNestedDeclaration(spec.Name, spec.TypeVariables)
	d := &core.Declaration{
		Kind:          core.KindTypedef,
		Name:          spec.Name,
		URI:           l.fileOrURI(),
		Offset:        spec.Offset,
		Documentation: spec.Documentation,
		Metadata:      spec.Metadata,
		TypeVariables: spec.TypeVariables,
		Type:          spec.Type,
	}
	return l.bindDeclaration(spec.Name, d)
}

// MemberSpec describes a field, procedure, getter, or setter.
type MemberSpec struct {
	Name          string
	Kind          core.Kind
	Type          *core.TypeRef
	Offset        int
	Modifiers     core.Modifier
	Documentation string
	Metadata      []string
}

// AddMember binds a field, procedure, getter, or setter into the active
// frame, or at the top level when no frame is open.
func (l *LibraryBuilder) AddMember(spec MemberSpec) *core.Declaration {
	l.ensureConstructing()
	switch spec.Kind {
	case core.KindField, core.KindProcedure, core.KindGetter, core.KindSetter:
	default:
		panic(fmt.Sprintf("library %s: AddMember with kind %s", l.URI, spec.Kind))
	}
	d := &core.Declaration{
		Kind:          spec.Kind,
		Name:          spec.Name,
		URI:           l.fileOrURI(),
		Offset:        spec.Offset,
		Modifiers:     spec.Modifiers,
		Documentation: spec.Documentation,
		Metadata:      spec.Metadata,
		Type:          spec.Type,
	}
	return l.bindDeclaration(spec.Name, d)
}

// AddConstructor binds a constructor or factory into the active frame.
// A `Class.suffix` name is valid only when the qualifier equals the
// enclosing declaration's name; a mismatch is reported but the entry is
// still recorded under the suffix for recovery. The unnamed constructor
// uses the empty suffix.
func (l *LibraryBuilder) AddConstructor(qualifier, suffix string, factory bool, offset int, modifiers core.Modifier) *core.Declaration {
	l.ensureConstructing()
	if l.frame == nil {
		panic(fmt.Sprintf("library %s: constructor %q outside a declaration", l.URI, qualifier))
	}
	if qualifier != l.frame.name {
		l.report(problems.CodeConstructorNameMismatch, problems.SeverityError,
			fmt.Sprintf("constructor name %q does not match enclosing declaration %q", qualifier, l.frame.name),
			offset, len(qualifier))
	}
	kind := core.KindConstructor
	if factory {
		kind = core.KindFactory
	}
	d := &core.Declaration{
		Kind:      kind,
		Name:      suffix,
		URI:       l.fileOrURI(),
		Offset:    offset,
		Modifiers: modifiers,
	}
	chain := l.frame.constructors.Local(suffix)
	if chain != nil {
		existing := chain.Head()
		chain.Push(d)
		l.reportDuplicate(suffix, d, existing)
		return d
	}
	l.frame.constructors.Extend(suffix, d)
	return d
}
