package builder

import (
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// ResolveTypes binds every pending type reference against the final scope
// and then resolves constructor references. Returns the number of type
// references resolved by this call; a second call is a no-op returning 0.
func (l *LibraryBuilder) ResolveTypes() int {
	if l.state == StateTypesResolved || l.state == StateBuilt {
		return 0
	}
	l.advance(StateImportsResolved, StateTypesResolved)
	count := 0
	for _, t := range l.unresolved {
		if t.IsResolved() {
			continue
		}
		l.resolveType(t)
		count++
	}
	l.unresolved = nil
	for _, ref := range l.constructorRefs {
		l.resolveConstructorReference(ref)
	}
	return count
}

func (l *LibraryBuilder) resolveType(t *core.TypeRef) {
	qualifier, rest, qualified := t.Qualifier()

	var d *core.Declaration
	if qualified {
		p := l.scope.Lookup(qualifier)
		if p == nil {
			l.reportAt(t.URI, t.Offset, len(t.Name), problems.CodeTypeNotFound, problems.SeverityError,
				fmt.Sprintf("type %q not found", t.Name))
			t.Bind(&core.InvalidType{})
			return
		}
		if p.Kind != core.KindPrefix {
			l.reportAt(t.URI, t.Offset, len(qualifier), problems.CodeNotAPrefix, problems.SeverityError,
				fmt.Sprintf("%q is not an import prefix", qualifier))
			t.Bind(&core.InvalidType{})
			return
		}
		d = p.Exports.Lookup(rest)
	} else {
		if rest == "void" || rest == "dynamic" {
			t.Bind(&core.BuiltinType{Name: rest})
			return
		}
		d = l.scope.Lookup(rest)
	}

	if d == nil {
		l.reportAt(t.URI, t.Offset, len(t.Name), problems.CodeTypeNotFound, problems.SeverityError,
			fmt.Sprintf("type %q not found", t.Name))
		t.Bind(&core.InvalidType{})
		return
	}
	if !d.IsType() {
		l.reportAt(t.URI, t.Offset, len(t.Name), problems.CodeNotAType, problems.SeverityError,
			fmt.Sprintf("%q is a %s, not a type", t.Name, d.Kind))
		t.Bind(&core.InvalidType{})
		return
	}

	args := l.resolveArguments(t)
	if len(t.Arguments) != 0 && len(t.Arguments) != len(d.TypeVariables) {
		if l.reader.StrongMode() {
			l.reportAt(t.URI, t.Offset, len(t.Name), problems.CodeTypeArgumentMismatch, problems.SeverityError,
				fmt.Sprintf("%q expects %d type arguments, got %d", t.Name, len(d.TypeVariables), len(t.Arguments)))
		} else {
			// Legacy normalization drops a mismatched argument list.
			args = nil
		}
	}
	t.Bind(&core.NamedType{Declaration: d, Arguments: args})
}

// resolveArguments resolves nested argument references. Arguments are
// usually also on the pending list; resolving here first simply makes the
// later visit a no-op.
func (l *LibraryBuilder) resolveArguments(t *core.TypeRef) []core.Type {
	if len(t.Arguments) == 0 {
		return nil
	}
	args := make([]core.Type, len(t.Arguments))
	for i, arg := range t.Arguments {
		if !arg.IsResolved() {
			l.resolveType(arg)
		}
		args[i] = arg.Resolved()
	}
	return args
}

func (l *LibraryBuilder) resolveConstructorReference(ref *ConstructorReference) {
	display := ref.Class
	if ref.Suffix != "" {
		display = ref.Class + "." + ref.Suffix
	}
	d := l.scope.Lookup(ref.Class)
	if d == nil || !d.IsType() {
		l.reportAt(ref.URI, ref.Offset, len(display), problems.CodeConstructorNotFound, problems.SeverityError,
			fmt.Sprintf("constructor %q not found: %q does not resolve to a type", display, ref.Class))
		return
	}
	ctor := d.Constructor(ref.Suffix)
	if ctor == nil {
		l.reportAt(ref.URI, ref.Offset, len(display), problems.CodeConstructorNotFound, problems.SeverityError,
			fmt.Sprintf("type %q has no constructor %q", ref.Class, ref.Suffix))
		return
	}
	ref.Target = ctor
}
