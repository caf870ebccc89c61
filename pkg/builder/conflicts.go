package builder

import (
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// bindDeclaration binds (name, declaration) into the active frame, or the
// library's top-level scope when no frame is open, deciding what a name
// collision means: prefix pairs merge, everything else chains, and the
// chain push reports a duplicate unless the pair is exempt.
//
// Getters and setters of one base name never meet: setters live in their
// own namespace, so a getter/setter (or field/setter) pair coexists
// without a collision here. The setter/field interaction is checked
// separately after materialization.
func (l *LibraryBuilder) bindDeclaration(name string, d *core.Declaration) *core.Declaration {
	target := l.scope
	enclosing := ""
	if l.frame != nil {
		target = l.frame.members
		enclosing = l.frame.name
	}

	if enclosing != "" && name == enclosing && !d.Kind.IsConstructor() {
		l.report(problems.CodeMemberUsesClassName, problems.SeverityError,
			fmt.Sprintf("member %q has the same name as its enclosing declaration", name),
			d.Offset, len(name))
	}

	if d.Kind == core.KindSetter {
		chain := target.LocalSetter(name)
		if chain == nil {
			target.ExtendSetter(name, d)
			return d
		}
		existing := chain.Head()
		chain.Push(d)
		l.reportDuplicate(name, d, existing)
		return d
	}

	chain := target.Local(name)
	if chain == nil {
		target.Extend(name, d)
		return d
	}
	existing := chain.Head()

	if existing.Kind == core.KindPrefix && d.Kind == core.KindPrefix {
		return l.mergePrefixes(name, existing, d)
	}

	chain.Push(d)
	if existing.IsMixinApplication && d.IsMixinApplication {
		// Several synthesized mixin-application classes may share a name.
		return d
	}
	l.reportDuplicate(name, d, existing)
	return d
}

// bindTopLevel re-runs duplicate detection at the library's top level.
// Used when part scopes are merged in after parsing, when frames are gone.
func (l *LibraryBuilder) bindTopLevel(name string, d *core.Declaration, isSetter bool) *core.Declaration {
	if l.frame != nil {
		panic(fmt.Sprintf("library %s: top-level bind with open frame %q", l.URI, l.frame.name))
	}
	if isSetter && d.Kind != core.KindSetter {
		panic(fmt.Sprintf("library %s: non-setter %q in setter namespace", l.URI, name))
	}
	return l.bindDeclaration(name, d)
}

// mergePrefixes unifies two import prefixes sharing one name. A deferred
// prefix must bind uniquely: a deferred/non-deferred pair is always an
// error, whichever came first. The scopes are merged regardless so later
// lookups still see both targets' names.
func (l *LibraryBuilder) mergePrefixes(name string, existing, incoming *core.Declaration) *core.Declaration {
	if existing.Deferred != incoming.Deferred {
		l.report(problems.CodeDuplicatedDeferredPrefix, problems.SeverityError,
			fmt.Sprintf("prefix %q is used by a deferred and a non-deferred import", name),
			incoming.Offset, len(name),
			problems.Related{
				Message: "the other import sharing this prefix",
				URI:     existing.URI,
				Offset:  existing.Offset,
				Length:  len(name),
			})
	}
	if incoming.Exports != nil {
		incoming.Exports.ForEach(func(n string, d *core.Declaration, isSetter bool) {
			if isSetter {
				existing.Exports.ExtendSetter(n, d)
				return
			}
			existing.Exports.Extend(n, d)
		})
	}
	return existing
}

func (l *LibraryBuilder) reportDuplicate(name string, d, existing *core.Declaration) {
	l.reportAt(d.URI, d.Offset, len(name), problems.CodeDuplicatedDeclaration, problems.SeverityError,
		fmt.Sprintf("%q is already declared in this scope", name),
		problems.Related{
			Message: "previous declaration",
			URI:     existing.URI,
			Offset:  existing.Offset,
			Length:  len(name),
		})
}
