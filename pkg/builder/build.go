package builder

import (
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// BuildFunc materializes one declaration into the downstream intermediate
// representation. coreLibrary is the platform core library, or nil when
// none is configured.
type BuildFunc func(d *core.Declaration, coreLibrary *LibraryBuilder)

// Build walks every declaration, duplicate chains included, oldest to
// newest, invoking the materialization callback. Implementation
// declarations registered during this phase are bound through the normal
// duplicate path and materialized before the phase ends. Afterwards any
// setter colliding with a non-final field is reported as a
// conflicting-member/conflicting-setter pair. Returns the number of
// declarations materialized.
func (l *LibraryBuilder) Build(build BuildFunc, coreLibrary *LibraryBuilder) int {
	if l.state != StateTypesResolved {
		panic(fmt.Sprintf("library %s: building in state %s", l.URI, l.state))
	}
	l.building = true
	count := 0
	l.scope.ForEach(func(_ string, d *core.Declaration, _ bool) {
		build(d, coreLibrary)
		count++
	})
	for len(l.implQueue) > 0 {
		d := l.implQueue[0]
		l.implQueue = l.implQueue[1:]
		build(d, coreLibrary)
		count++
	}
	l.building = false

	l.checkSetterConflicts(l.scope)
	l.scope.ForEach(func(_ string, d *core.Declaration, _ bool) {
		if d.IsType() && d.Members != nil {
			l.checkSetterConflicts(d.Members)
		}
	})

	l.advance(StateTypesResolved, StateBuilt)
	l.scope.Seal()
	l.importScope.Seal()
	l.exportScope.Seal()
	return count
}

// AddImplementationDeclaration registers a declaration synthesized during
// materialization, such as an anonymous mixin-application class. Valid
// only while Build is running.
func (l *LibraryBuilder) AddImplementationDeclaration(d *core.Declaration) *core.Declaration {
	if !l.building {
		panic(fmt.Sprintf("library %s: implementation declaration %q outside the build phase", l.URI, d.Name))
	}
	bound := l.bindDeclaration(d.Name, d)
	l.implQueue = append(l.implQueue, bound)
	return bound
}

// checkSetterConflicts reports each setter whose name collides with a
// non-final field. A getter of the same base name is the setter's partner
// and never conflicts.
func (l *LibraryBuilder) checkSetterConflicts(scope *core.Scope) {
	for _, name := range scope.SetterNames() {
		setter := scope.LocalSetter(name).Head()
		memberChain := scope.Local(name)
		if memberChain == nil {
			continue
		}
		member := memberChain.Head()
		if member.Kind != core.KindField || member.Modifiers.Has(core.ModifierFinal) {
			continue
		}
		l.reportAt(member.URI, member.Offset, len(name), problems.CodeConflictingMember, problems.SeverityError,
			fmt.Sprintf("field %q conflicts with a setter of the same name", name),
			problems.Related{Message: "the conflicting setter", URI: setter.URI, Offset: setter.Offset, Length: len(name)})
		l.reportAt(setter.URI, setter.Offset, len(name), problems.CodeConflictingSetter, problems.SeverityError,
			fmt.Sprintf("setter %q conflicts with the implicit setter of a field", name),
			problems.Related{Message: "the conflicting field", URI: member.URI, Offset: member.Offset, Length: len(name)})
	}
}
