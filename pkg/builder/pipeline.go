package builder

import (
	"fmt"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// IncludeParts merges every declared part into this library: the part's
// declarations re-run duplicate detection against this library's scope,
// its pending types and constructor references move here, and its scope is
// reparented onto this library. partsUsed is the program-wide claim map;
// the first claimant of a part wins.
func (l *LibraryBuilder) IncludeParts(partsUsed map[string]*LibraryBuilder) {
	l.advance(StateConstructing, StatePartsIncluded)
	if l.frame != nil {
		panic(fmt.Sprintf("library %s: including parts with open frame %q", l.URI, l.frame.name))
	}
	for _, part := range l.parts {
		l.includePart(part, partsUsed)
	}
}

func (l *LibraryBuilder) includePart(part *Part, partsUsed map[string]*LibraryBuilder) {
	target := part.Target
	if target == nil {
		return
	}
	if target == l {
		l.report(problems.CodePartSelf, problems.SeverityError,
			"a library cannot be a part of itself", part.Offset, 1)
		return
	}
	if owner, claimed := partsUsed[target.URI]; claimed {
		if owner == l {
			l.report(problems.CodePartRepeated, problems.SeverityError,
				fmt.Sprintf("part %q is included more than once", target.URI), part.Offset, 1)
		} else {
			l.report(problems.CodePartOfTwoLibraries, problems.SeverityError,
				fmt.Sprintf("part %q is already used by library %q", target.URI, owner.URI),
				part.Offset, 1,
				problems.Related{Message: "the library that used the part first", URI: owner.fileOrURI()})
		}
		return
	}
	partsUsed[target.URI] = l
	target.owner = l

	switch {
	case !target.IsPart():
		l.report(problems.CodePartOfMissing, problems.SeverityError,
			fmt.Sprintf("%q has no part-of directive", target.URI), part.Offset, 1)
	case !l.partOfMatches(target):
		l.report(problems.CodePartOfMismatch, problems.SeverityWarning,
			fmt.Sprintf("part-of of %q does not name this library", target.URI), part.Offset, 1)
	}

	// Inclusion proceeds even on a part-of mismatch: re-bind every
	// declaration, covering full shadow chains.
	target.scope.ForEach(func(name string, d *core.Declaration, isSetter bool) {
		l.bindTopLevel(name, d, isSetter)
	})
	l.unresolved = append(l.unresolved, target.unresolved...)
	target.unresolved = nil
	l.constructorRefs = append(l.constructorRefs, target.constructorRefs...)
	target.constructorRefs = nil
	target.scope.SetParent(l.scope)
}

// partOfMatches checks the part-of identity against this library's name
// and URI.
func (l *LibraryBuilder) partOfMatches(part *LibraryBuilder) bool {
	if part.PartOfName != "" && part.PartOfName == l.Name {
		return true
	}
	if part.PartOfURI != "" && (part.PartOfURI == l.URI || part.PartOfURI == l.FileURI) {
		return true
	}
	return false
}

// BuildInitialScopes exports every top-level declaration into the export
// scope. Import prefixes stay out: they are import artifacts, not part of
// the library's public namespace.
func (l *LibraryBuilder) BuildInitialScopes() {
	l.advance(StatePartsIncluded, StateScopesExported)
	l.scope.ForEach(func(name string, d *core.Declaration, isSetter bool) {
		if d.Kind == core.KindPrefix {
			return
		}
		if isSetter {
			l.exportScope.ExtendSetter(name, d)
			return
		}
		l.exportScope.Extend(name, d)
	})
}

// ApplyExports merges each export directive's target export scope into
// this library's export scope, filtered by combinators. The loader calls
// this until no library's export scope changes, so re-exports propagate
// across any number of hops. Returns whether anything was added.
func (l *LibraryBuilder) ApplyExports() bool {
	if l.state != StateScopesExported {
		panic(fmt.Sprintf("library %s: applying exports in state %s", l.URI, l.state))
	}
	changed := false
	for _, exp := range l.exports {
		if exp.Target == nil {
			continue
		}
		if exp.Target.IsPart() && !exp.partReported {
			exp.partReported = true
			l.report(problems.CodeExportOfPart, problems.SeverityError,
				fmt.Sprintf("%q is a part and cannot be exported", exp.URI), exp.Offset, 1)
		}
		exp.Target.exportScope.ForEach(func(name string, d *core.Declaration, isSetter bool) {
			if !Allows(exp.Combinators, name) {
				return
			}
			if l.addToExportScope(name, d, isSetter) {
				changed = true
			}
		})
	}
	return changed
}

// addToExportScope adds a re-exported declaration unless it is already on
// the chain, which keeps the export fixpoint terminating.
func (l *LibraryBuilder) addToExportScope(name string, d *core.Declaration, isSetter bool) bool {
	if isSetter {
		if chain := l.exportScope.LocalSetter(name); chain != nil && chain.Contains(d) {
			return false
		}
		l.exportScope.ExtendSetter(name, d)
		return true
	}
	if chain := l.exportScope.Local(name); chain != nil && chain.Contains(d) {
		return false
	}
	l.exportScope.Extend(name, d)
	return true
}

// AddImportsToScope pulls every import's exported names into this
// library's import scope, or into the prefix scope for prefixed imports.
// When no import explicitly targets the platform core library and this
// library is not itself the core library, every core export is added
// implicitly.
func (l *LibraryBuilder) AddImportsToScope() {
	l.advance(StateScopesExported, StateImportsResolved)
	coreURI := l.reader.CoreURI()
	explicitCore := false
	for _, imp := range l.imports {
		if imp.Target == nil {
			continue
		}
		if coreURI != "" && imp.URI == coreURI {
			explicitCore = true
		}
		if imp.Target.IsPart() {
			// Reported, but the degenerate scope is still merged.
			l.report(problems.CodeImportOfPart, problems.SeverityError,
				fmt.Sprintf("%q is a part and cannot be imported", imp.URI), imp.Offset, 1)
		}
		dest := l.importScope
		if imp.Prefix != nil {
			dest = imp.Prefix.Exports
		}
		mergeExports(dest, imp.Target, imp.Combinators)
	}
	if coreURI != "" && !explicitCore && l.URI != coreURI {
		if coreLib := l.reader.Read(coreURI, -1, l, ""); coreLib != nil {
			mergeExports(l.importScope, coreLib, nil)
		}
	}
}

// mergeExports copies the target's export scope into dest, applying
// combinators. A declaration reaching dest twice through different routes
// is added once.
func mergeExports(dest *core.Scope, target *LibraryBuilder, combinators []Combinator) {
	target.exportScope.ForEach(func(name string, d *core.Declaration, isSetter bool) {
		if !Allows(combinators, name) {
			return
		}
		if isSetter {
			if chain := dest.LocalSetter(name); chain != nil && chain.Contains(d) {
				return
			}
			dest.ExtendSetter(name, d)
			return
		}
		if chain := dest.Local(name); chain != nil && chain.Contains(d) {
			return
		}
		dest.Extend(name, d)
	})
}
