package core

import (
	"fmt"
	"sort"
)

// Scope maps names to declaration chains, with setters held apart from
// members and getters, and an optional parent consulted on lookup misses.
type Scope struct {
	members map[string]*Chain
	setters map[string]*Chain
	parent  *Scope
	label   string

	modifiable bool
}

// NewScope creates an empty modifiable scope.
func NewScope(parent *Scope, label string) *Scope {
	return &Scope{
		members:    make(map[string]*Chain),
		setters:    make(map[string]*Chain),
		parent:     parent,
		label:      label,
		modifiable: true,
	}
}

// Label returns the debug label given at construction.
func (s *Scope) Label() string { return s.label }

// Parent returns the enclosing scope, or nil.
func (s *Scope) Parent() *Scope { return s.parent }

// SetParent rewires the enclosing scope. Used when a part file's scope is
// folded into its owning library.
func (s *Scope) SetParent(parent *Scope) { s.parent = parent }

// Seal makes the scope immutable. Further binds are driver bugs.
func (s *Scope) Seal() { s.modifiable = false }

func (s *Scope) checkModifiable() {
	if !s.modifiable {
		panic(fmt.Sprintf("bind into sealed scope %q", s.label))
	}
}

// Extend appends d to the chain for name, creating the chain on first
// bind, and returns the chain. The previous head stays reachable.
func (s *Scope) Extend(name string, d *Declaration) *Chain {
	s.checkModifiable()
	if chain, ok := s.members[name]; ok {
		chain.Push(d)
		return chain
	}
	chain := NewChain(d)
	s.members[name] = chain
	return chain
}

// ExtendSetter is Extend for the setter namespace.
func (s *Scope) ExtendSetter(name string, d *Declaration) *Chain {
	s.checkModifiable()
	if chain, ok := s.setters[name]; ok {
		chain.Push(d)
		return chain
	}
	chain := NewChain(d)
	s.setters[name] = chain
	return chain
}

// Local returns the local member chain for name, or nil.
func (s *Scope) Local(name string) *Chain { return s.members[name] }

// LocalSetter returns the local setter chain for name, or nil.
func (s *Scope) LocalSetter(name string) *Chain { return s.setters[name] }

// LookupLocal returns the newest local member bound to name, or nil.
func (s *Scope) LookupLocal(name string) *Declaration {
	if chain, ok := s.members[name]; ok {
		return chain.Head()
	}
	return nil
}

// Lookup returns the newest member bound to name, walking parents.
func (s *Scope) Lookup(name string) *Declaration {
	for scope := s; scope != nil; scope = scope.parent {
		if d := scope.LookupLocal(name); d != nil {
			return d
		}
	}
	return nil
}

// LookupSetter returns the newest setter bound to name, walking parents.
func (s *Scope) LookupSetter(name string) *Declaration {
	for scope := s; scope != nil; scope = scope.parent {
		if chain, ok := scope.setters[name]; ok {
			return chain.Head()
		}
	}
	return nil
}

// Names returns the local member names, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.members))
	for name := range s.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetterNames returns the local setter names, sorted.
func (s *Scope) SetterNames() []string {
	names := make([]string, 0, len(s.setters))
	for name := range s.setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForEach visits every local binding in deterministic name order, members
// before setters. The walk covers full chains, oldest to newest.
func (s *Scope) ForEach(fn func(name string, d *Declaration, isSetter bool)) {
	for _, name := range s.Names() {
		for _, d := range s.members[name].All() {
			fn(name, d, false)
		}
	}
	for _, name := range s.SetterNames() {
		for _, d := range s.setters[name].All() {
			fn(name, d, true)
		}
	}
}

// LocalCount returns the number of local bindings including chained
// duplicates.
func (s *Scope) LocalCount() int {
	n := 0
	for _, chain := range s.members {
		n += chain.Len()
	}
	for _, chain := range s.setters {
		n += chain.Len()
	}
	return n
}
