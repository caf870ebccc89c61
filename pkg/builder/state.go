package builder

import "fmt"

// State tracks a library's progress through the construction pipeline.
// States are reached strictly in order and never revisited.
type State int

// Pipeline states.
const (
	StateConstructing State = iota
	StatePartsIncluded
	StateScopesExported
	StateImportsResolved
	StateTypesResolved
	StateBuilt
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StatePartsIncluded:
		return "parts-included"
	case StateScopesExported:
		return "scopes-exported"
	case StateImportsResolved:
		return "imports-resolved"
	case StateTypesResolved:
		return "types-resolved"
	case StateBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// advance moves the builder from one pipeline state to the next. Being in
// any other state means the driving code called phases out of order, which
// is a bug in the driver, not in user input.
func (l *LibraryBuilder) advance(from, to State) {
	if l.state != from {
		panic(fmt.Sprintf("library %s: advancing %s -> %s from state %s",
			l.URI, from, to, l.state))
	}
	l.state = to
}

// ensureConstructing guards the add* surface.
func (l *LibraryBuilder) ensureConstructing() {
	if l.state != StateConstructing {
		panic(fmt.Sprintf("library %s: declaration added in state %s", l.URI, l.state))
	}
}
