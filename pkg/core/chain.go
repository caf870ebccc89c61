package core

// Chain is the ordered set of declarations bound to one name in one scope.
// Collisions are never overwritten: every declaration stays reachable so
// later passes see all definitions. Order is oldest first; the newest
// entry is the lookup head.
type Chain struct {
	decls []*Declaration
}

// NewChain creates a chain holding a single declaration.
func NewChain(d *Declaration) *Chain {
	return &Chain{decls: []*Declaration{d}}
}

// Push appends a newer declaration, making it the lookup head.
func (c *Chain) Push(d *Declaration) {
	c.decls = append(c.decls, d)
}

// Head returns the newest declaration.
func (c *Chain) Head() *Declaration {
	if len(c.decls) == 0 {
		return nil
	}
	return c.decls[len(c.decls)-1]
}

// Oldest returns the first declaration bound to the name.
func (c *Chain) Oldest() *Declaration {
	if len(c.decls) == 0 {
		return nil
	}
	return c.decls[0]
}

// All returns the declarations oldest to newest. The slice is shared;
// callers must not mutate it.
func (c *Chain) All() []*Declaration {
	return c.decls
}

// Len returns the number of declarations on the chain.
func (c *Chain) Len() int {
	return len(c.decls)
}

// Contains reports whether d is already on the chain (by identity).
func (c *Chain) Contains(d *Declaration) bool {
	for _, existing := range c.decls {
		if existing == d {
			return true
		}
	}
	return false
}
