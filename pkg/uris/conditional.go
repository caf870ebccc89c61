package uris

import "strings"

// libraryPrefix is the namespace conditional directives test against.
const libraryPrefix = "dart.library."

// Condition is one branch of a conditional import or export directive.
// An empty Value means the source omitted the comparison, which reads as
// a comparison against "true".
type Condition struct {
	DottedName string
	Value      string
	URI        string
}

// SelectURI picks the effective target of a conditional directive. The
// first condition whose dotted name evaluates to its expected value wins;
// otherwise the nominal URI stands.
//
// The predicate is a two-valued string comparison, not a boolean: a
// supported library evaluates to "true" and anything else to "". The
// comparison must stay literal — an expected value of "false" never
// matches, even for unsupported libraries.
func SelectURI(nominal string, conditions []Condition, supported func(name string) bool) string {
	for _, cond := range conditions {
		actual := ""
		if name, ok := strings.CutPrefix(cond.DottedName, libraryPrefix); ok {
			if supported != nil && supported(name) {
				actual = "true"
			}
		}
		expected := cond.Value
		if expected == "" {
			expected = "true"
		}
		if actual == expected {
			return cond.URI
		}
	}
	return nominal
}
