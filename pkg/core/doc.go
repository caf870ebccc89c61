// Package core holds the shared data model of the front end: declarations,
// duplicate-name chains, scopes, and type references. It carries structure
// only; construction rules and conflict policy live in pkg/builder.
package core
