package problems

// Code identifies a class of problem independently of its message text.
type Code string

// URI and directive problems.
const (
	CodeMissingURI   Code = "missing-uri"
	CodeMalformedURI Code = "malformed-uri"
	CodeImportOfPart Code = "import-of-part"
	CodeExportOfPart Code = "export-of-part"
)

// Declaration conflicts.
const (
	CodeDuplicatedDeclaration    Code = "duplicated-declaration"
	CodeDuplicatedDeferredPrefix Code = "duplicated-deferred-prefix"
	CodeMemberUsesClassName      Code = "member-uses-class-name"
	CodeConstructorNameMismatch  Code = "constructor-name-mismatch"
	CodeConflictingMember        Code = "conflicting-member"
	CodeConflictingSetter        Code = "conflicting-setter"
)

// Part-file topology.
const (
	CodePartSelf           Code = "part-of-self"
	CodePartRepeated       Code = "part-repeated"
	CodePartOfTwoLibraries Code = "part-of-two-libraries"
	CodePartOfMissing      Code = "missing-part-of"
	CodePartOfMismatch     Code = "part-of-mismatch"
	CodePartOrphaned       Code = "orphaned-part"
)

// Type resolution.
const (
	CodeTypeNotFound         Code = "type-not-found"
	CodeNotAType             Code = "not-a-type"
	CodeNotAPrefix           Code = "not-a-prefix"
	CodeTypeArgumentMismatch Code = "type-argument-mismatch"
	CodeConstructorNotFound  Code = "constructor-not-found"
)

// Loading.
const (
	CodeAccessError Code = "access-error"
)
