package loader

// Platform carries the target platform facts consulted during loading.
type Platform struct {
	// CoreLibrary is the URI of the implicitly imported core library.
	// Empty disables the implicit import.
	CoreLibrary string

	// Libraries maps dart: library names to support. A name that is
	// absent or maps to false is unsupported, which conditional imports
	// observe as the empty string.
	Libraries map[string]bool

	// StrongMode selects strict type well-formedness checking over
	// legacy normalization.
	StrongMode bool

	// DisableTypeInference is passed through to the backend untouched.
	DisableTypeInference bool
}

// IsLibrarySupported reports support for a dart: library name.
func (p Platform) IsLibrarySupported(name string) bool {
	return p.Libraries[name]
}
