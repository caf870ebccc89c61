// Package uris resolves the URIs carried by import, export, and part
// directives. Malformed input never aborts loading: a bad URI is replaced
// by a sentinel that later stages can recognize and carry along.
package uris

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// SentinelScheme marks a URI that could not be parsed. The offending text
// is preserved in the opaque part so diagnostics can still show it.
const SentinelScheme = "dartfront-malformed"

// NativeScheme marks a native-extension import. Such imports resolve to a
// native path and create no library-import edge.
const NativeScheme = "dart-ext"

// protectedScheme is the scheme whose libraries resolve part references
// under same-origin rules rather than by generic URI-reference resolution.
const protectedScheme = "dart"

// Sentinel builds the malformed-URI marker for the given offending text.
func Sentinel(text string) string {
	return SentinelScheme + ":" + url.PathEscape(text)
}

// IsSentinel reports whether uri is a malformed-URI marker.
func IsSentinel(uri string) bool {
	return strings.HasPrefix(uri, SentinelScheme+":")
}

// SentinelText recovers the offending text carried by a sentinel.
func SentinelText(uri string) string {
	if !IsSentinel(uri) {
		return ""
	}
	text, err := url.PathUnescape(strings.TrimPrefix(uri, SentinelScheme+":"))
	if err != nil {
		return ""
	}
	return text
}

// IsNative reports whether uri is a native-extension reference.
func IsNative(uri string) bool {
	return strings.HasPrefix(uri, NativeScheme+":")
}

// NativePath returns the native path carried by a native-extension URI.
func NativePath(uri string) string {
	return strings.TrimPrefix(uri, NativeScheme+":")
}

// InvalidError describes a syntactically invalid URI string. Index is the
// position of the first offending character within the original text.
type InvalidError struct {
	Text  string
	Index int
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid character in URI %q at index %d", e.Text, e.Index)
}

// validate scans for characters that cannot appear in a URI reference.
func validate(ref string) error {
	for i, r := range ref {
		if r <= ' ' || r == 0x7f || strings.ContainsRune(`<>"{}|\^`, r) {
			return &InvalidError{Text: ref, Index: i}
		}
	}
	return nil
}

// Resolve resolves a directive URI reference against the containing
// library's URI. An invalid reference yields a sentinel plus an
// *InvalidError pointing at the offending character; the sentinel is
// still usable as a cache key.
func Resolve(base, ref string) (string, error) {
	if ref == "" {
		return Sentinel(""), &InvalidError{Text: ref, Index: 0}
	}
	if err := validate(ref); err != nil {
		return Sentinel(ref), err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return Sentinel(ref), &InvalidError{Text: ref, Index: 0}
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		// No usable base; the reference stands on its own.
		return refURL.String(), nil
	}
	if baseURL.Opaque != "" {
		return resolveOpaque(baseURL, ref), nil
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// ResolvePart resolves a part reference. When the including library lives
// under the protected scheme, the part must stay within the same origin:
// only plain relative references are allowed, resolved against the
// library's own path.
func ResolvePart(libraryURI, ref string) (string, error) {
	if err := validate(ref); err != nil {
		return Sentinel(ref), err
	}
	base, err := url.Parse(libraryURI)
	if err == nil && base.Scheme == protectedScheme {
		if strings.Contains(ref, ":") || strings.HasPrefix(ref, "/") {
			return Sentinel(ref), &InvalidError{Text: ref, Index: 0}
		}
		return resolveOpaque(base, ref), nil
	}
	return Resolve(libraryURI, ref)
}

// resolveOpaque joins a relative reference onto an opaque (non-rooted)
// URI such as dart:core or dart:core/num.dart.
func resolveOpaque(base *url.URL, ref string) string {
	opaque := base.Opaque
	if opaque == "" {
		opaque = base.Path
	}
	dir := ""
	if i := strings.LastIndex(opaque, "/"); i >= 0 {
		dir = opaque[:i+1]
	}
	joined := path.Clean(dir + ref)
	return base.Scheme + ":" + joined
}
