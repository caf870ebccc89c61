package outline

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileSource loads outlines from the filesystem. dart: URIs resolve
// through the configured library map; file: URIs resolve directly.
type FileSource struct {
	// Libraries maps dart: library names to outline paths. An empty path
	// declares the library known but unsupported on this platform.
	Libraries map[string]string

	// Root anchors relative library paths, usually the config file's
	// directory.
	Root string
}

// Load implements Source.
func (s *FileSource) Load(uri string) ([]byte, error) {
	path, err := s.translate(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Translate maps a library URI to its filesystem path, for diagnostics.
func (s *FileSource) Translate(uri string) string {
	path, err := s.translate(uri)
	if err != nil {
		return ""
	}
	return path
}

func (s *FileSource) translate(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "dart:"):
		name := strings.TrimPrefix(uri, "dart:")
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[:i]
		}
		path, ok := s.Libraries[name]
		if !ok {
			return "", fmt.Errorf("unknown platform library %q", uri)
		}
		if path == "" {
			return "", fmt.Errorf("platform library %q is not supported", uri)
		}
		if !filepath.IsAbs(path) && s.Root != "" {
			path = filepath.Join(s.Root, path)
		}
		return path, nil
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("bad file URI %q: %w", uri, err)
		}
		return filepath.FromSlash(u.Path), nil
	default:
		return "", fmt.Errorf("unsupported URI scheme in %q", uri)
	}
}

// FileURI converts a filesystem path into a file: URI suitable as a
// program entry point.
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}
