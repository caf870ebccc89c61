// Package loader owns the URI-to-builder cache and drives whole-program
// construction: it reads compilation units on demand, tolerates circular
// imports by returning the same evolving builder on re-entry, and walks
// every library through the pipeline phases in lockstep so results never
// depend on file traversal order.
package loader

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dartfront/dartfront/pkg/builder"
	"github.com/dartfront/dartfront/pkg/problems"
	"github.com/dartfront/dartfront/pkg/uris"
)

// ParseFunc drives one compilation unit's add* sequence against its
// builder. It is the external parser collaborator; a returned error marks
// the unit as failed to load.
type ParseFunc func(l *builder.LibraryBuilder) error

// TranslateFunc maps a library URI to a file URI for diagnostics. Nil
// leaves the file URI empty.
type TranslateFunc func(uri string) string

// Config configures a Loader.
type Config struct {
	Platform  Platform
	Parse     ParseFunc
	Translate TranslateFunc
	Reporter  problems.Reporter
	Logger    *slog.Logger
}

// Loader caches one builder per distinct resolved URI for the life of the
// process. Entries are created incomplete and mutated in place; a failed
// library stays cached carrying its access problem rather than being
// evicted. Loading is strictly single-threaded.
type Loader struct {
	platform  Platform
	parse     ParseFunc
	translate TranslateFunc
	reporter  problems.Reporter
	logger    *slog.Logger

	builders  map[string]*builder.LibraryBuilder
	order     []string
	partsUsed map[string]*builder.LibraryBuilder

	first *builder.LibraryBuilder
}

// New creates a loader with an empty cache.
func New(cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = problems.NewCollector()
	}
	return &Loader{
		platform:  cfg.Platform,
		parse:     cfg.Parse,
		translate: cfg.Translate,
		reporter:  reporter,
		logger:    logger,
		builders:  make(map[string]*builder.LibraryBuilder),
		partsUsed: make(map[string]*builder.LibraryBuilder),
	}
}

// CoreURI implements builder.Reader.
func (l *Loader) CoreURI() string { return l.platform.CoreLibrary }

// IsLibrarySupported implements builder.Reader.
func (l *Loader) IsLibrarySupported(name string) bool {
	return l.platform.IsLibrarySupported(name)
}

// StrongMode implements builder.Reader.
func (l *Loader) StrongMode() bool { return l.platform.StrongMode }

// DisableTypeInference is passed through to the backend.
func (l *Loader) DisableTypeInference() bool { return l.platform.DisableTypeInference }

// Reporter implements builder.Reader.
func (l *Loader) Reporter() problems.Reporter { return l.reporter }

// Read returns the cached builder for uri, creating and parsing it on
// first use. Parsing may recursively re-enter Read, including for the
// library currently under construction; the same builder identity is
// returned immediately, in whatever pipeline state it has reached. A
// library with an access problem surfaces that problem at every accessor.
func (l *Loader) Read(uri string, offset int, accessor *builder.LibraryBuilder, fileURI string) *builder.LibraryBuilder {
	if b, ok := l.builders[uri]; ok {
		l.recordAccess(b, accessor, offset)
		return b
	}
	if fileURI == "" && l.translate != nil {
		fileURI = l.translate(uri)
	}
	b := builder.NewLibraryBuilder(uri, fileURI, l)
	l.builders[uri] = b
	l.order = append(l.order, uri)

	switch {
	case uris.IsSentinel(uri):
		b.SetAccessProblem(problems.Problem{
			Code:     problems.CodeMalformedURI,
			Severity: problems.SeverityError,
			Message:  fmt.Sprintf("malformed URI %q", uris.SentinelText(uri)),
			URI:      uri,
		})
	case l.parse != nil:
		l.logger.Debug("reading library", "uri", uri)
		if err := l.parse(b); err != nil {
			b.SetAccessProblem(problems.Problem{
				Code:     problems.CodeAccessError,
				Severity: problems.SeverityError,
				Message:  fmt.Sprintf("error reading %q: %v", uri, err),
				URI:      uri,
			})
		}
	}
	l.recordAccess(b, accessor, offset)
	return b
}

// recordAccess notes the reference and surfaces a failed library's one
// problem at the accessor's location.
func (l *Loader) recordAccess(b *builder.LibraryBuilder, accessor *builder.LibraryBuilder, offset int) {
	if accessor == nil {
		return
	}
	b.RecordAccess(accessor.URI, offset, 1)
	if p := b.AccessProblem; p != nil {
		l.reporter.Report(problems.Problem{
			Code:     p.Code,
			Severity: p.Severity,
			Message:  p.Message,
			URI:      accessor.URI,
			Offset:   offset,
			Length:   1,
		})
	}
}

// LoadProgram reads the entry library, pulls in everything it references,
// and drives all loaded libraries through part inclusion, scope export,
// import resolution, and type resolution. Pipeline phases run in lockstep
// across the whole program: no library resolves imports before every
// library has merged its parts.
func (l *Loader) LoadProgram(entryURI string) *builder.LibraryBuilder {
	session := uuid.NewString()
	l.logger.Info("loading program", "session", session, "entry", entryURI)

	if core := l.platform.CoreLibrary; core != "" {
		l.Read(core, -1, nil, "")
	}
	first := l.Read(entryURI, -1, nil, "")
	if l.first == nil {
		l.first = first
	}

	for _, b := range l.libraryPhaseOrder() {
		b.IncludeParts(l.partsUsed)
	}
	l.reportOrphanParts()
	for _, b := range l.libraryPhaseOrder() {
		b.BuildInitialScopes()
	}
	for changed := true; changed; {
		changed = false
		for _, b := range l.libraryPhaseOrder() {
			if b.ApplyExports() {
				changed = true
			}
		}
	}
	for _, b := range l.libraryPhaseOrder() {
		b.AddImportsToScope()
	}
	resolved := 0
	for _, b := range l.libraryPhaseOrder() {
		resolved += b.ResolveTypes()
	}
	l.reportUnreferencedFailures()

	l.logger.Info("program loaded",
		"session", session,
		"libraries", len(l.order),
		"types_resolved", resolved,
	)
	return first
}

// Build materializes every loaded library through the supplied callback.
// Parts were folded into their owners and are skipped. Returns the number
// of declarations materialized.
func (l *Loader) Build(build builder.BuildFunc) int {
	var coreLib *builder.LibraryBuilder
	if core := l.platform.CoreLibrary; core != "" {
		coreLib = l.builders[core]
	}
	count := 0
	for _, b := range l.libraryPhaseOrder() {
		count += b.Build(build, coreLib)
	}
	return count
}

// libraryPhaseOrder returns the builders that participate in pipeline
// phases, in cache insertion order. Part files are folded into their
// owning library and do not run phases of their own; a part that no
// library claimed is an orphan, reported separately.
func (l *Loader) libraryPhaseOrder() []*builder.LibraryBuilder {
	out := make([]*builder.LibraryBuilder, 0, len(l.order))
	for _, uri := range l.order {
		b := l.builders[uri]
		if b.IsPart() || b.IsSynthetic() {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Builders returns every cached builder in insertion order, parts and
// failed libraries included.
func (l *Loader) Builders() []*builder.LibraryBuilder {
	out := make([]*builder.LibraryBuilder, 0, len(l.order))
	for _, uri := range l.order {
		out = append(out, l.builders[uri])
	}
	return out
}

// Lookup returns the cached builder for uri, if any.
func (l *Loader) Lookup(uri string) (*builder.LibraryBuilder, bool) {
	b, ok := l.builders[uri]
	return b, ok
}

// First returns the program's designated entry library.
func (l *Loader) First() *builder.LibraryBuilder { return l.first }

// PartsUsed exposes the program-wide part claim map for orphan detection
// by external collaborators.
func (l *Loader) PartsUsed() map[string]*builder.LibraryBuilder { return l.partsUsed }

// OrphanParts returns the URIs of units that declare a part-of but were
// never claimed by any library, in insertion order.
func (l *Loader) OrphanParts() []string {
	var out []string
	for _, uri := range l.order {
		b := l.builders[uri]
		if b.IsPart() && b.Owner() == nil {
			out = append(out, uri)
		}
	}
	return out
}

// reportOrphanParts flags every unit that declared a part-of but was
// claimed by no library after part inclusion ran program-wide.
func (l *Loader) reportOrphanParts() {
	for _, uri := range l.OrphanParts() {
		l.reporter.Report(problems.Problem{
			Code:     problems.CodePartOrphaned,
			Severity: problems.SeverityWarning,
			Message:  fmt.Sprintf("%q declares a part-of but no library includes it", uri),
			URI:      uri,
			Offset:   -1,
		})
	}
}

// reportUnreferencedFailures attaches the access problem of a failed
// library that nothing ever referenced to the program's entry library.
func (l *Loader) reportUnreferencedFailures() {
	for _, uri := range l.order {
		b := l.builders[uri]
		if b.AccessProblem == nil || len(b.Accessors()) > 0 {
			continue
		}
		p := *b.AccessProblem
		if l.first != nil {
			p.URI = l.first.URI
			p.Offset = -1
			p.Length = 0
		}
		l.reporter.Report(p)
	}
}
