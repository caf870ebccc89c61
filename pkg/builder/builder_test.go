package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
)

// fakeReader is a minimal in-test loader: it hands out empty builders per
// URI and collects problems.
type fakeReader struct {
	collector *problems.Collector
	builders  map[string]*LibraryBuilder
	supported map[string]bool
	coreURI   string
	strong    bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		collector: problems.NewCollector(),
		builders:  make(map[string]*LibraryBuilder),
		supported: make(map[string]bool),
		strong:    true,
	}
}

func (r *fakeReader) Read(uri string, _ int, _ *LibraryBuilder, fileURI string) *LibraryBuilder {
	if b, ok := r.builders[uri]; ok {
		return b
	}
	b := NewLibraryBuilder(uri, fileURI, r)
	r.builders[uri] = b
	return b
}

func (r *fakeReader) CoreURI() string                    { return r.coreURI }
func (r *fakeReader) IsLibrarySupported(name string) bool { return r.supported[name] }
func (r *fakeReader) StrongMode() bool                   { return r.strong }
func (r *fakeReader) Reporter() problems.Reporter        { return r.collector }

// newTestLibrary creates a library builder backed by a fresh fake reader.
func newTestLibrary(t *testing.T, uri string) (*LibraryBuilder, *fakeReader) {
	t.Helper()
	r := newFakeReader()
	b := NewLibraryBuilder(uri, "", r)
	r.builders[uri] = b
	return b, r
}

// runPipeline drives a set of already-constructed builders through every
// phase up to type resolution, the way the loader does.
func runPipeline(builders ...*LibraryBuilder) {
	partsUsed := make(map[string]*LibraryBuilder)
	for _, b := range builders {
		b.IncludeParts(partsUsed)
	}
	for _, b := range builders {
		b.BuildInitialScopes()
	}
	for changed := true; changed; {
		changed = false
		for _, b := range builders {
			if b.ApplyExports() {
				changed = true
			}
		}
	}
	for _, b := range builders {
		b.AddImportsToScope()
	}
	for _, b := range builders {
		b.ResolveTypes()
	}
}

func TestTypeVariableCapture(t *testing.T) {
	b, r := newTestLibrary(t, "file:///box.lib.yaml")

	b.BeginNestedDeclaration("Box")
	ref := &core.TypeRef{Name: "T", URI: b.URI, Offset: 5}
	b.AddType(ref)
	b.AddClass(TypeDeclSpec{
		Name:          "Box",
		TypeVariables: []*core.TypeVariable{{Name: "T"}},
		Offset:        1,
	})

	require.True(t, ref.IsResolved())
	tv, ok := ref.Resolved().(*core.TypeVariableType)
	require.True(t, ok)
	assert.Equal(t, "T", tv.Variable.Name)
	assert.Empty(t, r.collector.Problems)
}

func TestTypeVariableAsPrefixRejected(t *testing.T) {
	b, r := newTestLibrary(t, "file:///box.lib.yaml")

	b.BeginNestedDeclaration("Box")
	ref := &core.TypeRef{Name: "T.Inner", URI: b.URI, Offset: 5}
	b.AddType(ref)
	b.AddClass(TypeDeclSpec{
		Name:          "Box",
		TypeVariables: []*core.TypeVariable{{Name: "T"}},
		Offset:        1,
	})

	require.True(t, ref.IsResolved())
	assert.IsType(t, &core.InvalidType{}, ref.Resolved())
	require.Len(t, r.collector.ByCode(problems.CodeNotAPrefix), 1)
}

func TestTypeVariableForwardsAcrossFrames(t *testing.T) {
	b, r := newTestLibrary(t, "file:///nested.lib.yaml")

	b.BeginNestedDeclaration("Outer")
	b.BeginNestedDeclaration("Inner")
	ref := &core.TypeRef{Name: "T", URI: b.URI, Offset: 9}
	b.AddType(ref)
	// Inner declares no T, so the reference forwards outward.
	b.AddClass(TypeDeclSpec{
		Name:          "Inner",
		TypeVariables: []*core.TypeVariable{{Name: "U"}},
		Offset:        2,
	})
	b.AddClass(TypeDeclSpec{
		Name:          "Outer",
		TypeVariables: []*core.TypeVariable{{Name: "T"}},
		Offset:        1,
	})

	require.True(t, ref.IsResolved())
	tv, ok := ref.Resolved().(*core.TypeVariableType)
	require.True(t, ok)
	assert.Equal(t, "T", tv.Variable.Name)
	assert.Empty(t, r.collector.Problems)
}

func TestUnmatchedReferenceReachesLibraryScope(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")

	b.BeginNestedDeclaration("Holder")
	ref := &core.TypeRef{Name: "Target", URI: b.URI, Offset: 7}
	b.AddType(ref)
	b.AddClass(TypeDeclSpec{Name: "Holder", Offset: 1})

	b.BeginNestedDeclaration("Target")
	b.AddClass(TypeDeclSpec{Name: "Target", Offset: 2})

	runPipeline(b)

	require.True(t, ref.IsResolved())
	named, ok := ref.Resolved().(*core.NamedType)
	require.True(t, ok)
	assert.Equal(t, "Target", named.Declaration.Name)
	assert.Empty(t, r.collector.Problems)
}

func TestFrameCloseMismatchPanics(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///lib.yaml")
	b.BeginNestedDeclaration("A")
	assert.Panics(t, func() { b.AddClass(TypeDeclSpec{Name: "B"}) })
}

func TestResolveVoidAndDynamic(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	void := &core.TypeRef{Name: "void", URI: b.URI}
	dynamic := &core.TypeRef{Name: "dynamic", URI: b.URI}
	b.AddType(void)
	b.AddType(dynamic)

	runPipeline(b)

	assert.Equal(t, "void", void.Resolved().String())
	assert.Equal(t, "dynamic", dynamic.Resolved().String())
	assert.Empty(t, r.collector.Problems)
}

func TestResolveTypeNotFound(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	ref := &core.TypeRef{Name: "Missing", URI: b.URI, Offset: 3}
	b.AddType(ref)

	runPipeline(b)

	assert.IsType(t, &core.InvalidType{}, ref.Resolved())
	require.Len(t, r.collector.ByCode(problems.CodeTypeNotFound), 1)
}

func TestResolveNotAType(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	b.AddMember(MemberSpec{Name: "counter", Kind: core.KindField, Offset: 1})
	ref := &core.TypeRef{Name: "counter", URI: b.URI, Offset: 3}
	b.AddType(ref)

	runPipeline(b)

	assert.IsType(t, &core.InvalidType{}, ref.Resolved())
	require.Len(t, r.collector.ByCode(problems.CodeNotAType), 1)
}

func TestResolveArityStrongMode(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	b.BeginNestedDeclaration("Box")
	b.AddClass(TypeDeclSpec{
		Name:          "Box",
		TypeVariables: []*core.TypeVariable{{Name: "T"}},
		Offset:        1,
	})
	arg := &core.TypeRef{Name: "Box", URI: b.URI, Offset: 4}
	ref := &core.TypeRef{
		Name:      "Box",
		URI:       b.URI,
		Offset:    3,
		Arguments: []*core.TypeRef{arg, {Name: "Box", URI: b.URI, Offset: 5}},
	}
	b.AddType(ref)

	runPipeline(b)

	require.Len(t, r.collector.ByCode(problems.CodeTypeArgumentMismatch), 1)
	// Strong mode still binds, arguments preserved.
	named, ok := ref.Resolved().(*core.NamedType)
	require.True(t, ok)
	assert.Len(t, named.Arguments, 2)
}

func TestResolveArityLegacyDropsArguments(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	r.strong = false
	b.BeginNestedDeclaration("Box")
	b.AddClass(TypeDeclSpec{
		Name:          "Box",
		TypeVariables: []*core.TypeVariable{{Name: "T"}},
		Offset:        1,
	})
	ref := &core.TypeRef{
		Name:      "Box",
		URI:       b.URI,
		Offset:    3,
		Arguments: []*core.TypeRef{{Name: "Box", Offset: 4}, {Name: "Box", Offset: 5}},
	}
	b.AddType(ref)

	runPipeline(b)

	assert.Empty(t, r.collector.ByCode(problems.CodeTypeArgumentMismatch))
	named, ok := ref.Resolved().(*core.NamedType)
	require.True(t, ok)
	assert.Nil(t, named.Arguments)
}

func TestResolveTypesIdempotent(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///lib.yaml")
	b.AddType(&core.TypeRef{Name: "void", URI: b.URI})

	partsUsed := make(map[string]*LibraryBuilder)
	b.IncludeParts(partsUsed)
	b.BuildInitialScopes()
	b.ApplyExports()
	b.AddImportsToScope()

	assert.Equal(t, 1, b.ResolveTypes())
	assert.Equal(t, 0, b.ResolveTypes())
}

func TestPhaseOrderEnforced(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///lib.yaml")
	assert.Panics(t, func() { b.BuildInitialScopes() })
	assert.Panics(t, func() { b.ResolveTypes() })
}

func TestAddAfterConstructionPanics(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///lib.yaml")
	b.IncludeParts(make(map[string]*LibraryBuilder))
	assert.Panics(t, func() {
		b.AddMember(MemberSpec{Name: "late", Kind: core.KindField})
	})
}

func TestIncludePartsWithOpenFramePanics(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///lib.yaml")
	b.BeginNestedDeclaration("Open")
	assert.Panics(t, func() { b.IncludeParts(make(map[string]*LibraryBuilder)) })
}

func TestBuildMaterializesEverything(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	b.BeginNestedDeclaration("A")
	b.AddClass(TypeDeclSpec{Name: "A", Offset: 1})
	b.AddMember(MemberSpec{Name: "f", Kind: core.KindProcedure, Offset: 2})

	runPipeline(b)

	var names []string
	count := b.Build(func(d *core.Declaration, _ *LibraryBuilder) {
		names = append(names, d.Name)
	}, nil)

	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"A", "f"}, names)
	assert.Equal(t, StateBuilt, b.State())
	assert.Empty(t, r.collector.Problems)

	// The namespace is sealed once built.
	assert.Panics(t, func() { b.Scope().Extend("x", &core.Declaration{Name: "x"}) })
}

func TestBuildImplementationDeclarations(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///lib.yaml")
	b.BeginNestedDeclaration("A")
	b.AddClass(TypeDeclSpec{Name: "A", Offset: 1})

	runPipeline(b)

	var names []string
	synthesized := false
	count := b.Build(func(d *core.Declaration, _ *LibraryBuilder) {
		names = append(names, d.Name)
		if !synthesized {
			synthesized = true
			b.AddImplementationDeclaration(&core.Declaration{
				Kind:               core.KindClass,
				Name:               "_A&M",
				IsMixinApplication: true,
			})
		}
	}, nil)

	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"A", "_A&M"}, names)

	// Registering outside the build phase is a driver bug.
	assert.Panics(t, func() {
		b.AddImplementationDeclaration(&core.Declaration{Name: "late"})
	})
}

func TestBuildSetterFieldConflict(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	b.AddMember(MemberSpec{Name: "value", Kind: core.KindField, Offset: 1})
	b.AddMember(MemberSpec{Name: "value", Kind: core.KindSetter, Offset: 2})

	runPipeline(b)
	b.Build(func(*core.Declaration, *LibraryBuilder) {}, nil)

	require.Len(t, r.collector.ByCode(problems.CodeConflictingMember), 1)
	require.Len(t, r.collector.ByCode(problems.CodeConflictingSetter), 1)
}

func TestBuildFinalFieldDoesNotConflictWithSetter(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	b.AddMember(MemberSpec{Name: "value", Kind: core.KindField, Offset: 1, Modifiers: core.ModifierFinal})
	b.AddMember(MemberSpec{Name: "value", Kind: core.KindSetter, Offset: 2})

	runPipeline(b)
	b.Build(func(*core.Declaration, *LibraryBuilder) {}, nil)

	assert.Empty(t, r.collector.ByCode(problems.CodeConflictingMember))
	assert.Empty(t, r.collector.ByCode(problems.CodeConflictingSetter))
}

func TestConstructorReferenceResolution(t *testing.T) {
	b, r := newTestLibrary(t, "file:///lib.yaml")
	b.BeginNestedDeclaration("Box")
	b.AddConstructor("Box", "named", false, 2, 0)
	b.AddClass(TypeDeclSpec{Name: "Box", Offset: 1})
	b.AddConstructorReference("Box", "named", 3)
	b.AddConstructorReference("Box", "missing", 4)
	b.AddConstructorReference("Gone", "", 5)

	runPipeline(b)

	refs := b.ConstructorReferences()
	require.Len(t, refs, 3)
	require.NotNil(t, refs[0].Target)
	assert.Equal(t, "named", refs[0].Target.Name)
	assert.Nil(t, refs[1].Target)
	assert.Nil(t, refs[2].Target)
	assert.Len(t, r.collector.ByCode(problems.CodeConstructorNotFound), 2)
}
