package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/problems"
	"github.com/dartfront/dartfront/pkg/uris"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name        string
		combinators []Combinator
		allowed     []string
		denied      []string
	}{
		{
			name:    "no combinators allow everything",
			allowed: []string{"a", "b"},
		},
		{
			name:        "show filters to the listed names",
			combinators: []Combinator{{IsShow: true, Names: []string{"a", "b"}}},
			allowed:     []string{"a", "b"},
			denied:      []string{"c"},
		},
		{
			name:        "hide removes the listed names",
			combinators: []Combinator{{Names: []string{"a"}}},
			allowed:     []string{"b"},
			denied:      []string{"a"},
		},
		{
			name: "combinators apply in sequence",
			combinators: []Combinator{
				{IsShow: true, Names: []string{"a", "b"}},
				{Names: []string{"b"}},
			},
			allowed: []string{"a"},
			denied:  []string{"b", "c"},
		},
		{
			name: "show then show intersects",
			combinators: []Combinator{
				{IsShow: true, Names: []string{"a", "b"}},
				{IsShow: true, Names: []string{"b", "c"}},
			},
			allowed: []string{"b"},
			denied:  []string{"a", "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range tt.allowed {
				assert.True(t, Allows(tt.combinators, name), name)
			}
			for _, name := range tt.denied {
				assert.False(t, Allows(tt.combinators, name), name)
			}
		})
	}
}

func TestAddImportResolvesAgainstLibrary(t *testing.T) {
	b, r := newTestLibrary(t, "file:///app/main.lib.yaml")

	imp := b.AddImport(ImportSpec{URI: "util.lib.yaml", Offset: 1})

	require.NotNil(t, imp.Target)
	assert.Equal(t, "file:///app/util.lib.yaml", imp.Target.URI)
	assert.Empty(t, r.collector.Problems)
}

func TestAddImportMissingURI(t *testing.T) {
	b, r := newTestLibrary(t, "file:///main.lib.yaml")

	imp := b.AddImport(ImportSpec{URI: "", Offset: 1, URIOffset: 1})

	require.Len(t, r.collector.ByCode(problems.CodeMissingURI), 1)
	assert.True(t, uris.IsSentinel(imp.URI))
}

func TestAddImportMalformedURI(t *testing.T) {
	b, r := newTestLibrary(t, "file:///main.lib.yaml")

	imp := b.AddImport(ImportSpec{URI: "bad uri.yaml", Offset: 1, URIOffset: 10})

	malformed := r.collector.ByCode(problems.CodeMalformedURI)
	require.Len(t, malformed, 1)
	// The position points at the offending character inside the literal.
	assert.Equal(t, 13, malformed[0].Offset)
	assert.Equal(t, 1, malformed[0].Length)
	assert.True(t, uris.IsSentinel(imp.URI))
	// Loading continues: the sentinel target exists and carries the text.
	require.NotNil(t, imp.Target)
	assert.Equal(t, "bad uri.yaml", uris.SentinelText(imp.Target.URI))
}

func TestAddImportNativeExtension(t *testing.T) {
	b, r := newTestLibrary(t, "file:///main.lib.yaml")

	imp := b.AddImport(ImportSpec{URI: "dart-ext:libfoo", Offset: 1})

	assert.Nil(t, imp.Target)
	assert.Equal(t, "libfoo", imp.NativePath)
	assert.Empty(t, r.collector.Problems)
}

func TestAddImportConditional(t *testing.T) {
	b, r := newTestLibrary(t, "file:///app/main.lib.yaml")
	r.supported["io"] = true

	conditions := []uris.Condition{
		{DottedName: "dart.library.html", URI: "html.lib.yaml"},
		{DottedName: "dart.library.io", URI: "io.lib.yaml"},
	}
	imp := b.AddImport(ImportSpec{URI: "fallback.lib.yaml", Conditions: conditions, Offset: 1})

	require.NotNil(t, imp.Target)
	assert.Equal(t, "file:///app/io.lib.yaml", imp.Target.URI)
}

func TestAddImportConditionalFallback(t *testing.T) {
	b, _ := newTestLibrary(t, "file:///app/main.lib.yaml")

	conditions := []uris.Condition{
		{DottedName: "dart.library.html", URI: "html.lib.yaml"},
	}
	imp := b.AddImport(ImportSpec{URI: "fallback.lib.yaml", Conditions: conditions, Offset: 1})

	require.NotNil(t, imp.Target)
	assert.Equal(t, "file:///app/fallback.lib.yaml", imp.Target.URI)
}

func TestAddPartMissingURI(t *testing.T) {
	b, r := newTestLibrary(t, "file:///main.lib.yaml")

	part := b.AddPart("", 1, 1)

	require.Len(t, r.collector.ByCode(problems.CodeMissingURI), 1)
	assert.True(t, uris.IsSentinel(part.URI))
}

func TestAddPartProtectedScheme(t *testing.T) {
	b, r := newTestLibrary(t, "dart:core/core.lib.yaml")

	part := b.AddPart("int.lib.yaml", 1, 1)
	assert.Equal(t, "dart:core/int.lib.yaml", part.URI)
	assert.Empty(t, r.collector.Problems)

	escape := b.AddPart("file:///etc/part.yaml", 2, 2)
	assert.True(t, uris.IsSentinel(escape.URI))
	require.Len(t, r.collector.ByCode(problems.CodeMalformedURI), 1)
}

func TestImportedNamesEnterScope(t *testing.T) {
	b, r := newTestLibrary(t, "file:///app/main.lib.yaml")

	imp := b.AddImport(ImportSpec{
		URI:         "util.lib.yaml",
		Combinators: []Combinator{{IsShow: true, Names: []string{"Shown"}}},
		Offset:      1,
	})
	util := imp.Target
	util.BeginNestedDeclaration("Shown")
	util.AddClass(TypeDeclSpec{Name: "Shown", Offset: 1})
	util.BeginNestedDeclaration("Hidden")
	util.AddClass(TypeDeclSpec{Name: "Hidden", Offset: 2})

	runPipeline(b, util)

	assert.NotNil(t, b.Scope().Lookup("Shown"))
	assert.Nil(t, b.Scope().Lookup("Hidden"))
	assert.Empty(t, r.collector.Problems)
}

func TestPrefixedImportKeepsNamesOutOfTopLevel(t *testing.T) {
	b, r := newTestLibrary(t, "file:///app/main.lib.yaml")

	imp := b.AddImport(ImportSpec{URI: "math.lib.yaml", Prefix: "math", Offset: 1})
	math := imp.Target
	math.BeginNestedDeclaration("Random")
	math.AddClass(TypeDeclSpec{Name: "Random", Offset: 1})

	ref := &core.TypeRef{Name: "math.Random", URI: b.URI, Offset: 2}
	b.AddType(ref)
	bare := &core.TypeRef{Name: "Random", URI: b.URI, Offset: 3}
	b.AddType(bare)

	runPipeline(b, math)

	named, ok := ref.Resolved().(*core.NamedType)
	require.True(t, ok)
	assert.Equal(t, "Random", named.Declaration.Name)

	// Unprefixed lookup misses: the name lives behind the prefix.
	assert.IsType(t, &core.InvalidType{}, bare.Resolved())
	require.Len(t, r.collector.ByCode(problems.CodeTypeNotFound), 1)

	// The export scope never carries the prefix.
	assert.Nil(t, b.ExportScope().LookupLocal("math"))
}

func TestExportReExportsNames(t *testing.T) {
	b, r := newTestLibrary(t, "file:///app/main.lib.yaml")

	exp := b.AddExport(ExportSpec{
		URI:         "util.lib.yaml",
		Combinators: []Combinator{{Names: []string{"Secret"}}},
		Offset:      1,
	})
	util := exp.Target
	util.BeginNestedDeclaration("Public")
	util.AddClass(TypeDeclSpec{Name: "Public", Offset: 1})
	util.BeginNestedDeclaration("Secret")
	util.AddClass(TypeDeclSpec{Name: "Secret", Offset: 2})

	runPipeline(b, util)

	assert.NotNil(t, b.ExportScope().LookupLocal("Public"))
	assert.Nil(t, b.ExportScope().LookupLocal("Secret"))
	// Exporting does not import: the name is not usable locally.
	assert.Nil(t, b.Scope().Lookup("Public"))
	assert.Empty(t, r.collector.Problems)
}

func TestTransitiveExportFixpoint(t *testing.T) {
	r := newFakeReader()
	a := r.Read("file:///a.lib.yaml", -1, nil, "")
	bLib := r.Read("file:///b.lib.yaml", -1, nil, "")
	c := r.Read("file:///c.lib.yaml", -1, nil, "")

	// a exports b, b exports c; c's names must surface through a.
	a.AddExport(ExportSpec{URI: "b.lib.yaml", Offset: 1})
	bLib.AddExport(ExportSpec{URI: "c.lib.yaml", Offset: 1})
	c.BeginNestedDeclaration("Deep")
	c.AddClass(TypeDeclSpec{Name: "Deep", Offset: 1})

	// Order a before b so a single pass cannot see the name.
	runPipeline(a, bLib, c)

	assert.NotNil(t, a.ExportScope().LookupLocal("Deep"))
	assert.Empty(t, r.collector.Problems)
}

func TestImplicitCoreImport(t *testing.T) {
	r := newFakeReader()
	r.coreURI = "dart:core"

	core1 := r.Read("dart:core", -1, nil, "")
	core1.BeginNestedDeclaration("Object")
	core1.AddClass(TypeDeclSpec{Name: "Object", Offset: 1})

	app := r.Read("file:///app.lib.yaml", -1, nil, "")

	runPipeline(core1, app)

	// The core export arrives without any import directive.
	assert.NotNil(t, app.Scope().Lookup("Object"))
	// The core library itself gets no self-import.
	assert.Nil(t, core1.ImportScope().LookupLocal("Object"))
}

func TestExplicitCoreImportSuppressesImplicit(t *testing.T) {
	r := newFakeReader()
	r.coreURI = "dart:core"

	core1 := r.Read("dart:core", -1, nil, "")
	core1.BeginNestedDeclaration("Object")
	core1.AddClass(TypeDeclSpec{Name: "Object", Offset: 1})
	core1.BeginNestedDeclaration("Hidden")
	core1.AddClass(TypeDeclSpec{Name: "Hidden", Offset: 2})

	app := r.Read("file:///app.lib.yaml", -1, nil, "")
	app.AddImport(ImportSpec{
		URI:         "dart:core",
		Combinators: []Combinator{{IsShow: true, Names: []string{"Object"}}},
		Offset:      1,
	})

	runPipeline(core1, app)

	assert.NotNil(t, app.Scope().Lookup("Object"))
	// The show filter sticks because no implicit import tops it up.
	assert.Nil(t, app.Scope().Lookup("Hidden"))
}
