// Package outline is the driver that stands in for a real parser: it
// reads library outline documents (*.lib.yaml) and translates each into
// the add* call sequence the library builder consumes, in source order.
// The core never depends on this package.
package outline

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dartfront/dartfront/pkg/builder"
	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/uris"
)

// Document is one library outline.
type Document struct {
	Library   string   `yaml:"library"`
	PartOf    string   `yaml:"part_of"`
	PartOfURI string   `yaml:"part_of_uri"`
	Doc       string   `yaml:"doc"`
	Metadata  []string `yaml:"metadata"`

	Imports []ImportDecl `yaml:"imports"`
	Exports []ExportDecl `yaml:"exports"`
	Parts   []string     `yaml:"parts"`

	Declarations []DeclNode `yaml:"declarations"`

	// References lists constructor references, e.g. "Box.named".
	References []string `yaml:"references"`
}

// ImportDecl is one import directive.
type ImportDecl struct {
	URI      string          `yaml:"uri"`
	Prefix   string          `yaml:"prefix"`
	Deferred bool            `yaml:"deferred"`
	Show     []string        `yaml:"show"`
	Hide     []string        `yaml:"hide"`
	If       []ConditionDecl `yaml:"if"`
}

// ExportDecl is one export directive.
type ExportDecl struct {
	URI  string          `yaml:"uri"`
	Show []string        `yaml:"show"`
	Hide []string        `yaml:"hide"`
	If   []ConditionDecl `yaml:"if"`
}

// ConditionDecl is one conditional branch of a directive.
type ConditionDecl struct {
	Condition string `yaml:"condition"`
	Equals    string `yaml:"equals"`
	URI       string `yaml:"uri"`
}

// DeclNode is one declaration. Exactly one of the name fields is set and
// selects the declaration form.
type DeclNode struct {
	Class            string `yaml:"class"`
	Mixin            string `yaml:"mixin"`
	MixinApplication string `yaml:"mixin_application"`
	Enum             string `yaml:"enum"`
	Typedef          string `yaml:"typedef"`
	Function         string `yaml:"function"`
	Field            string `yaml:"field"`
	Getter           string `yaml:"getter"`
	Setter           string `yaml:"setter"`
	Constructor      string `yaml:"constructor"`
	Factory          string `yaml:"factory"`

	TypeParameters []string `yaml:"type_parameters"`
	Extends        string   `yaml:"extends"`
	Implements     []string `yaml:"implements"`
	Type           string   `yaml:"type"`
	Values         []string `yaml:"values"`

	Final    bool `yaml:"final"`
	Const    bool `yaml:"const"`
	Static   bool `yaml:"static"`
	Abstract bool `yaml:"abstract"`

	Doc     string     `yaml:"doc"`
	Members []DeclNode `yaml:"members"`
}

// Source supplies outline bytes for a library URI.
type Source interface {
	Load(uri string) ([]byte, error)
}

// MapSource is an in-memory source keyed by URI, used in tests.
type MapSource map[string]string

// Load implements Source.
func (m MapSource) Load(uri string) ([]byte, error) {
	content, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("no outline for %q", uri)
	}
	return []byte(content), nil
}

// Driver translates outline documents into builder calls.
type Driver struct {
	source Source

	// offset is a running source-order position. Outlines carry no byte
	// offsets, so the driver assigns increasing positions per directive
	// and declaration, which keeps diagnostics deterministic.
	offset int
}

// NewDriver creates a driver over the given source.
func NewDriver(source Source) *Driver {
	return &Driver{source: source}
}

// Parse implements loader.ParseFunc.
func (d *Driver) Parse(b *builder.LibraryBuilder) error {
	data, err := d.source.Load(b.URI)
	if err != nil {
		return err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing outline %s: %w", b.URI, err)
	}
	d.apply(b, &doc)
	return nil
}

func (d *Driver) next() int {
	d.offset++
	return d.offset
}

func (d *Driver) apply(b *builder.LibraryBuilder, doc *Document) {
	if doc.Library != "" {
		b.SetName(doc.Library)
	}
	if doc.PartOf != "" || doc.PartOfURI != "" {
		partOfURI := doc.PartOfURI
		if partOfURI != "" {
			if resolved, err := uris.Resolve(b.URI, partOfURI); err == nil {
				partOfURI = resolved
			}
		}
		b.SetPartOf(doc.PartOf, partOfURI)
	}
	if doc.Doc != "" {
		b.SetDocumentation(doc.Doc)
	}
	for _, m := range doc.Metadata {
		b.AddMetadata(m)
	}

	for _, imp := range doc.Imports {
		offset := d.next()
		b.AddImport(builder.ImportSpec{
			URI:          imp.URI,
			Conditions:   conditions(imp.If),
			Prefix:       imp.Prefix,
			Deferred:     imp.Deferred,
			Combinators:  combinators(imp.Show, imp.Hide, offset),
			Offset:       offset,
			URIOffset:    offset,
			PrefixOffset: offset,
		})
	}
	for _, exp := range doc.Exports {
		offset := d.next()
		b.AddExport(builder.ExportSpec{
			URI:         exp.URI,
			Conditions:  conditions(exp.If),
			Combinators: combinators(exp.Show, exp.Hide, offset),
			Offset:      offset,
			URIOffset:   offset,
		})
	}
	for _, part := range doc.Parts {
		offset := d.next()
		b.AddPart(part, offset, offset)
	}
	for i := range doc.Declarations {
		d.applyDeclaration(b, &doc.Declarations[i])
	}
	for _, ref := range doc.References {
		class, suffix, _ := strings.Cut(ref, ".")
		b.AddConstructorReference(class, suffix, d.next())
	}
}

func (d *Driver) applyDeclaration(b *builder.LibraryBuilder, node *DeclNode) {
	switch {
	case node.Class != "" || node.MixinApplication != "":
		d.applyClass(b, node)
	case node.Mixin != "":
		d.applyMixin(b, node)
	case node.Enum != "":
		b.AddEnum(builder.EnumSpec{
			Name:          node.Enum,
			Values:        node.Values,
			Offset:        d.next(),
			Documentation: node.Doc,
		})
	case node.Typedef != "":
		d.applyTypedef(b, node)
	default:
		d.applyMember(b, node)
	}
}

func (d *Driver) applyClass(b *builder.LibraryBuilder, node *DeclNode) {
	name := node.Class
	isMixinApplication := false
	if name == "" {
		name = node.MixinApplication
		isMixinApplication = true
	}
	offset := d.next()
	b.BeginNestedDeclaration(name)
	typeVars := typeVariables(node.TypeParameters, offset)
	var supertype *core.TypeRef
	if node.Extends != "" {
		supertype = d.typeRef(b, node.Extends)
	}
	var interfaces []*core.TypeRef
	for _, iface := range node.Implements {
		interfaces = append(interfaces, d.typeRef(b, iface))
	}
	for i := range node.Members {
		d.applyMemberNode(b, &node.Members[i])
	}
	spec := builder.TypeDeclSpec{
		Name:               name,
		TypeVariables:      typeVars,
		Supertype:          supertype,
		Interfaces:         interfaces,
		Offset:             offset,
		Modifiers:          modifiers(node),
		Documentation:      node.Doc,
		IsMixinApplication: isMixinApplication,
	}
	b.AddClass(spec)
}

func (d *Driver) applyMixin(b *builder.LibraryBuilder, node *DeclNode) {
	offset := d.next()
	b.BeginNestedDeclaration(node.Mixin)
	typeVars := typeVariables(node.TypeParameters, offset)
	var interfaces []*core.TypeRef
	for _, iface := range node.Implements {
		interfaces = append(interfaces, d.typeRef(b, iface))
	}
	for i := range node.Members {
		d.applyMemberNode(b, &node.Members[i])
	}
	b.AddMixin(builder.TypeDeclSpec{
		Name:          node.Mixin,
		TypeVariables: typeVars,
		Interfaces:    interfaces,
		Offset:        offset,
		Documentation: node.Doc,
	})
}

func (d *Driver) applyTypedef(b *builder.LibraryBuilder, node *DeclNode) {
	offset := d.next()
	b.BeginNestedDeclaration(node.Typedef)
	typeVars := typeVariables(node.TypeParameters, offset)
	var aliased *core.TypeRef
	if node.Type != "" {
		aliased = d.typeRef(b, node.Type)
	}
	b.AddTypedef(builder.TypedefSpec{
		Name:          node.Typedef,
		TypeVariables: typeVars,
		Type:          aliased,
		Offset:        offset,
		Documentation: node.Doc,
	})
}

// applyMemberNode handles nodes inside a class or mixin body.
func (d *Driver) applyMemberNode(b *builder.LibraryBuilder, node *DeclNode) {
	switch {
	case node.Constructor != "":
		qualifier, suffix, _ := strings.Cut(node.Constructor, ".")
		b.AddConstructor(qualifier, suffix, false, d.next(), modifiers(node))
	case node.Factory != "":
		qualifier, suffix, _ := strings.Cut(node.Factory, ".")
		b.AddConstructor(qualifier, suffix, true, d.next(), modifiers(node))
	default:
		d.applyMember(b, node)
	}
}

func (d *Driver) applyMember(b *builder.LibraryBuilder, node *DeclNode) {
	var name string
	var kind core.Kind
	switch {
	case node.Function != "":
		name, kind = node.Function, core.KindProcedure
	case node.Field != "":
		name, kind = node.Field, core.KindField
	case node.Getter != "":
		name, kind = node.Getter, core.KindGetter
	case node.Setter != "":
		name, kind = node.Setter, core.KindSetter
	default:
		return
	}
	var t *core.TypeRef
	if node.Type != "" {
		t = d.typeRef(b, node.Type)
	}
	b.AddMember(builder.MemberSpec{
		Name:          name,
		Kind:          kind,
		Type:          t,
		Offset:        d.next(),
		Modifiers:     modifiers(node),
		Documentation: node.Doc,
	})
}

// typeRef parses a textual annotation like "Map<K, p.V>" and registers
// every reference, nested arguments included, for deferred resolution.
func (d *Driver) typeRef(b *builder.LibraryBuilder, text string) *core.TypeRef {
	ref := parseTypeRef(text, b.URI, d.next())
	registerTypeRefs(b, ref)
	return ref
}

func registerTypeRefs(b *builder.LibraryBuilder, ref *core.TypeRef) {
	if ref == nil {
		return
	}
	b.AddType(ref)
	for _, arg := range ref.Arguments {
		registerTypeRefs(b, arg)
	}
}

func conditions(decls []ConditionDecl) []uris.Condition {
	var out []uris.Condition
	for _, c := range decls {
		out = append(out, uris.Condition{
			DottedName: c.Condition,
			Value:      c.Equals,
			URI:        c.URI,
		})
	}
	return out
}

func combinators(show, hide []string, offset int) []builder.Combinator {
	var out []builder.Combinator
	if len(show) > 0 {
		out = append(out, builder.Combinator{IsShow: true, Names: show, Offset: offset})
	}
	if len(hide) > 0 {
		out = append(out, builder.Combinator{IsShow: false, Names: hide, Offset: offset})
	}
	return out
}

func typeVariables(names []string, offset int) []*core.TypeVariable {
	var out []*core.TypeVariable
	for _, name := range names {
		out = append(out, &core.TypeVariable{Name: name, Offset: offset})
	}
	return out
}

func modifiers(node *DeclNode) core.Modifier {
	var m core.Modifier
	if node.Final {
		m |= core.ModifierFinal
	}
	if node.Const {
		m |= core.ModifierConst
	}
	if node.Static {
		m |= core.ModifierStatic
	}
	if node.Abstract {
		m |= core.ModifierAbstract
	}
	return m
}
