package javasrc

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Parse parses one Java source file. The returned unit is always usable;
// when the source is malformed the unit carries whatever structure parsed
// and the error is a *ParseError locating the first syntax error. Callers
// enforcing a strict policy treat the error as fatal; callers with an
// allow-errors policy keep the unit and log the error as a diagnostic.
func Parse(ctx context.Context, path string, src []byte) (*Unit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()

	unit := &Unit{Path: path}
	p := &unitParser{src: src, unit: unit}
	p.program(root)

	if root.HasError() {
		return unit, p.firstError(root, path)
	}
	return unit, nil
}

type unitParser struct {
	src  []byte
	unit *Unit
}

func (p *unitParser) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(p.src)
}

// program walks the top-level declarations of a compilation unit.
func (p *unitParser) program(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			p.unit.Package = p.packageName(child)
		case "import_declaration":
			p.unit.Imports = append(p.unit.Imports, p.importDecl(child))
		default:
			if cls := p.classLike(child, p.unit.Package); cls != nil {
				p.unit.Classes = append(p.unit.Classes, cls)
			}
		}
	}
}

func (p *unitParser) packageName(node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if t := child.Type(); t == "scoped_identifier" || t == "identifier" {
			return p.text(child)
		}
	}
	return ""
}

func (p *unitParser) importDecl(node *sitter.Node) Import {
	imp := Import{}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		case "scoped_identifier", "identifier":
			imp.Path = p.text(child)
		}
	}
	return imp
}

// classLike converts a class, interface, enum or annotation-type
// declaration node, or returns nil for other node types. enclosing is the
// dotted prefix (package, then outer classes) for FQN construction.
func (p *unitParser) classLike(node *sitter.Node, enclosing string) *Class {
	var kind ClassKind
	switch node.Type() {
	case "class_declaration":
		kind = KindClass
	case "interface_declaration":
		kind = KindInterface
	case "enum_declaration":
		kind = KindEnum
	case "annotation_type_declaration":
		kind = KindAnnotation
	default:
		return nil
	}

	name := p.text(node.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	fqn := name
	if enclosing != "" {
		fqn = enclosing + "." + name
	}

	cls := &Class{
		Kind:        kind,
		Name:        name,
		FQN:         fqn,
		Annotations: p.annotations(node),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	p.classBody(body, cls)
	return cls
}

func (p *unitParser) classBody(body *sitter.Node, cls *Class) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration", "constant_declaration":
			cls.Fields = append(cls.Fields, p.fields(member)...)
		case "method_declaration":
			cls.Methods = append(cls.Methods, p.method(member, false))
		case "constructor_declaration":
			cls.Methods = append(cls.Methods, p.method(member, true))
		case "annotation_type_element_declaration":
			cls.Methods = append(cls.Methods, p.annotationElement(member))
		case "enum_body_declarations":
			p.classBody(member, cls)
		case "class_declaration", "interface_declaration",
			"enum_declaration", "annotation_type_declaration":
			if nested := p.classLike(member, cls.FQN); nested != nil {
				cls.Nested = append(cls.Nested, nested)
			}
		}
	}
}

// fields expands a (possibly multi-declarator) field statement into one
// Field per declarator; the statement's annotations attach to each.
func (p *unitParser) fields(node *sitter.Node) []*Field {
	anns := p.annotations(node)
	typeName := erase(p.text(node.ChildByFieldName("type")))

	var out []*Field
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name := p.text(child.ChildByFieldName("name"))
		if name == "" {
			continue
		}
		out = append(out, &Field{Name: name, Type: typeName, Annotations: anns})
	}
	return out
}

func (p *unitParser) method(node *sitter.Node, constructor bool) *Method {
	m := &Method{
		Name:        p.text(node.ChildByFieldName("name")),
		Annotations: p.annotations(node),
		Constructor: constructor,
	}
	if !constructor {
		m.ReturnType = erase(p.text(node.ChildByFieldName("type")))
	}

	params := node.ChildByFieldName("parameters")
	if params == nil {
		return m
	}
	index := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "formal_parameter", "spread_parameter":
			m.Params = append(m.Params, p.param(child, index))
			index++
		}
	}
	return m
}

func (p *unitParser) param(node *sitter.Node, index int) *Param {
	prm := &Param{Index: index, Annotations: p.annotations(node)}
	if node.Type() == "spread_parameter" {
		// spread_parameter has no named fields: type and declarator are
		// plain children.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "variable_declarator" {
				prm.Name = p.text(child.ChildByFieldName("name"))
			} else if prm.Type == "" && child.Type() != "modifiers" {
				prm.Type = erase(p.text(child)) + "..."
			}
		}
		return prm
	}
	prm.Type = erase(p.text(node.ChildByFieldName("type")))
	prm.Name = p.text(node.ChildByFieldName("name"))
	return prm
}

// annotationElement converts an annotation-type member (`int value();`)
// into a zero-parameter method.
func (p *unitParser) annotationElement(node *sitter.Node) *Method {
	return &Method{
		Name:        p.text(node.ChildByFieldName("name")),
		ReturnType:  erase(p.text(node.ChildByFieldName("type"))),
		Annotations: p.annotations(node),
	}
}

// annotations collects the annotation uses from a declaration's modifiers
// node (or, for parameters, from direct annotation children).
func (p *unitParser) annotations(node *sitter.Node) []Annotation {
	var out []Annotation
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "modifiers":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if ann, ok := p.annotation(child.NamedChild(j)); ok {
					out = append(out, ann)
				}
			}
		case "marker_annotation", "annotation":
			if ann, ok := p.annotation(child); ok {
				out = append(out, ann)
			}
		}
	}
	return out
}

func (p *unitParser) annotation(node *sitter.Node) (Annotation, bool) {
	switch node.Type() {
	case "marker_annotation":
		return Annotation{
			Name: p.text(node.ChildByFieldName("name")),
			Line: int(node.StartPoint().Row) + 1,
		}, true
	case "annotation":
		ann := Annotation{
			Name: p.text(node.ChildByFieldName("name")),
			Line: int(node.StartPoint().Row) + 1,
		}
		args := node.ChildByFieldName("arguments")
		if args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				child := args.NamedChild(i)
				if child.Type() == "element_value_pair" {
					ann.Args = append(ann.Args, Arg{
						Name: p.text(child.ChildByFieldName("key")),
						Raw:  p.text(child.ChildByFieldName("value")),
					})
				} else {
					// Single-element form normalizes to "value".
					ann.Args = append(ann.Args, Arg{Name: "value", Raw: p.text(child)})
				}
			}
		}
		return ann, true
	}
	return Annotation{}, false
}

// firstError locates the first ERROR or missing node for a ParseError.
func (p *unitParser) firstError(root *sitter.Node, path string) *ParseError {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil || !n.HasError() {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	pos := root.StartPoint()
	if found != nil {
		pos = found.StartPoint()
	}
	return &ParseError{Path: path, Line: int(pos.Row) + 1, Col: int(pos.Column) + 1}
}

// erase strips generic type arguments from a type expression, yielding the
// erased form used in signatures: List<String> → List.
func erase(typeName string) string {
	if !strings.ContainsRune(typeName, '<') {
		return typeName
	}
	var b strings.Builder
	depth := 0
	for _, r := range typeName {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
