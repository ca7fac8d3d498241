// Package javasrc turns Java source text into a structured tree of
// declarations (classes, methods, fields, parameters) with their attached
// annotation syntax, using tree-sitter. No semantic compilation is
// involved: annotation names are captured as written and resolved later.
package javasrc

import "fmt"

// ClassKind distinguishes the top-level declaration forms.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindEnum
	KindAnnotation // @interface declaration
)

func (k ClassKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindAnnotation:
		return "@interface"
	}
	return "unknown"
}

// Unit is one parsed source file.
type Unit struct {
	Path    string
	Package string
	Imports []Import
	Classes []*Class // top-level declarations only; nested are reachable via Nested
}

// Import is a single import declaration.
type Import struct {
	Path     string // dotted path as written, without the trailing .*
	Wildcard bool
	Static   bool
}

// Annotation is one annotation use as written in source. A single-element
// annotation (@Foo(expr)) is normalized to an argument named "value".
type Annotation struct {
	Name string // as written: simple, partially or fully qualified
	Args []Arg
	Line int // 1-based, for diagnostics
}

// Arg is one named annotation argument with its raw literal expression.
type Arg struct {
	Name string
	Raw  string
}

// Class is a class, interface, enum or annotation-type declaration.
type Class struct {
	Kind        ClassKind
	Name        string // simple name
	FQN         string // package + enclosing classes + name, dotted
	Annotations []Annotation
	Fields      []*Field
	Methods     []*Method
	Nested      []*Class
}

// Field is a single field declarator. A multi-declarator field statement
// produces one Field per declarator, each carrying the shared annotations.
type Field struct {
	Name        string
	Type        string
	Annotations []Annotation
}

// Method is a method or constructor declaration.
type Method struct {
	Name        string
	ReturnType  string // "" for constructors
	Params      []*Param
	Annotations []Annotation
	Constructor bool
}

// Param is one formal parameter.
type Param struct {
	Name        string
	Type        string // erased: generics stripped, as written otherwise
	Index       int    // zero-based position
	Annotations []Annotation
}

// ParseError reports malformed source. The unit returned alongside it
// retains whatever structure parsed; whether that partial unit is used is
// the caller's allow-errors policy.
type ParseError struct {
	Path string
	Line int // 1-based
	Col  int // 1-based
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Col)
}

// Walk visits cls and every nested class beneath it, outermost first.
func (c *Class) Walk(visit func(*Class)) {
	visit(c)
	for _, n := range c.Nested {
		n.Walk(visit)
	}
}

// EachClass visits every class in the unit, nested included.
func (u *Unit) EachClass(visit func(*Class)) {
	for _, c := range u.Classes {
		c.Walk(visit)
	}
}
