package store

import (
	"fmt"
	"strings"
)

// Signature is the stable textual identity of a declaration: a
// fully-qualified class name, optionally narrowed to a member and, for
// methods, a parameter-type list and an optional zero-based parameter
// index. The textual form produced by String is the universal join key:
// two signatures are equal iff their textual forms match exactly.
type Signature struct {
	// Class is the fully-qualified class name in dotted form. Nested
	// classes use '.' separators (pkg.Outer.Inner).
	Class string

	// Member is the method or field simple name; empty for a class-level
	// signature.
	Member string

	// Params holds the erased parameter type names for a method member.
	// A non-nil (possibly empty) slice marks the member as a method; nil
	// marks it as a field. The distinction matters for zero-argument
	// methods.
	Params []string

	// ParamIndex is the zero-based parameter position when the signature
	// addresses a single method parameter, or -1 otherwise.
	ParamIndex int
}

// ClassSignature returns a class-level signature.
func ClassSignature(class string) Signature {
	return Signature{Class: class, ParamIndex: -1}
}

// FieldSignature returns a signature addressing a field.
func FieldSignature(class, field string) Signature {
	return Signature{Class: class, Member: field, ParamIndex: -1}
}

// MethodSignature returns a signature addressing a method. params may be
// empty but the result is always marked as a method.
func MethodSignature(class, method string, params []string) Signature {
	if params == nil {
		params = []string{}
	}
	return Signature{Class: class, Member: method, Params: params, ParamIndex: -1}
}

// ParamSignature returns a signature addressing the index-th parameter of
// a method.
func ParamSignature(class, method string, params []string, index int) Signature {
	sig := MethodSignature(class, method, params)
	sig.ParamIndex = index
	return sig
}

// IsClass reports whether the signature addresses a class.
func (s Signature) IsClass() bool { return s.Member == "" }

// IsMethod reports whether the signature addresses a method or one of its
// parameters.
func (s Signature) IsMethod() bool { return s.Member != "" && s.Params != nil }

// IsField reports whether the signature addresses a field.
func (s Signature) IsField() bool { return s.Member != "" && s.Params == nil }

// TopLevelClass returns the fully-qualified name of the outermost class
// containing this declaration. Nested class components are recognized by
// their leading upper-case letter, package components by lower-case, which
// follows standard Java naming. A name with no upper-case component is
// returned unchanged.
func (s Signature) TopLevelClass() string {
	parts := strings.Split(s.Class, ".")
	for i, p := range parts {
		if p != "" && p[0] >= 'A' && p[0] <= 'Z' {
			return strings.Join(parts[:i+1], ".")
		}
	}
	return s.Class
}

// MemberLevel strips any parameter index, returning the signature of the
// containing member (or the signature unchanged for class and member
// signatures). Used for API filter lookups, which have no parameter
// granularity.
func (s Signature) MemberLevel() Signature {
	s.ParamIndex = -1
	return s
}

// ClassLevel returns the class-level signature for this declaration.
func (s Signature) ClassLevel() Signature {
	return ClassSignature(s.Class)
}

// String renders the canonical textual form:
//
//	pkg.Outer.Inner
//	pkg.Outer.Inner FIELD
//	pkg.Outer.Inner name(int, java.lang.String)
//	pkg.Outer.Inner name(int, java.lang.String) 0
func (s Signature) String() string {
	if s.Member == "" {
		return s.Class
	}
	var b strings.Builder
	b.WriteString(s.Class)
	b.WriteByte(' ')
	b.WriteString(s.Member)
	if s.Params != nil {
		b.WriteByte('(')
		b.WriteString(strings.Join(s.Params, ", "))
		b.WriteByte(')')
	}
	if s.ParamIndex >= 0 {
		fmt.Fprintf(&b, " %d", s.ParamIndex)
	}
	return b.String()
}

// ParseSignature inverts String. It fails on forms String cannot produce.
func ParseSignature(text string) (Signature, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Signature{}, fmt.Errorf("parse signature: empty")
	}

	class, rest, found := strings.Cut(text, " ")
	if !found {
		return ClassSignature(class), nil
	}

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		// Field form: no parameter list, no index.
		if strings.ContainsAny(rest, " )") {
			return Signature{}, fmt.Errorf("parse signature %q: malformed member", text)
		}
		return FieldSignature(class, rest), nil
	}

	closing := strings.LastIndexByte(rest, ')')
	if closing < open {
		return Signature{}, fmt.Errorf("parse signature %q: unbalanced parameter list", text)
	}

	method := rest[:open]
	var params []string
	if inner := rest[open+1 : closing]; inner != "" {
		params = strings.Split(inner, ", ")
	}
	sig := MethodSignature(class, method, params)

	if tail := strings.TrimSpace(rest[closing+1:]); tail != "" {
		var index int
		if _, err := fmt.Sscanf(tail, "%d", &index); err != nil || index < 0 {
			return Signature{}, fmt.Errorf("parse signature %q: bad parameter index %q", text, tail)
		}
		sig.ParamIndex = index
	}
	return sig, nil
}
