package store

import (
	"strings"
)

// ValueKind classifies an annotation attribute value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueArray
)

// Value is a literal annotation attribute value. Text holds the canonical
// literal rendering (string literals keep their quotes); Array values
// additionally carry their element values. Nested annotations are not
// representable and are dropped at extraction time.
type Value struct {
	Kind  ValueKind
	Text  string
	Items []Value
}

// StringValue returns a Value for an already-rendered literal string
// (quotes included for quoted literals).
func StringValue(text string) Value {
	return Value{Kind: ValueString, Text: text}
}

// NumberValue returns a numeric Value preserving the source literal.
func NumberValue(text string) Value {
	return Value{Kind: ValueNumber, Text: text}
}

// BoolValue returns a boolean Value.
func BoolValue(v bool) Value {
	if v {
		return Value{Kind: ValueBool, Text: "true"}
	}
	return Value{Kind: ValueBool, Text: "false"}
}

// ArrayValue returns an array Value with a canonical brace rendering.
func ArrayValue(items []Value) Value {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	return Value{
		Kind:  ValueArray,
		Text:  "{" + strings.Join(texts, ", ") + "}",
		Items: items,
	}
}

// ParseLiteral classifies a raw literal expression into a Value. It
// returns ok=false for expressions the model cannot represent (nested
// annotations, lambda or class literals); callers drop those with a
// diagnostic. Bare identifiers such as constant references are kept
// verbatim as string-kind values so that downstream consumers still see
// the source-level expression.
func ParseLiteral(raw string) (Value, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}, false
	}

	switch raw[0] {
	case '@':
		return Value{}, false // nested annotation
	case '"', '\'':
		return StringValue(raw), true
	case '{':
		if !strings.HasSuffix(raw, "}") {
			return Value{}, false
		}
		var items []Value
		for _, part := range splitTopLevel(raw[1 : len(raw)-1]) {
			item, ok := ParseLiteral(part)
			if !ok {
				return Value{}, false
			}
			items = append(items, item)
		}
		return ArrayValue(items), true
	}

	if raw == "true" || raw == "false" {
		return BoolValue(raw == "true"), true
	}
	if c := raw[0]; c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9') {
		return NumberValue(raw), true
	}
	if strings.Contains(raw, "->") || strings.HasSuffix(raw, ".class") {
		return Value{}, false
	}
	return StringValue(raw), true
}

// splitTopLevel splits a comma-separated list at depth zero with respect
// to braces, parens and string literals.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					parts = append(parts, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}
