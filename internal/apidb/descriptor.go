package apidb

import (
	"fmt"
	"strings"
)

// baseTypes maps JVM base type descriptors to Java source names.
var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// parseDescriptor decodes the parameter types of a JVM method descriptor
// ("(ILjava/lang/String;)V" → ["int", "java.lang.String"]). The return
// type is ignored: signatures identify methods by name and parameters.
func parseDescriptor(desc string) ([]string, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, fmt.Errorf("descriptor %q: missing (", desc)
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 {
		return nil, fmt.Errorf("descriptor %q: missing )", desc)
	}

	params := []string{}
	s := desc[1:end]
	for len(s) > 0 {
		typ, rest, err := parseFieldType(s)
		if err != nil {
			return nil, fmt.Errorf("descriptor %q: %w", desc, err)
		}
		params = append(params, typ)
		s = rest
	}
	return params, nil
}

// parseFieldType consumes one field type from the front of s.
func parseFieldType(s string) (string, string, error) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	s = s[dims:]
	if s == "" {
		return "", "", fmt.Errorf("truncated after array marker")
	}

	var typ, rest string
	switch c := s[0]; {
	case c == 'L':
		semi := strings.IndexByte(s, ';')
		if semi < 0 {
			return "", "", fmt.Errorf("unterminated object type")
		}
		typ = dottedClassName(s[1:semi])
		rest = s[semi+1:]
	default:
		base, ok := baseTypes[c]
		if !ok {
			return "", "", fmt.Errorf("unknown base type %q", string(c))
		}
		typ = base
		rest = s[1:]
	}
	return typ + strings.Repeat("[]", dims), rest, nil
}

// dottedClassName converts a JVM internal class name to dotted source
// form: android/view/View$MeasureSpec → android.view.View.MeasureSpec.
func dottedClassName(internal string) string {
	name := strings.ReplaceAll(internal, "/", ".")
	return strings.ReplaceAll(name, "$", ".")
}
