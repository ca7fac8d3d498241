// Package markers names the annotation types the pipeline gives special
// meaning to: the keep marker that feeds the shrinker keep-rule output,
// the typedef markers that declare int/string constant aliases, and the
// annotation namespaces treated as extractable regardless of a classpath
// retention lookup.
package markers

import "strings"

// keepTypes are the retention-marker annotations: elements carrying one
// must be kept by the code shrinker.
var keepTypes = map[string]bool{
	"androidx.annotation.Keep":              true,
	"android.support.annotation.Keep":       true,
	"com.android.internal.annotations.Keep": true,
}

// typedefTypes declare a named alias over a restricted set of int or
// string constants.
var typedefTypes = map[string]bool{
	"androidx.annotation.IntDef":           true,
	"androidx.annotation.StringDef":        true,
	"androidx.annotation.LongDef":          true,
	"android.support.annotation.IntDef":    true,
	"android.support.annotation.StringDef": true,
	"android.support.annotation.LongDef":   true,
}

// extractableNamespaces are annotation packages whose members are
// documentation metadata by definition and are extracted even when no
// source declaration reveals their retention.
var extractableNamespaces = []string{
	"androidx.annotation.",
	"android.support.annotation.",
}

// IsKeep reports whether fqcn is a keep marker.
func IsKeep(fqcn string) bool { return keepTypes[fqcn] }

// IsTypedef reports whether fqcn is a typedef marker.
func IsTypedef(fqcn string) bool { return typedefTypes[fqcn] }

// InExtractableNamespace reports whether fqcn belongs to a namespace
// whose annotations are always extracted.
func InExtractableNamespace(fqcn string) bool {
	for _, ns := range extractableNamespaces {
		if strings.HasPrefix(fqcn, ns) {
			return true
		}
	}
	return false
}
