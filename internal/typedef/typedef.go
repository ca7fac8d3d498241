// Package typedef recognizes typedef annotation classes (named aliases
// over a restricted set of int or string constants) and either records
// them in a recipe file for a later out-of-band removal step or strips
// them from the store before export.
package typedef

import (
	"strings"

	"github.com/jward/annex/internal/atomicfile"
	"github.com/jward/annex/internal/markers"
	"github.com/jward/annex/internal/store"
)

// Classify returns the class-level signatures in the store whose record
// set contains a typedef marker, in sorted signature order.
func Classify(s *store.Store) []store.Signature {
	var out []store.Signature
	for _, sig := range s.Signatures() {
		if !sig.IsClass() {
			continue
		}
		for _, rec := range s.Records(sig) {
			if markers.IsTypedef(rec.Type) {
				out = append(out, sig)
				break
			}
		}
	}
	return out
}

// WriteRecipe writes the typedef class signatures as a line-oriented
// recipe file, one fully-qualified class name per line, leaving the
// store untouched so that the exporter still emits them: removal happens
// later against compiled output.
func WriteRecipe(path string, sigs []store.Signature) error {
	var b strings.Builder
	for _, sig := range sigs {
		b.WriteString("D " + sig.Class)
		b.WriteByte('\n')
	}
	return atomicfile.WriteFile(path, []byte(b.String()))
}

// Strip removes the typedef classes, members included, from the store.
// Used when no later removal step exists in the run.
func Strip(s *store.Store, sigs []store.Signature) {
	for _, sig := range sigs {
		s.RemoveClass(sig.Class)
	}
}
