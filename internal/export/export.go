// Package export serializes the final annotation store into the two run
// artifacts: the zipped external-annotations archive consumed by IDEs and
// lint, and the keep-rule file consumed by the code shrinker. Both writes
// are atomic: content goes to a temporary file that is renamed into place
// only on success, so no partial artifact ever survives a failure.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jward/annex/internal/atomicfile"
	"github.com/jward/annex/internal/markers"
	"github.com/jward/annex/internal/store"
)

// WriteArchive writes the external-annotations archive: one XML document
// per top-level class, entries sorted by path. Entry timestamps are left
// at the zip zero value so identical stores produce byte-identical
// archives.
func WriteArchive(s *store.Store, dest string) error {
	docs := BuildDocuments(s)

	paths := make([]string, 0, len(docs))
	byPath := make(map[string]*Document, len(docs))
	for top, doc := range docs {
		p := EntryPath(top)
		paths = append(paths, p)
		byPath[p] = doc
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range paths {
		data, err := EncodeDocument(byPath[p])
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", p, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("archive entry %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	return atomicfile.WriteFile(dest, buf.Bytes())
}

// WriteKeepRules writes one shrinker directive per signature whose
// records include a keep marker, in lexicographic signature order. An
// empty but valid file is written when nothing qualifies: downstream
// tooling expects the output to exist.
func WriteKeepRules(s *store.Store, dest string) error {
	var b strings.Builder
	emitted := make(map[string]bool)
	for _, sig := range s.Signatures() { // sorted by textual form
		if !hasKeepMarker(s, sig) {
			continue
		}
		// Parameter signatures collapse onto their method, which can
		// also carry its own marker.
		directive := keepDirective(sig.MemberLevel())
		if emitted[directive] {
			continue
		}
		emitted[directive] = true
		b.WriteString(directive)
		b.WriteByte('\n')
	}
	return atomicfile.WriteFile(dest, []byte(b.String()))
}

func hasKeepMarker(s *store.Store, sig store.Signature) bool {
	for _, rec := range s.Records(sig) {
		if markers.IsKeep(rec.Type) {
			return true
		}
	}
	return false
}

// keepDirective renders a single ProGuard directive for a class, field or
// method signature. Member return types are not part of signatures, so
// members use the *** wildcard, which matches any type.
func keepDirective(sig store.Signature) string {
	switch {
	case sig.IsClass():
		return fmt.Sprintf("-keep class %s", sig.Class)
	case sig.IsField():
		return fmt.Sprintf("-keepclassmembers class %s {\n    *** %s;\n}", sig.Class, sig.Member)
	default:
		params := strings.Join(sig.Params, ", ")
		if sig.Member == simpleName(sig.Class) {
			// Constructors keep by their JVM name, with no return type.
			return fmt.Sprintf("-keepclassmembers class %s {\n    <init>(%s);\n}", sig.Class, params)
		}
		return fmt.Sprintf("-keepclassmembers class %s {\n    *** %s(%s);\n}",
			sig.Class, sig.Member, params)
	}
}

func simpleName(class string) string {
	if dot := strings.LastIndexByte(class, '.'); dot >= 0 {
		return class[dot+1:]
	}
	return class
}
