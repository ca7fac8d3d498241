package export

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/annex/internal/store"
)

func storeWithKeepMethod(t *testing.T) *store.Store {
	t.Helper()
	s := store.NewStore()
	sig := store.MethodSignature("foo.Bar", "bar", []string{"int"})
	require.True(t, s.Insert(sig, store.Record{Type: "androidx.annotation.Keep"}))
	return s
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	entries := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = string(data)
	}
	return entries
}

func TestWriteArchive_OneDocumentPerTopLevelClass(t *testing.T) {
	s := storeWithKeepMethod(t)
	s.Insert(store.FieldSignature("foo.Bar.Inner", "f"), store.Record{Type: "androidx.annotation.NonNull"})
	s.Insert(store.ClassSignature("other.Thing"), store.Record{Type: "androidx.annotation.Keep"})

	dest := filepath.Join(t.TempDir(), "annotations.zip")
	require.NoError(t, WriteArchive(s, dest))

	entries := readArchive(t, dest)
	require.Len(t, entries, 2)

	bar := entries["foo/Bar.annotations.xml"]
	require.NotEmpty(t, bar)
	// Nested-class signatures group under the top-level class document.
	assert.Contains(t, bar, `name="foo.Bar bar(int)"`)
	assert.Contains(t, bar, `name="foo.Bar.Inner f"`)
	assert.Contains(t, bar, `name="androidx.annotation.Keep"`)

	assert.Contains(t, entries, "other/Thing.annotations.xml")
}

func TestWriteArchive_AttributeValuesEscaped(t *testing.T) {
	s := store.NewStore()
	s.Insert(store.FieldSignature("foo.Bar", "f"), store.Record{
		Type: "androidx.annotation.StringDef",
		Attrs: []store.Attr{{
			Name:  "value",
			Value: store.StringValue(`"<a & b>"`),
		}},
	})

	dest := filepath.Join(t.TempDir(), "annotations.zip")
	require.NoError(t, WriteArchive(s, dest))

	doc := readArchive(t, dest)["foo/Bar.annotations.xml"]
	assert.Contains(t, doc, "&lt;a &amp; b&gt;")
	assert.NotContains(t, doc, "<a & b>")
}

func TestWriteArchive_Deterministic(t *testing.T) {
	build := func(insertOrder []string) []byte {
		s := store.NewStore()
		for _, class := range insertOrder {
			s.Insert(store.ClassSignature(class), store.Record{Type: "androidx.annotation.Keep"})
		}
		dest := filepath.Join(t.TempDir(), "annotations.zip")
		require.NoError(t, WriteArchive(s, dest))
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		return data
	}

	first := build([]string{"a.A", "b.B", "c.C"})
	second := build([]string{"c.C", "a.A", "b.B"})
	assert.Equal(t, first, second, "archives must be byte-identical regardless of insertion order")
}

func TestWriteKeepRules(t *testing.T) {
	s := storeWithKeepMethod(t)
	s.Insert(store.ClassSignature("foo.Api"), store.Record{Type: "androidx.annotation.Keep"})
	s.Insert(store.FieldSignature("foo.Api", "NAME"), store.Record{Type: "androidx.annotation.Keep"})
	// Non-keep records generate nothing.
	s.Insert(store.FieldSignature("foo.Api", "other"), store.Record{Type: "androidx.annotation.NonNull"})

	dest := filepath.Join(t.TempDir(), "proguard.txt")
	require.NoError(t, WriteKeepRules(s, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "-keep class foo.Api\n")
	assert.Contains(t, text, "-keepclassmembers class foo.Api {\n    *** NAME;\n}\n")
	assert.Contains(t, text, "-keepclassmembers class foo.Bar {\n    *** bar(int);\n}\n")
	assert.NotContains(t, text, "other")

	// Lexicographic signature order: foo.Api before foo.Api NAME before foo.Bar.
	apiIdx := strings.Index(text, "-keep class foo.Api")
	nameIdx := strings.Index(text, "*** NAME;")
	barIdx := strings.Index(text, "*** bar(int);")
	assert.Less(t, apiIdx, nameIdx)
	assert.Less(t, nameIdx, barIdx)
}

func TestWriteKeepRules_Constructor(t *testing.T) {
	s := store.NewStore()
	s.Insert(store.MethodSignature("foo.Bar", "Bar", []string{"int"}), store.Record{Type: "androidx.annotation.Keep"})

	dest := filepath.Join(t.TempDir(), "proguard.txt")
	require.NoError(t, WriteKeepRules(s, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<init>(int);")
}

func TestWriteKeepRules_EmptyFileStillWritten(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "proguard.txt")
	require.NoError(t, WriteKeepRules(store.NewStore(), dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteKeepRules_ParamKeepMapsToMethod(t *testing.T) {
	s := store.NewStore()
	s.Insert(store.ParamSignature("foo.Bar", "bar", []string{"int"}, 0), store.Record{Type: "androidx.annotation.Keep"})

	dest := filepath.Join(t.TempDir(), "proguard.txt")
	require.NoError(t, WriteKeepRules(s, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "*** bar(int);")
}

func TestWrite_NoPartialFileOnFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing", "sub")
	dest := filepath.Join(dir, "annotations.zip")

	err := WriteArchive(storeWithKeepMethod(t), dest)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := &Document{Items: []Item{{
		Name: "foo.Bar bar(int) 0",
		Annotations: []AnnotationDoc{{
			Name: "androidx.annotation.IntRange",
			Vals: []Val{{Name: "from", Val: "0"}, {Name: "to", Val: "100"}},
		}},
	}}}

	data, err := EncodeDocument(doc)
	require.NoError(t, err)

	decoded, err := DecodeDocument(data)
	require.NoError(t, err)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, doc.Items[0], decoded.Items[0])
}

func TestEntryPath(t *testing.T) {
	assert.Equal(t, "foo/bar/Baz.annotations.xml", EntryPath("foo.bar.Baz"))
	assert.Equal(t, "Baz.annotations.xml", EntryPath("Baz"))
}
