package resolve

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/annex/internal/javasrc"
)

func unitWithImports(pkg string, imports ...javasrc.Import) *javasrc.Unit {
	return &javasrc.Unit{Path: "Test.java", Package: pkg, Imports: imports}
}

func TestResolve_ExactImport(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo", javasrc.Import{Path: "androidx.annotation.Keep"})

	fqcn, ok := r.Resolve(unit, "Keep")
	require.True(t, ok)
	assert.Equal(t, "androidx.annotation.Keep", fqcn)
}

func TestResolve_FullyQualified(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo")

	fqcn, ok := r.Resolve(unit, "androidx.annotation.NonNull")
	require.True(t, ok)
	assert.Equal(t, "androidx.annotation.NonNull", fqcn)
}

func TestResolve_InnerViaImport(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo", javasrc.Import{Path: "bar.Outer"})

	fqcn, ok := r.Resolve(unit, "Outer.Inner")
	require.True(t, ok)
	assert.Equal(t, "bar.Outer.Inner", fqcn)
}

func TestResolve_SamePackageDefined(t *testing.T) {
	r := NewClasspathResolver(nil)
	r.Define("foo.NavigationMode")
	unit := unitWithImports("foo")

	fqcn, ok := r.Resolve(unit, "NavigationMode")
	require.True(t, ok)
	assert.Equal(t, "foo.NavigationMode", fqcn)
}

func TestResolve_WildcardImportAgainstIndex(t *testing.T) {
	r := NewClasspathResolver(nil)
	r.Define("libs.Marker")
	unit := unitWithImports("foo", javasrc.Import{Path: "libs", Wildcard: true})

	fqcn, ok := r.Resolve(unit, "Marker")
	require.True(t, ok)
	assert.Equal(t, "libs.Marker", fqcn)
}

func TestResolve_JavaLangImplicit(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo")

	fqcn, ok := r.Resolve(unit, "Retention")
	require.True(t, ok)
	assert.Equal(t, "java.lang.annotation.Retention", fqcn)

	fqcn, ok = r.Resolve(unit, "SuppressWarnings")
	require.True(t, ok)
	assert.Equal(t, "java.lang.SuppressWarnings", fqcn)
}

func TestResolve_WellKnownWildcard(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo", javasrc.Import{Path: "androidx.annotation", Wildcard: true})

	fqcn, ok := r.Resolve(unit, "IntDef")
	require.True(t, ok)
	assert.Equal(t, "androidx.annotation.IntDef", fqcn)
}

func TestResolve_Unresolved(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo")

	_, ok := r.Resolve(unit, "Mystery")
	assert.False(t, ok)
}

func TestResolve_CacheInvalidatedByDefine(t *testing.T) {
	r := NewClasspathResolver(nil)
	unit := unitWithImports("foo")

	_, ok := r.Resolve(unit, "Marker")
	require.False(t, ok)

	r.Define("foo.Marker")
	fqcn, ok := r.Resolve(unit, "Marker")
	require.True(t, ok)
	assert.Equal(t, "foo.Marker", fqcn)
}

func writeTestJar(t *testing.T, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte{0xCA, 0xFE, 0xBA, 0xBE})
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestClasspath_JarIndexing(t *testing.T) {
	jar := writeTestJar(t,
		"android/support/annotation/Keep.class",
		"android/support/annotation/Nullable.class",
		"android/view/View$MeasureSpec.class",
		"META-INF/MANIFEST.MF",
		"module-info.class",
	)
	r := NewClasspathResolver([]string{jar})

	assert.True(t, r.Contains("android.support.annotation.Keep"))
	assert.True(t, r.Contains("android.view.View.MeasureSpec"))
	assert.False(t, r.Contains("module-info"))

	unit := unitWithImports("foo", javasrc.Import{Path: "android.support.annotation", Wildcard: true})
	fqcn, ok := r.Resolve(unit, "Nullable")
	require.True(t, ok)
	assert.Equal(t, "android.support.annotation.Nullable", fqcn)
}

func TestClasspath_DirIndexing(t *testing.T) {
	dir := t.TempDir()
	classFile := filepath.Join(dir, "com", "example", "Marker.class")
	require.NoError(t, os.MkdirAll(filepath.Dir(classFile), 0755))
	require.NoError(t, os.WriteFile(classFile, []byte{0xCA, 0xFE}, 0644))

	r := NewClasspathResolver([]string{dir})
	assert.True(t, r.Contains("com.example.Marker"))
}

func TestClasspath_UnreadableEntrySkipped(t *testing.T) {
	r := NewClasspathResolver([]string{filepath.Join(t.TempDir(), "missing.jar")})
	assert.False(t, r.Contains("anything.At.All"))
}
