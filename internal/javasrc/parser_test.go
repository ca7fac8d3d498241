package javasrc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) *Unit {
	t.Helper()
	unit, err := Parse(context.Background(), "Test.java", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, unit)
	return unit
}

func TestParse_ClassWithAnnotatedMethod(t *testing.T) {
	unit := parseSource(t, `package foo;

import androidx.annotation.Keep;

public class Bar {
    @Keep
    public void bar(int count) {
    }
}
`)
	assert.Equal(t, "foo", unit.Package)
	require.Len(t, unit.Imports, 1)
	assert.Equal(t, "androidx.annotation.Keep", unit.Imports[0].Path)

	require.Len(t, unit.Classes, 1)
	cls := unit.Classes[0]
	assert.Equal(t, KindClass, cls.Kind)
	assert.Equal(t, "foo.Bar", cls.FQN)

	require.Len(t, cls.Methods, 1)
	m := cls.Methods[0]
	assert.Equal(t, "bar", m.Name)
	require.Len(t, m.Annotations, 1)
	assert.Equal(t, "Keep", m.Annotations[0].Name)
	require.Len(t, m.Params, 1)
	assert.Equal(t, "int", m.Params[0].Type)
	assert.Equal(t, 0, m.Params[0].Index)
}

func TestParse_AnnotationArguments(t *testing.T) {
	unit := parseSource(t, `package foo;

public class Bar {
    @IntRange(from = 0, to = 100)
    public int percent;

    @SuppressWarnings("unchecked")
    Object raw;
}
`)
	cls := unit.Classes[0]
	require.Len(t, cls.Fields, 2)

	ranged := cls.Fields[0]
	require.Len(t, ranged.Annotations, 1)
	ann := ranged.Annotations[0]
	assert.Equal(t, "IntRange", ann.Name)
	require.Len(t, ann.Args, 2)
	assert.Equal(t, Arg{Name: "from", Raw: "0"}, ann.Args[0])
	assert.Equal(t, Arg{Name: "to", Raw: "100"}, ann.Args[1])

	// Single-element form normalizes to "value".
	suppressed := cls.Fields[1].Annotations[0]
	require.Len(t, suppressed.Args, 1)
	assert.Equal(t, Arg{Name: "value", Raw: `"unchecked"`}, suppressed.Args[0])
}

func TestParse_ParameterAnnotations(t *testing.T) {
	unit := parseSource(t, `package foo;

public class Bar {
    public String join(@NonNull String sep, @Nullable String... parts) {
        return sep;
    }
}
`)
	m := unit.Classes[0].Methods[0]
	require.Len(t, m.Params, 2)

	require.Len(t, m.Params[0].Annotations, 1)
	assert.Equal(t, "NonNull", m.Params[0].Annotations[0].Name)
	assert.Equal(t, "String", m.Params[0].Type)

	require.Len(t, m.Params[1].Annotations, 1)
	assert.Equal(t, "Nullable", m.Params[1].Annotations[0].Name)
	assert.Equal(t, "String...", m.Params[1].Type)
}

func TestParse_AnnotationTypeDeclaration(t *testing.T) {
	unit := parseSource(t, `package foo;

import java.lang.annotation.Retention;
import java.lang.annotation.RetentionPolicy;

@Retention(RetentionPolicy.SOURCE)
@IntDef({NAVIGATION_MODE_STANDARD, NAVIGATION_MODE_LIST})
public @interface NavigationMode {
}
`)
	cls := unit.Classes[0]
	assert.Equal(t, KindAnnotation, cls.Kind)
	assert.Equal(t, "foo.NavigationMode", cls.FQN)

	require.Len(t, cls.Annotations, 2)
	assert.Equal(t, "Retention", cls.Annotations[0].Name)
	assert.Equal(t, "RetentionPolicy.SOURCE", cls.Annotations[0].Args[0].Raw)
	assert.Equal(t, "IntDef", cls.Annotations[1].Name)
	assert.Equal(t, "{NAVIGATION_MODE_STANDARD, NAVIGATION_MODE_LIST}", cls.Annotations[1].Args[0].Raw)
}

func TestParse_NestedClasses(t *testing.T) {
	unit := parseSource(t, `package foo;

public class Outer {
    public static class Inner {
        @Keep int kept;
    }
}
`)
	outer := unit.Classes[0]
	require.Len(t, outer.Nested, 1)
	inner := outer.Nested[0]
	assert.Equal(t, "foo.Outer.Inner", inner.FQN)
	require.Len(t, inner.Fields, 1)
	assert.Equal(t, "Keep", inner.Fields[0].Annotations[0].Name)

	var fqns []string
	unit.EachClass(func(c *Class) { fqns = append(fqns, c.FQN) })
	assert.Equal(t, []string{"foo.Outer", "foo.Outer.Inner"}, fqns)
}

func TestParse_EnumAndInterface(t *testing.T) {
	unit := parseSource(t, `package foo;

public interface Api {
    String NAME = "api";
    @Keep void call();
}
`)
	api := unit.Classes[0]
	assert.Equal(t, KindInterface, api.Kind)
	require.Len(t, api.Fields, 1)
	assert.Equal(t, "NAME", api.Fields[0].Name)
	require.Len(t, api.Methods, 1)
	assert.Equal(t, "Keep", api.Methods[0].Annotations[0].Name)
}

func TestParse_GenericErasure(t *testing.T) {
	unit := parseSource(t, `package foo;

public class Bar {
    public void accept(java.util.List<String> items, Map<String, Integer> counts) {
    }
}
`)
	m := unit.Classes[0].Methods[0]
	require.Len(t, m.Params, 2)
	assert.Equal(t, "java.util.List", m.Params[0].Type)
	assert.Equal(t, "Map", m.Params[1].Type)
}

func TestParse_SyntaxError(t *testing.T) {
	unit, err := Parse(context.Background(), "Broken.java", []byte(`package foo;

public class Bar {
    public void bar( {
}
`))
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Broken.java", perr.Path)
	assert.Greater(t, perr.Line, 0)

	// Best-effort structure is still returned for allow-errors callers.
	require.NotNil(t, unit)
	assert.Equal(t, "foo", unit.Package)
}

func TestParse_WildcardAndStaticImports(t *testing.T) {
	unit := parseSource(t, `package foo;

import androidx.annotation.*;
import static foo.Constants.MAX;

public class Bar {}
`)
	require.Len(t, unit.Imports, 2)
	assert.True(t, unit.Imports[0].Wildcard)
	assert.Equal(t, "androidx.annotation", unit.Imports[0].Path)
	assert.True(t, unit.Imports[1].Static)
}
