// Package resolve maps annotation names as written in source to
// fully-qualified type names. Resolution is deliberately best-effort: it
// uses the unit's imports, classes declared in the same run, a classpath
// name index, and a table of well-known annotation types, never a
// compiler front-end. Incomplete classpaths are common in partial builds,
// so an unresolved name is an answer, not an error.
package resolve

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/annex/internal/javasrc"
)

// Resolver resolves an annotation name in the context of the unit it was
// written in. ok=false means unresolved; the caller drops the annotation
// with a diagnostic.
type Resolver interface {
	Resolve(unit *javasrc.Unit, name string) (fqcn string, ok bool)
}

// javaLangAnnotations are implicitly importable without any classpath.
var javaLangAnnotations = map[string]string{
	"Override":            "java.lang.Override",
	"Deprecated":          "java.lang.Deprecated",
	"SuppressWarnings":    "java.lang.SuppressWarnings",
	"SafeVarargs":         "java.lang.SafeVarargs",
	"FunctionalInterface": "java.lang.FunctionalInterface",
	"Retention":           "java.lang.annotation.Retention",
	"Target":              "java.lang.annotation.Target",
	"Documented":          "java.lang.annotation.Documented",
	"Inherited":           "java.lang.annotation.Inherited",
}

// wellKnown names the annotation namespaces assumed resolvable even off
// an incomplete classpath, mirroring how the surrounding build treats the
// support-annotations artifact.
var wellKnownPackages = []string{
	"androidx.annotation",
	"android.support.annotation",
}

const cacheSize = 4096

// ClasspathResolver is the default Resolver: a name index built from
// classpath jars and class directories, plus classes defined in the
// current run's source units. Resolution results are memoized in an LRU
// keyed by unit package and name.
type ClasspathResolver struct {
	mu       sync.RWMutex
	bySimple map[string][]string // simple name → FQCNs, insertion order
	all      map[string]bool     // every known FQCN
	cache    *lru.Cache[string, cacheResult]
}

type cacheResult struct {
	fqcn string
	ok   bool
}

// NewClasspathResolver indexes the given classpath entries (jar files or
// class directories). Entries that cannot be read are skipped: a partial
// classpath still resolves what it can.
func NewClasspathResolver(classpath []string) *ClasspathResolver {
	cache, _ := lru.New[string, cacheResult](cacheSize)
	r := &ClasspathResolver{
		bySimple: make(map[string][]string),
		all:      make(map[string]bool),
		cache:    cache,
	}
	for _, entry := range classpath {
		r.indexEntry(entry)
	}
	return r
}

// Define registers a class declared in the current run's sources, making
// it resolvable from other units.
func (r *ClasspathResolver) Define(fqcn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(fqcn)
	r.cache.Purge()
}

// Contains reports whether fqcn is known to the index. Used for the
// marker-annotation trigger check.
func (r *ClasspathResolver) Contains(fqcn string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.all[fqcn]
}

// add records a FQCN under its simple name. Caller holds the lock.
func (r *ClasspathResolver) add(fqcn string) {
	if r.all[fqcn] {
		return
	}
	r.all[fqcn] = true
	simple := fqcn
	if dot := strings.LastIndexByte(fqcn, '.'); dot >= 0 {
		simple = fqcn[dot+1:]
	}
	r.bySimple[simple] = append(r.bySimple[simple], fqcn)
}

// Resolve implements Resolver.
func (r *ClasspathResolver) Resolve(unit *javasrc.Unit, name string) (string, bool) {
	key := unit.Package + "\x00" + unit.Path + "\x00" + name
	if res, ok := r.cache.Get(key); ok {
		return res.fqcn, res.ok
	}
	fqcn, ok := r.resolve(unit, name)
	r.cache.Add(key, cacheResult{fqcn: fqcn, ok: ok})
	return fqcn, ok
}

func (r *ClasspathResolver) resolve(unit *javasrc.Unit, name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Qualified names: trust fully-qualified forms outright; for
	// Outer.Inner forms try to qualify the first segment via imports.
	if strings.ContainsRune(name, '.') {
		first, _, _ := strings.Cut(name, ".")
		if first != "" && first[0] >= 'a' && first[0] <= 'z' {
			return name, true
		}
		for _, imp := range unit.Imports {
			if imp.Static || imp.Wildcard {
				continue
			}
			if suffixSimpleName(imp.Path) == first {
				return imp.Path + name[len(first):], true
			}
		}
		if r.all[name] {
			return name, true
		}
		return "", false
	}

	// Exact single-type import.
	for _, imp := range unit.Imports {
		if imp.Static || imp.Wildcard {
			continue
		}
		if suffixSimpleName(imp.Path) == name {
			return imp.Path, true
		}
	}

	// Same package.
	if unit.Package != "" {
		if candidate := unit.Package + "." + name; r.all[candidate] {
			return candidate, true
		}
	}

	// Wildcard imports against the index.
	for _, imp := range unit.Imports {
		if !imp.Wildcard || imp.Static {
			continue
		}
		if candidate := imp.Path + "." + name; r.all[candidate] {
			return candidate, true
		}
	}

	// java.lang is implicitly imported.
	if fqcn, ok := javaLangAnnotations[name]; ok {
		return fqcn, true
	}

	// Well-known annotation namespaces, preferred via wildcard import if
	// one names them, otherwise as a last resort.
	for _, imp := range unit.Imports {
		if !imp.Wildcard || imp.Static {
			continue
		}
		for _, pkg := range wellKnownPackages {
			if imp.Path == pkg {
				return pkg + "." + name, true
			}
		}
	}

	return "", false
}

// suffixSimpleName returns the last dotted segment.
func suffixSimpleName(path string) string {
	if dot := strings.LastIndexByte(path, '.'); dot >= 0 {
		return path[dot+1:]
	}
	return path
}
