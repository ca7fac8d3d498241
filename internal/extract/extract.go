// Package extract populates the annotation store from parsed source
// units. For every declaration it records the attached source-retention
// annotations under the declaration's qualified signature, skipping
// declarations the API filter marks hidden and annotation names the
// resolver cannot qualify.
package extract

import (
	"fmt"
	"strings"

	"github.com/jward/annex/internal/apidb"
	"github.com/jward/annex/internal/javasrc"
	"github.com/jward/annex/internal/markers"
	"github.com/jward/annex/internal/resolve"
	"github.com/jward/annex/internal/store"
)

// Diagnostic is a non-fatal extraction finding (unresolved annotation,
// unrepresentable attribute value, tolerated parse error).
type Diagnostic struct {
	Path    string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", d.Path, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// retentionPolicy follows java.lang.annotation.RetentionPolicy. The Java
// default for an undeclared retention is CLASS.
type retentionPolicy int

const (
	retentionClass retentionPolicy = iota
	retentionSource
	retentionRuntime
)

// Extractor holds the run-wide extraction context. RegisterUnit must be
// called for every unit before the first ExtractUnit call so that
// source-declared annotation types resolve and their retention is known
// regardless of unit ordering. ExtractUnit itself touches no shared
// mutable state and may run concurrently across units.
type Extractor struct {
	Resolver              resolve.Resolver
	Filter                *apidb.Filter // nil disables hiding
	IncludeClassRetention bool

	retention map[string]retentionPolicy
}

// New returns an Extractor using the given resolver and optional filter.
func New(resolver resolve.Resolver, filter *apidb.Filter) *Extractor {
	return &Extractor{
		Resolver:  resolver,
		Filter:    filter,
		retention: make(map[string]retentionPolicy),
	}
}

// RegisterUnit records the classes a unit declares: every class is made
// resolvable via define, and annotation-type declarations contribute
// their retention policy.
func (x *Extractor) RegisterUnit(unit *javasrc.Unit, define func(fqcn string)) {
	unit.EachClass(func(cls *javasrc.Class) {
		define(cls.FQN)
		if cls.Kind != javasrc.KindAnnotation {
			return
		}
		x.retention[cls.FQN] = declaredRetention(unit, cls)
	})
}

// declaredRetention reads a @Retention meta-annotation off an annotation
// type declaration.
func declaredRetention(unit *javasrc.Unit, cls *javasrc.Class) retentionPolicy {
	for _, ann := range cls.Annotations {
		name := ann.Name
		if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
			name = name[dot+1:]
		}
		if name != "Retention" || len(ann.Args) == 0 {
			continue
		}
		switch {
		case strings.HasSuffix(ann.Args[0].Raw, "SOURCE"):
			return retentionSource
		case strings.HasSuffix(ann.Args[0].Raw, "RUNTIME"):
			return retentionRuntime
		}
		return retentionClass
	}
	return retentionClass
}

// ExtractUnit extracts one unit's annotations into a fresh batch. The
// batch is adopted into the shared store serially by the caller.
func (x *Extractor) ExtractUnit(unit *javasrc.Unit) (*store.Batch, []Diagnostic) {
	w := &unitWalk{x: x, unit: unit, batch: store.NewBatch()}
	unit.EachClass(w.class)
	return w.batch, w.diags
}

type unitWalk struct {
	x     *Extractor
	unit  *javasrc.Unit
	batch *store.Batch
	diags []Diagnostic
}

func (w *unitWalk) class(cls *javasrc.Class) {
	classSig := store.ClassSignature(cls.FQN)
	if w.hidden(classSig) {
		return
	}
	w.annotations(classSig, cls.Annotations)

	for _, f := range cls.Fields {
		sig := store.FieldSignature(cls.FQN, f.Name)
		if w.hidden(sig) {
			continue
		}
		w.annotations(sig, f.Annotations)
	}

	for _, m := range cls.Methods {
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			params[i] = p.Type
		}
		sig := store.MethodSignature(cls.FQN, m.Name, params)
		if w.hidden(sig) {
			continue
		}
		w.annotations(sig, m.Annotations)
		for _, p := range m.Params {
			w.annotations(store.ParamSignature(cls.FQN, m.Name, params, p.Index), p.Annotations)
		}
	}
}

// hidden applies the API filter at the declaration's filter granularity.
// Hidden declarations are skipped entirely: their annotations never reach
// the store.
func (w *unitWalk) hidden(sig store.Signature) bool {
	return w.x.Filter != nil && w.x.Filter.Hidden(sig)
}

func (w *unitWalk) annotations(sig store.Signature, anns []javasrc.Annotation) {
	for _, ann := range anns {
		fqcn, ok := w.x.Resolver.Resolve(w.unit, ann.Name)
		if !ok {
			w.diag(ann.Line, "unresolved annotation @%s", ann.Name)
			continue
		}
		if !w.x.extractable(fqcn) {
			continue
		}

		rec := store.Record{Type: fqcn}
		for _, arg := range ann.Args {
			value, ok := store.ParseLiteral(arg.Raw)
			if !ok {
				w.diag(ann.Line, "@%s: unsupported value for %q dropped", ann.Name, arg.Name)
				continue
			}
			rec.Attrs = append(rec.Attrs, store.Attr{Name: arg.Name, Value: value})
		}
		w.batch.Insert(sig, rec)
	}
}

// extractable decides whether an annotation type's information would be
// lost from compiled output and therefore must be captured here.
func (x *Extractor) extractable(fqcn string) bool {
	if strings.HasPrefix(fqcn, "java.lang.") {
		return false // compiler metadata, never documentation
	}
	if policy, known := x.retention[fqcn]; known {
		return policy == retentionSource ||
			(policy == retentionClass && x.IncludeClassRetention) ||
			markers.InExtractableNamespace(fqcn)
	}
	return markers.InExtractableNamespace(fqcn)
}

func (w *unitWalk) diag(line int, format string, args ...any) {
	w.diags = append(w.diags, Diagnostic{
		Path:    w.unit.Path,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}
