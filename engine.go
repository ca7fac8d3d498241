package annex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/jward/annex/internal/apidb"
	"github.com/jward/annex/internal/export"
	"github.com/jward/annex/internal/extract"
	"github.com/jward/annex/internal/javasrc"
	"github.com/jward/annex/internal/merge"
	"github.com/jward/annex/internal/resolve"
	"github.com/jward/annex/internal/store"
	"github.com/jward/annex/internal/typedef"
)

// Engine orchestrates the annex pipeline: parsing Java units, extracting
// source-retention annotations, merging external annotation sources,
// classifying typedefs, and exporting the archive and keep rules.
type Engine struct {
	output        string // annotations zip; "" means not requested
	proguard      string // keep-rule file; "" means not requested
	typedefRecipe string // recipe file; mutually exclusive with typedefStrip
	typedefStrip  bool

	apiFilter    string
	mergeSources []string
	classpath    []string

	allowErrors           bool
	includeClassRetention bool
	markerDetection       bool
	useParallel           bool

	encodingName string
	decoder      encoding.Encoding

	excludePatterns []string
	excludes        []glob.Glob

	resolver Resolver
	progress func(done, total int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets the destination path of the zipped annotations archive.
func WithOutput(path string) Option {
	return func(e *Engine) { e.output = path }
}

// WithProguard sets the destination path of the ProGuard keep-rule file.
func WithProguard(path string) Option {
	return func(e *Engine) { e.proguard = path }
}

// WithTypedefRecipe makes the run record typedef annotation classes in a
// recipe file at path, leaving them in the exported archive for a later
// removal step.
func WithTypedefRecipe(path string) Option {
	return func(e *Engine) { e.typedefRecipe = path }
}

// WithTypedefStrip makes the run remove typedef annotation classes, members
// included, from the store before export.
func WithTypedefStrip() Option {
	return func(e *Engine) { e.typedefStrip = true }
}

// WithAPIFilter sets the path of a compiled API index. Declarations the
// index marks removed are skipped during extraction.
func WithAPIFilter(path string) Option {
	return func(e *Engine) { e.apiFilter = path }
}

// WithMergeSources appends external annotation sources (zip archives or
// directories) merged after extraction, in the given order.
func WithMergeSources(sources ...string) Option {
	return func(e *Engine) { e.mergeSources = append(e.mergeSources, sources...) }
}

// WithClasspath appends jar or directory entries used to resolve annotation
// names and to detect whether the annotation library is present at all.
func WithClasspath(entries ...string) Option {
	return func(e *Engine) { e.classpath = append(e.classpath, entries...) }
}

// WithAllowErrors downgrades parse errors to diagnostics. Units keep
// whatever structure parsed.
func WithAllowErrors() Option {
	return func(e *Engine) { e.allowErrors = true }
}

// WithIncludeClassRetention extracts class-retention annotations in
// addition to source-retention ones.
func WithIncludeClassRetention() Option {
	return func(e *Engine) { e.includeClassRetention = true }
}

// WithEncoding sets the source file charset by IANA name. The default is
// UTF-8.
func WithEncoding(name string) Option {
	return func(e *Engine) { e.encodingName = name }
}

// WithExcludes appends glob patterns matched against slash-separated unit
// paths. Matching units are not parsed.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) { e.excludePatterns = append(e.excludePatterns, patterns...) }
}

// WithParallel controls the parallel extraction pipeline. When true (the
// default) Run parses and extracts units on a worker pool and adopts the
// per-unit batches serially. Serial and parallel runs produce identical
// stores.
func WithParallel(parallel bool) Option {
	return func(e *Engine) { e.useParallel = parallel }
}

// WithResolver replaces the classpath-backed annotation name resolver.
// Setting a resolver disables marker detection: the caller has taken over
// what the classpath means.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithMarkerDetection controls the pre-run classpath scan for the
// annotation library marker. When enabled (the default) and the configured
// classpath lacks the Keep annotation class, Run produces no artifacts and
// reports the run as skipped.
func WithMarkerDetection(enabled bool) Option {
	return func(e *Engine) { e.markerDetection = enabled }
}

// WithProgress installs a callback invoked after each unit finishes the
// parse and extract stage.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) { e.progress = fn }
}

// New creates an Engine. Exclusion patterns and the encoding name are
// compiled here; mode validation happens in Run.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		markerDetection: true,
		useParallel:     true,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, pat := range e.excludePatterns {
		g, err := glob.Compile(pat, '/')
		if err != nil {
			return nil, &ConfigError{msg: fmt.Sprintf("bad exclude pattern %q: %v", pat, err)}
		}
		e.excludes = append(e.excludes, g)
	}

	if e.encodingName != "" {
		enc, err := ianaindex.IANA.Encoding(e.encodingName)
		if err != nil || enc == nil {
			return nil, &ConfigError{msg: fmt.Sprintf("unknown encoding %q", e.encodingName)}
		}
		e.decoder = enc
	}

	return e, nil
}

func (e *Engine) validate() error {
	if e.typedefRecipe == "" && !e.typedefStrip {
		return ErrTypedefModeUnset
	}
	if e.typedefRecipe != "" && e.typedefStrip {
		return &ConfigError{msg: "typedef recipe and stripping are mutually exclusive"}
	}
	if e.output == "" && e.proguard == "" {
		return ErrNoDestinations
	}
	return nil
}

// Report summarizes a Run.
type Report struct {
	// Skipped means marker detection found no annotation library on the
	// classpath and the run produced no artifacts.
	Skipped bool

	UnitsParsed    int
	Extracted      int // records extracted from source units
	Merged         int // records added by external merge sources
	TypedefClasses int

	Diagnostics []Diagnostic
}

// Run executes the pipeline over the given Java source unit paths:
// validate, marker detection, extraction, merge, typedef handling, export.
// Fatal errors abort the run; recoverable conditions accumulate as
// Report diagnostics.
func (e *Engine) Run(ctx context.Context, paths []string) (*Report, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	resolver := e.resolver
	var classpathResolver *resolve.ClasspathResolver
	if resolver == nil {
		classpathResolver = resolve.NewClasspathResolver(e.classpath)
		resolver = classpathResolver

		if e.markerDetection && len(e.classpath) > 0 && !hasKeepMarker(classpathResolver) {
			return &Report{Skipped: true}, nil
		}
	}

	var filter *apidb.Filter
	if e.apiFilter != "" {
		f, err := apidb.Open(e.apiFilter)
		if err != nil {
			return nil, err
		}
		filter = f
		defer filter.Close()
	}

	x := extract.New(resolver, filter)
	x.IncludeClassRetention = e.includeClassRetention

	define := func(string) {}
	if d, ok := resolver.(interface{ Define(fqcn string) }); ok {
		define = d.Define
	}

	rep := &Report{}
	s := store.NewStore()
	if e.useParallel {
		err := e.runParallel(ctx, x, define, paths, s, rep)
		if err != nil {
			return nil, err
		}
	} else {
		err := e.runSerial(ctx, x, define, paths, s, rep)
		if err != nil {
			return nil, err
		}
	}
	rep.Extracted = s.RecordCount()

	for _, source := range e.mergeSources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := merge.Merge(s, source); err != nil {
			return nil, err
		}
	}
	rep.Merged = s.RecordCount() - rep.Extracted

	typedefs := typedef.Classify(s)
	rep.TypedefClasses = len(typedefs)
	if e.typedefRecipe != "" {
		if err := typedef.WriteRecipe(e.typedefRecipe, typedefs); err != nil {
			return nil, fmt.Errorf("write typedef recipe: %w", err)
		}
	} else {
		typedef.Strip(s, typedefs)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.output != "" {
		if err := export.WriteArchive(s, e.output); err != nil {
			return nil, fmt.Errorf("write annotations archive: %w", err)
		}
	}
	if e.proguard != "" {
		if err := export.WriteKeepRules(s, e.proguard); err != nil {
			return nil, fmt.Errorf("write keep rules: %w", err)
		}
	}

	return rep, nil
}

// hasKeepMarker reports whether the classpath carries the annotation
// library's Keep class in either namespace.
func hasKeepMarker(r *resolve.ClasspathResolver) bool {
	return r.Contains("androidx.annotation.Keep") ||
		r.Contains("android.support.annotation.Keep")
}

// sourceUnit is a read and decoded input awaiting parse.
type sourceUnit struct {
	path string
	src  []byte
}

// prepareUnits reads and decodes every non-excluded path, in sorted order
// so downstream tie-breaks never depend on argument order.
func (e *Engine) prepareUnits(ctx context.Context, paths []string) ([]sourceUnit, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var units []sourceUnit
	for _, path := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.excluded(path) {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read unit: %w", err)
		}
		src, err := e.decode(content)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		units = append(units, sourceUnit{path: path, src: src})
	}
	return units, nil
}

func (e *Engine) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, g := range e.excludes {
		if g.Match(slashed) {
			return true
		}
	}
	return false
}

func (e *Engine) decode(content []byte) ([]byte, error) {
	if e.decoder == nil {
		return content, nil
	}
	out, _, err := transform.Bytes(e.decoder.NewDecoder(), content)
	return out, err
}

// parseUnit wraps javasrc.Parse with the allow-errors policy. With
// allow-errors set, parse errors become diagnostics and the unit keeps
// whatever structure parsed; otherwise the error is fatal. A nil unit
// with nil error and nil diagnostic never happens.
func (e *Engine) parseUnit(ctx context.Context, su sourceUnit) (*javasrc.Unit, *Diagnostic, error) {
	unit, err := javasrc.Parse(ctx, su.path, su.src)
	if err != nil {
		var perr *javasrc.ParseError
		if e.allowErrors && errors.As(err, &perr) {
			return unit, &Diagnostic{Path: perr.Path, Line: perr.Line, Message: "syntax error"}, nil
		}
		return nil, nil, err
	}
	return unit, nil, nil
}

// runSerial parses and extracts units one at a time: parse all, register
// the retention pre-pass, then extract and adopt in order.
func (e *Engine) runSerial(ctx context.Context, x *extract.Extractor, define func(string), paths []string, s *store.Store, rep *Report) error {
	prepared, err := e.prepareUnits(ctx, paths)
	if err != nil {
		return err
	}

	var units []*javasrc.Unit
	for _, su := range prepared {
		if err := ctx.Err(); err != nil {
			return err
		}
		unit, diag, err := e.parseUnit(ctx, su)
		if err != nil {
			return err
		}
		if diag != nil {
			rep.Diagnostics = append(rep.Diagnostics, *diag)
		}
		if unit != nil {
			units = append(units, unit)
		}
	}
	rep.UnitsParsed = len(units)

	for _, u := range units {
		x.RegisterUnit(u, define)
	}

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, diags := x.ExtractUnit(unit)
		s.Adopt(batch)
		rep.Diagnostics = append(rep.Diagnostics, diags...)
		if e.progress != nil {
			e.progress(i+1, len(units))
		}
	}
	return nil
}
