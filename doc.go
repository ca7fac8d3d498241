// Package annex extracts documentation-irrelevant, source-retention
// annotations from Java source units and publishes them out of band.
//
// # Pipeline
//
// A run moves through six stages:
//
//  1. Parse: each Java unit is parsed with tree-sitter into a declaration
//     tree with attached annotations.
//
//  2. Extract: every annotation whose resolved type has source retention
//     is recorded against the qualified signature of its declaration.
//     Declarations a compiled API index marks removed are skipped.
//
//  3. Merge: externally supplied annotation archives or directories are
//     folded in. Source-extracted records win; earlier sources beat
//     later ones.
//
//  4. Typedef: IntDef/StringDef annotation classes are either listed in
//     a recipe file for a later removal step or stripped from the store.
//
//  5. Export: one XML document per top-level class, zipped into an
//     annotations archive. Identical stores produce byte-identical
//     archives.
//
//  6. Keep rules: a ProGuard file keeping every @Keep-annotated
//     declaration.
//
// # Usage
//
// Create an Engine and run it over the source unit paths:
//
//	e, err := annex.New(
//		annex.WithOutput("annotations.zip"),
//		annex.WithProguard("keep.pro"),
//		annex.WithTypedefStrip(),
//		annex.WithClasspath("androidx-annotation.jar"),
//	)
//	if err != nil { ... }
//
//	rep, err := e.Run(ctx, paths)
//
// Fatal errors abort the run before any artifact is replaced; recoverable
// findings accumulate as Report diagnostics.
package annex
