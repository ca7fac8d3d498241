// Package apidb is the API surface filter: a read-only, SQLite-backed
// index from qualified signatures (class/method/field granularity) to
// API-level metadata. The extractor consults it to skip declarations that
// are explicitly marked removed from the public surface.
//
// The index file is produced ahead of time by Build (typically via
// `annex apidb build`) from the external api-versions XML definition, so
// pipeline runs pay only a read-only open.
package apidb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/annex/internal/store"
)

const schemaVersion = "1"

// LoadError reports a missing or malformed index file. It is fatal for
// the pipeline: filtering must not silently degrade.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("api filter %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Filter answers visibility queries against the index. It is immutable
// for the pipeline's lifetime and safe for concurrent readers.
type Filter struct {
	db     *sql.DB
	lookup *sql.Stmt
}

// Open opens an index file read-only. The file must exist and carry the
// expected schema; anything else fails with a *LoadError.
func Open(path string) (*Filter, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &LoadError{Path: path, Err: err}
	}

	var version string
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		db.Close()
		return nil, &LoadError{Path: path, Err: fmt.Errorf("schema version: %w", err)}
	}
	if version != schemaVersion {
		db.Close()
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unsupported schema version %q", version)}
	}

	lookup, err := db.Prepare(`SELECT removed FROM api WHERE signature = ?`)
	if err != nil {
		db.Close()
		return nil, &LoadError{Path: path, Err: err}
	}
	return &Filter{db: db, lookup: lookup}, nil
}

// Close releases the index.
func (f *Filter) Close() error {
	f.lookup.Close()
	return f.db.Close()
}

// Hidden reports whether sig is explicitly marked removed from the public
// surface. Signatures absent from the index are visible: an incomplete
// index must not over-filter. A removed class hides all of its members.
// Parameter signatures are checked at their method's granularity.
func (f *Filter) Hidden(sig store.Signature) bool {
	member := sig.MemberLevel()
	if member.Member != "" && f.removed(member.String()) {
		return true
	}
	return f.removed(sig.Class)
}

func (f *Filter) removed(signature string) bool {
	var removed int
	err := f.lookup.QueryRow(signature).Scan(&removed)
	if err != nil {
		return false // absent or unreadable rows are visible
	}
	return removed > 0
}
