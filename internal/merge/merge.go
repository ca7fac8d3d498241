// Package merge unions externally supplied annotation collections into
// the store. Sources are zip archives or directories in the same
// structural format the exporter writes. The store's first-writer-wins
// insert gives source-extracted records precedence over merged ones and
// earlier merge sources precedence over later ones; merging never
// overwrites.
package merge

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/annex/internal/export"
	"github.com/jward/annex/internal/store"
)

// SourceError reports an unreadable or unrecognized merge source. It is
// fatal: merge-order correctness depends on every declared source being
// read in full.
type SourceError struct {
	Source string
	Entry  string // offending entry within the source, if any
	Err    error
}

func (e *SourceError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("merge source %s: entry %s: %v", e.Source, e.Entry, e.Err)
	}
	return fmt.Sprintf("merge source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Merge unions one source into the store. Entries are processed in
// sorted path order so ties within a single source resolve
// deterministically.
func Merge(s *store.Store, source string) error {
	info, err := os.Stat(source)
	if err != nil {
		return &SourceError{Source: source, Err: err}
	}
	if info.IsDir() {
		return mergeDir(s, source)
	}
	return mergeArchive(s, source)
}

func mergeArchive(s *store.Store, source string) error {
	zr, err := zip.OpenReader(source)
	if err != nil {
		return &SourceError{Source: source, Err: err}
	}
	defer zr.Close()

	// zip.Reader preserves central-directory order; sort by name for a
	// stable merge order regardless of how the archive was built.
	names := make([]string, 0, len(zr.File))
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		names = append(names, f.Name)
		byName[f.Name] = f
	}
	sort.Strings(names)

	for _, name := range names {
		rc, err := byName[name].Open()
		if err != nil {
			return &SourceError{Source: source, Entry: name, Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return &SourceError{Source: source, Entry: name, Err: err}
		}
		if err := mergeDocument(s, data); err != nil {
			return &SourceError{Source: source, Entry: name, Err: err}
		}
	}
	return nil
}

func mergeDir(s *store.Store, dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".xml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return &SourceError{Source: dir, Err: err}
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return &SourceError{Source: dir, Entry: path, Err: err}
		}
		if err := mergeDocument(s, data); err != nil {
			return &SourceError{Source: dir, Entry: path, Err: err}
		}
	}
	return nil
}

// mergeDocument inserts one document's items. Malformed XML or
// unparseable item signatures abort the merge.
func mergeDocument(s *store.Store, data []byte) error {
	doc, err := export.DecodeDocument(data)
	if err != nil {
		return err
	}
	for _, item := range doc.Items {
		sig, err := store.ParseSignature(item.Name)
		if err != nil {
			return err
		}
		for _, ann := range item.Annotations {
			rec := store.Record{Type: ann.Name}
			for _, val := range ann.Vals {
				value, ok := store.ParseLiteral(val.Val)
				if !ok {
					return fmt.Errorf("item %q: annotation %s: unsupported value for %q", item.Name, ann.Name, val.Name)
				}
				rec.Attrs = append(rec.Attrs, store.Attr{Name: val.Name, Value: value})
			}
			s.Insert(sig, rec)
		}
	}
	return nil
}
