// Package store holds the annotation store: the central mapping from a
// declaration's qualified signature to its ordered set of annotation
// records. The store is created fresh per pipeline run, populated by the
// extractor, unioned into by the merger, filtered by the typedef
// classifier, and read by the exporter.
package store

import (
	"sort"
	"strings"
)

// Attr is a single named attribute on an annotation record.
type Attr struct {
	Name  string
	Value Value
}

// Record is one annotation occurrence: the annotation's fully-qualified
// type name plus its ordered attributes. Records are treated as immutable
// once inserted.
type Record struct {
	Type  string
	Attrs []Attr
}

// entry keeps one signature's parsed form and its records in insertion
// order.
type entry struct {
	sig     Signature
	records []Record
}

// Store maps qualified signatures to ordered annotation record sets.
// Insert follows a first-writer-wins discipline per (signature,
// annotation-type) pair, which is what gives source-extracted records
// precedence over merged-in ones and earlier merge sources precedence
// over later ones.
//
// Store is not safe for concurrent use; parallel extraction accumulates
// into per-unit Batches which are adopted serially.
type Store struct {
	entries map[string]*entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Insert adds rec under sig. It reports false without modifying the store
// when a record of the same annotation type is already present for the
// signature.
func (s *Store) Insert(sig Signature, rec Record) bool {
	key := sig.String()
	e := s.entries[key]
	if e == nil {
		e = &entry{sig: sig}
		s.entries[key] = e
	}
	for _, existing := range e.records {
		if existing.Type == rec.Type {
			return false
		}
	}
	e.records = append(e.records, rec)
	return true
}

// Records returns the records for sig in insertion order, or nil.
func (s *Store) Records(sig Signature) []Record {
	e := s.entries[sig.String()]
	if e == nil {
		return nil
	}
	return e.records
}

// Has reports whether sig carries a record of the given annotation type.
func (s *Store) Has(sig Signature, annotationType string) bool {
	for _, rec := range s.Records(sig) {
		if rec.Type == annotationType {
			return true
		}
	}
	return false
}

// Remove deletes sig and all its records.
func (s *Store) Remove(sig Signature) {
	delete(s.entries, sig.String())
}

// RemoveClass deletes the class-level signature and every member and
// parameter signature beneath it.
func (s *Store) RemoveClass(class string) {
	memberPrefix := class + " "
	for key := range s.entries {
		if key == class || strings.HasPrefix(key, memberPrefix) {
			delete(s.entries, key)
		}
	}
}

// Signatures returns every signature with at least one record, sorted
// lexicographically by textual form for deterministic output.
func (s *Store) Signatures() []Signature {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	sigs := make([]Signature, len(keys))
	for i, key := range keys {
		sigs[i] = s.entries[key].sig
	}
	return sigs
}

// Len returns the number of signatures held.
func (s *Store) Len() int { return len(s.entries) }

// RecordCount returns the total number of records across all signatures.
func (s *Store) RecordCount() int {
	n := 0
	for _, e := range s.entries {
		n += len(e.records)
	}
	return n
}

// Batch buffers one source unit's extraction results in memory so that
// units can be extracted in parallel without sharing the store. Adoption
// into the store is serial and preserves each batch's insertion order.
type Batch struct {
	inserts []batchInsert
}

type batchInsert struct {
	sig Signature
	rec Record
}

// NewBatch returns an empty batch.
func NewBatch() *Batch { return &Batch{} }

// Insert buffers rec under sig. Duplicate (signature, type) pairs within
// the batch keep the first occurrence, mirroring Store.Insert.
func (b *Batch) Insert(sig Signature, rec Record) bool {
	key := sig.String()
	for _, in := range b.inserts {
		if in.rec.Type == rec.Type && in.sig.String() == key {
			return false
		}
	}
	b.inserts = append(b.inserts, batchInsert{sig: sig, rec: rec})
	return true
}

// Len returns the number of buffered records.
func (b *Batch) Len() int { return len(b.inserts) }

// Adopt unions a batch into the store, record by record, in the batch's
// insertion order. Records whose (signature, type) pair is already present
// keep the store's copy.
func (s *Store) Adopt(b *Batch) {
	for _, in := range b.inserts {
		s.Insert(in.sig, in.rec)
	}
}
