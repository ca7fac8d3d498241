package apidb

import (
	"database/sql"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/jward/annex/internal/store"
)

const schemaDDL = `
CREATE TABLE meta (
  key    TEXT PRIMARY KEY,
  value  TEXT NOT NULL
);

CREATE TABLE api (
  signature   TEXT PRIMARY KEY,
  since       INTEGER NOT NULL DEFAULT 0,
  deprecated  INTEGER NOT NULL DEFAULT 0,
  removed     INTEGER NOT NULL DEFAULT 0
);
`

// xmlAPI mirrors the external api-versions XML definition: classes with
// JVM-internal names containing method and field members with API-level
// attributes.
type xmlAPI struct {
	Version string     `xml:"version,attr"`
	Classes []xmlClass `xml:"class"`
}

type xmlClass struct {
	Name       string      `xml:"name,attr"`
	Since      int         `xml:"since,attr"`
	Deprecated int         `xml:"deprecated,attr"`
	Removed    int         `xml:"removed,attr"`
	Methods    []xmlMember `xml:"method"`
	Fields     []xmlMember `xml:"field"`
}

type xmlMember struct {
	Name       string `xml:"name,attr"`
	Since      int    `xml:"since,attr"`
	Deprecated int    `xml:"deprecated,attr"`
	Removed    int    `xml:"removed,attr"`
}

// Build compiles an api-versions XML definition into a SQLite index at
// dbPath, replacing any existing file. Returns the number of signatures
// written.
func Build(definitionPath, dbPath string) (int, error) {
	data, err := os.ReadFile(definitionPath)
	if err != nil {
		return 0, fmt.Errorf("read api definition: %w", err)
	}

	var def xmlAPI
	if err := xml.Unmarshal(data, &def); err != nil {
		return 0, fmt.Errorf("parse api definition %s: %w", definitionPath, err)
	}

	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("replace index %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, fmt.Errorf("create index %s: %w", dbPath, err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaDDL); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.Prepare(`INSERT OR REPLACE INTO api (signature, since, deprecated, removed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	count := 0
	for _, cls := range def.Classes {
		class := dottedClassName(cls.Name)
		if _, err := insert.Exec(class, cls.Since, cls.Deprecated, cls.Removed); err != nil {
			return 0, fmt.Errorf("insert class %s: %w", class, err)
		}
		count++

		for _, m := range cls.Methods {
			sig, err := methodSignature(class, m.Name)
			if err != nil {
				return 0, fmt.Errorf("class %s: %w", class, err)
			}
			if _, err := insert.Exec(sig.String(), m.Since, m.Deprecated, m.Removed); err != nil {
				return 0, fmt.Errorf("insert method %s: %w", sig, err)
			}
			count++
		}
		for _, f := range cls.Fields {
			sig := store.FieldSignature(class, f.Name)
			if _, err := insert.Exec(sig.String(), f.Since, f.Deprecated, f.Removed); err != nil {
				return 0, fmt.Errorf("insert field %s: %w", sig, err)
			}
			count++
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		return 0, fmt.Errorf("write schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

// methodSignature converts a JVM member name ("setPadding(IIII)V") into a
// source-form method signature. Constructors are recorded under the
// class's simple name, matching how source extraction addresses them.
func methodSignature(class, jvmName string) (store.Signature, error) {
	open := strings.IndexByte(jvmName, '(')
	if open < 0 {
		return store.Signature{}, fmt.Errorf("method %q: missing descriptor", jvmName)
	}
	name := jvmName[:open]
	params, err := parseDescriptor(jvmName[open:])
	if err != nil {
		return store.Signature{}, err
	}
	if name == "<init>" {
		if dot := strings.LastIndexByte(class, '.'); dot >= 0 {
			name = class[dot+1:]
		} else {
			name = class
		}
	}
	return store.MethodSignature(class, name, params), nil
}
