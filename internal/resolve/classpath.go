package resolve

import (
	"archive/zip"
	"io/fs"
	"path/filepath"
	"strings"
)

// indexEntry indexes one classpath entry: a .jar (or any zip) of class
// files, or a directory tree of them. Unreadable entries are ignored.
func (r *ClasspathResolver) indexEntry(entry string) {
	if strings.HasSuffix(entry, ".jar") || strings.HasSuffix(entry, ".zip") {
		r.indexJar(entry)
		return
	}
	r.indexDir(entry)
}

func (r *ClasspathResolver) indexJar(path string) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return
	}
	defer zr.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range zr.File {
		if fqcn, ok := classNameFromEntry(f.Name); ok {
			r.add(fqcn)
		}
	}
}

func (r *ClasspathResolver) indexDir(dir string) {
	var names []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		if fqcn, ok := classNameFromEntry(filepath.ToSlash(rel)); ok {
			names = append(names, fqcn)
		}
		return nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fqcn := range names {
		r.add(fqcn)
	}
}

// classNameFromEntry converts a class-file entry path into a dotted FQCN.
// Synthetic and metadata entries are skipped.
func classNameFromEntry(name string) (string, bool) {
	if !strings.HasSuffix(name, ".class") {
		return "", false
	}
	name = strings.TrimSuffix(name, ".class")
	base := name
	if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
		base = name[slash+1:]
	}
	if base == "module-info" || base == "package-info" {
		return "", false
	}
	fqcn := strings.ReplaceAll(name, "/", ".")
	fqcn = strings.ReplaceAll(fqcn, "$", ".")
	return fqcn, true
}
