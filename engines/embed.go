// Package engines bundles the metadata documents of the built-in database
// engines. An on-disk engines directory takes precedence over these copies.
package engines

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed */metadata.yml
var bundled embed.FS

// MetadataFile is the per-engine document name inside an engine directory.
const MetadataFile = "metadata.yml"

// FS returns the bundled engine metadata tree.
func FS() fs.FS {
	return bundled
}

// Names lists the engine directories in fsys that carry a metadata document.
func Names(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := fs.Stat(fsys, entry.Name()+"/"+MetadataFile); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
