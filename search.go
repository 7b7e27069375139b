package cube

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl is an internal general purpose trawling function, adapted from
// the corpus's search/search.go. The basename is only matched against
// pattern, e.g. ("grid.meta", "/surveys/bank-7/grid.meta").
func trawl(vfs *tiledb.VFS, pattern string, uri string, items []string) []string {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err == nil && match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items = trawl(vfs, pattern, dir, items)
	}

	return items
}

// FindSurveys recursively searches uri for grid.meta files, i.e. every
// backing store rooted under uri, the way the corpus's FindGsf locates
// *.gsf files. Uses TileDB's VFS so the search works transparently
// against local filesystems or an object store such as S3 when a
// suitable configURI is supplied.
func FindSurveys(uri, configURI string) ([]string, error) {
	config, ctx, vfs, err := tiledbEnv(configURI)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()
	defer ctx.Free()
	defer config.Free()

	items := trawl(vfs, "grid.meta", uri, make([]string, 0))

	return items, nil
}
