package region

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Find returns the region files under root. A root naming a file is
// returned as is, whatever its name, so the caller sees the open error. A
// directory is listed non-recursively unless recursive is set. Results are
// sorted by path.
func Find(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && IsRegionFile(e.Name()) {
				paths = append(paths, filepath.Join(root, e.Name()))
			}
		}

		return paths, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsRegionFile(d.Name()) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	return paths, nil
}
