package socutil

import (
	"os"
	"path/filepath"
)

// FindWDFile looks for a named file in the current working directory, then in
// each of its parents up to the filesystem root. It returns stat info and an
// absolute path of the first one found; a file not found anywhere results in
// an empty path and nil error.
func FindWDFile(name string) (os.FileInfo, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	return FindFileUp(wd, name)
}

// FindFileUp is FindWDFile starting from dir rather than the working
// directory.
func FindFileUp(dir, name string) (os.FileInfo, string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", err
	}
	for {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return info, path, nil
		} else if err != nil && !os.IsNotExist(err) {
			return nil, "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}
