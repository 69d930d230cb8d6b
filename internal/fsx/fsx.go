// Package fsx holds small filesystem helpers shared by the exporters.
package fsx

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteAtomic writes data to path via a temp file in the same directory and
// a rename, so readers never observe a partially written file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "fsx: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "fsx: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrap(err, "fsx: write temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return eris.Wrap(err, "fsx: chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "fsx: close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "fsx: rename to %s", path)
	}
	return nil
}
