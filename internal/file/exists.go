package file

import (
	"github.com/spf13/afero"
)

// Exists indicates if the given path is an existing regular file (directories do not count).
func Exists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
