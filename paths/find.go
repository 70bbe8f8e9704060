// Package paths locates the data files the client needs: root certificates
// and map chunk directories.
package paths

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// EnvDataDir names the environment variable pointing at a data directory
// searched before the built-in locations.
const EnvDataDir = "ASCENDING_DATA"

// possibleDirs returns the directories searched for data files, in order.
func possibleDirs() []string {
	var dirs []string
	if d := os.Getenv(EnvDataDir); d != "" {
		dirs = append(dirs, d)
	}
	dirs = append(dirs,
		"data",
		os.Args[0]+".runfiles/go_ascending/data",
	)
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "data"))
	}
	return dirs
}

// Find locates the passed data file (or directory) shortname and returns an
// absolute or relative path to it, or "" if it is nowhere to be found.
//
// For example, for "roots.pem" it may return "data/roots.pem".
func Find(fileName string) string {
	for _, dir := range possibleDirs() {
		path := filepath.Join(dir, fileName)
		if _, err := os.Stat(path); err == nil {
			glog.V(1).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look,
// and opens it.
func Open(fileName string) (*os.File, error) {
	path := Find(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "paths.Open(%q): not found", fileName)
	}
	f, err := os.Open(path)
	return f, errors.Wrapf(err, "paths.Open(%q)", fileName)
}
