package ingest

import (
	"os"
	"path/filepath"
	"strings"
)

// Source enumerates candidate exam bundle files in one directory.
type Source struct {
	dir     string
	exclude map[string]struct{}
}

// NewSource watches dir for *.json bundles. Names in exclude (with
// extension, e.g. "template.json") are skipped.
func NewSource(dir string, exclude ...string) *Source {
	ex := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		ex[name] = struct{}{}
	}
	return &Source{dir: dir, exclude: ex}
}

// Paths returns the JSON bundle paths found in the source directory.
func (s *Source) Paths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		if _, skip := s.exclude[entry.Name()]; skip {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	return paths, nil
}

// FileKey derives the stable exam store key from a bundle path: the base
// name without extension.
func FileKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
