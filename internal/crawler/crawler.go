package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Crawler scans a directory tree for documentation model files.
type Crawler struct {
	exts    []string
	ignored []string
}

// NewCrawler creates a crawler matching the given file extensions,
// case-insensitively. With no extensions it matches YAML and JSON model
// files.
func NewCrawler(exts ...string) *Crawler {
	if len(exts) == 0 {
		exts = []string{".yaml", ".yml", ".json"}
	}
	lowered := make([]string, len(exts))
	for i, e := range exts {
		lowered[i] = strings.ToLower(e)
	}
	return &Crawler{
		exts:    lowered,
		ignored: []string{".git", "vendor", "node_modules", "testdata"},
	}
}

// Scan walks root in lexical order and calls onFile for every model file.
// An error from onFile stops the walk and is returned.
func (c *Crawler) Scan(root string, onFile func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !c.matches(d.Name()) {
			return nil
		}
		return onFile(path)
	})
}

func (c *Crawler) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.exts {
		if ext == e {
			return true
		}
	}
	return false
}
