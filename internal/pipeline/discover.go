package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Input is the set of source files a run covers.
type Input struct {
	// Base is the directory relative paths resolve against.
	Base string
	// Files are slash-separated paths relative to Base, sorted.
	Files []string
}

// Discover lists the source files under root. An explicit file is taken
// as is; a directory is walked in lexical order, skipping hidden
// directories, __pycache__ and anything an exclude glob matches. Globs are
// matched against the relative path and against the base name.
func Discover(root string, exclude []string) (*Input, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", root, err)
	}
	if !info.IsDir() {
		return &Input{Base: filepath.Dir(root), Files: []string{filepath.Base(root)}}, nil
	}

	in := &Input{Base: root}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") || name == "__pycache__" || excluded(rel, name, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || path.Ext(name) != ".py" || excluded(rel, name, exclude) {
			return nil
		}
		in.Files = append(in.Files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	// Walk order puts "a/b.py" before "a.py"; callers want plain string order.
	sort.Strings(in.Files)
	return in, nil
}

func excluded(rel, name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
