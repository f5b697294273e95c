package folio

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// discover returns the Markdown documents below root in lexical order.
// Hidden files and directories are skipped.
func discover(fsys afero.Fs, root string) ([]string, error) {
	var docs []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		hidden := path != root && strings.HasPrefix(info.Name(), ".")
		if info.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if !hidden && strings.EqualFold(filepath.Ext(path), ".md") {
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("folio: discover documents in %s: %w", root, err)
	}
	slices.Sort(docs)
	return docs, nil
}

// discoverStatic returns every regular file below root as a path relative
// to root. A missing root yields nothing.
func discoverStatic(fsys afero.Fs, root string) ([]string, error) {
	if ok, err := afero.DirExists(fsys, root); err != nil || !ok {
		return nil, err
	}
	var files []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("folio: discover static files in %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}
