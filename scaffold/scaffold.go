// Package scaffold provides the embedded starter site written by
// "folio new".
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/afero"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax; a .tmpl suffix is stripped on output.
//
//go:embed all:templates
var Templates embed.FS

// Data holds the template variables passed to every scaffold template.
type Data struct {
	ProjectName string
	SiteName    string
	Date        string // DD-MM-YYYY, used by the sample post
}

// NewData derives the template variables for a project directory.
func NewData(dir string, now time.Time) Data {
	name := filepath.Base(filepath.Clean(dir))
	return Data{
		ProjectName: name,
		SiteName:    toTitle(name),
		Date:        now.Format("02-01-2006"),
	}
}

// dotfiles are stored without their leading dot so that tooling does not
// pick them up inside this repository.
var dotfiles = map[string]string{
	"dotenv":    ".env.example",
	"gitignore": ".gitignore",
}

// Generate writes the starter site into dir and returns the created files.
// dir must not exist yet.
func Generate(fsys afero.Fs, dir string, data Data) ([]string, error) {
	if exists, err := afero.Exists(fsys, dir); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("directory %q already exists", dir)
	}

	const root = "templates"
	var created []string
	err := fs.WalkDir(Templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		outPath := filepath.Join(dir, filepath.FromSlash(strings.TrimSuffix(rel, ".tmpl")))
		if renamed, ok := dotfiles[path.Base(rel)]; ok {
			outPath = filepath.Join(filepath.Dir(outPath), renamed)
		}

		if d.IsDir() {
			return fsys.MkdirAll(outPath, 0o755)
		}

		content, err := Templates.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		tmpl, err := template.New(path.Base(p)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}

		f, err := fsys.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", p, err)
		}
		created = append(created, outPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
