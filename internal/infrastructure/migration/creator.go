package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var skeletons = template.Must(template.New("migration").Parse(`
{{- define "up" -}}
-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
{{- with .Description}}
-- {{.}}
{{- end}}

{{end}}
{{- define "down" -}}
-- Rollback: {{.Name}}
-- Created: {{.Timestamp}}

{{end}}`))

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
	// zero-padded width of the version prefix, as in sql/
	versionWidth = 6
)

// MigrationFile describes a freshly written up/down pair.
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair into dir, versioned one past
// the highest migration already there. Existing files are never replaced.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}
	version, err := nextVersion(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	stem := filepath.Join(dir, fmt.Sprintf("%0*d_%s", versionWidth, version, slug))
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		UpPath:      stem + upSuffix,
		DownPath:    stem + downSuffix,
	}
	if err := render(mf.UpPath, "up", mf); err != nil {
		return nil, err
	}
	if err := render(mf.DownPath, "down", mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func nextVersion(fsys fs.FS) (uint, error) {
	existing, err := ListMigrations(fsys)
	if err != nil {
		return 0, err
	}
	if len(existing) == 0 {
		return 1, nil
	}
	return existing[len(existing)-1].Version + 1, nil
}

func render(path, skeleton string, mf *MigrationFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write %s migration: %w", skeleton, err)
	}
	if err := skeletons.ExecuteTemplate(f, skeleton, mf); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s migration: %w", skeleton, err)
	}
	return f.Close()
}

// sanitizeName lowercases name and joins its words with underscores.
// Anything outside [a-z0-9] inside a word is dropped.
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "_")
}

// Entry is one up migration in a schema directory.
type Entry struct {
	Version uint
	Name    string
}

// ListMigrations returns the up migrations of fsys ordered by version.
// Files without a numeric version prefix are skipped, and a missing
// directory lists as empty.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	dirents, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	out := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		if e, ok := parseEntry(d.Name()); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseEntry(file string) (Entry, bool) {
	stem, ok := strings.CutSuffix(file, upSuffix)
	if !ok {
		return Entry{}, false
	}
	prefix, name, _ := strings.Cut(stem, "_")
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Version: uint(v), Name: name}, true
}
