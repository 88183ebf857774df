package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations in dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	sub, err := fs.Sub(embedded, embeddedDir)
	if err != nil {
		return err
	}
	return ValidateFS(sub)
}

// ValidateFS requires every .sql file at the root of fsys to be named
// <YYYYMMDDHHMMSS>_<name>.sql with a unique version and to carry both goose
// sections, Up before Down.
func ValidateFS(fsys fs.FS) error {
	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}
	seen := make(map[int64]string, len(files))
	for _, f := range files {
		if prev, ok := seen[f.version]; ok {
			return fmt.Errorf("migrations %q and %q share version %d", prev, f.name, f.version)
		}
		seen[f.version] = f.name

		body, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return fmt.Errorf("read %q: %w", f.name, err)
		}
		text := string(body)
		up := strings.Index(text, "-- +goose Up")
		down := strings.Index(text, "-- +goose Down")
		switch {
		case up < 0:
			return fmt.Errorf("migration %q has no \"-- +goose Up\" section", f.name)
		case down < 0:
			return fmt.Errorf("migration %q has no \"-- +goose Down\" section", f.name)
		case down < up:
			return fmt.Errorf("migration %q declares Down before Up", f.name)
		}
	}
	return nil
}

// LatestVersion returns the highest migration version in fsys, or 0 when
// there are none.
func LatestVersion(fsys fs.FS) (int64, error) {
	files, err := migrationFiles(fsys)
	if err != nil || len(files) == 0 {
		return 0, err
	}
	return files[len(files)-1].version, nil
}

type migrationFile struct {
	name    string
	version int64
}

// migrationFiles lists the .sql files sorted by version. Other files are ignored.
func migrationFiles(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []migrationFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		m := migrationNameRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in %q: %w", name, err)
		}
		files = append(files, migrationFile{name: name, version: version})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}
