// Package collection lists the LoRA weights files available on disk and maps
// identifiers back to absolute paths.
package collection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// None is the sentinel entry meaning "no LoRA in this slot".
const None = "None"

var ErrNotFound = errors.New("lora not found in collection")

// Collection is a set of LoRA directories. Identifiers are paths relative to
// whichever directory holds the file, with forward slashes.
type Collection struct {
	dirs       []string
	extensions []string
}

func New(dirs, extensions []string) *Collection {
	return &Collection{dirs: dirs, extensions: extensions}
}

// Dirs returns the configured directories in priority order.
func (c *Collection) Dirs() []string {
	return c.dirs
}

// Root is the first directory, the one discovery scans.
func (c *Collection) Root() string {
	if len(c.dirs) == 0 {
		return ""
	}
	return c.dirs[0]
}

// List returns the sorted identifiers of every weights file in the family.
// An identifier present under several directories is listed once.
func (c *Collection) List(family Family) ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	for _, dir := range c.dirs {
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read lora directory: %w", err)
		}
		root, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve lora directory: %w", err)
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !c.IsWeights(d.Name()) {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if seen[rel] || !family.Contains(rel) {
				return nil
			}
			seen[rel] = true
			names = append(names, rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}
	}

	sort.Strings(names)
	return names, nil
}

// Choices is List with the None sentinel in front.
func (c *Collection) Choices(family Family) ([]string, error) {
	names, err := c.List(family)
	if err != nil {
		return nil, err
	}
	return append([]string{None}, names...), nil
}

// FullPath resolves an identifier to the first directory holding it.
// Identifiers that would escape their directory are rejected.
func (c *Collection) FullPath(identifier string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(strings.TrimSpace(identifier), "\\", "/"))
	if rel == "" || filepath.IsAbs(rel) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}

	for _, dir := range c.dirs {
		path := filepath.Join(dir, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, identifier)
}

// IsWeights reports whether name carries one of the weights extensions.
func (c *Collection) IsWeights(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range c.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
