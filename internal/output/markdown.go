// Package output renders the trigger table as Markdown.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/strrl/autolora/internal/store"
)

// rootGroup collects identifiers that sit directly in the collection root.
const rootGroup = "(root)"

type Generator struct {
	outputDir string
}

func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
	}
}

// Render writes one section per top-level folder, each a table of
// identifier and triggers sorted by identifier.
func Render(w io.Writer, table store.Table) error {
	grouped := groupEntries(table)

	var sb strings.Builder
	sb.WriteString("# LoRA Triggers\n\n")
	sb.WriteString(fmt.Sprintf("%d entries in %d groups.\n", len(table), len(grouped)))

	for _, group := range sortedGroups(grouped) {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", group))
		writeTable(&sb, grouped[group])
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteFile renders the whole table into a single file.
func (g *Generator) WriteFile(name string, table store.Table) (string, error) {
	filename := filepath.Join(g.outputDir, name)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	if err := Render(f, table); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// Generate writes one file per group into the output directory and returns
// their paths in group order.
func (g *Generator) Generate(table store.Table) ([]string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	grouped := groupEntries(table)
	used := make(map[string]bool)
	var files []string
	for _, group := range sortedGroups(grouped) {
		filename, err := g.writeGroupFile(uniqueName(sanitizeFilename(group), used), group, grouped[group])
		if err != nil {
			return nil, err
		}
		files = append(files, filename)
	}
	return files, nil
}

// uniqueName suffixes name with -2, -3, ... until it is not in used.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	used[candidate] = true
	return candidate
}

func (g *Generator) writeGroupFile(name, group string, entries []entry) (string, error) {
	filename := filepath.Join(g.outputDir, name+".md")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Group: %s\n\n", group))
	writeTable(&sb, entries)

	if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write group file: %w", err)
	}
	return filename, nil
}

type entry struct {
	key   string
	value string
}

func groupEntries(table store.Table) map[string][]entry {
	grouped := make(map[string][]entry)
	for _, key := range table.Keys() {
		group := rootGroup
		if i := strings.Index(key, "/"); i > 0 {
			group = key[:i]
		}
		grouped[group] = append(grouped[group], entry{key: key, value: table[key]})
	}
	return grouped
}

func sortedGroups(grouped map[string][]entry) []string {
	groups := make([]string, 0, len(grouped))
	for g := range grouped {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func writeTable(sb *strings.Builder, entries []entry) {
	sb.WriteString("| LoRA | Triggers |\n")
	sb.WriteString("| --- | --- |\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", escapeCell(e.key), escapeCell(emptyFallback(e.value, "_none_"))))
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func emptyFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func sanitizeFilename(s string) string {
	reg := regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	result := reg.ReplaceAllString(s, "-")
	result = strings.Trim(result, "-")
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "unnamed"
	}
	return strings.ToLower(result)
}
