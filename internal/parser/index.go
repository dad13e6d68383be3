package parser

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// Index holds the trained words of every .civitai.info sidecar under a
// collection root, keyed by the sidecar's cleaned absolute path.
type Index map[string][]string

// Lookup returns the trained words recorded for a sidecar path.
func (idx Index) Lookup(sidecarPath string) ([]string, bool) {
	if idx == nil {
		return nil, false
	}
	abs, err := filepath.Abs(sidecarPath)
	if err != nil {
		return nil, false
	}
	words, ok := idx[filepath.Clean(abs)]
	return words, ok
}

// Indexer reads all sidecars of a collection in one DuckDB read_json scan
// instead of opening them one by one.
type Indexer struct {
	db *sql.DB
}

func NewIndexer(database *sql.DB) *Indexer {
	return &Indexer{db: database}
}

func (ix *Indexer) Build(root string) (Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	pattern := filepath.ToSlash(filepath.Join(absRoot, "**", "*"+CivitaiInfoSuffix))
	query := fmt.Sprintf(`
		SELECT
			filename,
			COALESCE(CAST(to_json(trainedWords) AS VARCHAR), '[]') AS words_json
		FROM read_json('%s',
			format = 'auto',
			union_by_name = true,
			ignore_errors = true,
			filename = true
		)
	`, escapeLiteral(pattern))

	rows, err := ix.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sidecars: %w", err)
	}
	defer rows.Close()

	idx := make(Index)
	for rows.Next() {
		var (
			filename  string
			wordsJSON string
		)
		if err := rows.Scan(&filename, &wordsJSON); err != nil {
			continue
		}

		var words []string
		if err := json.Unmarshal([]byte(wordsJSON), &words); err != nil {
			continue
		}
		idx[filepath.Clean(filepath.FromSlash(filename))] = words
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return idx, nil
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
