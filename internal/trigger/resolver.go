package trigger

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/strrl/autolora/internal/store"
)

// NoLoRA is the selection-list entry meaning "no LoRA in this slot".
const NoLoRA = "None"

// Resolver picks trigger phrases for stack slots from a loaded table.
type Resolver struct {
	table  store.Table
	logger *zap.Logger
}

func NewResolver(table store.Table, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		table:  table,
		logger: logger.Named("resolver"),
	}
}

// Resolve returns the phrase string a slot contributes, or "" when it
// contributes nothing. It never fails.
func (r *Resolver) Resolve(name string, mode Mode, config string) string {
	switch mode {
	case ModeNone:
		return ""
	case ModeCustom:
		return strings.TrimSpace(config)
	}

	if strings.TrimSpace(name) == "" || name == NoLoRA {
		return ""
	}

	m, ok := r.table.Find(name)
	if !ok || m.Value == "" {
		return ""
	}
	if m.Ambiguous() {
		r.logger.Warn("ambiguous trigger lookup, using first candidate",
			zap.String("query", name),
			zap.String("chosen", m.Key),
			zap.Strings("candidates", m.Candidates),
		)
	}

	return Select(m.Value, mode, config)
}

// Select applies mode to a stored phrase list. A BY_INDEX config that does not
// parse falls back to the whole stored value.
func Select(value string, mode Mode, config string) string {
	switch mode {
	case ModeAll:
		return value
	case ModeFirst:
		phrases := store.SplitPhrases(value)
		if len(phrases) == 0 {
			return ""
		}
		return phrases[0]
	case ModeByIndex:
		indices, err := parseIndices(config)
		if err != nil {
			return value
		}
		phrases := store.SplitPhrases(value)
		var selected []string
		for _, idx := range indices {
			if idx >= 1 && idx <= len(phrases) {
				selected = append(selected, phrases[idx-1])
			}
		}
		return store.JoinPhrases(selected)
	case ModeCustom:
		return strings.TrimSpace(config)
	default:
		return ""
	}
}

// parseIndices reads a comma-separated list of 1-based indices. Any segment
// that is not an integer fails the whole list.
func parseIndices(config string) ([]int, error) {
	parts := strings.Split(config, ",")
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}
