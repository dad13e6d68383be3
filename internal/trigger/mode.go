package trigger

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown trigger mode")

// Mode selects which stored phrases a stack slot contributes.
type Mode int

const (
	ModeAll Mode = iota
	ModeFirst
	ModeByIndex
	ModeCustom
	ModeNone
)

// Modes lists every mode in the order the host presents them.
var Modes = []Mode{ModeAll, ModeFirst, ModeByIndex, ModeCustom, ModeNone}

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "All"
	case ModeFirst:
		return "First"
	case ModeByIndex:
		return "By Index"
	case ModeCustom:
		return "Custom Override"
	case ModeNone:
		return "None"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the display names ("By Index", "Custom Override") as well
// as short CLI spellings ("by-index", "index", "custom").
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)

	switch key {
	case "all", "":
		return ModeAll, nil
	case "first":
		return ModeFirst, nil
	case "by index", "index", "byindex":
		return ModeByIndex, nil
	case "custom override", "custom":
		return ModeCustom, nil
	case "none", "off":
		return ModeNone, nil
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// AutoMode maps the single auto-trigger switch of the simplified stack onto a
// per-slot mode.
func AutoMode(enabled bool) Mode {
	if enabled {
		return ModeAll
	}
	return ModeNone
}
