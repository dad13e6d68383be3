// Package manager runs the trigger management operations: reading and
// editing single store entries and scanning the collection.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/strrl/autolora/internal/pipeline"
	"github.com/strrl/autolora/internal/store"
)

var ErrUnknownOperation = errors.New("unknown operation")

type Operation int

const (
	OpRead Operation = iota
	OpOverwrite
	OpAppend
	OpRemoveWord
	OpScanLocal
	OpScanOnline
)

var Operations = []Operation{OpRead, OpOverwrite, OpAppend, OpRemoveWord, OpScanLocal, OpScanOnline}

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "Read Entry"
	case OpOverwrite:
		return "Overwrite Entry"
	case OpAppend:
		return "Append to Entry"
	case OpRemoveWord:
		return "Remove Word"
	case OpScanLocal:
		return "SCAN LOCAL (Fast)"
	case OpScanOnline:
		return "SCAN ONLINE (Slow/Deep)"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation accepts the display names and the short CLI forms.
func ParseOperation(s string) (Operation, error) {
	s = strings.TrimSpace(s)
	for _, op := range Operations {
		if strings.EqualFold(s, op.String()) {
			return op, nil
		}
	}
	switch strings.ToLower(s) {
	case "read", "get":
		return OpRead, nil
	case "set", "overwrite":
		return OpOverwrite, nil
	case "append", "add":
		return OpAppend, nil
	case "remove", "rm":
		return OpRemoveWord, nil
	case "scan", "scan-local":
		return OpScanLocal, nil
	case "scan-online":
		return OpScanOnline, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// Report is what an operation shows the user. Current is the entry's value
// after the operation; scans leave it empty.
type Report struct {
	Status  string
	Current string
}

type Scanner interface {
	Scan(ctx context.Context, root string, includeRemote bool) (pipeline.Result, error)
}

type Manager struct {
	store   *store.Store
	scanner Scanner
	root    string
	logger  *zap.Logger
}

func New(st *store.Store, scanner Scanner, root string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   st,
		scanner: scanner,
		root:    root,
		logger:  logger.Named("manager"),
	}
}

func (m *Manager) Run(ctx context.Context, op Operation, identifier, word string) (Report, error) {
	switch op {
	case OpScanLocal, OpScanOnline:
		return m.scan(ctx, op == OpScanOnline)
	case OpRead, OpOverwrite, OpAppend, OpRemoveWord:
		return m.edit(op, identifier, word)
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func (m *Manager) edit(op Operation, identifier, word string) (Report, error) {
	key := store.CleanKey(identifier)
	table := m.store.Load()

	switch op {
	case OpRead:
		return Report{Status: "Read Mode: " + key, Current: table.Get(key)}, nil

	case OpOverwrite:
		if err := table.Set(key, word); err != nil {
			return Report{}, err
		}
		m.store.Save(table)
		return Report{Status: "Overwrote: " + key, Current: table.Get(key)}, nil

	case OpAppend:
		changed, err := table.Append(key, word)
		if err != nil {
			return Report{}, err
		}
		if changed {
			m.store.Save(table)
		}
		return Report{Status: "Appended: " + key, Current: table.Get(key)}, nil

	default:
		changed, err := table.RemoveWord(key, word)
		if err != nil {
			return Report{}, err
		}
		if changed {
			m.store.Save(table)
		}
		return Report{Status: "Removed word from: " + key, Current: table.Get(key)}, nil
	}
}

func (m *Manager) scan(ctx context.Context, online bool) (Report, error) {
	if m.scanner == nil {
		return Report{}, errors.New("scanning is not configured")
	}

	result, err := m.scanner.Scan(ctx, m.root, online)
	if err != nil {
		return Report{}, fmt.Errorf("scan failed: %w", err)
	}

	if result.Added > 0 {
		return Report{Status: fmt.Sprintf("Scan Complete: Added %d triggers [Online: %t]", result.Added, online)}, nil
	}
	return Report{Status: fmt.Sprintf("Scan Complete: No new triggers found. (Checked %d)", result.Checked)}, nil
}
