// Package stack applies up to three LoRAs to a model pair and injects their
// trigger phrases into the prompt.
package stack

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/strrl/autolora/internal/collection"
	"github.com/strrl/autolora/internal/store"
	"github.com/strrl/autolora/internal/trigger"
)

// MaxSlots is the number of LoRA slots one stack offers.
const MaxSlots = 3

// Handle is an opaque model or text-encoder reference owned by the Loader.
type Handle any

// Weights is an opaque loaded LoRA delta owned by the Loader.
type Weights any

// Loader is the model-loading runtime.
type Loader interface {
	LoadWeights(ctx context.Context, path string) (Weights, error)
	LoadLoRA(ctx context.Context, model, clip Handle, w Weights, strengthModel, strengthClip float64) (Handle, Handle, error)
}

// PathResolver maps a LoRA identifier to the file to load.
type PathResolver interface {
	FullPath(identifier string) (string, error)
}

type Slot struct {
	Name     string
	Strength float64
	Mode     trigger.Mode
	Config   string
}

// Active reports whether the slot asks for a LoRA at all.
func (s Slot) Active() bool {
	return s.Name != "" && s.Name != collection.None && s.Strength != 0
}

type Request struct {
	Model Handle
	Clip  Handle
	// StackModel and StackClip, when set, come from an upstream stack and
	// replace Model and Clip as the starting point.
	StackModel Handle
	StackClip  Handle
	Prompt     string
	Slots      []Slot
	// AutoTrigger is consulted only when per-slot modes are disabled.
	AutoTrigger bool
}

type Applied struct {
	Name     string
	Path     string
	Strength float64
}

type Result struct {
	Model         Handle
	Clip          Handle
	FinalPrompt   string
	TriggersAdded string
	Applied       []Applied
}

type Options struct {
	Family collection.Family
	// PerSlotModes selects each slot's own trigger mode. When false every
	// slot uses All or None depending on Request.AutoTrigger.
	PerSlotModes bool
}

type Applier struct {
	opts   Options
	store  *store.Store
	paths  PathResolver
	loader Loader
	logger *zap.Logger
}

func NewApplier(opts Options, st *store.Store, paths PathResolver, loader Loader, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{
		opts:   opts,
		store:  st,
		paths:  paths,
		loader: loader,
		logger: logger.Named("stack"),
	}
}

// Apply loads every active slot in order and builds the final prompt. A LoRA
// whose file cannot be found still contributes its trigger phrase. Loader
// failures abort the stack.
func (a *Applier) Apply(ctx context.Context, req Request) (Result, error) {
	if len(req.Slots) > MaxSlots {
		return Result{}, fmt.Errorf("too many lora slots: %d, max %d", len(req.Slots), MaxSlots)
	}

	res := Result{Model: req.Model, Clip: req.Clip}
	if req.StackModel != nil {
		res.Model = req.StackModel
	}
	if req.StackClip != nil {
		res.Clip = req.StackClip
	}

	resolver := trigger.NewResolver(a.store.Load(), a.logger)
	var phrases []trigger.Resolved

	for i, slot := range req.Slots {
		if !slot.Active() {
			continue
		}
		if !a.opts.Family.Contains(slot.Name) {
			return Result{}, fmt.Errorf("lora %q is not a %s lora", slot.Name, a.opts.Family)
		}

		if err := a.load(ctx, &res, slot); err != nil {
			return Result{}, err
		}

		mode := slot.Mode
		if !a.opts.PerSlotModes {
			mode = trigger.AutoMode(req.AutoTrigger)
		}
		phrases = append(phrases, trigger.Resolved{
			Phrase:  resolver.Resolve(slot.Name, mode, slot.Config),
			Primary: i == 0,
		})
	}

	res.FinalPrompt, res.TriggersAdded = trigger.Inject(req.Prompt, phrases)
	return res, nil
}

func (a *Applier) load(ctx context.Context, res *Result, slot Slot) error {
	path, err := a.paths.FullPath(slot.Name)
	if err != nil {
		a.logger.Warn("lora file not found, skipping weights", zap.String("lora", slot.Name), zap.Error(err))
		return nil
	}

	w, err := a.loader.LoadWeights(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", slot.Name, err)
	}

	model, clip, err := a.loader.LoadLoRA(ctx, res.Model, res.Clip, w, slot.Strength, slot.Strength)
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", slot.Name, err)
	}

	res.Model, res.Clip = model, clip
	res.Applied = append(res.Applied, Applied{Name: slot.Name, Path: path, Strength: slot.Strength})
	a.logger.Info("loaded lora", zap.String("lora", slot.Name), zap.Float64("strength", slot.Strength))
	return nil
}
