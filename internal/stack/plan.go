package stack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strrl/autolora/internal/parser"
)

// PlanLoader is a Loader that records what would be applied instead of
// touching tensors. Safetensors files have their header read so the plan can
// report the tensor count.
type PlanLoader struct{}

// Plan is the Handle type PlanLoader works with. Patches are in load order.
type Plan struct {
	Base    string
	Patches []Patch
}

type Patch struct {
	Path     string
	Tensors  int
	Strength float64
}

// LoadedFile is the Weights type PlanLoader returns. Tensors is -1 when the
// container is not safetensors.
type LoadedFile struct {
	Path    string
	Size    int64
	Tensors int
}

func NewPlan(base string) *Plan {
	return &Plan{Base: base}
}

func (p *Plan) with(patch Patch) *Plan {
	patches := make([]Patch, len(p.Patches), len(p.Patches)+1)
	copy(patches, p.Patches)
	return &Plan{Base: p.Base, Patches: append(patches, patch)}
}

func (PlanLoader) LoadWeights(_ context.Context, path string) (Weights, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	lf := &LoadedFile{Path: path, Size: info.Size(), Tensors: -1}
	if strings.EqualFold(filepath.Ext(path), ".safetensors") {
		header, err := parser.ReadSafetensorsHeader(path)
		if err != nil {
			return nil, err
		}
		lf.Tensors = header.TensorCount
	}
	return lf, nil
}

func (PlanLoader) LoadLoRA(_ context.Context, model, clip Handle, w Weights, strengthModel, strengthClip float64) (Handle, Handle, error) {
	lf, ok := w.(*LoadedFile)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected weights type %T", w)
	}
	m, ok := model.(*Plan)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected model type %T", model)
	}
	c, ok := clip.(*Plan)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected clip type %T", clip)
	}

	return m.with(Patch{Path: lf.Path, Tensors: lf.Tensors, Strength: strengthModel}),
		c.with(Patch{Path: lf.Path, Tensors: lf.Tensors, Strength: strengthClip}),
		nil
}
