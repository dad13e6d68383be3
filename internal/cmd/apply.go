package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strrl/autolora/internal/collection"
	"github.com/strrl/autolora/internal/stack"
	"github.com/strrl/autolora/internal/trigger"
)

var (
	applyFamily      string
	applyPrompt      string
	applyLoras       []string
	applyAutoTrigger bool
	applyBaseModel   string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Plan a LoRA stack and build the prompt with its triggers",
	Long: `Resolve up to three LoRAs, print the patches that would be applied to the
model pair and the prompt with the trigger phrases injected.

Each --lora is NAME[:STRENGTH[:MODE[:CONFIG]]]. MODE is one of all, first,
index, custom or none; CONFIG holds the 1-based indices for index mode or the
phrase for custom mode.

Passing --auto-trigger switches to the simple variant: every LoRA injects all
of its phrases when the flag is true and none when it is false.

Examples:
  autolora apply --family sdxl --prompt "a castle" --lora SDXL/style.safetensors:0.8
  autolora apply --prompt "portrait" --lora FLUX/face.safetensors:1:index:1,3`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyFamily, "family", "", "model family: flux, sdxl, flux2, qwen, zimage (default universal)")
	applyCmd.Flags().StringVarP(&applyPrompt, "prompt", "p", "", "base prompt")
	applyCmd.Flags().StringArrayVarP(&applyLoras, "lora", "l", nil, "LoRA slot NAME[:STRENGTH[:MODE[:CONFIG]]], up to three")
	applyCmd.Flags().BoolVar(&applyAutoTrigger, "auto-trigger", true, "inject all phrases of every LoRA (simple mode)")
	applyCmd.Flags().StringVar(&applyBaseModel, "model", "base", "name of the base model in the printed plan")
}

func runApply(cmd *cobra.Command, args []string) error {
	family, err := collection.ParseFamily(applyFamily)
	if err != nil {
		return err
	}

	slots := make([]stack.Slot, 0, len(applyLoras))
	for _, spec := range applyLoras {
		slot, err := parseSlot(spec)
		if err != nil {
			return err
		}
		slots = append(slots, slot)
	}

	applier := stack.NewApplier(stack.Options{
		Family:       family,
		PerSlotModes: !cmd.Flags().Changed("auto-trigger"),
	}, newStore(), newCollection(), stack.PlanLoader{}, logger)

	res, err := applier.Apply(cmd.Context(), stack.Request{
		Model:       stack.NewPlan(applyBaseModel),
		Clip:        stack.NewPlan(applyBaseModel + " (clip)"),
		Prompt:      applyPrompt,
		Slots:       slots,
		AutoTrigger: applyAutoTrigger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Family: %s\n", family)
	if plan, ok := res.Model.(*stack.Plan); ok {
		fmt.Fprintf(out, "Model: %s\n", plan.Base)
		for _, p := range plan.Patches {
			tensors := "?"
			if p.Tensors >= 0 {
				tensors = strconv.Itoa(p.Tensors)
			}
			fmt.Fprintf(out, "  + %s @ %.2f (%s tensors)\n", p.Path, p.Strength, tensors)
		}
	}
	fmt.Fprintf(out, "Triggers added: %s\n", res.TriggersAdded)
	fmt.Fprintf(out, "Final prompt: %s\n", res.FinalPrompt)
	return nil
}

// parseSlot reads NAME[:STRENGTH[:MODE[:CONFIG]]]. The config part may
// itself contain colons.
func parseSlot(spec string) (stack.Slot, error) {
	parts := strings.SplitN(spec, ":", 4)
	slot := stack.Slot{
		Name:     strings.TrimSpace(parts[0]),
		Strength: 1,
		Mode:     trigger.ModeAll,
		Config:   "1",
	}
	if slot.Name == "" {
		return stack.Slot{}, fmt.Errorf("empty lora name in %q", spec)
	}

	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		strength, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return stack.Slot{}, fmt.Errorf("invalid strength in %q: %w", spec, err)
		}
		slot.Strength = strength
	}
	if len(parts) > 2 {
		mode, err := trigger.ParseMode(parts[2])
		if err != nil {
			return stack.Slot{}, fmt.Errorf("invalid mode in %q: %w", spec, err)
		}
		slot.Mode = mode
	}
	if len(parts) > 3 {
		slot.Config = parts[3]
	}
	return slot, nil
}
