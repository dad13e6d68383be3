package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strrl/autolora/internal/manager"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Read or edit a single trigger entry",
	Long: `Read or edit the trigger phrases stored for one LoRA. NAME is the LoRA path
relative to the collection root, for example SDXL/style.safetensors.`,
}

var triggerReadCmd = &cobra.Command{
	Use:   "read NAME",
	Short: "Show the stored trigger phrases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriggerOp(cmd, manager.OpRead, args[0], "")
	},
}

var triggerSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Overwrite the stored trigger phrases",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriggerOp(cmd, manager.OpOverwrite, args[0], args[1])
	},
}

var triggerAppendCmd = &cobra.Command{
	Use:   "append NAME PHRASE",
	Short: "Add a phrase unless it is already listed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriggerOp(cmd, manager.OpAppend, args[0], args[1])
	},
}

var triggerRemoveCmd = &cobra.Command{
	Use:   "remove NAME PHRASE",
	Short: "Remove a phrase from the list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTriggerOp(cmd, manager.OpRemoveWord, args[0], args[1])
	},
}

func runTriggerOp(cmd *cobra.Command, op manager.Operation, name, word string) error {
	report, err := manager.New(newStore(), nil, "", logger).Run(cmd.Context(), op, name, word)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report manager.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Status)
	if report.Current != "" {
		fmt.Fprintf(out, "Triggers: %s\n", report.Current)
	}
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	triggerCmd.AddCommand(triggerReadCmd, triggerSetCmd, triggerAppendCmd, triggerRemoveCmd)
}
