package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strrl/autolora/internal/collection"
)

var listFamily string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List LoRAs in the collection with their triggers",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFamily, "family", "", "only list LoRAs of this model family")
}

func runList(cmd *cobra.Command, args []string) error {
	family, err := collection.ParseFamily(listFamily)
	if err != nil {
		return err
	}

	names, err := newCollection().List(family)
	if err != nil {
		return err
	}

	table := newStore().Load()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LORA\tTRIGGERS")
	for _, name := range names {
		triggers, _ := table.Lookup(name)
		if triggers == "" {
			triggers = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, triggers)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d LoRAs (%s)\n", len(names), family)
	return nil
}
