package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strrl/autolora/internal/output"
)

var (
	exportOut   string
	exportSplit bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the trigger table as Markdown",
	Long: `Render the trigger table as Markdown, one section per top-level folder.
Without --out the document is printed. With --split one file per folder is
written to the exports directory (or the --out directory).`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, or directory with --split")
	exportCmd.Flags().BoolVar(&exportSplit, "split", false, "write one file per folder")
}

func runExport(cmd *cobra.Command, args []string) error {
	table := newStore().Load()
	out := cmd.OutOrStdout()

	if exportSplit {
		dir := exportOut
		if dir == "" {
			dir = homeDir.ExportsDir()
		}
		files, err := output.NewGenerator(dir).Generate(table)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "Wrote %s\n", f)
		}
		return nil
	}

	if exportOut == "" {
		return output.Render(out, table)
	}

	path, err := output.NewGenerator(filepath.Dir(exportOut)).WriteFile(filepath.Base(exportOut), table)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%d entries)\n", path, len(table))
	return nil
}
