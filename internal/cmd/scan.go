package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strrl/autolora/internal/manager"
	"github.com/strrl/autolora/internal/watch"
)

var (
	scanOnline bool
	scanWatch  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover trigger phrases for LoRAs without an entry",
	Long: `Walk the LoRA collection and fill in missing trigger entries from, in order:
.civitai.info sidecars, safetensors metadata, .txt sidecars and, with --online,
the Civitai search API. Existing entries are never replaced.

With --watch the scan is repeated whenever weights files or sidecars change,
until interrupted.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanOnline, "online", false, "also query Civitai for LoRAs with no local source (slow)")
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "keep watching the collection and rescan on changes")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	coll := newCollection()
	if coll.Root() == "" {
		return fmt.Errorf("no lora directories configured")
	}

	mgr := newManager()
	op := manager.OpScanLocal
	if scanOnline {
		op = manager.OpScanOnline
	}

	report, err := mgr.Run(ctx, op, "", "")
	if err != nil {
		return err
	}
	printReport(cmd, report)

	if !scanWatch {
		return nil
	}

	w, err := watch.New(watch.Config{
		Dirs:       coll.Dirs(),
		Extensions: cfg.Loras.Extensions,
		Debounce:   cfg.Watch.DebounceDuration(),
		Logger:     logger,
	}, func(ctx context.Context) {
		report, err := mgr.Run(ctx, manager.OpScanLocal, "", "")
		if err != nil {
			logger.Warn("rescan failed", zap.Error(err))
			return
		}
		printReport(cmd, report)
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directories, press Ctrl+C to stop\n", len(coll.Dirs()))
	<-ctx.Done()
	return nil
}
