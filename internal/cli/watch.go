package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

var (
	watchDirs     []string
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch directories and extract fields from new invoices",
	Long: `Watches one or more directories recursively and processes every supported
file that is created or modified, until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchDirs, "dir", "d", nil, "directory to watch (repeatable, required)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also process files already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is processed")
	_ = watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	parent := cmdContext(cmd)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	q := async.NewProcessorQueue(a.processor, a.logger,
		async.WithWorkers(a.cfg.Extract.Workers),
		async.WithQueueSize(a.cfg.Extract.QueueSize),
		async.WithProcessTimeout(a.cfg.Extract.ProcessTimeout),
	)
	defer q.Shutdown(context.Background())

	u := ingest.NewUsecase(q, a.logger, false)
	err = u.Watch(ctx, ingest.WatchConfig{
		Roots:       watchDirs,
		SkipHidden:  true,
		InitialScan: watchExisting,
		Debounce:    watchDebounce,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
