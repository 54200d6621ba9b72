package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

var errNoInputs = errors.New("no input files found")

var (
	batchDir        string
	batchExts       []string
	batchSkipHidden bool
	batchWorkers    int
	batchForce      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract invoice fields from every file in a directory",
	Long: `Walks a directory, submits every supported file to a worker pool and
writes one CSV per file. Files with identical content are processed once
unless --force is given.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "directory to scan (required)")
	batchCmd.Flags().StringSliceVar(&batchExts, "ext", nil, "extensions to include (default: all supported)")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip hidden files and directories")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "worker count (default: WORKERS or 4)")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "process duplicate content again")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	workers := a.cfg.Extract.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}
	q := async.NewProcessorQueue(a.processor, a.logger,
		async.WithWorkers(workers),
		async.WithQueueSize(a.cfg.Extract.QueueSize),
		async.WithProcessTimeout(a.cfg.Extract.ProcessTimeout),
		async.WithResults(a.cfg.Extract.QueueSize),
	)

	var ok, failed int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range q.Results() {
			if o.Err != nil {
				failed++
				cmd.PrintErrf("%s: %v\n", o.Job.Path, o.Err)
				continue
			}
			ok++
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", o.Job.Path, o.Result.OutputPath)
		}
	}()

	u := ingest.NewUsecase(q, a.logger, batchForce)
	_, stats, err := u.IngestDirectory(ctx, batchDir, batchExts, batchSkipHidden)
	q.Shutdown(context.Background())
	<-done
	if err != nil {
		return err
	}
	if stats.Matched == 0 {
		return fmt.Errorf("%s: %w", batchDir, errNoInputs)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "processed %d, failed %d, duplicates %d\n", ok, failed+int(stats.Failed), stats.Deduplicated)
	if failed > 0 || stats.Failed > 0 {
		return fmt.Errorf("%d files failed", failed+int(stats.Failed))
	}
	return nil
}
