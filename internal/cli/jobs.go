package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

var (
	jobsStatus string
	jobsLimit  int
	jobsOut    string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect stored extraction jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extraction jobs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show one extraction job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsGet,
}

var jobsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export extraction jobs to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runJobsExport,
}

func init() {
	for _, c := range []*cobra.Command{jobsListCmd, jobsExportCmd} {
		c.Flags().StringVar(&jobsStatus, "status", "", "only jobs with this status (QUEUED, RUNNING, TEXT_OK, FIELDS_OK, FAILED)")
		c.Flags().IntVar(&jobsLimit, "limit", 50, "maximum number of jobs")
	}
	jobsExportCmd.Flags().StringVarP(&jobsOut, "out", "o", "invoices.xlsx", "workbook path")

	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd, jobsExportCmd)
	rootCmd.AddCommand(jobsCmd)
}

func jobsFilter() (repository.ListFilter, error) {
	f := repository.ListFilter{Limit: jobsLimit}
	if jobsStatus == "" {
		return f, nil
	}
	st := constants.JobStatus(strings.ToUpper(jobsStatus))
	switch st {
	case constants.JobStatusQueued, constants.JobStatusRunning, constants.JobStatusTextOK,
		constants.JobStatusFieldsOK, constants.JobStatusFailed:
		f.Status = st
		return f, nil
	}
	return f, fmt.Errorf("unknown job status %q", jobsStatus)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	filter, err := jobsFilter()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	jobs, err := a.jobs.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no jobs")
		return nil
	}
	for _, j := range jobs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  %s  %d/%d  %s\n",
			j.ID, j.Status, j.StartedAt.Local().Format(time.DateTime),
			j.FieldsFound, len(constants.AllFields()), j.SourcePath)
	}
	return nil
}

func runJobsGet(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", args[0], err)
	}
	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "id:       %s\n", j.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "source:   %s\n", j.SourcePath)
	fmt.Fprintf(cmd.OutOrStdout(), "format:   %s\n", j.Format)
	fmt.Fprintf(cmd.OutOrStdout(), "status:   %s\n", j.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "method:   %s\n", j.Method)
	fmt.Fprintf(cmd.OutOrStdout(), "started:  %s\n", j.StartedAt.Local().Format(time.DateTime))
	if j.FinishedAt != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "finished: %s\n", j.FinishedAt.Local().Format(time.DateTime))
	}
	if j.ErrorMessage != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "error:    %s\n", j.ErrorMessage)
	}
	for _, f := range constants.AllFields() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", f.String(), j.Record.Value(f))
	}
	return nil
}

func runJobsExport(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	filter, err := jobsFilter()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := export.NewService(a.jobs, a.logger).ExportXLSX(ctx, filter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(jobsOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jobsOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", jobsOut)
	return nil
}
