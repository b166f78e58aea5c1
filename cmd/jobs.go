package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"raglayer/src/infrastructure/job"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List background indexing jobs",
	Long: `List background indexing jobs, filtered by status or by the
document they target. Useful for checking whether an upload has been
indexed yet and why a job failed.`,
	RunE: runJobs,
}

var (
	jobsStatus   string
	jobsDocument int64
	jobsLimit    int
)

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", string(job.JobStatusFailed), "Job status to list (pending, running, completed, failed)")
	jobsCmd.Flags().Int64Var(&jobsDocument, "document", 0, "List every job for this document ID instead of filtering by status")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to list")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	repo, err := job.NewPostgresJobRepository(db)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var jobs []job.Job
	if jobsDocument != 0 {
		jobs, err = repo.ListByDocument(ctx, jobsDocument)
	} else {
		jobs, err = repo.ListByStatus(ctx, job.JobStatus(jobsStatus), jobsLimit)
	}
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("no jobs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tCOLLECTION\tDOCUMENT\tSTATUS\tUPDATED\tERROR")
	for _, j := range jobs {
		errStr := ""
		if j.Error != nil {
			errStr = *j.Error
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
			j.ID, j.TaskType, j.CollectionID, j.DocumentID, j.Status,
			j.UpdatedAt.Format("2006-01-02 15:04:05"), errStr)
	}
	return w.Flush()
}
