package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/app"
)

var (
	queueWorkersFlag int
	queueLimitFlag   int
)

// boot runs Setup and Boot, returning a cleanup for both.
func boot(ctx context.Context) (*app.Application, func(), error) {
	flush, err := app.Setup()
	if err != nil {
		flush()
		return nil, nil, err
	}
	a, err := app.Boot(ctx)
	if err != nil {
		flush()
		return nil, nil, err
	}
	return a, func() { a.Close(); flush() }, nil
}

// stockroom queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start queue workers without the HTTP server",
	Long: "Start queue workers without the HTTP server. Jobs only reach a separate " +
		"worker process through a shared backend, so set QUEUE_DRIVER=redis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, done, err := boot(ctx)
		if err != nil {
			return err
		}
		defer done()

		if config.QueueDriver() != "redis" {
			fmt.Println("warning: QUEUE_DRIVER is not redis; this worker will only see jobs it enqueues itself")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}

		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		err = a.Queue.Run(ctx, workers)
		fmt.Println("Queue worker stopped.")
		return err
	},
}

// stockroom queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		recs, err := a.Queue.FailedJobs(cmd.Context(), queueLimitFlag)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tATTEMPTS\tFAILED AT\tERROR")
		for _, r := range recs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.Kind, r.Attempts, r.FailedAt.Format("2006-01-02 15:04:05"), r.Error)
		}
		return w.Flush()
	},
}

// stockroom queue:retry <id>
var queueRetryCmd = &cobra.Command{
	Use:   "queue:retry <id>",
	Short: "Re-enqueue a failed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid failed job id %q", args[0])
		}
		if config.QueueDriver() != "redis" {
			return fmt.Errorf("queue:retry needs QUEUE_DRIVER=redis; use POST /api/admin/failed-jobs/%d/retry on the running server", id)
		}

		a, done, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		jobID, err := a.Queue.Retry(cmd.Context(), uint(id))
		if err != nil {
			return err
		}
		fmt.Printf("Failed job %d re-enqueued as %s.\n", id, jobID)
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
	queueFailedCmd.Flags().IntVarP(&queueLimitFlag, "limit", "l", 50, "Maximum records to list")
}
