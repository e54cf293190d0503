package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
	"github.com/shashiranjanraj/stockroom/internal/server"
	"github.com/shashiranjanraj/stockroom/pkg/app"
)

var serveWorkersFlag int

// stockroom serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the gRPC health server and queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		flush, err := app.Setup()
		defer flush()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		handler, err := kernel.New(a)
		if err != nil {
			return err
		}

		opts := server.DefaultOptions()
		if serveWorkersFlag >= 0 {
			opts.Workers = serveWorkersFlag
		}
		return server.Run(ctx, a, handler.Handler(), opts)
	},
}

// stockroom route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Building the routes runs no queries, so no database is needed.
		r, err := kernel.New(&app.Application{Store: repositories.NewStore(nil)})
		if err != nil {
			return err
		}

		infos := r.Routes()
		if len(infos) == 0 {
			fmt.Println("No named routes registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkersFlag, "workers", "w", -1, "In-process queue workers; 0 disables, -1 uses QUEUE_WORKERS")
}
