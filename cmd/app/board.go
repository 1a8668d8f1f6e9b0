package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/config"
	"github.com/BuzzLyutic/todo-app/internal/history"
	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/service"
	"github.com/BuzzLyutic/todo-app/internal/storage"
)

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print saved pending and completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			gw, err := storage.Open(ctx, cfg.StorageOptions())
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer gw.Close()

			svc := service.NewTaskService(repo.NewTaskStore(), history.New(cfg.HistoryCapacity), gw, zap.NewNop())
			out, err := svc.Open(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), out.Notice.Message)
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), out.Board)
			return nil
		},
	}
}

func clearStorageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-storage",
		Short: "Delete saved data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			gw, err := storage.Open(ctx, cfg.StorageOptions())
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer gw.Close()

			if err := gw.Clear(ctx); err != nil {
				var perr *storage.PersistenceError
				if errors.As(err, &perr) {
					fmt.Fprintln(os.Stderr, service.MsgClearFailed)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.MsgStorageCleared)
			return nil
		},
	}
}

func printBoard(w io.Writer, b model.Board) {
	fmt.Fprintf(w, "\nPending (%d)\n", b.PendingCount)
	printTasks(w, b.Pending)
	fmt.Fprintf(w, "\nCompleted (%d)\n", b.CompletedCount)
	printTasks(w, b.Completed)
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  -")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tTITLE\tRESPONSIBLE\tSTART\tEND\tPRIORITY")
	for _, t := range tasks {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Responsible, t.StartDate, t.EndDate, t.Priority)
	}
	tw.Flush()
}
