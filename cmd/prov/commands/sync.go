package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/prov/internal/app"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [label|id]",
		Short: "Push queued records to the remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			background, _ := cmd.Flags().GetBool("background")
			opts := app.SyncOptions{Background: background}
			if len(args) == 1 {
				opts.Label = args[0]
			}
			return c.app.Sync(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolP("background", "b", false, "Hand the queue to the background worker")
	return cmd
}

func (c *CLI) newRetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <label|id>",
		Short: "Queue a failed or conflicting record again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return c.app.Retry(cmd.Context(), args[0], force)
		},
	}
	cmd.Flags().Bool("force", false, "Replace the remote record holding the label")
	return cmd
}

func (c *CLI) newCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel [label|id]",
		Short: "Take records out of the sync queue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if len(args) == 0 && !all {
				return cmd.Help()
			}
			labelOrID := ""
			if len(args) == 1 {
				labelOrID = args[0]
			}
			return c.app.Cancel(cmd.Context(), labelOrID, all)
		},
	}
	cmd.Flags().Bool("all", false, "Cancel every pending push")
	return cmd
}

func (c *CLI) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync state of every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				return c.app.Watch(cmd.Context())
			}
			return c.app.Status(cmd.Context())
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "Keep refreshing until interrupted")
	return cmd
}

func (c *CLI) newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the remote with the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Reconcile(cmd.Context())
		},
	}
}

func (c *CLI) newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run the sync worker (internal use)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			return c.app.Worker(cmd.Context(), project)
		},
	}
	cmd.Flags().String("project", "", "Project the worker was started for")
	return cmd
}
