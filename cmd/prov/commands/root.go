// Package commands implements the CLI commands for prov.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/prov/internal/app"
	"go.trai.ch/prov/internal/build"
)

// CLI represents the command line interface for prov.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	ConfigureLogging(verbose, jsonOutput bool)
	Init(ctx context.Context, opts app.InitOptions) error
	Run(ctx context.Context, opts app.RunOptions) error
	List(ctx context.Context, opts app.ListOptions) error
	Show(ctx context.Context, labelOrID string, jsonOutput bool) error
	Diff(ctx context.Context, left, right string) error
	Delete(ctx context.Context, labelOrID, tag string) error
	Rename(ctx context.Context, labelOrID, newLabel string, overwrite bool) error
	Tag(ctx context.Context, labelOrID string, add, remove []string) error
	Sync(ctx context.Context, opts app.SyncOptions) error
	Retry(ctx context.Context, labelOrID string, force bool) error
	Cancel(ctx context.Context, labelOrID string, all bool) error
	Status(ctx context.Context) error
	Watch(ctx context.Context) error
	Reconcile(ctx context.Context) error
	Worker(ctx context.Context, project string) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "prov",
		Short:         "Record the provenance of computational experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug messages")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log in JSON format")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonLog, _ := cmd.Flags().GetBool("log-json")
		c.app.ConfigureLogging(verbose, jsonLog)
	}

	rootCmd.AddCommand(c.newInitCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newDiffCmd())
	rootCmd.AddCommand(c.newDeleteCmd())
	rootCmd.AddCommand(c.newRenameCmd())
	rootCmd.AddCommand(c.newTagCmd())
	rootCmd.AddCommand(c.newSyncCmd())
	rootCmd.AddCommand(c.newRetryCmd())
	rootCmd.AddCommand(c.newCancelCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newReconcileCmd())
	rootCmd.AddCommand(c.newWorkerCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
