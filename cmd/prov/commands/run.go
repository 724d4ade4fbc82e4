package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/prov/internal/app"
	"go.trai.ch/prov/internal/core/domain"
)

func (c *CLI) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			remote, _ := cmd.Flags().GetString("remote")
			mode, _ := cmd.Flags().GetString("mode")
			return c.app.Init(cmd.Context(), app.InitOptions{
				Project:   project,
				RemoteURL: remote,
				Mode:      domain.SyncMode(mode),
			})
		},
	}
	cmd.Flags().String("project", "", "Project name (defaults to the directory name)")
	cmd.Flags().String("remote", "", "URL of the remote record service")
	cmd.Flags().String("mode", string(domain.SyncModeManual), "Sync mode: manual or background")
	return cmd
}

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [script] [args...]",
		Short: "Run a command and record its provenance",
		Long: "Run a command and record its provenance.\n\n" +
			"Without --main the first argument is the script. Arguments after it are\n" +
			"passed to the script unchanged.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			executable, _ := cmd.Flags().GetString("executable")
			script, _ := cmd.Flags().GetString("main")
			if executable == "" && script == "" {
				if len(args) == 0 {
					_ = cmd.Help()
					return nil
				}
				script, args = args[0], args[1:]
			}

			opts := app.RunOptions{
				Executable: executable,
				Script:     script,
				ScriptArgs: args,
			}
			opts.ParameterFile, _ = cmd.Flags().GetString("params-file")
			opts.Parameters, _ = cmd.Flags().GetStringArray("param")
			opts.Dependencies, _ = cmd.Flags().GetStringArray("dep")
			opts.Outputs, _ = cmd.Flags().GetStringArray("output")
			opts.Label, _ = cmd.Flags().GetString("label")
			opts.Overwrite, _ = cmd.Flags().GetBool("overwrite")
			opts.Tags, _ = cmd.Flags().GetStringArray("tag")
			opts.Reason, _ = cmd.Flags().GetString("reason")
			opts.Outcome, _ = cmd.Flags().GetString("outcome")
			opts.Snapshot, _ = cmd.Flags().GetBool("snapshot")
			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringP("executable", "e", "", "Program to run (inferred from the script extension when omitted)")
	cmd.Flags().StringP("main", "m", "", "Script passed to the executable")
	cmd.Flags().StringP("params-file", "f", "", "Parameter file (JSON, YAML or TOML)")
	cmd.Flags().StringArrayP("param", "p", nil, "Parameter assignment name=value, applied after the file")
	cmd.Flags().StringArrayP("dep", "d", nil, "Input file or glob to record")
	cmd.Flags().StringArrayP("output", "o", nil, "Output file to record")
	cmd.Flags().StringP("label", "l", "", "Record label (defaults to the start time)")
	cmd.Flags().Bool("overwrite", false, "Move an existing label to the new record")
	cmd.Flags().StringArrayP("tag", "t", nil, "Tag to attach")
	cmd.Flags().StringP("reason", "r", "", "Why the run was made")
	cmd.Flags().String("outcome", "", "Free-text outcome of the run")
	cmd.Flags().Bool("snapshot", false, "Copy dependency content into the store")
	return cmd
}
