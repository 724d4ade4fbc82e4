package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/prov/internal/app"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
)

// dateLayouts are accepted by --since and --until.
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, zerr.With(zerr.New("unrecognized date, use YYYY-MM-DD or RFC 3339"), "date", s)
}

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [label-glob]",
		Aliases: []string{"ls"},
		Short:   "List records",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter domain.Filter
			if len(args) == 1 {
				filter.Label = args[0]
			}
			filter.Tags, _ = cmd.Flags().GetStringArray("tag")

			states, _ := cmd.Flags().GetStringArray("state")
			for _, s := range states {
				state, err := domain.ParseSyncState(s)
				if err != nil {
					return err
				}
				filter.States = append(filter.States, state)
			}

			since, _ := cmd.Flags().GetString("since")
			until, _ := cmd.Flags().GetString("until")
			var err error
			if filter.Since, err = parseDate(since); err != nil {
				return err
			}
			if filter.Until, err = parseDate(until); err != nil {
				return err
			}

			long, _ := cmd.Flags().GetBool("long")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			projects, _ := cmd.Flags().GetBool("projects")
			return c.app.List(cmd.Context(), app.ListOptions{Filter: filter, Long: long, JSON: jsonOutput, Projects: projects})
		},
	}
	cmd.Flags().StringArrayP("tag", "t", nil, "Only records carrying the tag")
	cmd.Flags().StringArray("state", nil, "Only records in the sync state")
	cmd.Flags().String("since", "", "Only records started at or after the date")
	cmd.Flags().String("until", "", "Only records started before the date")
	cmd.Flags().BoolP("long", "L", false, "Show executable, tags and reason")
	cmd.Flags().Bool("json", false, "Print record summaries as JSON")
	cmd.Flags().Bool("projects", false, "List the project stores under the root")
	return cmd
}

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [label|id]",
		Short: "Show a record, the most recent one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			labelOrID := ""
			if len(args) == 1 {
				labelOrID = args[0]
			}
			return c.app.Show(cmd.Context(), labelOrID, jsonOutput)
		},
	}
	cmd.Flags().Bool("json", false, "Print the stored record document")
	return cmd
}

func (c *CLI) newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <label|id> <label|id>",
		Short: "Compare two records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Diff(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *CLI) newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [label|id]",
		Aliases: []string{"rm"},
		Short:   "Delete a record, or every record with a tag",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, _ := cmd.Flags().GetString("tag")
			if len(args) == 0 && tag == "" {
				return cmd.Help()
			}
			labelOrID := ""
			if len(args) == 1 {
				labelOrID = args[0]
			}
			return c.app.Delete(cmd.Context(), labelOrID, tag)
		},
	}
	cmd.Flags().StringP("tag", "t", "", "Delete every record carrying the tag")
	return cmd
}

func (c *CLI) newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <label|id> <new-label>",
		Short: "Change the label of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			return c.app.Rename(cmd.Context(), args[0], args[1], overwrite)
		},
	}
	cmd.Flags().Bool("overwrite", false, "Take the label from the record holding it")
	return cmd
}

func (c *CLI) newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <label|id> [tags...]",
		Short: "Add or remove tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetStringArray("remove")
			return c.app.Tag(cmd.Context(), args[0], args[1:], remove)
		},
	}
	cmd.Flags().StringArray("remove", nil, "Tag to remove")
	return cmd
}
