package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your properties",
		Long:  "List the properties registered by the chat user, or summarize them with --stats.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, stats)
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "show a summary instead of the list")

	return cmd
}

func runList(cmd *cobra.Command, stats bool) error {
	userID, err := getUserID()
	if err != nil {
		return err
	}

	c := newAPIClient()
	out := cmd.OutOrStdout()

	if stats {
		s, err := c.Stats(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(out, s)
		}
		printStats(out, s)
		return nil
	}

	props, err := c.ListProperties(cmd.Context(), userID)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out, props)
	}

	return printPropertyTable(out, props)
}
