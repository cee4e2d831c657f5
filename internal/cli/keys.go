package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-bot/internal/auth"
)

// newKeysCmd manages API keys directly in the local database, so the first
// service key can be created before the server has any.
func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		Long:  "Create, list and revoke API keys in the local database.",
	}

	cmd.AddCommand(newKeysCreateCmd(), newKeysListCmd(), newKeysDeleteCmd())
	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	var owner int64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Long:  "Create an API key. With --owner the key may only act for that chat user; without it the key is a service key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner < 0 {
				return fmt.Errorf("owner must not be negative")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			raw, key, err := auth.NewAPIKeyStore(database).Create(cmd.Context(), args[0], owner)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, map[string]any{"key": raw, "api_key": key})
			}
			fmt.Fprintf(out, "Created key #%d (%s).\n", key.ID, key.Name)
			fmt.Fprintf(out, "  %s\n", raw)
			fmt.Fprintln(out, "Store it now, it will not be shown again.")
			return nil
		},
	}

	cmd.Flags().Int64Var(&owner, "owner", 0, "restrict the key to this chat user")
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			keys, err := auth.NewAPIKeyStore(database).List(cmd.Context())
			if err != nil {
				return err
			}

			if isJSON() {
				if keys == nil {
					keys = []auth.APIKey{}
				}
				return printJSON(cmd.OutOrStdout(), keys)
			}
			return printKeyTable(cmd.OutOrStdout(), keys)
		},
	}
}

func newKeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			err = auth.NewAPIKeyStore(database).Delete(cmd.Context(), id)
			if errors.Is(err, auth.ErrKeyNotFound) {
				return fmt.Errorf("key #%d not found", id)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Key #%d revoked.\n", id)
			return nil
		},
	}
}
