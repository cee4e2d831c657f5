// Package cli defines the cobra command tree for estate-bot.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-bot/internal/client"
	"github.com/evcraddock/estate-bot/internal/config"
	"github.com/evcraddock/estate-bot/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
	flagUser   int64
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eb",
		Short:         "Real-estate listings chat assistant",
		Long:          "A chat assistant that registers, searches and edits property listings from free-form text and voice, over Telegram or an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.estate-bot/estate.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (default: eb.yaml)")
	root.PersistentFlags().Int64Var(&flagUser, "user", 0, "chat user to act for (required with service keys)")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newListCmd(),
		newShowCmd(),
		newRemoveCmd(),
		newKeysCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// dbPath resolves the --db flag, falling back to the given path, then
// EB_DB_PATH and then the default location.
func dbPath(fallback string) (string, error) {
	switch {
	case flagDB != "":
		return flagDB, nil
	case fallback != "":
		return fallback, nil
	case os.Getenv("EB_DB_PATH") != "":
		return os.Getenv("EB_DB_PATH"), nil
	}
	return db.DefaultPath()
}

// openDB opens the same SQLite database serve uses: --db, then the config
// file's db.path, then EB_DB_PATH, then the default path.
func openDB() (*sql.DB, error) {
	var configured string
	if flagDB == "" {
		var err error
		if configured, err = config.DBPath(flagConfig); err != nil {
			return nil, err
		}
	}
	path, err := dbPath(configured)
	if err != nil {
		return nil, err
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the chat API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
