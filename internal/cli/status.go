package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Fprintf(out, "Server:  %s\n", serverURL)

	if apiKey == "" {
		fmt.Fprintln(out, "API Key: not configured")
		fmt.Fprintln(out, "\nRun 'eb login' to store a key.")
		return nil
	}

	prefix := apiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Fprintf(out, "API Key: %s…\n", prefix)

	userID, err := getUserID()
	if err != nil {
		return err
	}
	if userID != 0 {
		fmt.Fprintf(out, "User:    %d\n", userID)
	}

	// Stats is the cheapest authenticated request.
	client := &http.Client{Timeout: 5 * time.Second}
	url := serverURL + "/api/properties/stats"
	if userID != 0 {
		url += fmt.Sprintf("?user_id=%d", userID)
	}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Fprintln(out, "Status:  ✓ connected and authenticated")
	case http.StatusUnauthorized:
		fmt.Fprintln(out, "Status:  ✗ invalid API key")
		fmt.Fprintln(out, "\nRun 'eb login' to store a new key.")
	case http.StatusForbidden:
		fmt.Fprintln(out, "Status:  ✓ authenticated, but a user is required (use --user or 'eb login --as')")
	default:
		fmt.Fprintf(out, "Status:  ✗ unexpected response (%d)\n", resp.StatusCode)
	}

	return nil
}
