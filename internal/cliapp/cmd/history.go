package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
)

// NewHistoryCommand shows execution log records, following the
// teacher's cli/cmd/history.go shape.
func NewHistoryCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "history",
		Short: "Show execution history",
		Run:   runHistory,
	}
	c.Flags().StringP("script-id", "i", "", "Restrict to this script ID")
	c.Flags().String("status", "", "Filter by status (running|success|failed|timeout)")
	return c
}

func runHistory(cmd *cobra.Command, args []string) {
	scriptID, _ := cmd.Flags().GetString("script-id")
	status, _ := cmd.Flags().GetString("status")

	path := "/api/logs"
	sep := "?"
	if scriptID != "" {
		path += sep + "script_id=" + scriptID
		sep = "&"
	}
	if status != "" {
		path += sep + "status=" + status
	}

	resp, err := client.SendRequest(http.MethodGet, path, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	body, err := client.ReadResponseBody(resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		printErrorBody(body, "History lookup failed")
		return
	}

	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		fmt.Printf("Error: failed to parse response - %v\n", err)
		return
	}
	printJSON(out)
}
