package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
)

// NewTriggerCommand enqueues a manual run for a script, mirroring the
// teacher's cli/cmd/trigger.go shape (POST, check status, report
// result) against /execute instead of a pipeline-ID trigger endpoint.
func NewTriggerCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a script execution",
		Run:   runTrigger,
	}
	c.Flags().StringP("slug", "s", "", "Script slug to trigger (required)")
	c.MarkFlagRequired("slug")
	return c
}

func runTrigger(cmd *cobra.Command, args []string) {
	slug, _ := cmd.Flags().GetString("slug")

	resp, err := client.SendRequest(http.MethodPost, "/api/scripts/"+slug+"/execute", nil)
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
		printErrorBody(body, "Trigger failed")
		return
	}

	var out any
	_ = json.Unmarshal(body, &out)
	fmt.Println("Run queued")
	printJSON(out)
}
