package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
)

// NewListCommand lists scripts, or one script's detail when --slug is set.
func NewListCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List scripts or show one script's detail",
		Run:   runList,
	}
	c.Flags().StringP("slug", "s", "", "Specific script slug to show")
	c.Flags().String("folder-id", "", "Restrict the listing to this folder ID")
	return c
}

func runList(cmd *cobra.Command, args []string) {
	slug, _ := cmd.Flags().GetString("slug")
	folderID, _ := cmd.Flags().GetString("folder-id")

	var path string
	if slug != "" {
		path = "/api/scripts/" + slug
	} else if folderID != "" {
		path = "/api/scripts?folder_id=" + folderID
	} else {
		path = "/api/scripts"
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
		printErrorBody(body, "List failed")
		return
	}

	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		fmt.Printf("Error: failed to parse response - %v\n", err)
		return
	}
	printJSON(out)
}
