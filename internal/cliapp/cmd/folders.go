package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
)

// NewFoldersCommand lists or creates folders, grouped under one
// subcommand with an --create flag rather than a separate verb per
// operation, since the teacher's command set is one file per noun,
// not per noun-verb pair.
func NewFoldersCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "folders",
		Short: "List or create folders",
		Run:   runFolders,
	}
	c.Flags().String("create", "", "Create a folder with this name")
	c.Flags().String("parent-id", "", "Parent folder ID, when creating")
	return c
}

func runFolders(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("create")
	if name == "" {
		listFolders()
		return
	}
	createFolder(name, mustGetString(cmd, "parent-id"))
}

func mustGetString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func listFolders() {
	resp, err := client.SendRequest(http.MethodGet, "/api/folders", nil)
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
		printErrorBody(body, "List folders failed")
		return
	}
	var out any
	_ = json.Unmarshal(body, &out)
	printJSON(out)
}

func createFolder(name, parentID string) {
	payload := map[string]any{"name": name}
	if parentID != "" {
		payload["parent_id"] = parentID
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	resp, err := client.SendRequest(http.MethodPost, "/api/folders", bytes.NewBuffer(jsonBody))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	body, err := client.ReadResponseBody(resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if resp.StatusCode != http.StatusCreated {
		printErrorBody(body, "Create folder failed")
		return
	}
	var out any
	_ = json.Unmarshal(body, &out)
	printJSON(out)
}
