package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
)

// scriptPayload mirrors internal/httpapi.scriptRequest; the CLI
// builds one from --name/--file/--requirements flags
// rather than requiring a hand-written JSON body, following the
// teacher's read-file-then-POST shape in cli/cmd/update.go (there it
// posts a raw YAML file; here the source is JSON because the target
// endpoint is JSON, not a YAML pipeline config).
type scriptPayload struct {
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Content            string `json:"content"`
	InterpreterVersion string `json:"interpreter_version,omitempty"`
	Requirements       string `json:"requirements,omitempty"`
}

func NewCreateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a new script from a source file",
		Run:   runCreateScript,
	}
	c.Flags().StringP("name", "n", "", "Script name (required)")
	c.Flags().StringP("file", "f", "", "Path to the Python source file (required)")
	c.Flags().String("requirements", "", "Path to a requirements.txt file")
	c.MarkFlagRequired("name")
	c.MarkFlagRequired("file")
	return c
}

func runCreateScript(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	file, _ := cmd.Flags().GetString("file")
	reqFile, _ := cmd.Flags().GetString("requirements")

	content, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("Error reading source file: %v\n", err)
		return
	}
	var requirements string
	if reqFile != "" {
		reqContent, err := os.ReadFile(reqFile)
		if err != nil {
			fmt.Printf("Error reading requirements file: %v\n", err)
			return
		}
		requirements = string(reqContent)
	}

	payload, err := json.Marshal(scriptPayload{Name: name, Content: string(content), Requirements: requirements})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	resp, err := client.SendRequest(http.MethodPost, "/api/scripts", bytes.NewBuffer(payload))
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
		printErrorBody(body, "Create failed")
		return
	}
	var out any
	_ = json.Unmarshal(body, &out)
	printJSON(out)
}

func NewUpdateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "update",
		Short: "Update an existing script's source from a file",
		Run:   runUpdateScript,
	}
	c.Flags().StringP("slug", "s", "", "Script slug (required)")
	c.Flags().StringP("file", "f", "", "Path to the Python source file (required)")
	c.MarkFlagRequired("slug")
	c.MarkFlagRequired("file")
	return c
}

func runUpdateScript(cmd *cobra.Command, args []string) {
	slug, _ := cmd.Flags().GetString("slug")
	file, _ := cmd.Flags().GetString("file")

	content, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("Error reading source file: %v\n", err)
		return
	}

	payload, err := json.Marshal(map[string]string{"content": string(content)})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	resp, err := client.SendRequest(http.MethodPatch, "/api/scripts/"+slug+"/auto-save", bytes.NewBuffer(payload))
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
		printErrorBody(body, "Update failed")
		return
	}
	fmt.Println("Script updated")
}
