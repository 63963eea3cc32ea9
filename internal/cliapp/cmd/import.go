package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
)

// scriptDefinitionFile is the bulk import document shape: one YAML
// file listing several scripts, following the decode-then-validate
// two-step of sched/yaml_parser.go's ParsePipelineYAML, generalized
// from a single pipeline to a list of script definitions since this
// CLI has no task-dependency graph to validate.
type scriptDefinitionFile struct {
	Scripts []scriptDefinition `yaml:"scripts"`
}

type scriptDefinition struct {
	Name               string `yaml:"name"`
	Description        string `yaml:"description"`
	File               string `yaml:"file"`
	InterpreterVersion string `yaml:"interpreter_version"`
	RequirementsFile   string `yaml:"requirements_file"`
}

func NewImportCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "import",
		Short: "Create scripts in bulk from a YAML definition file",
		Run:   runImport,
	}
	c.Flags().StringP("file", "f", "", "Path to a YAML script-definition file (required)")
	c.MarkFlagRequired("file")
	return c
}

func runImport(cmd *cobra.Command, args []string) {
	path, _ := cmd.Flags().GetString("file")

	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error opening definition file: %v\n", err)
		return
	}
	defer f.Close()

	var doc scriptDefinitionFile
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		fmt.Printf("Error parsing YAML: %v\n", err)
		return
	}
	if err := validateScriptDefinitions(doc.Scripts); err != nil {
		fmt.Printf("Invalid definition file: %v\n", err)
		return
	}

	for _, def := range doc.Scripts {
		if err := importOne(def); err != nil {
			fmt.Printf("Skipped %q: %v\n", def.Name, err)
		}
	}
}

// validateScriptDefinitions mirrors yaml_parser.go's validatePipeline:
// reject the whole batch up front rather than discovering a malformed
// entry halfway through a run of server round-trips.
func validateScriptDefinitions(defs []scriptDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("at least one script is required")
	}
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("script %d is missing a name", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate script name: %s", d.Name)
		}
		seen[d.Name] = true
		if d.File == "" {
			return fmt.Errorf("script %s is missing a source file", d.Name)
		}
	}
	return nil
}

func importOne(def scriptDefinition) error {
	content, err := os.ReadFile(def.File)
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}
	var requirements string
	if def.RequirementsFile != "" {
		reqContent, err := os.ReadFile(def.RequirementsFile)
		if err != nil {
			return fmt.Errorf("read requirements file: %w", err)
		}
		requirements = string(reqContent)
	}

	payload, err := json.Marshal(scriptPayload{
		Name:               def.Name,
		Description:        def.Description,
		Content:            string(content),
		InterpreterVersion: def.InterpreterVersion,
		Requirements:       requirements,
	})
	if err != nil {
		return err
	}

	resp, err := client.SendRequest(http.MethodPost, "/api/scripts", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	body, err := client.ReadResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		printErrorBody(body, "Create failed")
		return fmt.Errorf("server rejected script")
	}
	fmt.Printf("Created %q\n", def.Name)
	return nil
}
