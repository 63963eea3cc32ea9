package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/cmd"
	"github.com/matt-ortiz/PyScheduler/internal/cliapp/config"
)

func main() {
	config.LoadConfig()

	rootCmd := &cobra.Command{
		Run: func(c *cobra.Command, args []string) {},
	}
	cmd.RegisterCommands(rootCmd)

	startInteractiveMode(rootCmd)
}

// startInteractiveMode is a REPL over the same cobra command tree a
// one-shot invocation would use, following the teacher's
// cli/main.go: unrecognized input falls through to the host shell
// instead of erroring.
func startInteractiveMode(rootCmd *cobra.Command) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("pysched CLI - type 'help' for commands, 'exit' or 'quit' to leave")
	fmt.Print(">> ")

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "exit" || input == "quit" {
			break
		}
		if input == "" {
			fmt.Print(">> ")
			continue
		}
		if input == "help" {
			rootCmd.Help()
			fmt.Print(">> ")
			continue
		}

		args := strings.Fields(input)
		found, _, err := rootCmd.Find(args)
		if err != nil || found == nil {
			if err := executeShellCommand(args[0], args[1:]); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			fmt.Print(">> ")
			continue
		}

		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		fmt.Print(">> ")
	}
}

func executeShellCommand(name string, args []string) error {
	c := exec.Command(name, args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
