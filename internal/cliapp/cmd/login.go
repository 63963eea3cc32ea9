package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matt-ortiz/PyScheduler/internal/cliapp/client"
	"github.com/matt-ortiz/PyScheduler/internal/cliapp/config"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token string `json:"token"`
}

func NewLoginCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the scheduler server",
		Run:   runLogin,
	}
	c.Flags().StringP("username", "u", "", "Username (required)")
	c.Flags().StringP("password", "p", "", "Password (required)")
	c.MarkFlagRequired("username")
	c.MarkFlagRequired("password")
	return c
}

func runLogin(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	payload, err := json.Marshal(loginPayload{Username: username, Password: password})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	resp, err := client.SendRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(payload))
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
		printErrorBody(body, "Login failed")
		return
	}

	var result loginResult
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Error: failed to parse login response - %v\n", err)
		return
	}

	config.SetToken(result.Token)
	config.SaveConfig()
	fmt.Println("Login successful")
}
