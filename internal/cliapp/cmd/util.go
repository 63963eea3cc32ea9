package cmd

import (
	"encoding/json"
	"fmt"
)

type errorBody struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// printErrorBody renders the {error_kind, message} envelope every
// handler in internal/httpapi responds with on failure (spec §7).
func printErrorBody(body []byte, prefix string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		fmt.Printf("%s: [%s] %s\n", prefix, eb.ErrorKind, eb.Message)
		return
	}
	fmt.Printf("%s: %s\n", prefix, string(body))
}

func printJSON(v any) {
	formatted, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error: failed to format output - %v\n", err)
		return
	}
	fmt.Println(string(formatted))
}
