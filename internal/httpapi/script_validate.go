package httpapi

import (
	"fmt"
	"regexp"
	"strings"
)

// validInterpreterVersions mirrors the original's python_version pattern
// ^3\.(8|9|10|11|12)$ — the closed set of venvs the Environment Manager
// actually knows how to provision.
var validInterpreterVersions = map[string]bool{
	"3.8": true, "3.9": true, "3.10": true, "3.11": true, "3.12": true,
}

func validateInterpreterVersion(v string) error {
	if v == "" {
		return nil
	}
	if !validInterpreterVersions[v] {
		return fmt.Errorf("interpreter_version must be one of 3.8, 3.9, 3.10, 3.11, 3.12")
	}
	return nil
}

// requirementPackagePattern matches a bare pip package name once any
// version specifier has been stripped off.
var requirementPackagePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// validateRequirements checks each non-blank, non-comment line of a
// requirements.txt-style manifest looks like a real pip package line,
// following the original's validate_requirements: strip off a trailing
// ==, >=, <=, or ~= specifier (in that order) before checking the name.
func validateRequirements(requirements string) error {
	if strings.TrimSpace(requirements) == "" {
		return nil
	}
	for _, line := range strings.Split(strings.TrimSpace(requirements), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := line
		for _, sep := range []string{"==", ">=", "<=", "~="} {
			name = strings.SplitN(name, sep, 2)[0]
		}
		name = strings.TrimSpace(name)
		if !requirementPackagePattern.MatchString(name) {
			return fmt.Errorf("invalid package name in requirements: %s", line)
		}
	}
	return nil
}

func validateScriptContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	return nil
}

// validateScriptRequest runs every write-boundary check shared by
// createScript and updateScript, beyond gin's own binding tags.
func validateScriptRequest(req scriptRequest) error {
	if err := validateScriptContent(req.Content); err != nil {
		return err
	}
	if err := validateInterpreterVersion(req.InterpreterVersion); err != nil {
		return err
	}
	if err := validateRequirements(req.Requirements); err != nil {
		return err
	}
	if req.Environment != nil {
		if err := req.Environment.Validate(); err != nil {
			return err
		}
	}
	return nil
}
