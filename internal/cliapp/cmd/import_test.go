package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateScriptDefinitionsRejectsEmptyBatch(t *testing.T) {
	err := validateScriptDefinitions(nil)
	require.Error(t, err)
}

func TestValidateScriptDefinitionsRejectsMissingName(t *testing.T) {
	err := validateScriptDefinitions([]scriptDefinition{{File: "a.py"}})
	require.Error(t, err)
}

func TestValidateScriptDefinitionsRejectsMissingFile(t *testing.T) {
	err := validateScriptDefinitions([]scriptDefinition{{Name: "a"}})
	require.Error(t, err)
}

func TestValidateScriptDefinitionsRejectsDuplicateNames(t *testing.T) {
	defs := []scriptDefinition{
		{Name: "a", File: "a.py"},
		{Name: "a", File: "b.py"},
	}
	err := validateScriptDefinitions(defs)
	require.Error(t, err)
}

func TestValidateScriptDefinitionsAcceptsWellFormedBatch(t *testing.T) {
	defs := []scriptDefinition{
		{Name: "a", File: "a.py"},
		{Name: "b", File: "b.py"},
	}
	require.NoError(t, validateScriptDefinitions(defs))
}
