package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateInterpreterVersionAcceptsKnownVersions(t *testing.T) {
	for _, v := range []string{"", "3.8", "3.9", "3.10", "3.11", "3.12"} {
		require.NoError(t, validateInterpreterVersion(v))
	}
}

func TestValidateInterpreterVersionRejectsUnknown(t *testing.T) {
	require.Error(t, validateInterpreterVersion("2.7"))
	require.Error(t, validateInterpreterVersion("3.13"))
}

func TestValidateRequirementsAcceptsPinnedAndBareLines(t *testing.T) {
	req := "requests==2.31.0\n# a comment\n\nnumpy>=1.26\npandas~=2.2\nflask<=3.0"
	require.NoError(t, validateRequirements(req))
}

func TestValidateRequirementsRejectsMalformedLine(t *testing.T) {
	require.Error(t, validateRequirements("not a package!!"))
}

func TestValidateScriptContentRejectsBlank(t *testing.T) {
	require.Error(t, validateScriptContent(""))
	require.Error(t, validateScriptContent("   \n\t"))
	require.NoError(t, validateScriptContent("print('hi')"))
}

func TestValidateScriptRequestChecksAllFields(t *testing.T) {
	require.Error(t, validateScriptRequest(scriptRequest{Content: "print(1)", InterpreterVersion: "9.9"}))
	require.Error(t, validateScriptRequest(scriptRequest{Content: ""}))
	require.Error(t, validateScriptRequest(scriptRequest{Content: "print(1)", Requirements: "bad!!name"}))
	require.NoError(t, validateScriptRequest(scriptRequest{Content: "print(1)", InterpreterVersion: "3.12", Requirements: "requests==2.31.0"}))
}
