package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmirror/internal/githubauth"
)

func TestResolveTokenPrefersMirrorToken(testInstance *testing.T) {
	environment := map[string]string{
		githubauth.EnvGitHubMirrorToken: "mirror-token",
		githubauth.EnvGitHubCLIToken:    "cli-token",
		githubauth.EnvGitHubToken:       "general-token",
	}

	token, found := githubauth.ResolveToken(environment)
	require.True(testInstance, found)
	require.Equal(testInstance, "mirror-token", token)
}

func TestResolveTokenFallsBackInPreferenceOrder(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
		expected    string
	}{
		{
			name: "cli_token_when_mirror_absent",
			environment: map[string]string{
				githubauth.EnvGitHubCLIToken: "cli-token",
				githubauth.EnvGitHubToken:    "general-token",
			},
			expected: "cli-token",
		},
		{
			name: "general_token_when_others_absent",
			environment: map[string]string{
				githubauth.EnvGitHubToken: "general-token",
			},
			expected: "general-token",
		},
		{
			name: "blank_values_skipped",
			environment: map[string]string{
				githubauth.EnvGitHubMirrorToken: "   ",
				githubauth.EnvGitHubToken:       "general-token",
			},
			expected: "general-token",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			token, found := githubauth.ResolveToken(testCase.environment)
			require.True(testInstance, found)
			require.Equal(testInstance, testCase.expected, token)
		})
	}
}

func TestResolveTokenReportsMissingToken(testInstance *testing.T) {
	for _, key := range []string{githubauth.EnvGitHubMirrorToken, githubauth.EnvGitHubCLIToken, githubauth.EnvGitHubToken} {
		testInstance.Setenv(key, "")
	}

	token, found := githubauth.ResolveToken(map[string]string{})
	require.False(testInstance, found)
	require.Empty(testInstance, token)
}
