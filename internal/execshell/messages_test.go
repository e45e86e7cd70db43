package execshell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartMessageForMirrorCloneNamesSourceURL(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"clone", "--mirror", "https://github.com/upstream/project.git", "/tmp/mirror/project"},
		},
	}

	message := formatter.BuildStartMessage(command)

	require.Equal(t, "Running mirror clone of https://github.com/upstream/project.git", message)
}

func TestBuildSuccessMessageForMirrorPushNamesDestination(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"push", "--mirror", "mirror"},
		},
	}

	message := formatter.BuildSuccessMessage(command)

	require.Equal(t, "Completed mirror push to mirror", message)
}

func TestBuildFailureMessageIncludesTrimmedStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGitHub,
		Details: CommandDetails{
			Arguments: []string{"api", "repos/mirror-org/upstream_project"},
		},
	}
	result := ExecutionResult{ExitCode: 1, StandardError: "gh: Not Found (HTTP 404)\n"}

	message := formatter.BuildFailureMessage(command, result)

	require.Equal(t, "Command GitHub API call repos/mirror-org/upstream_project failed with exit code 1: gh: Not Found (HTTP 404)", message)
}

func TestFormatCommandLabelJoinsArguments(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"remote", "add", "mirror", "https://github.com/mirror-org/example.git"}},
	}

	require.Equal(t, "git remote add mirror https://github.com/mirror-org/example.git", formatter.FormatCommandLabel(command))
}

func TestRedactCredentials(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "token_in_push_url",
			input:    "https://secret-token@github.com/mirror-org/upstream_project.git",
			expected: "https://***@github.com/mirror-org/upstream_project.git",
		},
		{
			name:     "token_echoed_in_stderr",
			input:    "fatal: unable to access 'https://secret-token@github.com/mirror-org/upstream_project.git/'",
			expected: "fatal: unable to access 'https://***@github.com/mirror-org/upstream_project.git/'",
		},
		{
			name:     "plain_url_untouched",
			input:    "https://github.com/upstream/project.git",
			expected: "https://github.com/upstream/project.git",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, RedactCredentials(testCase.input))
		})
	}
}

func TestBuildFailureMessageMasksPushURLCredentials(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"push", "--mirror", "https://secret-token@github.com/mirror-org/upstream_project.git"},
		},
	}
	result := ExecutionResult{ExitCode: 128, StandardError: "fatal: unable to access 'https://secret-token@github.com/mirror-org/upstream_project.git/'\n"}

	message := formatter.BuildFailureMessage(command, result)

	require.NotContains(t, message, "secret-token")
	require.Contains(t, message, "mirror push to https://***@github.com/mirror-org/upstream_project.git")
}
