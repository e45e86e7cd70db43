package gitrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmirror/internal/execshell"
	"github.com/temirov/gitmirror/internal/gitrepo"
)

const (
	transportTestSourceURLConstant      = "https://github.com/upstream/project.git"
	transportTestTargetPathConstant     = "/tmp/mirrors/project.git"
	transportTestRepositoryPathConstant = "/tmp/mirrors/project.git"
	transportTestRemoteNameConstant     = "mirror"
	transportTestRemoteURLConstant     = "https://github.com/mirror-org/upstream_project.git"
)

type recordingGitExecutor struct {
	recordedDetails []execshell.CommandDetails
	executionError  error
}

func (executor *recordingGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executionError != nil {
		return execshell.ExecutionResult{}, executor.executionError
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewShellMirrorTransportRequiresExecutor(testInstance *testing.T) {
	transport, creationError := gitrepo.NewShellMirrorTransport(nil)
	require.Error(testInstance, creationError)
	require.Nil(testInstance, transport)
}

func TestShellMirrorTransportOperations(testInstance *testing.T) {
	testCases := []struct {
		name                     string
		invoke                   func(transport *gitrepo.ShellMirrorTransport, executionContext context.Context) error
		expectedArguments        []string
		expectedWorkingDirectory string
	}{
		{
			name: "clone_mirror",
			invoke: func(transport *gitrepo.ShellMirrorTransport, executionContext context.Context) error {
				return transport.CloneMirror(executionContext, transportTestSourceURLConstant, transportTestTargetPathConstant)
			},
			expectedArguments: []string{"clone", "--mirror", transportTestSourceURLConstant, transportTestTargetPathConstant},
		},
		{
			name: "push_mirror",
			invoke: func(transport *gitrepo.ShellMirrorTransport, executionContext context.Context) error {
				return transport.PushMirror(executionContext, transportTestRepositoryPathConstant, transportTestRemoteURLConstant)
			},
			expectedArguments:        []string{"push", "--mirror", transportTestRemoteURLConstant},
			expectedWorkingDirectory: transportTestRepositoryPathConstant,
		},
		{
			name: "add_remote",
			invoke: func(transport *gitrepo.ShellMirrorTransport, executionContext context.Context) error {
				return transport.AddRemote(executionContext, transportTestRepositoryPathConstant, transportTestRemoteNameConstant, transportTestRemoteURLConstant)
			},
			expectedArguments:        []string{"remote", "add", transportTestRemoteNameConstant, transportTestRemoteURLConstant},
			expectedWorkingDirectory: transportTestRepositoryPathConstant,
		},
		{
			name: "remove_remote",
			invoke: func(transport *gitrepo.ShellMirrorTransport, executionContext context.Context) error {
				return transport.RemoveRemote(executionContext, transportTestRepositoryPathConstant, transportTestRemoteNameConstant)
			},
			expectedArguments:        []string{"remote", "remove", transportTestRemoteNameConstant},
			expectedWorkingDirectory: transportTestRepositoryPathConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingGitExecutor{}
			transport, creationError := gitrepo.NewShellMirrorTransport(executor)
			require.NoError(testInstance, creationError)

			invocationError := testCase.invoke(transport, context.Background())
			require.NoError(testInstance, invocationError)
			require.Len(testInstance, executor.recordedDetails, 1)
			require.Equal(testInstance, testCase.expectedArguments, executor.recordedDetails[0].Arguments)
			require.Equal(testInstance, testCase.expectedWorkingDirectory, executor.recordedDetails[0].WorkingDirectory)
		})
	}
}

func TestShellMirrorTransportWrapsExecutionFailures(testInstance *testing.T) {
	underlyingFailure := errors.New("exit status 128")
	executor := &recordingGitExecutor{executionError: underlyingFailure}
	transport, creationError := gitrepo.NewShellMirrorTransport(executor)
	require.NoError(testInstance, creationError)

	cloneError := transport.CloneMirror(context.Background(), transportTestSourceURLConstant, transportTestTargetPathConstant)
	require.Error(testInstance, cloneError)
	require.ErrorIs(testInstance, cloneError, underlyingFailure)
	require.Contains(testInstance, cloneError.Error(), transportTestSourceURLConstant)
}
