package githubcli_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmirror/internal/execshell"
	"github.com/temirov/gitmirror/internal/githubcli"
)

const (
	clientTestOrganizationConstant   = "mirror-org"
	clientTestUpstreamRepoConstant   = "upstream/project"
	clientTestMirrorNameConstant     = "upstream_project"
	clientTestMirrorFullNameConstant = "mirror-org/upstream_project"
	clientTestNotFoundStderrConstant = "gh: Not Found (HTTP 404)"
	clientTestConflictStderrConstant = "gh: Repository creation failed. (HTTP 422)"
	clientTestRateLimitStderr        = "gh: API rate limit exceeded (HTTP 403): rate limit"
)

type scriptedExecution struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitHubExecutor struct {
	executions      []scriptedExecution
	recordedDetails []execshell.CommandDetails
}

func (executor *scriptedGitHubExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if len(executor.executions) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	nextExecution := executor.executions[0]
	executor.executions = executor.executions[1:]
	return nextExecution.result, nextExecution.err
}

type recordingSleeper struct {
	sleepDurations []time.Duration
}

func (sleeper *recordingSleeper) Sleep(duration time.Duration) {
	sleeper.sleepDurations = append(sleeper.sleepDurations, duration)
}

func commandFailure(stderr string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: stderr},
	}
}

func newTestClient(testInstance *testing.T, executor githubcli.GitHubCommandExecutor) *githubcli.Client {
	testInstance.Helper()
	client, creationError := githubcli.NewClientWithOptions(executor, githubcli.ClientOptions{
		Sleeper:        &recordingSleeper{},
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientRequiresExecutor(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil)
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)
}

func TestResolveRepositoryDecodesRepoViewPayload(testInstance *testing.T) {
	payload := `{
		"name": "project",
		"nameWithOwner": "upstream/project",
		"description": "An upstream project",
		"url": "https://github.com/upstream/project",
		"owner": {"login": "upstream"},
		"primaryLanguage": {"name": "Go"},
		"stargazerCount": 42,
		"forkCount": 7,
		"repositoryTopics": [{"name": "tooling"}, {"name": "cli"}]
	}`
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{result: execshell.ExecutionResult{StandardOutput: payload}},
	}}
	client := newTestClient(testInstance, executor)

	repository, resolveError := client.ResolveRepository(context.Background(), clientTestUpstreamRepoConstant)
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "project", repository.Name)
	require.Equal(testInstance, "upstream", repository.Owner)
	require.Equal(testInstance, "upstream/project", repository.FullName)
	require.Equal(testInstance, "https://github.com/upstream/project", repository.HTMLURL)
	require.Equal(testInstance, "https://github.com/upstream/project.git", repository.CloneURL)
	require.Equal(testInstance, "Go", repository.Language)
	require.Equal(testInstance, 42, repository.Stars)
	require.Equal(testInstance, 7, repository.Forks)
	require.Equal(testInstance, []string{"tooling", "cli"}, repository.Topics)

	require.Len(testInstance, executor.recordedDetails, 1)
	require.Equal(testInstance, "repo", executor.recordedDetails[0].Arguments[0])
	require.Equal(testInstance, "view", executor.recordedDetails[0].Arguments[1])
}

func TestResolveRepositoryTranslatesNotFound(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{err: commandFailure(clientTestNotFoundStderrConstant)},
	}}
	client := newTestClient(testInstance, executor)

	_, resolveError := client.ResolveRepository(context.Background(), clientTestUpstreamRepoConstant)
	require.Error(testInstance, resolveError)
	require.IsType(testInstance, githubcli.RepositoryNotFoundError{}, resolveError)
}

func TestGetRepositoryTranslatesNotFound(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{err: commandFailure(clientTestNotFoundStderrConstant)},
	}}
	client := newTestClient(testInstance, executor)

	_, lookupError := client.GetRepository(context.Background(), clientTestMirrorFullNameConstant)
	require.Error(testInstance, lookupError)
	require.IsType(testInstance, githubcli.RepositoryNotFoundError{}, lookupError)
}

func TestCreateOrganizationRepositorySendsExpectedPayload(testInstance *testing.T) {
	responsePayload := `{
		"name": "upstream_project",
		"full_name": "mirror-org/upstream_project",
		"html_url": "https://github.com/mirror-org/upstream_project",
		"clone_url": "https://github.com/mirror-org/upstream_project.git",
		"owner": {"login": "mirror-org"}
	}`
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{result: execshell.ExecutionResult{StandardOutput: responsePayload}},
	}}
	client := newTestClient(testInstance, executor)

	created, creationError := client.CreateOrganizationRepository(context.Background(), clientTestOrganizationConstant, githubcli.RepositoryCreateRequest{
		Name:        clientTestMirrorNameConstant,
		Description: "Mirror of upstream/project",
		Homepage:    "https://github.com/upstream/project",
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, clientTestMirrorFullNameConstant, created.FullName)
	require.Equal(testInstance, "https://github.com/mirror-org/upstream_project.git", created.CloneURL)

	require.Len(testInstance, executor.recordedDetails, 1)
	recordedDetails := executor.recordedDetails[0]
	require.Equal(testInstance, "api", recordedDetails.Arguments[0])
	require.Equal(testInstance, "orgs/mirror-org/repos", recordedDetails.Arguments[1])

	var sentPayload map[string]any
	require.NoError(testInstance, json.Unmarshal(recordedDetails.StandardInput, &sentPayload))
	require.Equal(testInstance, clientTestMirrorNameConstant, sentPayload["name"])
	require.Equal(testInstance, false, sentPayload["private"])
	require.Equal(testInstance, false, sentPayload["has_issues"])
	require.Equal(testInstance, false, sentPayload["has_projects"])
	require.Equal(testInstance, false, sentPayload["has_wiki"])
	require.Equal(testInstance, false, sentPayload["auto_init"])
}

func TestCreateOrganizationRepositoryTranslatesNameConflict(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{err: commandFailure(clientTestConflictStderrConstant)},
	}}
	client := newTestClient(testInstance, executor)

	_, creationError := client.CreateOrganizationRepository(context.Background(), clientTestOrganizationConstant, githubcli.RepositoryCreateRequest{Name: clientTestMirrorNameConstant})
	require.Error(testInstance, creationError)
	require.IsType(testInstance, githubcli.RepositoryExistsError{}, creationError)
}

func TestClientRetriesRateLimitedCallsWithBackoff(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{err: commandFailure(clientTestRateLimitStderr)},
		{err: commandFailure(clientTestRateLimitStderr)},
		{result: execshell.ExecutionResult{StandardOutput: `{"name":"upstream_project","owner":{"login":"mirror-org"}}`}},
	}}
	sleeper := &recordingSleeper{}
	client, creationError := githubcli.NewClientWithOptions(executor, githubcli.ClientOptions{
		Sleeper:        sleeper,
		MaxAttempts:    3,
		InitialBackoff: time.Second,
	})
	require.NoError(testInstance, creationError)

	repository, lookupError := client.GetRepository(context.Background(), clientTestMirrorFullNameConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, "upstream_project", repository.Name)
	require.Equal(testInstance, []time.Duration{time.Second, 2 * time.Second}, sleeper.sleepDurations)
}

func TestClientDoesNotRetryHardFailures(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{err: commandFailure("gh: Internal Server Error (HTTP 500)")},
	}}
	sleeper := &recordingSleeper{}
	client, creationError := githubcli.NewClientWithOptions(executor, githubcli.ClientOptions{
		Sleeper:     sleeper,
		MaxAttempts: 3,
	})
	require.NoError(testInstance, creationError)

	_, lookupError := client.GetRepository(context.Background(), clientTestMirrorFullNameConstant)
	require.Error(testInstance, lookupError)
	require.Len(testInstance, executor.recordedDetails, 1)
	require.Empty(testInstance, sleeper.sleepDurations)
}

func TestUpdateRepositoryWithoutChangesSkipsAPICall(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{}
	client := newTestClient(testInstance, executor)

	updateError := client.UpdateRepository(context.Background(), clientTestMirrorFullNameConstant, githubcli.RepositoryUpdate{})
	require.NoError(testInstance, updateError)
	require.Empty(testInstance, executor.recordedDetails)
}

func TestReplaceRepositoryTopicsSendsNames(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{{}}}
	client := newTestClient(testInstance, executor)

	topicsError := client.ReplaceRepositoryTopics(context.Background(), clientTestMirrorFullNameConstant, []string{"mirror", "tooling"})
	require.NoError(testInstance, topicsError)
	require.Len(testInstance, executor.recordedDetails, 1)

	var sentPayload struct {
		Names []string `json:"names"`
	}
	require.NoError(testInstance, json.Unmarshal(executor.recordedDetails[0].StandardInput, &sentPayload))
	require.Equal(testInstance, []string{"mirror", "tooling"}, sentPayload.Names)
}

func TestDeleteRepositoryIssuesDeleteRequest(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{{}}}
	client := newTestClient(testInstance, executor)

	deleteError := client.DeleteRepository(context.Background(), clientTestMirrorFullNameConstant)
	require.NoError(testInstance, deleteError)
	require.Len(testInstance, executor.recordedDetails, 1)
	require.Equal(testInstance,
		[]string{"api", "repos/mirror-org/upstream_project", "-X", "DELETE", "-H", "Accept: application/vnd.github+json"},
		executor.recordedDetails[0].Arguments)
}

func TestDeleteRepositoryTranslatesNotFound(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{executions: []scriptedExecution{
		{err: commandFailure(clientTestNotFoundStderrConstant)},
	}}
	client := newTestClient(testInstance, executor)

	deleteError := client.DeleteRepository(context.Background(), clientTestMirrorFullNameConstant)
	require.IsType(testInstance, githubcli.RepositoryNotFoundError{}, deleteError)
}
