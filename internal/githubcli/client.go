package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gitmirror/internal/execshell"
)

const (
	repoSubcommandConstant                  = "repo"
	viewSubcommandConstant                  = "view"
	apiSubcommandConstant                   = "api"
	jsonFlagConstant                        = "--json"
	methodFlagConstant                      = "-X"
	inputFlagConstant                       = "--input"
	stdinReferenceConstant                  = "-"
	paginateFlagConstant                    = "--paginate"
	acceptHeaderFlagConstant                = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	httpMethodPostConstant                  = "POST"
	httpMethodPatchConstant                 = "PATCH"
	httpMethodPutConstant                   = "PUT"
	httpMethodDeleteConstant                = "DELETE"
	repositoryFieldNameConstant             = "repository"
	organizationFieldNameConstant           = "organization"
	repositoryNameFieldNameConstant         = "name"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	repoViewJSONFieldsConstant              = "name,owner,nameWithOwner,description,url,homepageUrl,primaryLanguage,stargazerCount,forkCount,repositoryTopics"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	repositoryNotFoundTemplateConstant      = "repository %s not found"
	repositoryExistsTemplateConstant        = "repository %s already exists in %s"
	organizationReposEndpointTemplate       = "orgs/%s/repos"
	repositoryEndpointTemplateConstant      = "repos/%s"
	repositoryTopicsEndpointTemplate        = "repos/%s/topics"
	notFoundStatusMarkerConstant            = "HTTP 404"
	unprocessableStatusMarkerConstant       = "HTTP 422"
	tooManyRequestsStatusMarkerConstant     = "HTTP 429"
	forbiddenStatusMarkerConstant           = "HTTP 403"
	rateLimitTextMarkerConstant             = "rate limit"
	defaultRetryAttemptsConstant            = 3
	defaultInitialBackoffConstant           = 2 * time.Second
	resolveRepositoryOperationName          = OperationName("ResolveRepository")
	createRepositoryOperationName           = OperationName("CreateOrganizationRepository")
	getRepositoryOperationName              = OperationName("GetRepository")
	updateRepositoryOperationName           = OperationName("UpdateRepository")
	replaceTopicsOperationName              = OperationName("ReplaceRepositoryTopics")
	listOrganizationReposOperationName      = OperationName("ListOrganizationRepositories")
	deleteRepositoryOperationName           = OperationName("DeleteRepository")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// Repository contains the repository details the mirror workflow consumes.
type Repository struct {
	Name        string
	Owner       string
	FullName    string
	Description string
	HTMLURL     string
	HomepageURL string
	CloneURL    string
	Language    string
	Stars       int
	Forks       int
	Topics      []string
}

// RepositoryCreateRequest describes a repository to create inside an organization.
type RepositoryCreateRequest struct {
	Name        string
	Description string
	Homepage    string
}

// RepositoryUpdate carries optional metadata changes applied via PATCH.
type RepositoryUpdate struct {
	Description *string
	Homepage    *string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Sleeper pauses between retry attempts; injected for deterministic tests.
type Sleeper interface {
	Sleep(duration time.Duration)
}

type systemSleeper struct{}

func (systemSleeper) Sleep(duration time.Duration) {
	time.Sleep(duration)
}

// ClientOptions tunes retry behavior for API rate limiting.
type ClientOptions struct {
	Sleeper        Sleeper
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor       GitHubCommandExecutor
	sleeper        Sleeper
	maxAttempts    int
	initialBackoff time.Duration
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// RepositoryNotFoundError reports a lookup of a repository GitHub does not know.
type RepositoryNotFoundError struct {
	Repository string
}

// Error describes the missing repository.
func (notFoundError RepositoryNotFoundError) Error() string {
	return fmt.Sprintf(repositoryNotFoundTemplateConstant, notFoundError.Repository)
}

// RepositoryExistsError reports a creation attempt that collided with an existing name.
type RepositoryExistsError struct {
	Organization string
	Name         string
}

// Error describes the name collision.
func (existsError RepositoryExistsError) Error() string {
	return fmt.Sprintf(repositoryExistsTemplateConstant, existsError.Name, existsError.Organization)
}

// NewClient constructs a GitHub CLI client with default retry behavior.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	return NewClientWithOptions(executor, ClientOptions{})
}

// NewClientWithOptions constructs a client with custom retry settings.
func NewClientWithOptions(executor GitHubCommandExecutor, options ClientOptions) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	configuredSleeper := options.Sleeper
	if configuredSleeper == nil {
		configuredSleeper = systemSleeper{}
	}
	maxAttempts := options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttemptsConstant
	}
	initialBackoff := options.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = defaultInitialBackoffConstant
	}

	return &Client{
		executor:       executor,
		sleeper:        configuredSleeper,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
	}, nil
}

// ResolveRepository retrieves upstream repository details using gh repo view.
func (client *Client) ResolveRepository(executionContext context.Context, repository string) (Repository, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return Repository{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewJSONFieldsConstant,
		},
	}

	executionResult, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		if isNotFoundFailure(executionError) {
			return Repository{}, RepositoryNotFoundError{Repository: repositoryIdentifier}
		}
		return Repository{}, OperationError{Operation: resolveRepositoryOperationName, Cause: executionError}
	}

	var response struct {
		Name          string `json:"name"`
		NameWithOwner string `json:"nameWithOwner"`
		Description   string `json:"description"`
		URL           string `json:"url"`
		HomepageURL   string `json:"homepageUrl"`
		Owner         struct {
			Login string `json:"login"`
		} `json:"owner"`
		PrimaryLanguage struct {
			Name string `json:"name"`
		} `json:"primaryLanguage"`
		StargazerCount   int `json:"stargazerCount"`
		ForkCount        int `json:"forkCount"`
		RepositoryTopics []struct {
			Name string `json:"name"`
		} `json:"repositoryTopics"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return Repository{}, ResponseDecodingError{Operation: resolveRepositoryOperationName, Cause: decodingError}
	}

	topics := make([]string, 0, len(response.RepositoryTopics))
	for _, topicEntry := range response.RepositoryTopics {
		topics = append(topics, topicEntry.Name)
	}

	return Repository{
		Name:        response.Name,
		Owner:       response.Owner.Login,
		FullName:    response.NameWithOwner,
		Description: response.Description,
		HTMLURL:     response.URL,
		HomepageURL: response.HomepageURL,
		CloneURL:    response.URL + gitSuffixConstant,
		Language:    response.PrimaryLanguage.Name,
		Stars:       response.StargazerCount,
		Forks:       response.ForkCount,
		Topics:      topics,
	}, nil
}

// CreateOrganizationRepository creates a repository inside the mirror organization.
// The created repository is public with issues, projects, and wiki disabled and
// no auto-initialized content so that a mirror push supplies every ref.
func (client *Client) CreateOrganizationRepository(executionContext context.Context, organization string, request RepositoryCreateRequest) (Repository, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return Repository{}, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedName := strings.TrimSpace(request.Name)
	if len(trimmedName) == 0 {
		return Repository{}, InvalidInputError{FieldName: repositoryNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Homepage    string `json:"homepage,omitempty"`
		Private     bool   `json:"private"`
		HasIssues   bool   `json:"has_issues"`
		HasProjects bool   `json:"has_projects"`
		HasWiki     bool   `json:"has_wiki"`
		AutoInit    bool   `json:"auto_init"`
	}{
		Name:        trimmedName,
		Description: request.Description,
		Homepage:    request.Homepage,
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return Repository{}, PayloadEncodingError{Operation: createRepositoryOperationName, Cause: encodingError}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(organizationReposEndpointTemplate, trimmedOrganization),
			methodFlagConstant,
			httpMethodPostConstant,
			inputFlagConstant,
			stdinReferenceConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
		StandardInput: payloadBytes,
	}

	executionResult, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		if isNameConflictFailure(executionError) {
			return Repository{}, RepositoryExistsError{Organization: trimmedOrganization, Name: trimmedName}
		}
		return Repository{}, OperationError{Operation: createRepositoryOperationName, Cause: executionError}
	}

	return decodeRESTRepository(createRepositoryOperationName, executionResult.StandardOutput)
}

// GetRepository fetches a repository via the REST API.
func (client *Client) GetRepository(executionContext context.Context, repository string) (Repository, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return Repository{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(repositoryEndpointTemplateConstant, repositoryIdentifier),
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
	}

	executionResult, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		if isNotFoundFailure(executionError) {
			return Repository{}, RepositoryNotFoundError{Repository: repositoryIdentifier}
		}
		return Repository{}, OperationError{Operation: getRepositoryOperationName, Cause: executionError}
	}

	return decodeRESTRepository(getRepositoryOperationName, executionResult.StandardOutput)
}

// UpdateRepository applies metadata changes to an existing repository.
func (client *Client) UpdateRepository(executionContext context.Context, repository string, update RepositoryUpdate) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := map[string]any{}
	if update.Description != nil {
		payload["description"] = *update.Description
	}
	if update.Homepage != nil {
		payload["homepage"] = *update.Homepage
	}
	if len(payload) == 0 {
		return nil
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return PayloadEncodingError{Operation: updateRepositoryOperationName, Cause: encodingError}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(repositoryEndpointTemplateConstant, repositoryIdentifier),
			methodFlagConstant,
			httpMethodPatchConstant,
			inputFlagConstant,
			stdinReferenceConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
		StandardInput: payloadBytes,
	}

	_, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: updateRepositoryOperationName, Cause: executionError}
	}

	return nil
}

// ReplaceRepositoryTopics overwrites the topic list of a repository.
func (client *Client) ReplaceRepositoryTopics(executionContext context.Context, repository string, topics []string) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Names []string `json:"names"`
	}{Names: topics}
	if payload.Names == nil {
		payload.Names = []string{}
	}

	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return PayloadEncodingError{Operation: replaceTopicsOperationName, Cause: encodingError}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(repositoryTopicsEndpointTemplate, repositoryIdentifier),
			methodFlagConstant,
			httpMethodPutConstant,
			inputFlagConstant,
			stdinReferenceConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
		StandardInput: payloadBytes,
	}

	_, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: replaceTopicsOperationName, Cause: executionError}
	}

	return nil
}

// DeleteRepository removes a repository permanently. The caller is expected to
// confirm the operation beforehand; the API offers no undo.
func (client *Client) DeleteRepository(executionContext context.Context, repository string) error {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(repositoryEndpointTemplateConstant, repositoryIdentifier),
			methodFlagConstant,
			httpMethodDeleteConstant,
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
	}

	_, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		if isNotFoundFailure(executionError) {
			return RepositoryNotFoundError{Repository: repositoryIdentifier}
		}
		return OperationError{Operation: deleteRepositoryOperationName, Cause: executionError}
	}

	return nil
}

// ListOrganizationRepositories enumerates every repository in the organization.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string) ([]Repository, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			fmt.Sprintf(organizationReposEndpointTemplate, trimmedOrganization),
			acceptHeaderFlagConstant,
			acceptHeaderValueConstant,
		},
	}

	executionResult, executionError := client.runWithBackoff(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listOrganizationReposOperationName, Cause: executionError}
	}

	var response []restRepositoryPayload
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listOrganizationReposOperationName, Cause: decodingError}
	}

	repositories := make([]Repository, 0, len(response))
	for _, payloadEntry := range response {
		repositories = append(repositories, payloadEntry.toRepository())
	}
	return repositories, nil
}

func (client *Client) runWithBackoff(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	var lastResult execshell.ExecutionResult
	var lastError error

	backoff := client.initialBackoff
	for attempt := 0; attempt < client.maxAttempts; attempt++ {
		if attempt > 0 {
			client.sleeper.Sleep(backoff)
			backoff *= 2
		}

		lastResult, lastError = client.executor.ExecuteGitHubCLI(executionContext, details)
		if lastError == nil {
			return lastResult, nil
		}
		if !isRateLimitFailure(lastError) {
			return lastResult, lastError
		}
	}

	return lastResult, lastError
}

const gitSuffixConstant = ".git"

type restRepositoryPayload struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Homepage    string `json:"homepage"`
	CloneURL    string `json:"clone_url"`
	Language    string `json:"language"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	Topics          []string `json:"topics"`
}

func (payload restRepositoryPayload) toRepository() Repository {
	return Repository{
		Name:        payload.Name,
		Owner:       payload.Owner.Login,
		FullName:    payload.FullName,
		Description: payload.Description,
		HTMLURL:     payload.HTMLURL,
		HomepageURL: payload.Homepage,
		CloneURL:    payload.CloneURL,
		Language:    payload.Language,
		Stars:       payload.StargazersCount,
		Forks:       payload.ForksCount,
		Topics:      payload.Topics,
	}
}

func decodeRESTRepository(operation OperationName, rawPayload string) (Repository, error) {
	var payload restRepositoryPayload
	decodingError := json.Unmarshal([]byte(rawPayload), &payload)
	if decodingError != nil {
		return Repository{}, ResponseDecodingError{Operation: operation, Cause: decodingError}
	}
	return payload.toRepository(), nil
}

func failureStandardError(candidate error) (string, bool) {
	var failedError execshell.CommandFailedError
	if errors.As(candidate, &failedError) {
		return failedError.Result.StandardError, true
	}
	return "", false
}

func isNotFoundFailure(candidate error) bool {
	standardError, isFailure := failureStandardError(candidate)
	if !isFailure {
		return false
	}
	return strings.Contains(standardError, notFoundStatusMarkerConstant)
}

func isNameConflictFailure(candidate error) bool {
	standardError, isFailure := failureStandardError(candidate)
	if !isFailure {
		return false
	}
	return strings.Contains(standardError, unprocessableStatusMarkerConstant)
}

func isRateLimitFailure(candidate error) bool {
	standardError, isFailure := failureStandardError(candidate)
	if !isFailure {
		return false
	}
	if strings.Contains(standardError, tooManyRequestsStatusMarkerConstant) {
		return true
	}
	return strings.Contains(standardError, forbiddenStatusMarkerConstant) &&
		strings.Contains(strings.ToLower(standardError), rateLimitTextMarkerConstant)
}
