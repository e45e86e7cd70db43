package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitmirror/internal/execshell"
)

const (
	cloneSubcommandConstant              = "clone"
	pushSubcommandConstant               = "push"
	remoteSubcommandConstant             = "remote"
	remoteAddSubcommandConstant          = "add"
	remoteRemoveSubcommandConstant       = "remove"
	mirrorFlagConstant                   = "--mirror"
	cloneOperationErrorTemplateConstant  = "mirror clone of %s failed: %w"
	pushOperationErrorTemplateConstant   = "mirror push from %s failed: %w"
	remoteAddErrorTemplateConstant       = "adding remote %s failed: %w"
	remoteRemoveErrorTemplateConstant    = "removing remote %s failed: %w"
	credentialSeparatorConstant          = "@"
	tokenRequiredMessageConstant         = "token required"
	httpsURLRequiredMessageConstant      = "https clone url required"
	executorNotConfiguredMessageConstant = "git executor not configured"
)

// GitExecutor exposes the subset of shell execution the transport relies on.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// MirrorTransport performs the narrow set of git operations needed to mirror repositories.
type MirrorTransport interface {
	CloneMirror(executionContext context.Context, sourceURL string, targetPath string) error
	PushMirror(executionContext context.Context, repositoryPath string, remoteURL string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
}

// ShellMirrorTransport implements MirrorTransport by shelling out to git.
type ShellMirrorTransport struct {
	executor GitExecutor
}

// NewShellMirrorTransport validates the executor and constructs a transport.
func NewShellMirrorTransport(executor GitExecutor) (*ShellMirrorTransport, error) {
	if executor == nil {
		return nil, errors.New(executorNotConfiguredMessageConstant)
	}
	return &ShellMirrorTransport{executor: executor}, nil
}

// CloneMirror produces a bare mirror clone of sourceURL at targetPath.
func (transport *ShellMirrorTransport) CloneMirror(executionContext context.Context, sourceURL string, targetPath string) error {
	details := execshell.CommandDetails{Arguments: []string{cloneSubcommandConstant, mirrorFlagConstant, sourceURL, targetPath}}
	_, executionError := transport.executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return fmt.Errorf(cloneOperationErrorTemplateConstant, sourceURL, executionError)
	}
	return nil
}

// PushMirror pushes all refs from the mirror clone at repositoryPath to remoteURL.
func (transport *ShellMirrorTransport) PushMirror(executionContext context.Context, repositoryPath string, remoteURL string) error {
	details := execshell.CommandDetails{
		Arguments:        []string{pushSubcommandConstant, mirrorFlagConstant, remoteURL},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := transport.executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return fmt.Errorf(pushOperationErrorTemplateConstant, repositoryPath, executionError)
	}
	return nil
}

// AddRemote registers remoteName pointing at remoteURL in the repository at repositoryPath.
func (transport *ShellMirrorTransport) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	details := execshell.CommandDetails{
		Arguments:        []string{remoteSubcommandConstant, remoteAddSubcommandConstant, remoteName, remoteURL},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := transport.executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return fmt.Errorf(remoteAddErrorTemplateConstant, remoteName, executionError)
	}
	return nil
}

// RemoveRemote deletes remoteName from the repository at repositoryPath.
func (transport *ShellMirrorTransport) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	details := execshell.CommandDetails{
		Arguments:        []string{remoteSubcommandConstant, remoteRemoveSubcommandConstant, remoteName},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := transport.executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return fmt.Errorf(remoteRemoveErrorTemplateConstant, remoteName, executionError)
	}
	return nil
}

// InjectTokenCredentials embeds an access token into an https clone URL for authenticated pushes.
// The returned URL must never be logged.
func InjectTokenCredentials(cloneURL string, token string) (string, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return "", RemoteURLParseError{Input: cloneURL, Message: tokenRequiredMessageConstant}
	}
	if !strings.HasPrefix(cloneURL, httpsProtocolPrefixConstant) {
		return "", RemoteURLParseError{Input: cloneURL, Message: httpsURLRequiredMessageConstant}
	}
	remainder := strings.TrimPrefix(cloneURL, httpsProtocolPrefixConstant)
	return httpsProtocolPrefixConstant + trimmedToken + credentialSeparatorConstant + remainder, nil
}
