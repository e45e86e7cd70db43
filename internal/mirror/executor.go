package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitmirror/internal/githubcli"
	"github.com/temirov/gitmirror/internal/gitrepo"
)

const (
	organizationRequiredMessageConstant   = "mirror organization required"
	transportNotConfiguredMessageConstant = "git transport not configured"
	hostingNotConfiguredMessageConstant   = "hosting client not configured"
	scratchDirectoryPatternConstant       = "gitmirror-*"
	scratchDirectorySuffixConstant        = ".git"
	scratchDirectoryPermissionsConstant   = 0o755
	mirrorDescriptionTemplateConstant     = "Mirror of %s"
	mirrorDescriptionWithTextTemplate     = "Mirror of %s: %s"
	mirrorTopicConstant                   = "mirror"
	remoteNameOriginConstant              = "origin"
	remoteNameOriginalConstant            = "original"
	remoteNameMirrorConstant              = "mirror"
	repositoryLogFieldConstant            = "repository"
	mirrorLogFieldConstant                = "mirror"
	metadataUpdateFailedMessageConstant   = "mirror metadata update failed"
	mirrorCreatedMessageConstant          = "mirror repository created"
	transferCompletedMessageConstant      = "mirror transfer completed"
)

// Sentinel construction errors for the executor.
var (
	ErrOrganizationRequired      = errors.New(organizationRequiredMessageConstant)
	ErrTransportNotConfigured    = errors.New(transportNotConfiguredMessageConstant)
	ErrHostingClientNotConfigured = errors.New(hostingNotConfiguredMessageConstant)
)

// HostingClient is the subset of the GitHub API client the executor relies on.
type HostingClient interface {
	CreateOrganizationRepository(executionContext context.Context, organization string, request githubcli.RepositoryCreateRequest) (githubcli.Repository, error)
	GetRepository(executionContext context.Context, repository string) (githubcli.Repository, error)
	UpdateRepository(executionContext context.Context, repository string, update githubcli.RepositoryUpdate) error
	ReplaceRepositoryTopics(executionContext context.Context, repository string, topics []string) error
}

// ExecutorDependencies carries the collaborators required to construct an Executor.
type ExecutorDependencies struct {
	Logger        *zap.Logger
	Organization  string
	Transport     gitrepo.MirrorTransport
	HostingClient HostingClient
	Token         string
	CloneTimeout  time.Duration
	TempDirectory string
}

// Executor creates mirror repositories and moves refs into them.
type Executor struct {
	logger        *zap.Logger
	organization  string
	transport     gitrepo.MirrorTransport
	hostingClient HostingClient
	token         string
	cloneTimeout  time.Duration
	tempDirectory string
}

// NewExecutor validates dependencies and constructs an Executor.
func NewExecutor(dependencies ExecutorDependencies) (*Executor, error) {
	if len(dependencies.Organization) == 0 {
		return nil, ErrOrganizationRequired
	}
	if dependencies.Transport == nil {
		return nil, ErrTransportNotConfigured
	}
	if dependencies.HostingClient == nil {
		return nil, ErrHostingClientNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cloneTimeout := dependencies.CloneTimeout
	if cloneTimeout <= 0 {
		cloneTimeout = defaultCloneTimeoutSecondsConstant * time.Second
	}

	return &Executor{
		logger:        logger,
		organization:  dependencies.Organization,
		transport:     dependencies.Transport,
		hostingClient: dependencies.HostingClient,
		token:         dependencies.Token,
		cloneTimeout:  cloneTimeout,
		tempDirectory: dependencies.TempDirectory,
	}, nil
}

// EnsureMirrorRepository creates the mirror repository when it does not exist
// yet. A name collision with a repository attributed to a different upstream
// is rejected with MirrorCollisionError.
func (executor *Executor) EnsureMirrorRepository(executionContext context.Context, descriptor RepositoryDescriptor) (MirrorHandle, error) {
	mirrorName := MirrorName(descriptor)
	mirrorFullName := fmt.Sprintf(fullNameTemplateConstant, executor.organization, mirrorName)

	createRequest := githubcli.RepositoryCreateRequest{
		Name:        mirrorName,
		Description: attributionDescription(descriptor),
		Homepage:    descriptor.HTMLURL,
	}
	createdRepository, creationError := executor.hostingClient.CreateOrganizationRepository(executionContext, executor.organization, createRequest)
	if creationError == nil {
		executor.logger.Info(mirrorCreatedMessageConstant,
			zap.String(repositoryLogFieldConstant, descriptor.FullName),
			zap.String(mirrorLogFieldConstant, createdRepository.FullName),
		)
		return handleFromRepository(createdRepository), nil
	}

	var existsError githubcli.RepositoryExistsError
	if !errors.As(creationError, &existsError) {
		return MirrorHandle{}, creationError
	}

	existingRepository, lookupError := executor.hostingClient.GetRepository(executionContext, mirrorFullName)
	if lookupError != nil {
		return MirrorHandle{}, lookupError
	}
	if existingRepository.HomepageURL != descriptor.HTMLURL {
		return MirrorHandle{}, MirrorCollisionError{
			MirrorFullName:    mirrorFullName,
			ExistingUpstream:  existingRepository.HomepageURL,
			RequestedUpstream: descriptor.HTMLURL,
		}
	}
	return handleFromRepository(existingRepository), nil
}

// LookupMirror reports whether a mirror attributed to the descriptor's
// upstream already exists. A repository under the expected name attributed to
// a different upstream does not count as an existing mirror.
func (executor *Executor) LookupMirror(executionContext context.Context, descriptor RepositoryDescriptor) (MirrorHandle, bool, error) {
	mirrorFullName := fmt.Sprintf(fullNameTemplateConstant, executor.organization, MirrorName(descriptor))

	existingRepository, lookupError := executor.hostingClient.GetRepository(executionContext, mirrorFullName)
	if lookupError != nil {
		var notFoundError githubcli.RepositoryNotFoundError
		if errors.As(lookupError, &notFoundError) {
			return MirrorHandle{}, false, nil
		}
		return MirrorHandle{}, false, lookupError
	}
	if existingRepository.HomepageURL != descriptor.HTMLURL {
		return MirrorHandle{}, false, nil
	}
	return handleFromRepository(existingRepository), true, nil
}

// Transfer clones the upstream repository into a scratch directory and pushes
// every ref to the mirror. A throwaway scratch directory is removed on every
// exit path; a configured persistent temp directory keeps the clone. Each git
// operation runs under the configured clone timeout. Metadata updates after
// the push are best effort.
func (executor *Executor) Transfer(executionContext context.Context, descriptor RepositoryDescriptor, handle MirrorHandle) error {
	scratchPath, cleanup, scratchError := executor.createScratchDirectory(descriptor)
	if scratchError != nil {
		return scratchError
	}
	defer cleanup()

	pushURL := handle.CloneURL
	if len(executor.token) > 0 {
		injectedURL, injectionError := gitrepo.InjectTokenCredentials(handle.CloneURL, executor.token)
		if injectionError != nil {
			return injectionError
		}
		pushURL = injectedURL
	}

	cloneContext, cancelClone := context.WithTimeout(executionContext, executor.cloneTimeout)
	defer cancelClone()
	if cloneError := executor.transport.CloneMirror(cloneContext, descriptor.CloneURL, scratchPath); cloneError != nil {
		return cloneError
	}

	pushContext, cancelPush := context.WithTimeout(executionContext, executor.cloneTimeout)
	defer cancelPush()
	if pushError := executor.transport.PushMirror(pushContext, scratchPath, pushURL); pushError != nil {
		return pushError
	}

	executor.logger.Info(transferCompletedMessageConstant,
		zap.String(repositoryLogFieldConstant, descriptor.FullName),
		zap.String(mirrorLogFieldConstant, handle.FullName),
	)

	if metadataError := executor.ConfigureMirrorMetadata(executionContext, descriptor, handle); metadataError != nil {
		executor.logger.Warn(metadataUpdateFailedMessageConstant,
			zap.String(mirrorLogFieldConstant, handle.FullName),
			zap.Error(metadataError),
		)
	}
	return nil
}

// ConfigureMirrorMetadata aligns the mirror's description, homepage, and
// topics with the upstream repository.
func (executor *Executor) ConfigureMirrorMetadata(executionContext context.Context, descriptor RepositoryDescriptor, handle MirrorHandle) error {
	description := attributionDescription(descriptor)
	homepage := descriptor.HTMLURL
	update := githubcli.RepositoryUpdate{Description: &description, Homepage: &homepage}
	if updateError := executor.hostingClient.UpdateRepository(executionContext, handle.FullName, update); updateError != nil {
		return updateError
	}
	return executor.hostingClient.ReplaceRepositoryTopics(executionContext, handle.FullName, mirrorTopics(descriptor))
}

// ConfigureDualRemotes rewires a local working copy so fetches track the
// upstream repository while pushes land on the mirror. The original remote
// name is removed when present.
func (executor *Executor) ConfigureDualRemotes(executionContext context.Context, repositoryPath string, descriptor RepositoryDescriptor, handle MirrorHandle) error {
	// Removal failures are tolerated so the operation works on fresh clones
	// without an origin remote.
	_ = executor.transport.RemoveRemote(executionContext, repositoryPath, remoteNameOriginConstant)
	_ = executor.transport.RemoveRemote(executionContext, repositoryPath, remoteNameOriginalConstant)
	_ = executor.transport.RemoveRemote(executionContext, repositoryPath, remoteNameMirrorConstant)

	if addOriginalError := executor.transport.AddRemote(executionContext, repositoryPath, remoteNameOriginalConstant, descriptor.CloneURL); addOriginalError != nil {
		return addOriginalError
	}
	return executor.transport.AddRemote(executionContext, repositoryPath, remoteNameMirrorConstant, handle.CloneURL)
}

func (executor *Executor) createScratchDirectory(descriptor RepositoryDescriptor) (string, func(), error) {
	scratchName := MirrorName(descriptor) + scratchDirectorySuffixConstant

	// A configured temp directory is persistent: the scratch clone is left in
	// place after the transfer so later runs can reuse it. Only a stale clone
	// from a previous run is cleared before cloning.
	if len(executor.tempDirectory) > 0 {
		if directoryError := os.MkdirAll(executor.tempDirectory, scratchDirectoryPermissionsConstant); directoryError != nil {
			return "", nil, directoryError
		}
		scratchPath := filepath.Join(executor.tempDirectory, scratchName)
		if removalError := os.RemoveAll(scratchPath); removalError != nil {
			return "", nil, removalError
		}
		return scratchPath, func() {}, nil
	}

	temporaryRoot, temporaryError := os.MkdirTemp("", scratchDirectoryPatternConstant)
	if temporaryError != nil {
		return "", nil, temporaryError
	}
	return filepath.Join(temporaryRoot, scratchName), func() { _ = os.RemoveAll(temporaryRoot) }, nil
}

func handleFromRepository(repository githubcli.Repository) MirrorHandle {
	return MirrorHandle{
		FullName: repository.FullName,
		HTMLURL:  repository.HTMLURL,
		CloneURL: repository.CloneURL,
		Homepage: repository.HomepageURL,
	}
}

func attributionDescription(descriptor RepositoryDescriptor) string {
	if len(descriptor.Description) == 0 {
		return fmt.Sprintf(mirrorDescriptionTemplateConstant, descriptor.FullName)
	}
	return fmt.Sprintf(mirrorDescriptionWithTextTemplate, descriptor.FullName, descriptor.Description)
}

func mirrorTopics(descriptor RepositoryDescriptor) []string {
	topics := make([]string, 0, 1+len(descriptor.Topics))
	topics = append(topics, mirrorTopicConstant)
	for _, upstreamTopic := range descriptor.Topics {
		if upstreamTopic == mirrorTopicConstant {
			continue
		}
		topics = append(topics, upstreamTopic)
	}
	return topics
}
