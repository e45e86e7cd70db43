package mirror

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/gitmirror/internal/blocklist"
	"github.com/temirov/gitmirror/internal/execshell"
	"github.com/temirov/gitmirror/internal/githubauth"
	"github.com/temirov/gitmirror/internal/githubcli"
	"github.com/temirov/gitmirror/internal/gitrepo"
	"github.com/temirov/gitmirror/internal/quota"
	"github.com/temirov/gitmirror/internal/retryqueue"
	"github.com/temirov/gitmirror/internal/ui"
)

const (
	tokenMissingMessageConstant        = "github token not configured; set GITHUB_MIRROR_TOKEN, GH_TOKEN, or GITHUB_TOKEN"
	blocklistLoadErrorTemplateConstant = "loading blocklist patterns failed: %w"
)

// ErrTokenNotConfigured indicates no GitHub authentication token was found in
// the environment.
var ErrTokenNotConfigured = errors.New(tokenMissingMessageConstant)

// RepositoryResolver resolves upstream repository references through the hosting API.
type RepositoryResolver interface {
	ResolveRepository(executionContext context.Context, repository string) (githubcli.Repository, error)
}

// LifecycleOrchestrator runs mirror lifecycle passes; implemented by Orchestrator.
type LifecycleOrchestrator interface {
	Mirror(executionContext context.Context, descriptor RepositoryDescriptor) Outcome
	ProcessQueue(executionContext context.Context, requestedLimit int) (QueueReport, error)
}

// OrganizationLister enumerates the repositories of the mirror organization.
type OrganizationLister interface {
	ListOrganizationRepositories(executionContext context.Context, organization string) ([]githubcli.Repository, error)
}

// TransferExecutor is the sync command's view of the mirror executor.
type TransferExecutor interface {
	LookupMirror(executionContext context.Context, descriptor RepositoryDescriptor) (MirrorHandle, bool, error)
	Transfer(executionContext context.Context, descriptor RepositoryDescriptor, handle MirrorHandle) error
}

// RemoteConfigurator rewires a local working copy onto the original and mirror remotes.
type RemoteConfigurator interface {
	ConfigureDualRemotes(executionContext context.Context, repositoryPath string, descriptor RepositoryDescriptor, handle MirrorHandle) error
}

// MirrorRemover inspects and deletes repositories in the mirror organization.
type MirrorRemover interface {
	GetRepository(executionContext context.Context, repository string) (githubcli.Repository, error)
	DeleteRepository(executionContext context.Context, repository string) error
}

// CommandDependencies bundles the wired collaborators behind the lifecycle commands.
type CommandDependencies struct {
	Resolver     RepositoryResolver
	Lister       OrganizationLister
	Remover      MirrorRemover
	Orchestrator LifecycleOrchestrator
	Executor     TransferExecutor
	Remotes      RemoteConfigurator
	Queue        *retryqueue.Store
	Quota        *quota.Tracker
}

// DependenciesProvider supplies wired command dependencies; overridden in tests.
type DependenciesProvider func(logger *zap.Logger, configuration CommandConfiguration) (*CommandDependencies, error)

// buildCommandDependencies wires the full lifecycle stack from configuration:
// shell executor, hosting client, git transport, quota tracker, retry queue,
// blocklist matcher, sync executor, and orchestrator. A missing token is a
// fatal configuration error because every lifecycle command reaches the
// hosting API. With human-readable logging the shell executor reports command
// lifecycles through the console event observer instead of structured fields.
func buildCommandDependencies(logger *zap.Logger, configuration CommandConfiguration, humanReadableLogging bool) (*CommandDependencies, error) {
	if len(configuration.Organization) == 0 {
		return nil, ErrOrganizationRequired
	}
	authenticationToken, tokenFound := githubauth.ResolveToken(nil)
	if !tokenFound {
		return nil, ErrTokenNotConfigured
	}

	shellLogger := logger
	if humanReadableLogging {
		shellLogger = zap.NewNop()
	}
	shellExecutor, shellError := execshell.NewShellExecutor(shellLogger, execshell.NewOSCommandRunner())
	if shellError != nil {
		return nil, shellError
	}
	if humanReadableLogging {
		shellExecutor.RegisterCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}
	hostingClient, clientError := githubcli.NewClient(shellExecutor)
	if clientError != nil {
		return nil, clientError
	}
	gitTransport, transportError := gitrepo.NewShellMirrorTransport(shellExecutor)
	if transportError != nil {
		return nil, transportError
	}

	syncExecutor, executorError := NewExecutor(ExecutorDependencies{
		Logger:        logger,
		Organization:  configuration.Organization,
		Transport:     gitTransport,
		HostingClient: hostingClient,
		Token:         authenticationToken,
		CloneTimeout:  configuration.CloneTimeout(),
		TempDirectory: configuration.TempDirectory,
	})
	if executorError != nil {
		return nil, executorError
	}

	patternStore := blocklist.NewStore(configuration.BlocklistFilePath())
	userPatterns, patternLoadError := patternStore.Load()
	if patternLoadError != nil {
		return nil, fmt.Errorf(blocklistLoadErrorTemplateConstant, patternLoadError)
	}
	patternMatcher := blocklist.NewMatcher(configuration.Organization, configuration.Blocklist, userPatterns)

	quotaTracker := quota.NewTracker(configuration.QuotaStatePath(), configuration.DailyLimit, nil)
	retryStore := retryqueue.NewStore(configuration.QueueStatePath(), nil)

	lifecycleOrchestrator, orchestratorError := NewOrchestrator(OrchestratorDependencies{
		Logger:    logger,
		Blocklist: patternMatcher,
		Quota:     quotaTracker,
		Queue:     retryStore,
		Executor:  syncExecutor,
	})
	if orchestratorError != nil {
		return nil, orchestratorError
	}

	return &CommandDependencies{
		Resolver:     hostingClient,
		Lister:       hostingClient,
		Remover:      hostingClient,
		Orchestrator: lifecycleOrchestrator,
		Executor:     syncExecutor,
		Remotes:      syncExecutor,
		Queue:        retryStore,
		Quota:        quotaTracker,
	}, nil
}

func resolveCommandDependencies(provider DependenciesProvider, logger *zap.Logger, configuration CommandConfiguration, humanReadableLogging bool) (*CommandDependencies, error) {
	if provider != nil {
		return provider(logger, configuration)
	}
	return buildCommandDependencies(logger, configuration, humanReadableLogging)
}

func resolveHumanReadableLogging(provider func() bool) bool {
	if provider == nil {
		return false
	}
	return provider()
}
