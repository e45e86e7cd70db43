package mirror

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/gitmirror/internal/retryqueue"
)

const (
	blocklistNotConfiguredMessageConstant = "blocklist matcher not configured"
	quotaNotConfiguredMessageConstant     = "quota tracker not configured"
	queueNotConfiguredMessageConstant     = "retry queue not configured"
	executorNotConfiguredMessageConstant  = "sync executor not configured"
	dailyLimitReasonConstant              = "daily limit reached"
	blockedReasonTemplateConstant         = "blocked by pattern "
	repositoryBlockedMessageConstant      = "repository blocked"
	mirrorAlreadyCurrentMessageConstant   = "mirror already exists"
	quotaExhaustedMessageConstant         = "daily quota exhausted, repository queued"
	queueItemBlockedMessageConstant       = "queued repository now blocked, dropping"
	patternLogFieldConstant               = "pattern"
	reasonLogFieldConstant                = "reason"
)

// Sentinel construction errors for the orchestrator.
var (
	ErrBlocklistNotConfigured = errors.New(blocklistNotConfiguredMessageConstant)
	ErrQuotaNotConfigured     = errors.New(quotaNotConfiguredMessageConstant)
	ErrQueueNotConfigured     = errors.New(queueNotConfiguredMessageConstant)
	ErrExecutorNotConfigured  = errors.New(executorNotConfiguredMessageConstant)
)

// RepositoryBlocklist answers whether a repository URL is excluded from mirroring.
type RepositoryBlocklist interface {
	Reason(candidateURL string) (string, bool)
}

// QuotaTracker enforces the daily mirror creation budget.
type QuotaTracker interface {
	Remaining() (int, error)
	CanProceed() (bool, error)
	Increment() error
}

// RetryQueue persists repositories deferred past the daily quota.
type RetryQueue interface {
	Enqueue(repository retryqueue.Repository, reason string) (bool, error)
	Dequeue(cloneURL string) (bool, error)
	Contains(cloneURL string) (bool, error)
	List() ([]retryqueue.Item, error)
	Update(cloneURL string, mutator func(item *retryqueue.Item)) error
}

// SyncExecutor performs mirror creation and ref transfer.
type SyncExecutor interface {
	EnsureMirrorRepository(executionContext context.Context, descriptor RepositoryDescriptor) (MirrorHandle, error)
	LookupMirror(executionContext context.Context, descriptor RepositoryDescriptor) (MirrorHandle, bool, error)
	Transfer(executionContext context.Context, descriptor RepositoryDescriptor, handle MirrorHandle) error
}

// OrchestratorDependencies carries the collaborators required to construct an Orchestrator.
type OrchestratorDependencies struct {
	Logger    *zap.Logger
	Blocklist RepositoryBlocklist
	Quota     QuotaTracker
	Queue     RetryQueue
	Executor  SyncExecutor
}

// Orchestrator sequences blocklist, quota, queue, and transfer decisions for
// each repository passing through the mirror lifecycle.
type Orchestrator struct {
	logger    *zap.Logger
	blocklist RepositoryBlocklist
	quota     QuotaTracker
	queue     RetryQueue
	executor  SyncExecutor
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(dependencies OrchestratorDependencies) (*Orchestrator, error) {
	if dependencies.Blocklist == nil {
		return nil, ErrBlocklistNotConfigured
	}
	if dependencies.Quota == nil {
		return nil, ErrQuotaNotConfigured
	}
	if dependencies.Queue == nil {
		return nil, ErrQueueNotConfigured
	}
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		logger:    logger,
		blocklist: dependencies.Blocklist,
		quota:     dependencies.Quota,
		queue:     dependencies.Queue,
		executor:  dependencies.Executor,
	}, nil
}

// Mirror runs one lifecycle pass over the descriptor: blocklist check,
// existing-mirror short circuit, quota gate, then creation and transfer. A
// blocked repository produces no queue or quota side effects; a quota miss
// enqueues the repository for a later day; a transfer failure is reported
// without automatic re-enqueueing.
func (orchestrator *Orchestrator) Mirror(executionContext context.Context, descriptor RepositoryDescriptor) Outcome {
	if matchedPattern, blocked := orchestrator.blocklist.Reason(descriptor.HTMLURL); blocked {
		orchestrator.logger.Info(repositoryBlockedMessageConstant,
			zap.String(repositoryLogFieldConstant, descriptor.FullName),
			zap.String(patternLogFieldConstant, matchedPattern),
		)
		return Outcome{
			Status:         OutcomeStatusBlocked,
			Reason:         blockedReasonTemplateConstant + matchedPattern,
			RemainingQuota: orchestrator.remainingQuota(),
		}
	}

	existingHandle, mirrorExists, lookupError := orchestrator.executor.LookupMirror(executionContext, descriptor)
	if lookupError != nil {
		return Outcome{Status: OutcomeStatusFailed, Err: lookupError, RemainingQuota: orchestrator.remainingQuota()}
	}
	if mirrorExists {
		orchestrator.logger.Info(mirrorAlreadyCurrentMessageConstant,
			zap.String(repositoryLogFieldConstant, descriptor.FullName),
			zap.String(mirrorLogFieldConstant, existingHandle.FullName),
		)
		queuedEarlier, containsError := orchestrator.queue.Contains(descriptor.CloneURL)
		if containsError != nil {
			return Outcome{Status: OutcomeStatusFailed, Err: containsError, RemainingQuota: orchestrator.remainingQuota()}
		}
		if queuedEarlier {
			if _, dequeueError := orchestrator.queue.Dequeue(descriptor.CloneURL); dequeueError != nil {
				return Outcome{Status: OutcomeStatusFailed, Err: dequeueError, RemainingQuota: orchestrator.remainingQuota()}
			}
		}
		return Outcome{
			Status:         OutcomeStatusSuccess,
			MirrorURL:      existingHandle.HTMLURL,
			RemainingQuota: orchestrator.remainingQuota(),
		}
	}

	canProceed, quotaError := orchestrator.quota.CanProceed()
	if quotaError != nil {
		return Outcome{Status: OutcomeStatusFailed, Err: quotaError}
	}
	if !canProceed {
		if _, enqueueError := orchestrator.queue.Enqueue(descriptor.QueueRepository(), dailyLimitReasonConstant); enqueueError != nil {
			return Outcome{Status: OutcomeStatusFailed, Err: enqueueError}
		}
		orchestrator.logger.Info(quotaExhaustedMessageConstant,
			zap.String(repositoryLogFieldConstant, descriptor.FullName),
		)
		return Outcome{
			Status:         OutcomeStatusRateLimited,
			Reason:         dailyLimitReasonConstant,
			RemainingQuota: 0,
		}
	}

	mirrorHandle, ensureError := orchestrator.executor.EnsureMirrorRepository(executionContext, descriptor)
	if ensureError != nil {
		return Outcome{Status: OutcomeStatusFailed, Err: ensureError, RemainingQuota: orchestrator.remainingQuota()}
	}
	if transferError := orchestrator.executor.Transfer(executionContext, descriptor, mirrorHandle); transferError != nil {
		return Outcome{Status: OutcomeStatusFailed, Err: transferError, RemainingQuota: orchestrator.remainingQuota()}
	}

	if incrementError := orchestrator.quota.Increment(); incrementError != nil {
		return Outcome{Status: OutcomeStatusFailed, Err: incrementError}
	}
	if _, dequeueError := orchestrator.queue.Dequeue(descriptor.CloneURL); dequeueError != nil {
		return Outcome{Status: OutcomeStatusFailed, Err: dequeueError, RemainingQuota: orchestrator.remainingQuota()}
	}

	return Outcome{
		Status:         OutcomeStatusSuccess,
		MirrorURL:      mirrorHandle.HTMLURL,
		RemainingQuota: orchestrator.remainingQuota(),
	}
}

// ProcessQueue drains the retry queue front to back, bounded by the requested
// limit and today's remaining quota. Successful items leave the queue; failed
// items record retry metadata in place and keep their position. A repository
// that became blocked since it was queued is dropped.
func (orchestrator *Orchestrator) ProcessQueue(executionContext context.Context, requestedLimit int) (QueueReport, error) {
	queuedItems, listError := orchestrator.queue.List()
	if listError != nil {
		return QueueReport{}, listError
	}
	remainingQuota, remainingError := orchestrator.quota.Remaining()
	if remainingError != nil {
		return QueueReport{}, remainingError
	}

	processCount := len(queuedItems)
	if requestedLimit > 0 && requestedLimit < processCount {
		processCount = requestedLimit
	}
	if remainingQuota < processCount {
		processCount = remainingQuota
	}

	report := QueueReport{}
	for itemIndex := 0; itemIndex < processCount; itemIndex++ {
		queuedItem := queuedItems[itemIndex]
		descriptor := DescriptorFromQueue(queuedItem.Repository)
		report.Attempted++

		outcome := orchestrator.Mirror(executionContext, descriptor)
		switch outcome.Status {
		case OutcomeStatusSuccess:
			report.Mirrored++
		case OutcomeStatusBlocked:
			orchestrator.logger.Info(queueItemBlockedMessageConstant,
				zap.String(repositoryLogFieldConstant, descriptor.FullName),
				zap.String(reasonLogFieldConstant, outcome.Reason),
			)
			if _, dequeueError := orchestrator.queue.Dequeue(descriptor.CloneURL); dequeueError != nil {
				return report, dequeueError
			}
			report.Blocked++
		case OutcomeStatusRateLimited:
			return orchestrator.finishQueueReport(report)
		default:
			report.Failed++
			failureText := ""
			if outcome.Err != nil {
				failureText = outcome.Err.Error()
			}
			updateError := orchestrator.queue.Update(descriptor.CloneURL, func(item *retryqueue.Item) {
				item.RetryCount++
				item.LastError = failureText
			})
			if updateError != nil && !errors.Is(updateError, retryqueue.ErrItemNotFound) {
				return report, updateError
			}
		}
	}

	return orchestrator.finishQueueReport(report)
}

// MirrorAll runs the lifecycle over each descriptor in order and tallies the outcomes.
func (orchestrator *Orchestrator) MirrorAll(executionContext context.Context, descriptors []RepositoryDescriptor) (BatchReport, []Outcome) {
	report := BatchReport{}
	outcomes := make([]Outcome, 0, len(descriptors))
	for _, descriptor := range descriptors {
		outcome := orchestrator.Mirror(executionContext, descriptor)
		report.Record(outcome)
		outcomes = append(outcomes, outcome)
	}
	return report, outcomes
}

func (orchestrator *Orchestrator) finishQueueReport(report QueueReport) (QueueReport, error) {
	queuedItems, listError := orchestrator.queue.List()
	if listError != nil {
		return report, listError
	}
	report.Remaining = len(queuedItems)
	return report, nil
}

func (orchestrator *Orchestrator) remainingQuota() int {
	remaining, remainingError := orchestrator.quota.Remaining()
	if remainingError != nil {
		return 0
	}
	return remaining
}
