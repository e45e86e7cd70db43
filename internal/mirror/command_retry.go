package mirror

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitmirror/internal/quota"
	"github.com/temirov/gitmirror/internal/retryqueue"
	"github.com/temirov/gitmirror/internal/utils"
)

const (
	retryCommandUseConstant                = "retry"
	retryCommandShortDescriptionConstant   = "Inspect and drain the mirror retry queue"
	retryCommandLongDescriptionConstant    = "retry lists queued repositories, replays them against today's quota, reports queue status, and clears the queue."
	retryListUseConstant                   = "list"
	retryListShortDescriptionConstant      = "List queued repositories in retry order"
	retryProcessUseConstant                = "process"
	retryProcessShortDescriptionConstant   = "Mirror queued repositories within the remaining quota"
	retryClearUseConstant                  = "clear"
	retryClearShortDescriptionConstant     = "Remove every queued repository"
	retryStatusUseConstant                 = "status"
	retryStatusShortDescriptionConstant    = "Report queue length and remaining quota"
	assumeYesFlagNameConstant              = "yes"
	assumeYesFlagDescriptionConstant       = "clear the queue without prompting"
	queueEmptyMessageConstant              = "RETRY-QUEUE: empty\n"
	queueEntryTemplateConstant             = "%d. %s (reason: %s, retries: %d)\n"
	retryProcessReportTemplateConstant     = "RETRY-PROCESS: attempted %d mirrored %d blocked %d failed %d remaining %d\n"
	queueAlreadyEmptyMessageConstant       = "RETRY-CLEAR: queue already empty\n"
	clearConfirmationPromptTemplate        = "Remove %d queued repositories? [y/N]: "
	clearAbortedMessageConstant            = "RETRY-CLEAR: aborted\n"
	clearCompletedMessageTemplateConstant  = "RETRY-CLEAR: %d items removed\n"
	retryStatusReportTemplateConstant      = "RETRY-STATUS: %d queued, quota remaining %d of %d\n"
)

// QueueProvider supplies the retry queue store; overridden in tests.
type QueueProvider func(configuration CommandConfiguration) *retryqueue.Store

// TrackerProvider supplies the quota tracker; overridden in tests.
type TrackerProvider func(configuration CommandConfiguration) *quota.Tracker

// PrompterProvider supplies the confirmation prompter for destructive subcommands.
type PrompterProvider func(command *cobra.Command) utils.ConfirmationPrompter

// RetryCommandBuilder assembles the retry command tree. Only the process
// subcommand reaches the hosting API; list, clear, and status operate on
// local state alone.
type RetryCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	DependenciesProvider         DependenciesProvider
	QueueProvider                QueueProvider
	TrackerProvider              TrackerProvider
	PrompterProvider             PrompterProvider
	HumanReadableLoggingProvider func() bool
}

// Build constructs the retry command with its subcommands.
func (builder *RetryCommandBuilder) Build() (*cobra.Command, error) {
	retryCommand := &cobra.Command{
		Use:           retryCommandUseConstant,
		Short:         retryCommandShortDescriptionConstant,
		Long:          retryCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	listCommand := &cobra.Command{
		Use:           retryListUseConstant,
		Short:         retryListShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runList,
	}

	processCommand := &cobra.Command{
		Use:           retryProcessUseConstant,
		Short:         retryProcessShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runProcess,
	}
	processCommand.Flags().Int(limitFlagNameConstant, 0, limitFlagDescriptionConstant)

	clearCommand := &cobra.Command{
		Use:           retryClearUseConstant,
		Short:         retryClearShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runClear,
	}
	clearCommand.Flags().Bool(assumeYesFlagNameConstant, false, assumeYesFlagDescriptionConstant)

	statusCommand := &cobra.Command{
		Use:           retryStatusUseConstant,
		Short:         retryStatusShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runStatus,
	}

	retryCommand.AddCommand(listCommand, processCommand, clearCommand, statusCommand)
	return retryCommand, nil
}

func (builder *RetryCommandBuilder) runList(command *cobra.Command, arguments []string) error {
	queueStore := builder.resolveQueue(resolveConfiguration(builder.ConfigurationProvider))

	queuedItems, listError := queueStore.List()
	if listError != nil {
		return listError
	}
	if len(queuedItems) == 0 {
		fmt.Fprint(command.OutOrStdout(), queueEmptyMessageConstant)
		return nil
	}
	for itemIndex, queuedItem := range queuedItems {
		fmt.Fprintf(command.OutOrStdout(), queueEntryTemplateConstant,
			itemIndex+1, queuedItem.Repository.FullName, queuedItem.Reason, queuedItem.RetryCount)
	}
	return nil
}

func (builder *RetryCommandBuilder) runProcess(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)
	dependencies, dependenciesError := resolveCommandDependencies(builder.DependenciesProvider, logger, configuration, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if dependenciesError != nil {
		return dependenciesError
	}

	processLimit, limitError := command.Flags().GetInt(limitFlagNameConstant)
	if limitError != nil {
		return limitError
	}

	report, processError := dependencies.Orchestrator.ProcessQueue(command.Context(), processLimit)
	if processError != nil {
		return processError
	}
	fmt.Fprintf(command.OutOrStdout(), retryProcessReportTemplateConstant,
		report.Attempted, report.Mirrored, report.Blocked, report.Failed, report.Remaining)
	return nil
}

func (builder *RetryCommandBuilder) runClear(command *cobra.Command, arguments []string) error {
	queueStore := builder.resolveQueue(resolveConfiguration(builder.ConfigurationProvider))

	queuedItems, listError := queueStore.List()
	if listError != nil {
		return listError
	}
	if len(queuedItems) == 0 {
		fmt.Fprint(command.OutOrStdout(), queueAlreadyEmptyMessageConstant)
		return nil
	}

	assumeYes, flagError := command.Flags().GetBool(assumeYesFlagNameConstant)
	if flagError != nil {
		return flagError
	}
	if !assumeYes {
		confirmed, confirmError := builder.resolvePrompter(command).Confirm(fmt.Sprintf(clearConfirmationPromptTemplate, len(queuedItems)))
		if confirmError != nil {
			return confirmError
		}
		if !confirmed {
			fmt.Fprint(command.OutOrStdout(), clearAbortedMessageConstant)
			return nil
		}
	}

	if clearError := queueStore.Clear(); clearError != nil {
		return clearError
	}
	fmt.Fprintf(command.OutOrStdout(), clearCompletedMessageTemplateConstant, len(queuedItems))
	return nil
}

func (builder *RetryCommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	queueStore := builder.resolveQueue(configuration)
	quotaTracker := builder.resolveTracker(configuration)

	queuedItems, listError := queueStore.List()
	if listError != nil {
		return listError
	}
	remainingQuota, remainingError := quotaTracker.Remaining()
	if remainingError != nil {
		return remainingError
	}
	fmt.Fprintf(command.OutOrStdout(), retryStatusReportTemplateConstant,
		len(queuedItems), remainingQuota, quotaTracker.Limit())
	return nil
}

func (builder *RetryCommandBuilder) resolveQueue(configuration CommandConfiguration) *retryqueue.Store {
	if builder.QueueProvider != nil {
		return builder.QueueProvider(configuration)
	}
	return retryqueue.NewStore(configuration.QueueStatePath(), nil)
}

func (builder *RetryCommandBuilder) resolveTracker(configuration CommandConfiguration) *quota.Tracker {
	if builder.TrackerProvider != nil {
		return builder.TrackerProvider(configuration)
	}
	return quota.NewTracker(configuration.QuotaStatePath(), configuration.DailyLimit, nil)
}

func (builder *RetryCommandBuilder) resolvePrompter(command *cobra.Command) utils.ConfirmationPrompter {
	if builder.PrompterProvider != nil {
		return builder.PrompterProvider(command)
	}
	return utils.NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}
