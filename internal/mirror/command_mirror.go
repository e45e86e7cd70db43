package mirror

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitmirror/internal/utils"
)

const (
	mirrorCommandUseConstant              = "mirror <owner/repo> [<owner/repo> ...]"
	mirrorCommandShortDescriptionConstant = "Mirror upstream repositories into the mirror organization"
	mirrorCommandLongDescriptionConstant  = "mirror resolves each upstream repository, creates its mirror when quota allows, and transfers every ref. Repositories past the daily quota land on the retry queue."
	limitFlagNameConstant                 = "limit"
	limitFlagDescriptionConstant          = "maximum number of repositories to process (0 means no cap)"
	mirroredLineTemplateConstant          = "MIRRORED: %s -> %s\n"
	blockedLineTemplateConstant           = "BLOCKED: %s (%s)\n"
	queuedLineTemplateConstant            = "QUEUED: %s (%s)\n"
	failedLineTemplateConstant            = "FAILED: %s (%s)\n"
	mirrorSummaryTemplateConstant         = "SUMMARY: mirrored %d blocked %d queued %d failed %d quota-remaining %d\n"
	mirrorFailureTemplateConstant         = "mirroring failed for %d of %d repositories"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// MirrorCommandBuilder assembles the mirror command.
type MirrorCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	DependenciesProvider         DependenciesProvider
	HumanReadableLoggingProvider func() bool
}

// Build constructs the mirror command.
func (builder *MirrorCommandBuilder) Build() (*cobra.Command, error) {
	mirrorCommand := &cobra.Command{
		Use:           mirrorCommandUseConstant,
		Short:         mirrorCommandShortDescriptionConstant,
		Long:          mirrorCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          builder.runMirror,
	}
	mirrorCommand.Flags().Int(limitFlagNameConstant, 0, limitFlagDescriptionConstant)
	return mirrorCommand, nil
}

func (builder *MirrorCommandBuilder) runMirror(command *cobra.Command, arguments []string) error {
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

	selectedReferences := arguments
	if processLimit > 0 && processLimit < len(selectedReferences) {
		selectedReferences = selectedReferences[:processLimit]
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	report := BatchReport{}
	for _, repositoryReference := range selectedReferences {
		upstreamRepository, resolutionError := dependencies.Resolver.ResolveRepository(command.Context(), repositoryReference)
		if resolutionError != nil {
			fmt.Fprintf(outputWriter, failedLineTemplateConstant, repositoryReference, resolutionError)
			report.Failed++
			continue
		}

		descriptor := DescriptorFromHosting(upstreamRepository)
		outcome := dependencies.Orchestrator.Mirror(command.Context(), descriptor)
		report.Record(outcome)
		switch outcome.Status {
		case OutcomeStatusSuccess:
			fmt.Fprintf(outputWriter, mirroredLineTemplateConstant, descriptor.FullName, outcome.MirrorURL)
		case OutcomeStatusBlocked:
			fmt.Fprintf(outputWriter, blockedLineTemplateConstant, descriptor.FullName, outcome.Reason)
		case OutcomeStatusRateLimited:
			fmt.Fprintf(outputWriter, queuedLineTemplateConstant, descriptor.FullName, outcome.Reason)
		default:
			fmt.Fprintf(outputWriter, failedLineTemplateConstant, descriptor.FullName, outcome.Err)
		}
	}

	remainingQuota, remainingError := dependencies.Quota.Remaining()
	if remainingError != nil {
		return remainingError
	}
	fmt.Fprintf(outputWriter, mirrorSummaryTemplateConstant,
		report.Mirrored, report.Blocked, report.RateLimited, report.Failed, remainingQuota)

	if report.Failed > 0 {
		return fmt.Errorf(mirrorFailureTemplateConstant, report.Failed, len(selectedReferences))
	}
	return nil
}

func resolveConfiguration(provider func() CommandConfiguration) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return provider().Sanitize()
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider != nil {
		if logger := provider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}
