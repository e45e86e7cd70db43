package mirror

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitmirror/internal/gitrepo"
	"github.com/temirov/gitmirror/internal/utils"
)

const (
	syncCommandUseConstant               = "sync [--all] [<owner/repo> ...]"
	syncCommandShortDescriptionConstant  = "Refresh existing mirrors with the latest upstream refs"
	syncCommandLongDescriptionConstant   = "sync re-transfers refs from each upstream repository into its existing mirror. Repositories without a mirror are skipped; the daily quota is not consumed. With --all every attributed mirror in the organization is refreshed."
	allFlagNameConstant                  = "all"
	allFlagUsageConstant                 = "Sync every attributed mirror in the organization."
	syncedLineTemplateConstant           = "SYNCED: %s -> %s\n"
	syncSkipLineTemplateConstant         = "SYNC-SKIP: %s has no mirror\n"
	syncUnattributedLineTemplateConstant = "SYNC-SKIP: %s is not an attributed mirror\n"
	syncSummaryTemplateConstant          = "SYNC-SUMMARY: synced %d skipped %d failed %d\n"
	syncFailureTemplateConstant          = "sync failed for %d of %d repositories"
	syncArgumentsRequiredMessageConstant = "requires at least one <owner/repo> argument or --all"
	syncAllWithArgumentsMessageConstant  = "--all cannot be combined with repository arguments"
	mirrorListErrorTemplateConstant      = "listing organization mirrors failed: %w"
)

// SyncCommandBuilder assembles the sync command.
type SyncCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	DependenciesProvider         DependenciesProvider
	HumanReadableLoggingProvider func() bool
}

// Build constructs the sync command.
func (builder *SyncCommandBuilder) Build() (*cobra.Command, error) {
	syncCommand := &cobra.Command{
		Use:           syncCommandUseConstant,
		Short:         syncCommandShortDescriptionConstant,
		Long:          syncCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE:          builder.runSync,
	}
	syncCommand.Flags().Bool(allFlagNameConstant, false, allFlagUsageConstant)
	return syncCommand, nil
}

func (builder *SyncCommandBuilder) runSync(command *cobra.Command, arguments []string) error {
	allSelected, flagError := command.Flags().GetBool(allFlagNameConstant)
	if flagError != nil {
		return flagError
	}
	if allSelected && len(arguments) > 0 {
		return errors.New(syncAllWithArgumentsMessageConstant)
	}
	if !allSelected && len(arguments) == 0 {
		return errors.New(syncArgumentsRequiredMessageConstant)
	}

	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)
	dependencies, dependenciesError := resolveCommandDependencies(builder.DependenciesProvider, logger, configuration, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if dependenciesError != nil {
		return dependenciesError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	syncedCount := 0
	skippedCount := 0
	failedCount := 0

	repositoryReferences := arguments
	if allSelected {
		attributedReferences, unattributedCount, enumerationError := builder.enumerateAttributedMirrors(command, dependencies, configuration.Organization)
		if enumerationError != nil {
			return enumerationError
		}
		repositoryReferences = attributedReferences
		skippedCount += unattributedCount
	}

	for _, repositoryReference := range repositoryReferences {
		upstreamRepository, resolutionError := dependencies.Resolver.ResolveRepository(command.Context(), repositoryReference)
		if resolutionError != nil {
			fmt.Fprintf(outputWriter, failedLineTemplateConstant, repositoryReference, resolutionError)
			failedCount++
			continue
		}
		descriptor := DescriptorFromHosting(upstreamRepository)

		mirrorHandle, mirrorExists, lookupError := dependencies.Executor.LookupMirror(command.Context(), descriptor)
		if lookupError != nil {
			fmt.Fprintf(outputWriter, failedLineTemplateConstant, descriptor.FullName, lookupError)
			failedCount++
			continue
		}
		if !mirrorExists {
			fmt.Fprintf(outputWriter, syncSkipLineTemplateConstant, descriptor.FullName)
			skippedCount++
			continue
		}

		if transferError := dependencies.Executor.Transfer(command.Context(), descriptor, mirrorHandle); transferError != nil {
			fmt.Fprintf(outputWriter, failedLineTemplateConstant, descriptor.FullName, transferError)
			failedCount++
			continue
		}
		fmt.Fprintf(outputWriter, syncedLineTemplateConstant, descriptor.FullName, mirrorHandle.HTMLURL)
		syncedCount++
	}

	fmt.Fprintf(outputWriter, syncSummaryTemplateConstant, syncedCount, skippedCount, failedCount)
	if failedCount > 0 {
		return fmt.Errorf(syncFailureTemplateConstant, failedCount, len(repositoryReferences))
	}
	return nil
}

// enumerateAttributedMirrors lists the organization's repositories and derives
// upstream references from each mirror's homepage attribution. Mirrors with a
// missing or unparseable homepage are reported as skipped.
func (builder *SyncCommandBuilder) enumerateAttributedMirrors(command *cobra.Command, dependencies *CommandDependencies, organization string) ([]string, int, error) {
	mirrorRepositories, listError := dependencies.Lister.ListOrganizationRepositories(command.Context(), organization)
	if listError != nil {
		return nil, 0, fmt.Errorf(mirrorListErrorTemplateConstant, listError)
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	attributedReferences := make([]string, 0, len(mirrorRepositories))
	unattributedCount := 0
	for _, mirrorRepository := range mirrorRepositories {
		parsedHomepage, parseError := gitrepo.ParseRemoteURL(mirrorRepository.HomepageURL)
		if parseError != nil {
			fmt.Fprintf(outputWriter, syncUnattributedLineTemplateConstant, mirrorRepository.FullName)
			unattributedCount++
			continue
		}
		attributedReferences = append(attributedReferences, fmt.Sprintf(fullNameTemplateConstant, parsedHomepage.Owner, parsedHomepage.Repository))
	}
	return attributedReferences, unattributedCount, nil
}
