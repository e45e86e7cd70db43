package mirror

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gitmirror/internal/utils"
)

const (
	listCommandUseConstant              = "list"
	listCommandShortDescriptionConstant = "List mirror repositories in the organization"
	listCommandLongDescriptionConstant  = "list enumerates every repository in the mirror organization together with the upstream each one is attributed to."
	mirrorLineTemplateConstant          = "MIRROR: %s mirrors %s\n"
	mirrorUnattributedLineTemplate      = "MIRROR: %s (unattributed)\n"
	mirrorListEmptyMessageConstant      = "MIRROR-LIST: no repositories\n"
	mirrorListSummaryTemplateConstant   = "MIRROR-LIST: %d repositories\n"
)

// ListCommandBuilder assembles the list command.
type ListCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	DependenciesProvider         DependenciesProvider
	HumanReadableLoggingProvider func() bool
}

// Build constructs the list command.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	listCommand := &cobra.Command{
		Use:           listCommandUseConstant,
		Short:         listCommandShortDescriptionConstant,
		Long:          listCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runList,
	}
	return listCommand, nil
}

func (builder *ListCommandBuilder) runList(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)
	dependencies, dependenciesError := resolveCommandDependencies(builder.DependenciesProvider, logger, configuration, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if dependenciesError != nil {
		return dependenciesError
	}

	mirrorRepositories, listError := dependencies.Lister.ListOrganizationRepositories(command.Context(), configuration.Organization)
	if listError != nil {
		return fmt.Errorf(mirrorListErrorTemplateConstant, listError)
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	if len(mirrorRepositories) == 0 {
		fmt.Fprint(outputWriter, mirrorListEmptyMessageConstant)
		return nil
	}

	for _, mirrorRepository := range mirrorRepositories {
		homepage := strings.TrimSpace(mirrorRepository.HomepageURL)
		if len(homepage) == 0 {
			fmt.Fprintf(outputWriter, mirrorUnattributedLineTemplate, mirrorRepository.FullName)
			continue
		}
		fmt.Fprintf(outputWriter, mirrorLineTemplateConstant, mirrorRepository.FullName, homepage)
	}
	fmt.Fprintf(outputWriter, mirrorListSummaryTemplateConstant, len(mirrorRepositories))
	return nil
}
