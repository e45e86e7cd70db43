package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gitmirror/internal/githubcli"
	"github.com/temirov/gitmirror/internal/utils"
)

const (
	deleteCommandUseConstant              = "delete <owner/repo>"
	deleteCommandShortDescriptionConstant = "Delete the mirror of an upstream repository"
	deleteCommandLongDescriptionConstant  = "delete removes the mirror repository created for the given upstream repository. The upstream repository itself is never touched."
	deleteConfirmationPromptTemplate      = "Delete mirror %s? [y/N]: "
	deleteAbortedMessageConstant          = "DELETE: aborted\n"
	deletedLineTemplateConstant           = "DELETED: %s\n"
	noMirrorErrorTemplateConstant         = "no mirror exists for %s"
	invalidReferenceTemplateConstant      = "invalid repository reference %q: expected <owner>/<repo>"
)

// DeleteCommandBuilder assembles the delete command.
type DeleteCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	DependenciesProvider         DependenciesProvider
	PrompterProvider             PrompterProvider
	HumanReadableLoggingProvider func() bool
}

// Build constructs the delete command.
func (builder *DeleteCommandBuilder) Build() (*cobra.Command, error) {
	deleteCommand := &cobra.Command{
		Use:           deleteCommandUseConstant,
		Short:         deleteCommandShortDescriptionConstant,
		Long:          deleteCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runDelete,
	}
	deleteCommand.Flags().Bool(assumeYesFlagNameConstant, false, assumeYesFlagDescriptionConstant)
	return deleteCommand, nil
}

func (builder *DeleteCommandBuilder) runDelete(command *cobra.Command, arguments []string) error {
	repositoryReference := arguments[0]
	upstreamOwner, upstreamName, referenceError := splitRepositoryReference(repositoryReference)
	if referenceError != nil {
		return referenceError
	}

	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)
	dependencies, dependenciesError := resolveCommandDependencies(builder.DependenciesProvider, logger, configuration, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if dependenciesError != nil {
		return dependenciesError
	}

	mirrorName := MirrorName(RepositoryDescriptor{Owner: upstreamOwner, Name: upstreamName})
	mirrorFullName := fmt.Sprintf(fullNameTemplateConstant, configuration.Organization, mirrorName)

	_, lookupError := dependencies.Remover.GetRepository(command.Context(), mirrorFullName)
	if lookupError != nil {
		var notFoundError githubcli.RepositoryNotFoundError
		if errors.As(lookupError, &notFoundError) {
			return fmt.Errorf(noMirrorErrorTemplateConstant, repositoryReference)
		}
		return lookupError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	assumeYes, flagError := command.Flags().GetBool(assumeYesFlagNameConstant)
	if flagError != nil {
		return flagError
	}
	if !assumeYes {
		confirmed, confirmError := builder.resolvePrompter(command).Confirm(fmt.Sprintf(deleteConfirmationPromptTemplate, mirrorFullName))
		if confirmError != nil {
			return confirmError
		}
		if !confirmed {
			fmt.Fprint(outputWriter, deleteAbortedMessageConstant)
			return nil
		}
	}

	if deleteError := dependencies.Remover.DeleteRepository(command.Context(), mirrorFullName); deleteError != nil {
		return deleteError
	}
	fmt.Fprintf(outputWriter, deletedLineTemplateConstant, mirrorFullName)
	return nil
}

func (builder *DeleteCommandBuilder) resolvePrompter(command *cobra.Command) utils.ConfirmationPrompter {
	if builder.PrompterProvider != nil {
		return builder.PrompterProvider(command)
	}
	return utils.NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}

// splitRepositoryReference parses an <owner>/<repo> reference.
func splitRepositoryReference(reference string) (string, string, error) {
	owner, name, separatorFound := strings.Cut(strings.TrimSpace(reference), "/")
	if !separatorFound || len(owner) == 0 || len(name) == 0 || strings.Contains(name, "/") {
		return "", "", fmt.Errorf(invalidReferenceTemplateConstant, reference)
	}
	return owner, name, nil
}
