package mirror

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitmirror/internal/utils"
)

const (
	attachCommandUseConstant              = "attach <owner/repo> [<directory>]"
	attachCommandShortDescriptionConstant = "Point a local clone at its upstream and mirror remotes"
	attachCommandLongDescriptionConstant  = "attach rewires a local working copy so the original remote fetches from the upstream repository and the mirror remote pushes to its mirror. The directory defaults to the current one."
	attachedLineTemplateConstant          = "ATTACHED: %s original=%s mirror=%s\n"
	attachDefaultDirectoryConstant        = "."
)

// AttachCommandBuilder assembles the attach command.
type AttachCommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	DependenciesProvider         DependenciesProvider
	HumanReadableLoggingProvider func() bool
}

// Build constructs the attach command.
func (builder *AttachCommandBuilder) Build() (*cobra.Command, error) {
	attachCommand := &cobra.Command{
		Use:           attachCommandUseConstant,
		Short:         attachCommandShortDescriptionConstant,
		Long:          attachCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.RangeArgs(1, 2),
		RunE:          builder.runAttach,
	}
	return attachCommand, nil
}

func (builder *AttachCommandBuilder) runAttach(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)
	dependencies, dependenciesError := resolveCommandDependencies(builder.DependenciesProvider, logger, configuration, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if dependenciesError != nil {
		return dependenciesError
	}

	upstreamRepository, resolutionError := dependencies.Resolver.ResolveRepository(command.Context(), arguments[0])
	if resolutionError != nil {
		return resolutionError
	}
	descriptor := DescriptorFromHosting(upstreamRepository)

	mirrorHandle, mirrorExists, lookupError := dependencies.Executor.LookupMirror(command.Context(), descriptor)
	if lookupError != nil {
		return lookupError
	}
	if !mirrorExists {
		return fmt.Errorf(noMirrorErrorTemplateConstant, descriptor.FullName)
	}

	repositoryDirectory := attachDefaultDirectoryConstant
	if len(arguments) > 1 {
		repositoryDirectory = arguments[1]
	}

	if configureError := dependencies.Remotes.ConfigureDualRemotes(command.Context(), repositoryDirectory, descriptor, mirrorHandle); configureError != nil {
		return configureError
	}

	fmt.Fprintf(utils.NewFlushingWriter(command.OutOrStdout()), attachedLineTemplateConstant,
		repositoryDirectory, descriptor.CloneURL, mirrorHandle.CloneURL)
	return nil
}
