package blocklist

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	blocklistCommandUseConstant              = "blocklist"
	blocklistCommandShortDescriptionConstant = "Manage repository blocklist patterns"
	blocklistCommandLongDescriptionConstant  = "blocklist lists, adds, removes, and checks the patterns preventing repositories from being mirrored."
	listCommandUseConstant                   = "list"
	listCommandShortDescriptionConstant      = "List blocklist patterns in evaluation order"
	addCommandUseConstant                    = "add <pattern>"
	addCommandShortDescriptionConstant       = "Add a pattern to the persisted blocklist"
	removeCommandUseConstant                 = "remove <pattern>"
	removeCommandShortDescriptionConstant    = "Remove a pattern from the persisted blocklist"
	checkCommandUseConstant                  = "check <url>"
	checkCommandShortDescriptionConstant     = "Check whether a repository URL is blocked"
	patternListEntryTemplateConstant         = "%s\n"
	patternAddedMessageTemplateConstant      = "BLOCKLIST-ADD: %s\n"
	patternPresentMessageTemplateConstant    = "BLOCKLIST-SKIP: %s already present\n"
	patternRemovedMessageTemplateConstant    = "BLOCKLIST-REMOVE: %s\n"
	patternMissingErrorTemplateConstant      = "pattern not found: %s"
	urlBlockedMessageTemplateConstant        = "BLOCKED: %s (pattern: %s)\n"
	urlAllowedMessageTemplateConstant        = "ALLOWED: %s\n"
	storeLoadErrorTemplateConstant           = "loading blocklist patterns failed: %w"
	logMessagePatternAddedConstant           = "Blocklist pattern added"
	logMessagePatternRemovedConstant         = "Blocklist pattern removed"
	logFieldPatternConstant                  = "pattern"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// StoreProvider supplies the persisted pattern store; overridden in tests.
type StoreProvider func(configuration CommandConfiguration) *Store

// CommandBuilder assembles the blocklist command tree.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	StoreProvider         StoreProvider
}

// Build constructs the blocklist command with its subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	blocklistCommand := &cobra.Command{
		Use:           blocklistCommandUseConstant,
		Short:         blocklistCommandShortDescriptionConstant,
		Long:          blocklistCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	listCommand := &cobra.Command{
		Use:           listCommandUseConstant,
		Short:         listCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runList,
	}

	addCommand := &cobra.Command{
		Use:           addCommandUseConstant,
		Short:         addCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runAdd,
	}

	removeCommand := &cobra.Command{
		Use:           removeCommandUseConstant,
		Short:         removeCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runRemove,
	}

	checkCommand := &cobra.Command{
		Use:           checkCommandUseConstant,
		Short:         checkCommandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.runCheck,
	}

	blocklistCommand.AddCommand(listCommand, addCommand, removeCommand, checkCommand)
	return blocklistCommand, nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	matcher, matcherError := builder.buildMatcher(configuration)
	if matcherError != nil {
		return matcherError
	}

	for _, rawPattern := range matcher.Patterns() {
		fmt.Fprintf(command.OutOrStdout(), patternListEntryTemplateConstant, rawPattern)
	}
	return nil
}

func (builder *CommandBuilder) runAdd(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	store := builder.resolveStore(configuration)

	added, addError := store.Add(arguments[0])
	if addError != nil {
		return addError
	}

	if !added {
		fmt.Fprintf(command.OutOrStdout(), patternPresentMessageTemplateConstant, arguments[0])
		return nil
	}

	builder.resolveLogger().Info(logMessagePatternAddedConstant, zap.String(logFieldPatternConstant, arguments[0]))
	fmt.Fprintf(command.OutOrStdout(), patternAddedMessageTemplateConstant, arguments[0])
	return nil
}

func (builder *CommandBuilder) runRemove(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	store := builder.resolveStore(configuration)

	removed, removeError := store.Remove(arguments[0])
	if removeError != nil {
		return removeError
	}
	if !removed {
		return fmt.Errorf(patternMissingErrorTemplateConstant, arguments[0])
	}

	builder.resolveLogger().Info(logMessagePatternRemovedConstant, zap.String(logFieldPatternConstant, arguments[0]))
	fmt.Fprintf(command.OutOrStdout(), patternRemovedMessageTemplateConstant, arguments[0])
	return nil
}

func (builder *CommandBuilder) runCheck(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	matcher, matcherError := builder.buildMatcher(configuration)
	if matcherError != nil {
		return matcherError
	}

	matchedPattern, blocked := matcher.Reason(arguments[0])
	if blocked {
		fmt.Fprintf(command.OutOrStdout(), urlBlockedMessageTemplateConstant, arguments[0], matchedPattern)
		return nil
	}
	fmt.Fprintf(command.OutOrStdout(), urlAllowedMessageTemplateConstant, arguments[0])
	return nil
}

func (builder *CommandBuilder) buildMatcher(configuration CommandConfiguration) (*Matcher, error) {
	store := builder.resolveStore(configuration)
	userPatterns, loadError := store.Load()
	if loadError != nil {
		return nil, fmt.Errorf(storeLoadErrorTemplateConstant, loadError)
	}
	return NewMatcher(configuration.Organization, configuration.Patterns, userPatterns), nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveStore(configuration CommandConfiguration) *Store {
	if builder.StoreProvider != nil {
		return builder.StoreProvider(configuration)
	}
	return NewStore(configuration.BlocklistFilePath())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}
